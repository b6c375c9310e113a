package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/xplore/pkg/xplore"
	"github.com/cognicore/xplore/pkg/xplore/config"
	"github.com/cognicore/xplore/pkg/xplore/drift"
	"github.com/cognicore/xplore/pkg/xplore/enrich"
	"github.com/cognicore/xplore/pkg/xplore/export"
	"github.com/cognicore/xplore/pkg/xplore/metrics"
	"github.com/cognicore/xplore/pkg/xplore/pipeline"
	"github.com/cognicore/xplore/pkg/xplore/relation"
	"github.com/cognicore/xplore/pkg/xplore/store"
	"github.com/cognicore/xplore/pkg/xplore/store/sqlite"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// env bundles what every command needs after flag parsing.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (g *globalFlags) setup() (*env, error) {
	logger, err := g.newLogger()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	loader := &config.Loader{ConfigPath: g.configPath, Getenv: os.Getenv}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if g.root != "" {
		cfg.Taxonomy.Root = g.root
	}
	if g.dbPath != "" {
		cfg.Store.Path = g.dbPath
	}
	return &env{cfg: cfg, logger: logger}, nil
}

func (g *globalFlags) newLogger() (*slog.Logger, error) {
	return newLogger(g.logLevel, g.logFormat)
}

// openStore opens the configured database; nil when none is configured.
func (e *env) openStore(ctx context.Context) (store.Store, error) {
	if e.cfg.Store.Path == "" {
		return nil, nil
	}
	st, err := sqlite.OpenSQLite(ctx, e.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", e.cfg.Store.Path, err)
	}
	return st, nil
}

func (e *env) requireStore(ctx context.Context) (store.Store, error) {
	if e.cfg.Store.Path == "" {
		return nil, fmt.Errorf("no database configured: pass --db or set %s", config.EnvDB)
	}
	return e.openStore(ctx)
}

// output opens path for writing, or stdout when path is empty or "-".
func output(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func writeOut(path string, write func(io.Writer) error) (err error) {
	w, err := output(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	return write(w)
}

func buildCmd(g *globalFlags) *cobra.Command {
	var (
		outPath     string
		format      string
		parent      string
		child       string
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the pipeline and export the relation table",
		Long: `Run every stage once and write the relation table.

When a database is configured the run is stored and can be inspected
later with "xplore runs" and "xplore rows".

Example:
  xplore build --root ./taxonomy/jppfs/2024-11-01 --out relations.csv
  xplore build --db xplore.db --parent "Current assets" --format jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			e, err := g.setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			st, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			var rec *metrics.Recorder
			if metricsFile != "" {
				rec = metrics.NewRecorder()
			}

			x, err := xplore.New(xplore.Options{
				Pipeline:  e.cfg.PipelineOptions(e.logger),
				Store:     st,
				Metrics:   rec,
				CacheSize: e.cfg.Store.CacheSize,
			})
			if err != nil {
				return err
			}
			defer x.Close()

			res, err := x.Build(ctx)
			if err != nil {
				return err
			}

			rows := enrich.Filter{Parent: parent, Child: child}.Apply(res.Rows)
			if err := writeOut(outPath, func(w io.Writer) error {
				return export.Write(w, f, rows)
			}); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}

			if rec != nil {
				if err := rec.WriteTextfile(metricsFile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}

			e.logger.Info("build finished", buildSummary(res, rows)...)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "Output file (- for stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", string(export.CSV), "Output format (csv, json, jsonl)")
	cmd.Flags().StringVar(&parent, "parent", enrich.All, "Only rows whose parent english label is this")
	cmd.Flags().StringVar(&child, "child", enrich.All, "Only rows whose child english label is this")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	return cmd
}

// buildSummary returns the log attributes describing a finished build.
func buildSummary(res *pipeline.Result, rows []xbrl.Row) []any {
	return []any{
		"run", res.RunID,
		"concepts", res.Stats.Concepts,
		"edges", res.Stats.Hierarchy.Edges,
		"roots", res.Hierarchy.Roots(),
		"rows", len(rows),
		"duration", res.Duration.Round(time.Millisecond),
	}
}

func conceptsCmd(g *globalFlags) *cobra.Command {
	var (
		runID   string
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "concepts [id...]",
		Short: "Dump the concept catalog",
		Long: `Dump the concept catalog.

Without --run the catalog is built from the taxonomy. With --run (or
--run latest) it is read from the database. Passing ids restricts the
output to those concepts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			e, err := g.setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var concepts []xbrl.Concept
			if runID == "" {
				concepts, err = buildCatalog(ctx, e, args)
			} else {
				concepts, err = storedConcepts(ctx, e, runID, args)
			}
			if err != nil {
				return err
			}
			return writeOut(outPath, func(w io.Writer) error {
				return export.WriteConcepts(w, f, concepts)
			})
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Read from a stored run (id or \"latest\")")
	cmd.Flags().StringVarP(&format, "format", "f", string(export.CSV), "Output format (csv, json, jsonl)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "Output file (- for stdout)")
	return cmd
}

func buildCatalog(ctx context.Context, e *env, ids []string) ([]xbrl.Concept, error) {
	res, err := pipeline.New(e.cfg.PipelineOptions(e.logger)).Run(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return res.Catalog.Concepts(), nil
	}
	var out []xbrl.Concept
	for _, id := range ids {
		if c, ok := res.Catalog.Lookup(id); ok {
			out = append(out, c)
		} else {
			e.logger.Warn("concept not found", "id", id)
		}
	}
	return out, nil
}

func storedConcepts(ctx context.Context, e *env, runID string, ids []string) ([]xbrl.Concept, error) {
	st, err := e.requireStore(ctx)
	if err != nil {
		return nil, err
	}
	x, err := xplore.New(xplore.Options{Store: st, CacheSize: e.cfg.Store.CacheSize})
	if err != nil {
		st.Close()
		return nil, err
	}
	defer x.Close()

	runID, err = resolveRun(ctx, st, runID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return st.Concepts(ctx, runID)
	}

	var out []xbrl.Concept
	for _, id := range ids {
		c, ok, err := x.Concept(ctx, runID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			e.logger.Warn("concept not found", "run", runID, "id", id)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// resolveRun maps "latest" to the most recent stored run.
func resolveRun(ctx context.Context, st store.Store, runID string) (string, error) {
	if runID != "latest" {
		return runID, nil
	}
	info, ok, err := st.LatestRun(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no stored runs")
	}
	return info.ID, nil
}

func runsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := e.requireStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTARTED\tCONCEPTS\tROWS\tSCHEMA")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
					r.ID, r.StartedAt.Format(time.RFC3339), r.Concepts, r.Rows, r.Schema)
			}
			return tw.Flush()
		},
	}
}

func rowsCmd(g *globalFlags) *cobra.Command {
	var (
		runID    string
		format   string
		outPath  string
		parent   string
		child    string
		parentID string
		childID  string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Print the relation table of a stored run",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			e, err := g.setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := e.requireStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			id, err := resolveRun(ctx, st, runID)
			if err != nil {
				return err
			}
			filter := enrich.Filter{Parent: parent, Child: child}
			q := store.RowQuery{Parent: parentID, Child: childID}
			if filter == (enrich.Filter{Parent: enrich.All, Child: enrich.All}) {
				q.Limit = limit
			}
			rows, err := st.Rows(ctx, id, q)
			if err != nil {
				return err
			}
			rows = filter.Apply(rows)
			if limit > 0 && len(rows) > limit {
				rows = rows[:limit]
			}
			return writeOut(outPath, func(w io.Writer) error {
				return export.Write(w, f, rows)
			})
		},
	}

	cmd.Flags().StringVar(&runID, "run", "latest", "Run id (or \"latest\")")
	cmd.Flags().StringVarP(&format, "format", "f", string(export.CSV), "Output format (csv, json, jsonl)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "Output file (- for stdout)")
	cmd.Flags().StringVar(&parent, "parent", enrich.All, "Only rows whose parent english label is this")
	cmd.Flags().StringVar(&child, "child", enrich.All, "Only rows whose child english label is this")
	cmd.Flags().StringVar(&parentID, "parent-id", "", "Only rows with this parent concept id")
	cmd.Flags().StringVar(&childID, "child-id", "", "Only rows with this child concept id")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows (0 = all)")
	return cmd
}

func classifyCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [dir]",
		Short: "List relationship files by kind",
		Long: `Walk a relationship folder and print each recognised file with its
kind. Without an argument the configured relationship folder is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			dir := e.cfg.Taxonomy.RelationPath()
			if len(args) == 1 {
				dir = args[0]
			}

			files := relation.NewClassifier(e.cfg.Markers, e.logger).Walk(dir)
			out := cmd.OutOrStdout()
			for _, k := range relation.Kinds {
				for _, p := range files.Of(k) {
					fmt.Fprintf(out, "%s\t%s\n", k, p)
				}
			}
			e.logger.Info("classified", "dir", dir, "files", files.Len())
			return nil
		},
	}
}

func pruneCmd(g *globalFlags) *cobra.Command {
	var (
		keep   int
		maxAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stored runs outside the retention policy",
		Long: `Delete stored runs. A run survives when it is one of the --keep newest
runs or when it started less than --max-age ago.

Example:
  xplore prune --db xplore.db --keep 5
  xplore prune --db xplore.db --max-age 720h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := e.requireStore(ctx)
			if err != nil {
				return err
			}
			x, err := xplore.New(xplore.Options{Store: st, CacheSize: e.cfg.Store.CacheSize})
			if err != nil {
				st.Close()
				return err
			}
			defer x.Close()

			res, err := x.Prune(ctx, keep, maxAge)
			if err != nil {
				return err
			}
			for _, id := range res.Deleted {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			e.logger.Info("prune finished",
				"examined", res.Examined,
				"deleted", len(res.Deleted),
				"errors", res.Errors)
			if res.Errors > 0 {
				return fmt.Errorf("prune: %d runs could not be deleted", res.Errors)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 10, "Number of newest runs to keep")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Also keep runs younger than this")
	return cmd
}

func diffCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "diff <old-run> <new-run>",
		Short: "Compare two stored runs",
		Long: `Compare the catalogs and relation tables of two stored runs, for
example two releases of the same taxonomy. Either run may be "latest".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := e.requireStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var (
				concepts [2][]xbrl.Concept
				rows     [2][]xbrl.Row
			)
			for i, arg := range args {
				id, err := resolveRun(ctx, st, arg)
				if err != nil {
					return err
				}
				if concepts[i], err = st.Concepts(ctx, id); err != nil {
					return err
				}
				if rows[i], err = st.Rows(ctx, id, store.RowQuery{}); err != nil {
					return err
				}
			}

			report := drift.Compare(concepts[0], concepts[1], rows[0], rows[1])
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(out, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func printReport(w io.Writer, r drift.Report) {
	if r.Empty() {
		fmt.Fprintln(w, "no differences")
		return
	}
	for _, id := range r.AddedConcepts {
		fmt.Fprintf(w, "+ concept %s\n", id)
	}
	for _, id := range r.RemovedConcepts {
		fmt.Fprintf(w, "- concept %s\n", id)
	}
	for _, e := range r.AddedEdges {
		fmt.Fprintf(w, "+ edge %s -> %s\n", e.Parent, e.Child)
	}
	for _, e := range r.RemovedEdges {
		fmt.Fprintf(w, "- edge %s -> %s\n", e.Parent, e.Child)
	}
	for _, c := range r.Relabelled {
		fmt.Fprintf(w, "~ label %s [%s] %q -> %q\n", c.ID, c.Lang, c.Before, c.After)
	}
}
