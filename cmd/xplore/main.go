package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Flags shared by every subcommand
type globalFlags struct {
	configPath string
	root       string
	dbPath     string
	logLevel   string
	logFormat  string
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "xplore",
		Short: "Extract parent → child concept tables from XBRL taxonomies",
		Long: `xplore reads an XBRL taxonomy (a schema, its label linkbases and
its presentation linkbases) and produces a relation table: one row per
parent → child edge, enriched with English and Japanese labels and the
parent's data type, substitution group and balance.

Runs can be persisted to SQLite and inspected later.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&g.root, "root", "", "Taxonomy root directory (overrides config)")
	pf.StringVar(&g.dbPath, "db", "", "SQLite database path (overrides config)")
	pf.StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(buildCmd(g))
	cmd.AddCommand(conceptsCmd(g))
	cmd.AddCommand(runsCmd(g))
	cmd.AddCommand(rowsCmd(g))
	cmd.AddCommand(classifyCmd(g))
	cmd.AddCommand(diffCmd(g))
	cmd.AddCommand(pruneCmd(g))
	return cmd
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info", "":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
