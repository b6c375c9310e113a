package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/xplore/internal/taxotest"
	"github.com/cognicore/xplore/pkg/xplore/hierarchy"
	"github.com/cognicore/xplore/pkg/xplore/pipeline"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

var wantRow = []string{"A", "B", "Assets", "資産", "B", "B", "xbrli:monetaryItemType", "xbrli:item", "debit"}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(records) == 0 || !reflect.DeepEqual(records[0], xbrl.Columns) {
		t.Fatalf("%s: header = %v, want %v", path, records, xbrl.Columns)
	}
	return records[1:]
}

func writeTaxonomy(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	tx := taxotest.ScenarioA()
	tx.Relations = map[string]string{
		"cor_pre_bs.xml": taxotest.Presentation(xbrl.Arc{From: "A", To: "B"}),
		"cor_cal_bs.xml": taxotest.Presentation(),
	}
	tx.WriteTo(t, root)
	return root
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("xplore %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestBuildThenRows(t *testing.T) {
	t.Setenv("XPLORE_SCHEMA", "cor.xsd")
	root := writeTaxonomy(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "x.db")
	out := filepath.Join(dir, "rows.csv")
	prom := filepath.Join(dir, "xplore.prom")

	execute(t, "build", "--root", root, "--db", db, "--out", out, "--metrics-file", prom, "--log-level", "error")
	if got := readCSV(t, out); len(got) != 1 || !reflect.DeepEqual(got[0], wantRow) {
		t.Errorf("rows.csv = %v, want [%v]", got, wantRow)
	}
	if data, err := os.ReadFile(prom); err != nil || !strings.Contains(string(data), "xplore_relation_rows 1") {
		t.Errorf("metrics textfile missing row gauge (%v):\n%s", err, data)
	}

	runs := execute(t, "runs", "--db", db, "--root", root, "--log-level", "error")
	if !strings.Contains(runs, "cor.xsd") {
		t.Errorf("runs output missing schema:\n%s", runs)
	}

	rows := filepath.Join(dir, "stored.jsonl")
	execute(t, "rows", "--db", db, "--root", root, "--format", "jsonl", "--out", rows, "--log-level", "error")
	data, err := os.ReadFile(rows)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	var stored xbrl.Row
	if len(lines) != 1 || json.Unmarshal([]byte(lines[0]), &stored) != nil {
		t.Fatalf("stored.jsonl = %q", data)
	}
	if !reflect.DeepEqual(stored.Values(), wantRow) {
		t.Errorf("stored row = %v, want %v", stored.Values(), wantRow)
	}

	execute(t, "build", "--root", root, "--db", db, "--out", filepath.Join(dir, "second.csv"), "--log-level", "error")
	if got := execute(t, "diff", "latest", "latest", "--db", db, "--root", root, "--log-level", "error"); !strings.Contains(got, "no differences") {
		t.Errorf("diff of a run with itself = %q", got)
	}
	deleted := execute(t, "prune", "--db", db, "--root", root, "--keep", "1", "--log-level", "error")
	if n := strings.Count(strings.TrimSpace(deleted), "\n") + 1; n != 1 {
		t.Errorf("prune deleted %d runs, want 1:\n%s", n, deleted)
	}
}

func TestFilters(t *testing.T) {
	t.Setenv("XPLORE_SCHEMA", "cor.xsd")
	root := writeTaxonomy(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "x.db")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"build parent label", []string{"build", "--parent", "Assets"}, 1},
		{"build child fallback label", []string{"build", "--child", "B"}, 1},
		{"build unknown parent", []string{"build", "--parent", "Liabilities"}, 0},
		{"build all", []string{"build", "--parent", "All", "--child", "All"}, 1},
		{"rows child label", []string{"rows", "--child", "B"}, 1},
		{"rows parent id", []string{"rows", "--parent-id", "A"}, 1},
		{"rows child id", []string{"rows", "--child-id", "C"}, 0},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.name+".csv")
			args := append(tt.args, "--root", root, "--db", db, "--out", out, "--log-level", "error")
			execute(t, args...)
			got := readCSV(t, out)
			if len(got) != tt.want {
				t.Fatalf("case %d: %d rows, want %d: %v", i, len(got), tt.want, got)
			}
			if tt.want == 1 && !reflect.DeepEqual(got[0], wantRow) {
				t.Errorf("row = %v, want %v", got[0], wantRow)
			}
		})
	}
}

func TestBuildSummaryIncludesRoots(t *testing.T) {
	res := &pipeline.Result{
		RunID: "run",
		Hierarchy: hierarchy.FromEdges([]xbrl.Edge{
			{Parent: "R", Child: "A"},
			{Parent: "A", Child: "B"},
		}),
	}
	attrs := buildSummary(res, nil)
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == "roots" {
			if got := attrs[i+1]; !reflect.DeepEqual(got, []string{"R"}) {
				t.Errorf("roots = %v, want [R]", got)
			}
			return
		}
	}
	t.Errorf("summary has no roots attribute: %v", attrs)
}

func TestClassify(t *testing.T) {
	root := writeTaxonomy(t)
	got := execute(t, "classify", filepath.Join(root, "r"), "--root", root, "--log-level", "error")

	want := "presentation\t" + filepath.Join(root, "r", "cor_pre_bs.xml")
	if !strings.Contains(got, want) {
		t.Errorf("classify output = %q, want line %q", got, want)
	}
	if !strings.Contains(got, "calculation\t") {
		t.Errorf("classify output missing calculation file: %q", got)
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := newLogger("loud", "text"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := newLogger("info", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
