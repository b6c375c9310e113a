package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/cognicore/xplore/pkg/xplore/hierarchy"
	"github.com/cognicore/xplore/pkg/xplore/label"
	"github.com/cognicore/xplore/pkg/xplore/pipeline"
	"github.com/cognicore/xplore/pkg/xplore/relation"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		StartedAt: time.Unix(1730419200, 0),
		Duration:  1500 * time.Millisecond,
		Stats: pipeline.Stats{
			Labels:    label.Stats{Documents: 3, DroppedArcs: 2, Concepts: 10},
			Concepts:  12,
			Files:     map[relation.Kind]int{relation.Presentation: 4, relation.Definition: 1},
			Hierarchy: hierarchy.Stats{Documents: 4, Edges: 20, DroppedArcs: 1},
			Rows:      20,
		},
	}
}

func gather(t *testing.T, r *Recorder) map[string][]*dto.Metric {
	t.Helper()
	families, err := r.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	out := make(map[string][]*dto.Metric, len(families))
	for _, f := range families {
		out[f.GetName()] = f.GetMetric()
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestObserve(t *testing.T) {
	r := NewRecorder()
	r.Observe(sampleResult())
	r.Observe(sampleResult())

	m := gather(t, r)

	if got := m["xplore_runs_total"][0].GetCounter().GetValue(); got != 2 {
		t.Errorf("runs_total = %v, want 2", got)
	}
	if got := m["xplore_relation_rows"][0].GetGauge().GetValue(); got != 20 {
		t.Errorf("relation_rows = %v, want 20", got)
	}
	for _, metric := range m["xplore_arcs_dropped_total"] {
		want := map[string]float64{"labels": 4, "hierarchy": 2}[labelValue(metric, "stage")]
		if got := metric.GetCounter().GetValue(); got != want {
			t.Errorf("arcs_dropped_total{stage=%s} = %v, want %v", labelValue(metric, "stage"), got, want)
		}
	}
	if n := len(m["xplore_relationship_files"]); n != 3 {
		t.Errorf("Expected one relationship_files series per kind, got %d", n)
	}
	if got := m["xplore_run_duration_seconds"][0].GetGauge().GetValue(); got != 1.5 {
		t.Errorf("run_duration_seconds = %v, want 1.5", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(sampleResult())

	path := filepath.Join(t.TempDir(), "xplore.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "xplore_hierarchy_edges 20") {
		t.Errorf("Textfile missing hierarchy_edges sample:\n%s", data)
	}
}
