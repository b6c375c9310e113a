// Package metrics exposes run statistics as Prometheus metrics.
//
// Runs are batch jobs, so the registry is written to a node_exporter
// textfile rather than served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cognicore/xplore/pkg/xplore/pipeline"
	"github.com/cognicore/xplore/pkg/xplore/relation"
)

const namespace = "xplore"

// Recorder holds the metrics of one process on a private registry.
type Recorder struct {
	reg *prometheus.Registry

	runs        prometheus.Counter
	documents   *prometheus.CounterVec
	droppedArcs *prometheus.CounterVec
	files       *prometheus.GaugeVec
	concepts    prometheus.Gauge
	duplicates  prometheus.Gauge
	labelled    prometheus.Gauge
	edges       prometheus.Gauge
	rows        prometheus.Gauge
	duration    prometheus.Gauge
	lastRun     prometheus.Gauge
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed extraction runs.",
		}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_parsed_total",
			Help:      "Linkbase documents parsed, by stage.",
		}, []string{"stage"}),
		droppedArcs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arcs_dropped_total",
			Help:      "Arcs dropped because a reference could not be resolved, by stage.",
		}, []string{"stage"}),
		files: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relationship_files",
			Help:      "Relationship files found in the last run, by kind.",
		}, []string{"kind"}),
		concepts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "concepts",
			Help:      "Concepts in the last catalog, duplicates included.",
		}),
		duplicates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "duplicate_concepts",
			Help:      "Repeated concept ids in the last schema.",
		}),
		labelled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "labelled_concepts",
			Help:      "Concepts with at least one label in the last run.",
		}),
		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hierarchy_edges",
			Help:      "Presentation edges in the last run.",
		}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relation_rows",
			Help:      "Rows in the last relation table.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run started.",
		}),
	}

	r.reg.MustRegister(
		r.runs, r.documents, r.droppedArcs, r.files,
		r.concepts, r.duplicates, r.labelled, r.edges, r.rows,
		r.duration, r.lastRun,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Observe records the statistics of one finished run.
func (r *Recorder) Observe(res *pipeline.Result) {
	st := res.Stats

	r.runs.Inc()
	r.documents.WithLabelValues("labels").Add(float64(st.Labels.Documents))
	r.documents.WithLabelValues("hierarchy").Add(float64(st.Hierarchy.Documents))
	r.droppedArcs.WithLabelValues("labels").Add(float64(st.Labels.DroppedArcs))
	r.droppedArcs.WithLabelValues("hierarchy").Add(float64(st.Hierarchy.DroppedArcs))
	for _, k := range relation.Kinds {
		r.files.WithLabelValues(k.String()).Set(float64(st.Files[k]))
	}
	r.concepts.Set(float64(st.Concepts))
	r.duplicates.Set(float64(st.Duplicates))
	r.labelled.Set(float64(st.Labels.Concepts))
	r.edges.Set(float64(st.Hierarchy.Edges))
	r.rows.Set(float64(st.Rows))
	r.duration.Set(res.Duration.Seconds())
	r.lastRun.Set(float64(res.StartedAt.UnixNano()) / float64(time.Second))
}

// WriteTextfile writes the registry in the text exposition format,
// atomically replacing path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
