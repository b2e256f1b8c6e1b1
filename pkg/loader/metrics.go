package loader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "breadcrumbs",
		Name:      "loads_total",
		Help:      "Load operations by outcome (ok, empty, failed).",
	}, []string{"outcome"})
	metricLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "breadcrumbs",
		Name:      "load_duration_seconds",
		Help:      "Time to read, parse and aggregate all sources.",
		Buckets:   prometheus.DefBuckets,
	})
	metricEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "breadcrumbs",
		Name:      "entries",
		Help:      "Entries in the last published snapshot.",
	})
	metricSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "breadcrumbs",
		Name:      "sessions",
		Help:      "Sessions in the last published snapshot.",
	})
	metricRowsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "breadcrumbs",
		Name:      "rows_dropped_total",
		Help:      "Rows discarded for an empty action_id or unreadable record.",
	})
	metricGeneration = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "breadcrumbs",
		Name:      "generation",
		Help:      "Generation number of the last published state.",
	})
)

func recordMetrics(st *State) {
	metricGeneration.Set(float64(st.Generation))
	metricLoadDuration.Observe(st.Duration.Seconds())

	if st.Failed() {
		metricLoads.WithLabelValues("failed").Inc()
		metricEntries.Set(0)
		metricSessions.Set(0)
		return
	}

	snap := st.Snapshot
	if len(snap.Entries) == 0 {
		metricLoads.WithLabelValues("empty").Inc()
	} else {
		metricLoads.WithLabelValues("ok").Inc()
	}
	metricEntries.Set(float64(len(snap.Entries)))
	metricSessions.Set(float64(snap.Sessions.Len()))
	for _, s := range snap.Sources {
		metricRowsDropped.Add(float64(s.Dropped))
	}
}
