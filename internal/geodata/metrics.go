package geodata

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xraysync_runs_total",
			Help: "Total sync runs by result",
		},
		[]string{"result"},
	)
	artifactOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xraysync_artifact_outcomes_total",
			Help: "Per-artifact sync outcomes",
		},
		[]string{"artifact", "outcome"},
	)
	restartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xraysync_restarts_total",
			Help: "Container restarts issued after applied changes",
		},
		[]string{"result"},
	)
	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xraysync_fetch_duration_seconds",
			Help:    "Artifact download duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"artifact"},
	)
	lastSuccessTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "xraysync_last_success_timestamp_seconds",
			Help: "Unix time of the last fully successful sync run",
		},
	)
)

func init() {
	prometheus.MustRegister(syncRunsTotal, artifactOutcomes, restartsTotal, fetchDuration, lastSuccessTimestamp)
}
