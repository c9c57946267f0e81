package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_runs_total",
		Help: "Optimizer runs by outcome.",
	}, []string{"status"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_run_duration_seconds",
		Help:    "Wall time of one full optimizer run.",
		Buckets: prometheus.DefBuckets,
	})

	entitiesScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_entities_scored_total",
		Help: "Entities scored across all runs.",
	})

	lastUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planner_last_run_utilization_pct",
		Help: "Overall budget utilization of the most recent run.",
	})
)
