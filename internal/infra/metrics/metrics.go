// Package metrics provides Prometheus metrics for the generation orchestrator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TasksLaunched counts launch outcomes by task type and mode (direct, async, failed).
var TasksLaunched = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "aishortx",
	Name:      "tasks_launched_total",
	Help:      "Total generation tasks handed to a provider.",
}, []string{"type", "mode"})

// TasksFinalized counts terminal transitions by category, status and reason.
var TasksFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "aishortx",
	Name:      "tasks_finalized_total",
	Help:      "Total tasks moved to a terminal state.",
}, []string{"category", "status", "reason"})

// PollErrors counts provider poll calls that failed transiently.
var PollErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "aishortx",
	Name:      "poll_errors_total",
	Help:      "Total provider task queries that returned an error.",
}, []string{"provider"})

// SweepDuration tracks wall time of one reconciliation sweep.
var SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "aishortx",
	Name:      "sweep_duration_seconds",
	Help:      "Duration of one reconciliation sweep.",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
})

// ProcessingTasks reports in-flight tasks seen by the most recent sweep.
var ProcessingTasks = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "aishortx",
	Name:      "processing_tasks",
	Help:      "Tasks in processing state at the last sweep.",
})

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
