package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry     *prom.Registry
	taskDuration *prom.HistogramVec
	stepDuration *prom.HistogramVec
	taskOutcome  *prom.CounterVec
	stepResults  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.taskDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "relkit",
		Name:      "task_duration_seconds",
		Help:      "Total duration of release task runs",
		Buckets:   prom.DefBuckets,
	}, []string{"task"})
	pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "relkit",
		Name:      "step_duration_seconds",
		Help:      "Duration of individual build steps",
		Buckets:   prom.DefBuckets,
	}, []string{"task", "step"})
	pr.taskOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "relkit",
		Name:      "task_outcomes_total",
		Help:      "Task runs by terminal state",
	}, []string{"task", "outcome"})
	pr.stepResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "relkit",
		Name:      "step_results_total",
		Help:      "Step results by outcome",
	}, []string{"task", "step", "result"})
	reg.MustRegister(pr.taskDuration, pr.stepDuration, pr.taskOutcome, pr.stepResults)
	return pr
}

func (pr *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	pr.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveStepDuration(task, step string, d time.Duration) {
	pr.stepDuration.WithLabelValues(task, step).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncTaskOutcome(task, outcome string) {
	pr.taskOutcome.WithLabelValues(task, outcome).Inc()
}

func (pr *PrometheusRecorder) IncStepResult(task, step string, result ResultLabel) {
	pr.stepResults.WithLabelValues(task, step, string(result)).Inc()
}

// Handler returns an HTTP handler exposing the recorder's registry, served
// at /metrics in watch mode.
func (pr *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(pr.registry, promhttp.HandlerOpts{})
}
