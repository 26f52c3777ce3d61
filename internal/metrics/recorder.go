package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
)

// Recorder defines observability hooks for task and step metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	ObserveTaskDuration(task string, d time.Duration)
	ObserveStepDuration(task, step string, d time.Duration)
	IncTaskOutcome(task, outcome string) // outcome: done|aborted|failed
	IncStepResult(task, step string, result ResultLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTaskDuration(string, time.Duration)         {}
func (NoopRecorder) ObserveStepDuration(string, string, time.Duration) {}
func (NoopRecorder) IncTaskOutcome(string, string)                     {}
func (NoopRecorder) IncStepResult(string, string, ResultLabel)         {}
