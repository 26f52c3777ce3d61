package task

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mflab/relkit/internal/artifact"
	"github.com/mflab/relkit/internal/confirm"
	rkerrors "github.com/mflab/relkit/internal/errors"
	"github.com/mflab/relkit/internal/gitinfo"
	"github.com/mflab/relkit/internal/logfields"
	"github.com/mflab/relkit/internal/metrics"
	"github.com/mflab/relkit/internal/tool"
)

// Runner executes tasks through the guarded rebuild sequence. All
// collaborators besides the confirmer are optional.
type Runner struct {
	confirmer confirm.Confirmer
	console   io.Writer
	recorder  metrics.Recorder
	history   Sink
	notifier  Notifier
	stamp     gitinfo.Stamp
}

// NewRunner creates a Runner gated by confirmer, writing progress markers to
// console (os.Stdout when nil).
func NewRunner(confirmer confirm.Confirmer, console io.Writer) *Runner {
	if console == nil {
		console = os.Stdout
	}
	return &Runner{
		confirmer: confirmer,
		console:   console,
		recorder:  metrics.NoopRecorder{},
	}
}

// WithRecorder attaches a metrics recorder (fluent helper).
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// WithHistory attaches a run-history sink.
func (r *Runner) WithHistory(s Sink) *Runner { r.history = s; return r }

// WithNotifier attaches a run notifier.
func (r *Runner) WithNotifier(n Notifier) *Runner { r.notifier = n; return r }

// WithStamp attaches the release stamp recorded on every run.
func (r *Runner) WithStamp(stamp gitinfo.Stamp) *Runner { r.stamp = stamp; return r }

// Run executes one task to a terminal state. The returned report is always
// non-nil; err is nil for Done and Aborted outcomes.
func (r *Runner) Run(ctx context.Context, t Task) (*Report, error) {
	rep := &Report{
		RunID:   uuid.NewString(),
		Task:    t.Name,
		State:   StateAwaitingConfirmation,
		Started: time.Now(),
		Stamp:   r.stamp,
	}
	defer r.finalize(rep)

	slog.Info("Task starting", logfields.Task(t.Name), logfields.RunID(rep.RunID))

	ok, err := r.confirmer.Confirm(t.Warning)
	if err != nil {
		return r.fail(rep, rkerrors.WrapError(err, rkerrors.CategoryInternal, "confirmation read failed"))
	}
	if !ok {
		rep.State = StateAborted
		fmt.Fprintln(r.console, "Aborting, nothing done.")
		slog.Info("Task aborted by operator", logfields.Task(t.Name))
		return rep, nil
	}

	// Resolve every tool before touching the output directory; a missing
	// toolchain must not cost the operator the previous build.
	if err := tool.Preflight(invocations(t.Steps)...); err != nil {
		return r.fail(rep, err)
	}

	if t.OutputDir != "" {
		rep.State = StateDeleting
		fmt.Fprintf(r.console, "Removing older %s files...\n", t.Label)
		if err := os.RemoveAll(t.OutputDir); err != nil {
			return r.fail(rep, rkerrors.CleanFailed(t.OutputDir, err))
		}
		slog.Debug("Output directory removed", logfields.Path(t.OutputDir))
	}

	rep.State = StateBuilding
	if t.BuildNotice != "" {
		fmt.Fprintln(r.console, t.BuildNotice)
	} else {
		fmt.Fprintf(r.console, "Building %s files...\n", t.Label)
	}

	for _, step := range t.Steps {
		select {
		case <-ctx.Done():
			return r.fail(rep, rkerrors.Wrap(ctx.Err(), rkerrors.CategoryInternal, rkerrors.SeverityFatal, "task canceled"))
		default:
		}

		start := time.Now()
		err := step.Run(ctx)
		elapsed := time.Since(start)
		rep.Steps = append(rep.Steps, StepResult{Name: step.Name(), Duration: elapsed, Err: err})
		r.recorder.ObserveStepDuration(t.Name, step.Name(), elapsed)

		if err != nil {
			r.recorder.IncStepResult(t.Name, step.Name(), metrics.ResultFailure)
			slog.Error("Step failed", logfields.Task(t.Name), logfields.Step(step.Name()), logfields.Error(err))
			return r.fail(rep, err)
		}
		r.recorder.IncStepResult(t.Name, step.Name(), metrics.ResultSuccess)
		slog.Debug("Step completed", logfields.Task(t.Name), logfields.Step(step.Name()),
			logfields.DurationMS(float64(elapsed.Milliseconds())))
	}

	if t.Artifact != nil {
		rep.State = StateCopying
		fmt.Fprintf(r.console, "Copying %s to %s...\n", t.Artifact.Source, t.Artifact.Dest)
		digest, err := artifact.Publish(t.Artifact.Source, t.Artifact.Dest)
		if err != nil {
			return r.fail(rep, err)
		}
		rep.ArtifactDigest = digest
	}

	rep.State = StateDone
	fmt.Fprintln(r.console, "Done.")
	slog.Info("Task finished", logfields.Task(t.Name), logfields.RunID(rep.RunID), logfields.State(string(StateDone)))
	return rep, nil
}

// fail moves the run to its terminal failed state.
func (r *Runner) fail(rep *Report, err error) (*Report, error) {
	rep.State = StateFailed
	rep.Err = err
	fmt.Fprintf(r.console, "Failed: %v\n", err)
	return rep, err
}

// finalize closes out the report and fans it out to metrics, history and
// notification. Sinks never fail the run.
func (r *Runner) finalize(rep *Report) {
	rep.Duration = time.Since(rep.Started)
	r.recorder.ObserveTaskDuration(rep.Task, rep.Duration)
	r.recorder.IncTaskOutcome(rep.Task, string(rep.State))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if r.history != nil {
		if err := r.history.Record(ctx, rep); err != nil {
			slog.Warn("Failed to record run history", logfields.Task(rep.Task), logfields.Error(err))
		}
	}
	if r.notifier != nil {
		if err := r.notifier.Publish(ctx, rep); err != nil {
			slog.Warn("Failed to publish run event", logfields.Task(rep.Task), logfields.Error(err))
		}
	}
}

// invocations collects the external commands of steps implementing Invoker.
func invocations(steps []Step) []tool.Invocation {
	invs := make([]tool.Invocation, 0, len(steps))
	for _, s := range steps {
		if inv, ok := s.(Invoker); ok {
			invs = append(invs, inv.Invocation())
		}
	}
	return invs
}
