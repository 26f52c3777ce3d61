// Package task implements the guarded rebuild workflow behind every relkit
// command: warn, confirm, delete the previous output, run the external
// toolchain in order, and optionally publish the produced artifact.
package task

import (
	"context"
	"time"

	"github.com/mflab/relkit/internal/gitinfo"
)

// State tracks a run through its lifecycle. Aborted, Done and Failed are
// terminal.
type State string

const (
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateAborted              State = "aborted"
	StateDeleting             State = "deleting"
	StateBuilding             State = "building"
	StateCopying              State = "copying"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateAborted, StateDone, StateFailed:
		return true
	}
	return false
}

// Task is one guarded rebuild unit: a named sequence of steps with an output
// directory that is wiped before the steps run.
type Task struct {
	Name        string
	Label       string // human label used in progress markers ("documentation", "PDF", ...)
	Warning     string // shown before the confirmation gate
	OutputDir   string // deleted recursively before the build; "" skips the phase
	BuildNotice string // overrides the default "Building <label> files..." marker
	Steps       []Step
	Artifact    *ArtifactSpec // copied to its final location after all steps succeed
}

// ArtifactSpec names a build product and its published location.
type ArtifactSpec struct {
	Source string
	Dest   string
}

// StepResult records one executed step.
type StepResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Report describes a completed (or aborted/failed) run.
type Report struct {
	RunID          string        `json:"run_id"`
	Task           string        `json:"task"`
	State          State         `json:"state"`
	Started        time.Time     `json:"started"`
	Duration       time.Duration `json:"duration"`
	Stamp          gitinfo.Stamp `json:"stamp,omitempty"`
	ArtifactDigest string        `json:"artifact_digest,omitempty"`
	Steps          []StepResult  `json:"-"`
	Err            error         `json:"-"`
}

// Sink records finished runs (history store). Recording is best-effort:
// runner logs sink failures and moves on.
type Sink interface {
	Record(ctx context.Context, rep *Report) error
}

// Notifier publishes finished runs to interested parties (NATS). Also
// best-effort.
type Notifier interface {
	Publish(ctx context.Context, rep *Report) error
}
