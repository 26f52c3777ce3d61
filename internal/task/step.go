package task

import (
	"context"

	"github.com/mflab/relkit/internal/tool"
)

// Step is a single build action executed in strict sequence. The first
// failing step terminates the run.
type Step interface {
	// Name returns the step name used in logs and metrics.
	Name() string

	// Description returns a human-readable description of what this step does.
	Description() string

	// Run executes the step.
	Run(ctx context.Context) error
}

// Invoker is implemented by steps that shell out to an external tool,
// allowing the runner to preflight the binary before anything is deleted.
type Invoker interface {
	Invocation() tool.Invocation
}

// ExecStep runs one external tool invocation.
type ExecStep struct {
	name   string
	desc   string
	runner *tool.Runner
	inv    tool.Invocation
}

// NewExecStep creates a step running inv through r.
func NewExecStep(name, desc string, r *tool.Runner, inv tool.Invocation) *ExecStep {
	return &ExecStep{name: name, desc: desc, runner: r, inv: inv}
}

func (s *ExecStep) Name() string                { return s.name }
func (s *ExecStep) Description() string         { return s.desc }
func (s *ExecStep) Invocation() tool.Invocation { return s.inv }

func (s *ExecStep) Run(ctx context.Context) error {
	return s.runner.Run(ctx, s.inv)
}

// FuncStep adapts an in-process function (link verification, notes
// rendering) into a Step.
type FuncStep struct {
	name string
	desc string
	fn   func(ctx context.Context) error
}

// NewFuncStep creates a step backed by fn.
func NewFuncStep(name, desc string, fn func(ctx context.Context) error) *FuncStep {
	return &FuncStep{name: name, desc: desc, fn: fn}
}

func (s *FuncStep) Name() string        { return s.name }
func (s *FuncStep) Description() string { return s.desc }

func (s *FuncStep) Run(ctx context.Context) error {
	return s.fn(ctx)
}
