// Package tool invokes the external toolchain (documentation generator, PDF
// build, package builder, upload tool). Tool output streams straight to the
// operator's console; relkit adds no buffering or capture beyond what the
// caller wires in.
package tool

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	rkerrors "github.com/mflab/relkit/internal/errors"
	"github.com/mflab/relkit/internal/logfields"
)

// Invocation describes one external command run.
type Invocation struct {
	Bin  string
	Args []string
	Dir  string   // working directory; "" means inherit
	Env  []string // extra KEY=VALUE entries appended to the process env
}

// String renders the invocation for logs and progress output.
func (i Invocation) String() string {
	out := i.Bin
	for _, a := range i.Args {
		out += " " + a
	}
	return out
}

// Runner executes invocations sequentially.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner creates a Runner streaming tool output to the process's own
// stdout/stderr.
func NewRunner() *Runner {
	return &Runner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Preflight verifies every binary is resolvable before any of them runs.
// A missing tool is reported before the output directory has been touched.
func Preflight(invs ...Invocation) error {
	for _, inv := range invs {
		if inv.Bin == "" {
			return rkerrors.New(rkerrors.CategoryValidation, rkerrors.SeverityFatal, "empty tool command")
		}
		if _, err := exec.LookPath(inv.Bin); err != nil {
			return rkerrors.ToolNotInstalled(inv.Bin)
		}
	}
	return nil
}

// Run executes a single invocation to completion, streaming its output.
// A non-zero exit is returned as a tool error carrying the exit code.
func (r *Runner) Run(ctx context.Context, inv Invocation) error {
	cmd := exec.CommandContext(ctx, inv.Bin, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	slog.Debug("Invoking tool", logfields.Tool(inv.Bin), slog.String("command", inv.String()), logfields.Path(inv.Dir))
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return rkerrors.Wrap(ctx.Err(), rkerrors.CategoryTool, rkerrors.SeverityFatal, "tool canceled").
				WithContext("tool", inv.Bin)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return rkerrors.ToolFailed(inv.Bin, exitErr.ExitCode(), err)
		}
		return rkerrors.ToolFailed(inv.Bin, -1, err)
	}

	slog.Debug("Tool finished", logfields.Tool(inv.Bin), logfields.DurationMS(float64(elapsed.Milliseconds())))
	return nil
}
