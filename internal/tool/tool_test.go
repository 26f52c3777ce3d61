package tool

import (
	"context"
	"runtime"
	"strings"
	"testing"

	rkerrors "github.com/mflab/relkit/internal/errors"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use /bin/sh")
	}
}

func TestInvocationString(t *testing.T) {
	inv := Invocation{Bin: "sphinx-build", Args: []string{"-b", "html", "source", "dest"}}
	want := "sphinx-build -b html source dest"
	if inv.String() != want {
		t.Errorf("expected %q, got %q", want, inv.String())
	}
}

func TestPreflight_MissingBinary(t *testing.T) {
	err := Preflight(Invocation{Bin: "relkit-no-such-tool-xyzzy"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !rkerrors.IsCategory(err, rkerrors.CategoryToolchain) {
		t.Errorf("expected toolchain category, got %v", err)
	}
}

func TestPreflight_EmptyCommand(t *testing.T) {
	if err := Preflight(Invocation{}); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestRun_Success(t *testing.T) {
	skipWithoutShell(t)

	var out strings.Builder
	r := &Runner{Stdout: &out, Stderr: &out}
	err := r.Run(context.Background(), Invocation{Bin: "sh", Args: []string{"-c", "echo built"}})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !strings.Contains(out.String(), "built") {
		t.Errorf("tool output not streamed, got %q", out.String())
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	skipWithoutShell(t)

	r := &Runner{Stdout: &strings.Builder{}, Stderr: &strings.Builder{}}
	err := r.Run(context.Background(), Invocation{Bin: "sh", Args: []string{"-c", "exit 3"}})
	if err == nil {
		t.Fatal("expected error for exit 3")
	}
	if !rkerrors.IsCategory(err, rkerrors.CategoryTool) {
		t.Errorf("expected tool category, got %v", err)
	}

	rke, ok := err.(*rkerrors.RelKitError)
	if !ok {
		t.Fatalf("expected RelKitError, got %T", err)
	}
	if rke.Context["exit_code"] != 3 {
		t.Errorf("expected exit code 3 in context, got %v", rke.Context["exit_code"])
	}
}

func TestRun_WorkingDirectory(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	var out strings.Builder
	r := &Runner{Stdout: &out, Stderr: &out}
	err := r.Run(context.Background(), Invocation{Bin: "pwd", Dir: dir})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !strings.Contains(out.String(), dir) {
		t.Errorf("expected pwd output %q, got %q", dir, out.String())
	}
}

func TestRun_CanceledContext(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Stdout: &strings.Builder{}, Stderr: &strings.Builder{}}
	err := r.Run(ctx, Invocation{Bin: "sleep", Args: []string{"10"}})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
