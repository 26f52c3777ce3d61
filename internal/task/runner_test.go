package task

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mflab/relkit/internal/confirm"
)

type recordingSink struct {
	reports []*Report
}

func (s *recordingSink) Record(_ context.Context, rep *Report) error {
	s.reports = append(s.reports, rep)
	return nil
}

func promptWith(input string, out *strings.Builder) confirm.Confirmer {
	return confirm.New(strings.NewReader(input), out)
}

func writeOutputDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "html")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stale.html"), []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return dir
}

func TestRun_DeclinedLeavesEverythingUntouched(t *testing.T) {
	outDir := writeOutputDir(t)
	executed := false

	var console strings.Builder
	r := NewRunner(promptWith("n\n", &console), &console)

	rep, err := r.Run(context.Background(), Task{
		Name:      "docs",
		Label:     "documentation",
		Warning:   "This will delete " + outDir + ".",
		OutputDir: outDir,
		Steps: []Step{NewFuncStep("build", "", func(context.Context) error {
			executed = true
			return nil
		})},
	})
	if err != nil {
		t.Fatalf("declined run must not error: %v", err)
	}

	if rep.State != StateAborted {
		t.Errorf("expected aborted state, got %s", rep.State)
	}
	if executed {
		t.Error("no step may run after a declined confirmation")
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "stale.html")); statErr != nil {
		t.Error("output directory was touched after declined confirmation")
	}
	if !strings.Contains(console.String(), "Aborting, nothing done.") {
		t.Errorf("missing abort message, console: %q", console.String())
	}
}

func TestRun_EmptyInputDeclines(t *testing.T) {
	outDir := writeOutputDir(t)

	var console strings.Builder
	r := NewRunner(promptWith("\n", &console), &console)

	rep, err := r.Run(context.Background(), Task{Name: "docs", Label: "documentation", OutputDir: outDir})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if rep.State != StateAborted {
		t.Errorf("empty input must abort, got %s", rep.State)
	}
	if _, statErr := os.Stat(outDir); statErr != nil {
		t.Error("output directory deleted despite declined confirmation")
	}
}

func TestRun_DeletionPrecedesBuild(t *testing.T) {
	outDir := writeOutputDir(t)

	var console strings.Builder
	r := NewRunner(promptWith("y\n", &console), &console)

	rep, err := r.Run(context.Background(), Task{
		Name:      "docs",
		Label:     "documentation",
		OutputDir: outDir,
		Steps: []Step{NewFuncStep("build", "", func(context.Context) error {
			// The old tree must already be gone when the builder runs.
			if _, statErr := os.Stat(outDir); !os.IsNotExist(statErr) {
				return errors.New("output directory still present during build")
			}
			return os.MkdirAll(outDir, 0o750)
		})},
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if rep.State != StateDone {
		t.Errorf("expected done, got %s (err %v)", rep.State, rep.Err)
	}

	out := console.String()
	if !strings.Contains(out, "Removing older documentation files...") {
		t.Errorf("missing removal marker: %q", out)
	}
	if !strings.Contains(out, "Building documentation files...") {
		t.Errorf("missing build marker: %q", out)
	}
	if strings.Index(out, "Removing older") > strings.Index(out, "Building") {
		t.Error("removal marker must precede build marker")
	}
	if !strings.Contains(out, "Done.") {
		t.Errorf("missing final marker: %q", out)
	}
}

func TestRun_AbsentOutputDirIsNoOp(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "never-created")

	var console strings.Builder
	r := NewRunner(promptWith("y\n", &console), &console)

	rep, err := r.Run(context.Background(), Task{
		Name:      "docs",
		Label:     "documentation",
		OutputDir: outDir,
		Steps:     []Step{NewFuncStep("build", "", func(context.Context) error { return nil })},
	})
	if err != nil {
		t.Fatalf("absent output dir must not fail the run: %v", err)
	}
	if rep.State != StateDone {
		t.Errorf("expected done, got %s", rep.State)
	}
}

func TestRun_FailedStepHaltsBeforeCopy(t *testing.T) {
	dir := t.TempDir()
	prior := filepath.Join(dir, "MFLib.pdf")
	if err := os.WriteFile(prior, []byte("prior release"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	secondRan := false
	var console strings.Builder
	r := NewRunner(promptWith("Y\n", &console), &console)

	rep, err := r.Run(context.Background(), Task{
		Name:  "pdf",
		Label: "PDF",
		Steps: []Step{
			NewFuncStep("latex-pass-1", "", func(context.Context) error { return errors.New("latex exploded") }),
			NewFuncStep("latex-pass-2", "", func(context.Context) error { secondRan = true; return nil }),
		},
		Artifact: &ArtifactSpec{Source: filepath.Join(dir, "built.pdf"), Dest: prior},
	})
	if err == nil {
		t.Fatal("expected error from failing step")
	}
	if rep.State != StateFailed {
		t.Errorf("expected failed state, got %s", rep.State)
	}
	if secondRan {
		t.Error("steps after a failure must not run")
	}

	// The previously published artifact must be intact.
	got, readErr := os.ReadFile(prior)
	if readErr != nil {
		t.Fatalf("ReadFile failed: %v", readErr)
	}
	if string(got) != "prior release" {
		t.Errorf("stale artifact overwritten after failed build: %q", got)
	}
}

func TestRun_CopiesArtifactAfterBuild(t *testing.T) {
	dir := t.TempDir()
	built := filepath.Join(dir, "latex", "mflib.pdf")
	final := filepath.Join(dir, "MFLib.pdf")

	var console strings.Builder
	r := NewRunner(promptWith("y\n", &console), &console)

	rep, err := r.Run(context.Background(), Task{
		Name:  "pdf",
		Label: "PDF",
		Steps: []Step{NewFuncStep("latex-pass-1", "", func(context.Context) error {
			if err := os.MkdirAll(filepath.Dir(built), 0o750); err != nil {
				return err
			}
			return os.WriteFile(built, []byte("fresh pdf"), 0o644)
		})},
		Artifact: &ArtifactSpec{Source: built, Dest: final},
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if rep.State != StateDone {
		t.Errorf("expected done, got %s", rep.State)
	}
	if rep.ArtifactDigest == "" {
		t.Error("expected artifact digest on report")
	}

	got, readErr := os.ReadFile(final)
	if readErr != nil {
		t.Fatalf("artifact not published: %v", readErr)
	}
	if string(got) != "fresh pdf" {
		t.Errorf("wrong artifact content: %q", got)
	}
}

func TestRun_IdempotentAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "html")
	built := filepath.Join(outDir, "index.html")
	final := filepath.Join(dir, "published.html")

	build := Task{
		Name:      "docs",
		Label:     "documentation",
		OutputDir: outDir,
		Steps: []Step{NewFuncStep("build", "", func(context.Context) error {
			if err := os.MkdirAll(outDir, 0o750); err != nil {
				return err
			}
			return os.WriteFile(built, []byte("deterministic output"), 0o644)
		})},
		Artifact: &ArtifactSpec{Source: built, Dest: final},
	}

	var digests []string
	for i := 0; i < 2; i++ {
		var console strings.Builder
		r := NewRunner(promptWith("y\n", &console), &console)
		rep, err := r.Run(context.Background(), build)
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		digests = append(digests, rep.ArtifactDigest)
	}
	if digests[0] != digests[1] {
		t.Errorf("confirmed sequence not idempotent: %v", digests)
	}
}

func TestRun_ReportsFanOutToSink(t *testing.T) {
	sink := &recordingSink{}
	var console strings.Builder
	r := NewRunner(promptWith("n\n", &console), &console).WithHistory(sink)

	if _, err := r.Run(context.Background(), Task{Name: "dist", Label: "distribution"}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if len(sink.reports) != 1 {
		t.Fatalf("expected 1 recorded report, got %d", len(sink.reports))
	}
	rep := sink.reports[0]
	if rep.State != StateAborted {
		t.Errorf("expected aborted report, got %s", rep.State)
	}
	if rep.RunID == "" {
		t.Error("report missing run id")
	}
	if rep.Duration < 0 {
		t.Error("report missing duration")
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateAborted, StateDone, StateFailed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StateAwaitingConfirmation, StateDeleting, StateBuilding, StateCopying} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
