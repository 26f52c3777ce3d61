package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mflab/relkit/internal/config"
	"github.com/mflab/relkit/internal/confirm"
	"github.com/mflab/relkit/internal/history"
	"github.com/mflab/relkit/internal/task"
	"github.com/mflab/relkit/internal/tool"
)

// TestReleaseFlow_FullPipeline drives docs, pdf, dist and publish end to end
// against a stand-in toolchain. This test verifies:
// - config loading with environment variable expansion
// - the confirm/delete/build/copy sequence and its console markers
// - multi-pass PDF builds and atomic artifact publication
// - the upload command receiving the repository flag and the built files
// - run history recording across the whole pipeline.
func TestReleaseFlow_FullPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg, root := setupRelease(t)

	store, err := history.Open(cfg.History.Path)
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	// docs
	rep, console := runConfirmed(t, cfg, store, task.TaskDocs)
	require.Equal(t, task.StateDone, rep.State)
	require.Contains(t, console, "Removing older documentation files...")
	require.Contains(t, console, "Building documentation files...")
	require.Contains(t, console, "Done.")
	require.FileExists(t, filepath.Join(root, "docs/build/html/index.html"))
	require.FileExists(t, filepath.Join(root, "docs/build/html/usage.html"))
	require.FileExists(t, filepath.Join(root, "docs/build/html/mflib-release-notes.html"))

	// pdf: two passes, then the manual is copied to its published name
	rep, console = runConfirmed(t, cfg, store, task.TaskPDF)
	require.Equal(t, task.StateDone, rep.State)
	require.NotEmpty(t, rep.ArtifactDigest)
	require.Contains(t, console, "Removing older PDF files...")
	require.Contains(t, console, "Copying")

	passes, err := os.ReadFile(filepath.Join(root, "docs/build/latex/passes.log"))
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(passes), "pass"))

	final, err := os.ReadFile(filepath.Join(root, "docs/mflib.pdf"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(final), "%PDF"))

	// dist
	rep, _ = runConfirmed(t, cfg, store, task.TaskDist)
	require.Equal(t, task.StateDone, rep.State)
	require.FileExists(t, filepath.Join(root, "dist/mflib-1.0.tar.gz"))

	// publish: upload tool sees the repository flag and the tarball
	rep, console = runConfirmed(t, cfg, store, task.TaskPublish)
	require.Equal(t, task.StateDone, rep.State)
	require.Contains(t, console, "Uploading")
	require.Contains(t, console, "testpypi")

	uploaded, err := os.ReadFile(filepath.Join(root, "upload.log"))
	require.NoError(t, err)
	require.Contains(t, string(uploaded), "--repository")
	require.Contains(t, string(uploaded), "testpypi")
	require.Contains(t, string(uploaded), "mflib-1.0.tar.gz")

	entries, err := store.List(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for _, e := range entries {
		require.Equal(t, string(task.StateDone), e.State)
	}
}

// TestReleaseFlow_Declined verifies that answering anything but yes leaves
// the previous build untouched.
func TestReleaseFlow_Declined(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg, root := setupRelease(t)

	stale := filepath.Join(root, "docs/build/html/stale.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("<html></html>"), 0o644))

	tk, err := task.Builtin(cfg, tool.NewRunner(), task.TaskDocs)
	require.NoError(t, err)

	var buf bytes.Buffer
	runner := task.NewRunner(confirm.New(strings.NewReader("n\n"), &buf), &buf)
	rep, err := runner.Run(context.Background(), tk)
	require.NoError(t, err)
	require.Equal(t, task.StateAborted, rep.State)
	require.Contains(t, buf.String(), "Aborting, nothing done.")
	require.FileExists(t, stale)
}

// runConfirmed executes one built-in task with the confirmation answered yes
// and returns the report plus the console transcript.
func runConfirmed(t *testing.T, cfg *config.Config, store *history.Store, name string) (*task.Report, string) {
	t.Helper()

	tk, err := task.Builtin(cfg, tool.NewRunner(), name)
	require.NoError(t, err)

	var buf bytes.Buffer
	runner := task.NewRunner(confirm.New(strings.NewReader("y\n"), &buf), &buf).
		WithHistory(store)
	rep, err := runner.Run(context.Background(), tk)
	require.NoError(t, err)
	return rep, buf.String()
}

// setupRelease lays out a project tree with shell-script stand-ins for the
// documentation, latex, packaging and upload tools, and loads the release
// configuration against it.
func setupRelease(t *testing.T) (*config.Config, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("integration fixture uses shell scripts")
	}

	root := t.TempDir()
	bin := filepath.Join(root, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))

	writeScript(t, bin, "htmlbuilder", "#!/bin/sh\nmkdir -p \"$2\"\ncp -R \"$1\"/. \"$2\"/\n")
	writeScript(t, bin, "latexbuilder", "#!/bin/sh\nmkdir -p \"$1\"\necho pass >> \"$1/passes.log\"\nprintf '%%PDF-1.4 mflib manual' > \"$1/mflib.pdf\"\n")
	writeScript(t, bin, "sdistbuilder", "#!/bin/sh\nmkdir -p \"$1\"\nprintf 'sdist' > \"$1/mflib-1.0.tar.gz\"\n")
	writeScript(t, bin, "uploader", "#!/bin/sh\nlog=\"$1\"\nshift\nprintf '%s\\n' \"$@\" > \"$log\"\n")

	source := filepath.Join(root, "docs/source")
	require.NoError(t, os.MkdirAll(source, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "index.html"),
		[]byte(`<html><body><a href="usage.html">Usage</a></body></html>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "usage.html"),
		[]byte(`<html><body>Usage</body></html>`), 0o644))

	changelog := "# Changelog\n\n## 1.0.0\n\n### Added\n\n- Initial release.\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "CHANGELOG.md"), []byte(changelog), 0o644))

	t.Setenv("RELKIT_ROOT", root)
	t.Setenv("RELKIT_BIN", bin)

	cfg, err := config.Load("testdata/configs/release.yaml")
	require.NoError(t, err)
	return cfg, root
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o755))
}
