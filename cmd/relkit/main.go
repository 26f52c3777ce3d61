package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/mflab/relkit/internal/artifact"
	"github.com/mflab/relkit/internal/config"
	"github.com/mflab/relkit/internal/confirm"
	rkerrors "github.com/mflab/relkit/internal/errors"
	"github.com/mflab/relkit/internal/gitinfo"
	"github.com/mflab/relkit/internal/history"
	"github.com/mflab/relkit/internal/linkcheck"
	"github.com/mflab/relkit/internal/metrics"
	"github.com/mflab/relkit/internal/notes"
	"github.com/mflab/relkit/internal/notify"
	"github.com/mflab/relkit/internal/task"
	"github.com/mflab/relkit/internal/tool"
	"github.com/mflab/relkit/internal/watch"
	"github.com/mflab/relkit/internal/workspace"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"relkit.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`
	Yes     bool   `help:"Skip confirmation prompts"`

	Docs struct{} `cmd:"" help:"Delete and rebuild the HTML documentation"`

	PDF struct{} `cmd:"" name:"pdf" help:"Delete and rebuild the PDF manual"`

	Dist struct{} `cmd:"" help:"Delete and rebuild the source distribution"`

	Publish struct {
		Repository string `short:"r" help:"Destination package repository (overrides config)"`
	} `cmd:"" help:"Upload the built distribution to a package repository"`

	Notes struct {
		Version string `help:"Changelog version section to render (default: newest)"`
		Output  string `short:"o" help:"Output HTML file" default:"release-notes.html"`
	} `cmd:"" help:"Render a changelog section as a release-notes page"`

	VerifyLinks struct{} `cmd:"" name:"verify-links" help:"Check internal links in the built HTML tree"`

	History struct {
		Task  string `help:"Only show runs of this task"`
		Limit int    `help:"Maximum number of runs to show" default:"20"`
	} `cmd:"" help:"Show recorded task runs"`

	Watch struct{} `cmd:"" help:"Rebuild the HTML documentation whenever its source changes"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	kctx := kong.Parse(&CLI)

	if kctx.Command() == "init" {
		setupLogging(nil)
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(rkerrors.ExitCodeFor(err))
		}
		fmt.Printf("Wrote %s\n", CLI.Config)
		return
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		setupLogging(nil)
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(rkerrors.ExitCodeFor(err))
	}
	setupLogging(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch kctx.Command() {
	case "docs", "pdf", "dist", "publish":
		name := kctx.Command()
		if name == "publish" && CLI.Publish.Repository != "" {
			cfg.Publish.Repository = CLI.Publish.Repository
		}
		if err := runTask(ctx, cfg, name); err != nil {
			slog.Error("Task failed", "task", name, "error", err)
			os.Exit(rkerrors.ExitCodeFor(err))
		}
	case "notes":
		if err := runNotes(cfg); err != nil {
			slog.Error("Notes generation failed", "error", err)
			os.Exit(rkerrors.ExitCodeFor(err))
		}
	case "verify-links":
		if err := runVerifyLinks(ctx, cfg); err != nil {
			slog.Error("Link verification failed", "error", err)
			os.Exit(rkerrors.ExitCodeFor(err))
		}
	case "history":
		if err := runHistory(ctx, cfg); err != nil {
			slog.Error("History listing failed", "error", err)
			os.Exit(rkerrors.ExitCodeFor(err))
		}
	case "watch":
		if err := runWatch(ctx, cfg); err != nil {
			slog.Error("Watch failed", "error", err)
			os.Exit(rkerrors.ExitCodeFor(err))
		}
	default:
		kctx.Fatalf("unknown command %q", kctx.Command())
	}
}

// setupLogging installs the default slog handler. A nil config gives the
// bootstrap logger used before configuration is available.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	format := config.LogFormatText
	if cfg != nil {
		level = config.NormalizeLogLevel(cfg.Logging.Level).SlogLevel()
		format = config.NormalizeLogFormat(cfg.Logging.Format)
	}
	if CLI.Verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newRunner assembles a task runner with the optional history and notify
// sinks. Sink setup is best-effort: a broken sink is logged and skipped,
// never blocking a release task.
func newRunner(cfg *config.Config, confirmer confirm.Confirmer) (*task.Runner, func()) {
	runner := task.NewRunner(confirmer, os.Stdout).
		WithStamp(gitinfo.Resolve("."))

	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			slog.Warn("History disabled for this run", "path", cfg.History.Path, "error", err)
		} else {
			closers = append(closers, func() {
				if err := store.Close(); err != nil {
					slog.Warn("Failed to close history store", "error", err)
				}
			})
			runner = runner.WithHistory(store)
		}
	}

	if cfg.Notify.Enabled {
		// Notification is best-effort: an unreachable broker must not block
		// a release task.
		notifier, err := notify.New(cfg.Notify.URL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Notification disabled for this run", "url", cfg.Notify.URL, "error", err)
		} else {
			closers = append(closers, notifier.Close)
			runner = runner.WithNotifier(notifier)
		}
	}

	return runner, cleanup
}

func runTask(ctx context.Context, cfg *config.Config, name string) error {
	t, err := task.Builtin(cfg, tool.NewRunner(), name)
	if err != nil {
		return err
	}

	var confirmer confirm.Confirmer = confirm.New(os.Stdin, os.Stdout)
	if CLI.Yes {
		confirmer = confirm.Always{}
	}

	runner, cleanup := newRunner(cfg, confirmer)
	defer cleanup()

	_, err = runner.Run(ctx, t)
	return err
}

// runNotes renders into a scratch workspace first so a failed render never
// clobbers an existing release-notes page.
func runNotes(cfg *config.Config) error {
	if cfg.Project.Changelog == "" {
		return rkerrors.ValidationFailed("project.changelog", "must point at the changelog file")
	}

	ws := workspace.NewManager("")
	if err := ws.Create(); err != nil {
		return err
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup workspace", "error", err)
		}
	}()

	notesDir, err := ws.CreateSubdir("notes")
	if err != nil {
		return err
	}
	staged := filepath.Join(notesDir, filepath.Base(CLI.Notes.Output))
	if err := notes.Generate(cfg.Project.Changelog, CLI.Notes.Version, cfg.Project.Name, staged); err != nil {
		return err
	}
	digest, err := artifact.Publish(staged, CLI.Notes.Output)
	if err != nil {
		return err
	}
	slog.Debug("Release notes published", "path", CLI.Notes.Output, "sha256", digest)
	fmt.Printf("Wrote %s\n", CLI.Notes.Output)
	return nil
}

func runVerifyLinks(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateDocs(); err != nil {
		return err
	}

	report, err := linkcheck.Verify(ctx, cfg.Docs.OutputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Checked %d links in %d files.\n", report.Checked, report.Files)
	if report.Ok() {
		return nil
	}
	for _, b := range report.Broken {
		fmt.Printf("  %s: %s\n", b.File, b.URL)
	}
	return rkerrors.New(rkerrors.CategoryValidation, rkerrors.SeverityError,
		fmt.Sprintf("%d broken internal links", len(report.Broken)))
}

func runHistory(ctx context.Context, cfg *config.Config) error {
	if !cfg.History.Enabled {
		return rkerrors.ValidationFailed("history.enabled", "history recording is not enabled")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close history store", "error", err)
		}
	}()

	entries, err := store.List(ctx, CLI.History.Task, CLI.History.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-8s %-8s %8s", e.Started.Format(time.RFC3339), e.Task, e.State,
			e.Duration.Round(time.Millisecond))
		if e.Stamp != "" {
			line += "  " + e.Stamp
		}
		if e.Error != "" {
			line += "  " + e.Error
		}
		fmt.Println(line)
	}
	return nil
}

// runWatch rebuilds the documentation on every source change. Starting the
// loop is the operator's consent; rebuilds themselves are not re-confirmed.
func runWatch(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateDocs(); err != nil {
		return err
	}

	runner, cleanup := newRunner(cfg, confirm.Always{})
	defer cleanup()

	if cfg.Metrics.Enabled {
		recorder := metrics.NewPrometheusRecorder(prom.NewRegistry())
		runner = runner.WithRecorder(recorder)
		msrv, err := metrics.NewServer(cfg.Metrics.Listen, recorder.Handler())
		if err != nil {
			slog.Warn("Metrics disabled for this run", "listen", cfg.Metrics.Listen, "error", err)
		} else {
			slog.Info("Serving metrics", "listen", msrv.Addr())
			go func() {
				if err := msrv.Run(ctx); err != nil {
					slog.Warn("Metrics server stopped", "error", err)
				}
			}()
		}
	}

	rebuild := func(ctx context.Context) error {
		t, err := task.Builtin(cfg, tool.NewRunner(), task.TaskDocs)
		if err != nil {
			return err
		}
		_, err = runner.Run(ctx, t)
		return err
	}

	w := watch.New(cfg.Docs.Source, cfg.DebounceDuration(), cfg.ScheduleDuration(), rebuild)
	slog.Info("Watching documentation source", "source", cfg.Docs.Source,
		"debounce", cfg.DebounceDuration())
	return w.Run(ctx)
}
