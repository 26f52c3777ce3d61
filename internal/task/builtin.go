package task

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mflab/relkit/internal/artifact"
	"github.com/mflab/relkit/internal/config"
	rkerrors "github.com/mflab/relkit/internal/errors"
	"github.com/mflab/relkit/internal/linkcheck"
	"github.com/mflab/relkit/internal/notes"
	"github.com/mflab/relkit/internal/tool"
)

// Built-in task names.
const (
	TaskDocs    = "docs"
	TaskPDF     = "pdf"
	TaskDist    = "dist"
	TaskPublish = "publish"
)

// Builtin assembles the four release tasks from configuration. Each task is
// validated against its config section when built, so a misconfigured task
// fails before its confirmation prompt.
func Builtin(cfg *config.Config, tr *tool.Runner, name string) (Task, error) {
	switch name {
	case TaskDocs:
		return docsTask(cfg, tr)
	case TaskPDF:
		return pdfTask(cfg, tr)
	case TaskDist:
		return distTask(cfg, tr)
	case TaskPublish:
		return publishTask(cfg, tr)
	default:
		return Task{}, rkerrors.New(rkerrors.CategoryValidation, rkerrors.SeverityFatal,
			fmt.Sprintf("unknown task %q", name))
	}
}

// docsTask rebuilds the HTML documentation tree. The builder command gets
// the source and output directories appended, sphinx-build style.
func docsTask(cfg *config.Config, tr *tool.Runner) (Task, error) {
	if err := cfg.ValidateDocs(); err != nil {
		return Task{}, err
	}

	steps := []Step{
		NewExecStep("html-build", "Generate the HTML documentation tree", tr, tool.Invocation{
			Bin:  cfg.Docs.Builder.Bin(),
			Args: append(append([]string{}, cfg.Docs.Builder.Args()...), cfg.Docs.Source, cfg.Docs.OutputDir),
		}),
	}

	if cfg.Docs.Notes {
		// Page filename derives from the project name; raw unicode from the
		// config never reaches the published tree.
		page := artifact.Slug(cfg.Project.Name) + "-release-notes.html"
		outPath := filepath.Join(cfg.Docs.OutputDir, page)
		changelog := cfg.Project.Changelog
		project := cfg.Project.Name
		steps = append(steps, NewFuncStep("release-notes", "Render the changelog into the HTML tree",
			func(context.Context) error {
				return notes.Generate(changelog, "", project, outPath)
			}))
	}

	if cfg.Docs.VerifyLinks {
		steps = append(steps, NewFuncStep("verify-links", "Check internal links in the built tree",
			linkcheck.VerifyStep(cfg.Docs.OutputDir)))
	}

	return Task{
		Name:      TaskDocs,
		Label:     "documentation",
		Warning:   fmt.Sprintf("This will delete %s and rebuild the HTML documentation.", cfg.Docs.OutputDir),
		OutputDir: cfg.Docs.OutputDir,
		Steps:     steps,
	}, nil
}

// pdfTask rebuilds the PDF manual. The build command runs multiple passes so
// the table of contents and cross-references settle, then the produced PDF
// is copied to its fixed published name.
func pdfTask(cfg *config.Config, tr *tool.Runner) (Task, error) {
	if err := cfg.ValidatePDF(); err != nil {
		return Task{}, err
	}

	steps := make([]Step, 0, cfg.PDF.Passes)
	for pass := 1; pass <= cfg.PDF.Passes; pass++ {
		steps = append(steps, NewExecStep(
			fmt.Sprintf("latex-pass-%d", pass),
			fmt.Sprintf("PDF build pass %d of %d", pass, cfg.PDF.Passes),
			tr,
			tool.Invocation{Bin: cfg.PDF.Build.Bin(), Args: cfg.PDF.Build.Args()},
		))
	}

	return Task{
		Name:      TaskPDF,
		Label:     "PDF",
		Warning:   fmt.Sprintf("This will delete %s and rebuild the PDF manual.", cfg.PDF.BuildDir),
		OutputDir: cfg.PDF.BuildDir,
		Steps:     steps,
		Artifact:  &ArtifactSpec{Source: cfg.PDF.Artifact, Dest: cfg.PDF.Final},
	}, nil
}

// distTask rebuilds the source distribution.
func distTask(cfg *config.Config, tr *tool.Runner) (Task, error) {
	if err := cfg.ValidateDist(); err != nil {
		return Task{}, err
	}

	return Task{
		Name:      TaskDist,
		Label:     "distribution",
		Warning:   fmt.Sprintf("This will delete %s and rebuild the source distribution.", cfg.Dist.OutputDir),
		OutputDir: cfg.Dist.OutputDir,
		Steps: []Step{
			NewExecStep("package-build", "Build the source distribution", tr, tool.Invocation{
				Bin:  cfg.Dist.Builder.Bin(),
				Args: cfg.Dist.Builder.Args(),
			}),
		},
	}, nil
}

// publishTask uploads the distribution to the configured repository. It has
// no output directory of its own; the confirmation gate is there because the
// upload is outward-facing.
func publishTask(cfg *config.Config, tr *tool.Runner) (Task, error) {
	if err := cfg.ValidatePublish(); err != nil {
		return Task{}, err
	}

	return Task{
		Name:        TaskPublish,
		Label:       "package",
		Warning:     fmt.Sprintf("This will upload %s to the %s repository.", cfg.Publish.Glob, cfg.Publish.Repository),
		BuildNotice: fmt.Sprintf("Uploading %s to %s...", cfg.Publish.Glob, cfg.Publish.Repository),
		Steps: []Step{
			&uploadStep{
				runner: tr,
				base: tool.Invocation{
					Bin:  cfg.Publish.Tool.Bin(),
					Args: append(append([]string{}, cfg.Publish.Tool.Args()...), "--repository", cfg.Publish.Repository),
				},
				glob: cfg.Publish.Glob,
			},
		},
	}, nil
}

// uploadStep expands the distribution glob at execution time (the files may
// only exist once the dist task ran) and hands them to the upload tool.
type uploadStep struct {
	runner *tool.Runner
	base   tool.Invocation
	glob   string
}

func (s *uploadStep) Name() string        { return "upload" }
func (s *uploadStep) Description() string { return "Upload the distribution to the package repository" }

// Invocation exposes the base command for toolchain preflight.
func (s *uploadStep) Invocation() tool.Invocation { return s.base }

func (s *uploadStep) Run(ctx context.Context) error {
	files, err := filepath.Glob(s.glob)
	if err != nil {
		return rkerrors.WrapError(err, rkerrors.CategoryValidation, "invalid distribution glob").
			WithSeverity(rkerrors.SeverityFatal).
			WithContext("glob", s.glob)
	}
	if len(files) == 0 {
		return rkerrors.New(rkerrors.CategoryValidation, rkerrors.SeverityFatal,
			fmt.Sprintf("no distribution files match %s; run the dist task first", s.glob))
	}

	inv := s.base
	inv.Args = append(append([]string{}, inv.Args...), files...)
	return s.runner.Run(ctx, inv)
}
