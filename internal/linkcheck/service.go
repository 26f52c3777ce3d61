package linkcheck

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	rkerrors "github.com/mflab/relkit/internal/errors"
	"github.com/mflab/relkit/internal/logfields"
)

// Broken identifies one unresolvable internal link.
type Broken struct {
	File string // HTML file containing the link, relative to the root
	URL  string // raw link target
}

// Report summarizes one verification pass.
type Report struct {
	Files   int // HTML files scanned
	Checked int // internal links checked
	Broken  []Broken
}

// Ok reports whether every checked link resolved.
func (r *Report) Ok() bool { return len(r.Broken) == 0 }

// Verify walks the built HTML tree under root and checks that every internal
// link target exists on disk.
func Verify(ctx context.Context, root string) (*Report, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, rkerrors.WrapError(err, rkerrors.CategoryFileSystem, "HTML tree not found").
			WithContext("path", root)
	}

	rep := &Report{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		rep.Files++
		links, err := ExtractLinks(path)
		if err != nil {
			return err
		}

		rel, _ := filepath.Rel(root, path)
		for _, link := range links {
			if !link.IsInternal {
				continue
			}
			rep.Checked++
			if !targetExists(root, path, link.URL) {
				rep.Broken = append(rep.Broken, Broken{File: rel, URL: link.URL})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rep.Ok() {
		slog.Info("Link verification passed",
			slog.Int("files", rep.Files), slog.Int("links", rep.Checked))
	} else {
		for _, b := range rep.Broken {
			slog.Warn("Broken internal link", slog.String("file", b.File), slog.String("target", b.URL))
		}
	}
	return rep, nil
}

// VerifyStep runs Verify and converts broken links into a task failure.
func VerifyStep(root string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		rep, err := Verify(ctx, root)
		if err != nil {
			return err
		}
		if !rep.Ok() {
			return rkerrors.New(rkerrors.CategoryValidation, rkerrors.SeverityError,
				fmt.Sprintf("%d broken internal links", len(rep.Broken)))
		}
		slog.Debug("Verified HTML tree", logfields.Path(root))
		return nil
	}
}

// targetExists resolves an internal link relative to the file containing it
// (or the tree root for absolute paths) and checks the target on disk.
// Directory targets count as resolved when they hold an index.html.
func targetExists(root, fromFile, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	target := u.Path
	if target == "" {
		// Fragment-or-query-only link; refers to the current document.
		return true
	}
	target = filepath.FromSlash(target)

	var resolved string
	if strings.HasPrefix(u.Path, "/") {
		resolved = filepath.Join(root, target)
	} else {
		resolved = filepath.Join(filepath.Dir(fromFile), target)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err := os.Stat(filepath.Join(resolved, "index.html"))
		return err == nil
	}
	return true
}
