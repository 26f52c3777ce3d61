// Package notes renders release notes from the project changelog: one
// version's section is located in the Markdown AST and rendered to an HTML
// page inside the documentation output tree.
package notes

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	rkerrors "github.com/mflab/relkit/internal/errors"
)

// Extract locates the changelog section for version and returns its HTML
// rendering. An empty version selects the first (most recent) section.
// Sections start at a heading of level two or deeper whose text contains the
// version, and run until the next heading of the same or a higher level.
func Extract(source []byte, version string) ([]byte, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(source))

	var section []gmast.Node
	collecting := false
	sectionLevel := 0

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*gmast.Heading); ok && h.Level >= 2 {
			if collecting && h.Level <= sectionLevel {
				break
			}
			if !collecting && (version == "" || strings.Contains(string(h.Text(source)), version)) {
				collecting = true
				sectionLevel = h.Level
				section = append(section, n)
				continue
			}
		}
		if collecting {
			section = append(section, n)
		}
	}

	if !collecting {
		return nil, rkerrors.New(rkerrors.CategoryValidation, rkerrors.SeverityError,
			fmt.Sprintf("version %q not found in changelog", version))
	}

	var buf bytes.Buffer
	for _, n := range section {
		if err := md.Renderer().Render(&buf, source, n); err != nil {
			return nil, rkerrors.WrapError(err, rkerrors.CategoryInternal, "failed to render changelog section")
		}
	}
	return buf.Bytes(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s release notes</title>
</head>
<body>
%s
</body>
</html>
`

// Generate reads the changelog, extracts the section for version and writes
// a standalone release-notes page to outPath.
func Generate(changelogPath, version, project, outPath string) error {
	source, err := os.ReadFile(filepath.Clean(changelogPath))
	if err != nil {
		return rkerrors.WrapError(err, rkerrors.CategoryFileSystem, "failed to read changelog").
			WithContext("path", changelogPath)
	}

	body, err := Extract(source, version)
	if err != nil {
		return err
	}

	title := project
	if version != "" {
		title = project + " " + version
	}
	page := fmt.Sprintf(pageTemplate, title, strings.TrimRight(string(body), "\n"))

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return rkerrors.WrapError(err, rkerrors.CategoryFileSystem, "failed to create notes directory")
	}
	if err := os.WriteFile(outPath, []byte(page), 0o644); err != nil {
		return rkerrors.WrapError(err, rkerrors.CategoryFileSystem, "failed to write release notes").
			WithContext("path", outPath)
	}
	return nil
}
