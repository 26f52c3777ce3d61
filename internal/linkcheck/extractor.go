// Package linkcheck verifies internal links in a freshly built HTML
// documentation tree. External links are out of scope: verification runs
// offline right after a build.
package linkcheck

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	rkerrors "github.com/mflab/relkit/internal/errors"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL        string // the URL or path
	Tag        string // HTML tag (a, img, script, link, ...)
	Attribute  string // attribute containing the link (href, src)
	IsInternal bool   // true if the link stays inside the site
}

// linkAttributes maps tags to the attribute carrying their target.
var linkAttributes = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"iframe": "src",
	"source": "src",
}

// ExtractLinks extracts all links from an HTML file.
func ExtractLinks(htmlPath string) ([]Link, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, rkerrors.WrapError(err, rkerrors.CategoryFileSystem, "failed to open HTML file").
			WithContext("html_path", htmlPath)
	}
	defer func() {
		_ = file.Close()
	}()

	return ExtractLinksFromReader(file)
}

// ExtractLinksFromReader extracts all links from an HTML reader.
func ExtractLinksFromReader(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, rkerrors.WrapError(err, rkerrors.CategoryValidation, "failed to parse HTML")
	}

	var links []Link
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attrName, ok := linkAttributes[n.Data]; ok {
				for _, attr := range n.Attr {
					if attr.Key != attrName || strings.TrimSpace(attr.Val) == "" {
						continue
					}
					links = append(links, Link{
						URL:        attr.Val,
						Tag:        n.Data,
						Attribute:  attr.Key,
						IsInternal: isInternal(attr.Val),
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)

	return links, nil
}

// isInternal reports whether a link target stays inside the built tree:
// no scheme, no host, not a pure fragment or mailto.
func isInternal(raw string) bool {
	if raw == "" || strings.HasPrefix(raw, "#") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		// Unparseable targets are treated as internal so they get flagged.
		return true
	}
	return u.Scheme == "" && u.Host == ""
}
