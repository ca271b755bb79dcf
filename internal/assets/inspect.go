// Package assets inspects the prebuilt frontend before it is served.
package assets

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/appshell/internal/foundation/errors"
)

// EntryDocument summarizes the frontend's entry point (index.html).
type EntryDocument struct {
	Title       string // Contents of <title>, trimmed
	Scripts     int    // Local <script src> references
	Stylesheets int    // Local <link rel="stylesheet"> references
	Images      int    // Local <img src> references
}

// Inspect parses the entry document at htmlPath.
func Inspect(htmlPath string) (*EntryDocument, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open entry document").WithSeverity(errors.SeverityError).WithContext("html_path", htmlPath).Build()
	}
	defer func() {
		_ = file.Close() // Ignore close errors on read-only operation
	}()

	return InspectReader(file)
}

// InspectReader parses an entry document from a reader.
func InspectReader(r io.Reader) (*EntryDocument, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse entry document").WithSeverity(errors.SeverityError).Build()
	}

	entry := &EntryDocument{}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			inspectElement(n, entry)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return entry, nil
}

// inspectElement records what a single HTML element contributes to the summary.
func inspectElement(n *html.Node, entry *EntryDocument) {
	switch n.Data {
	case "title":
		if entry.Title == "" {
			entry.Title = extractText(n)
		}
	case "script":
		if src := getAttr(n, "src"); src != "" && isLocalRef(src) {
			entry.Scripts++
		}
	case "link":
		rel := getAttr(n, "rel")
		if href := getAttr(n, "href"); href != "" && rel == "stylesheet" && isLocalRef(href) {
			entry.Stylesheets++
		}
	case "img":
		if src := getAttr(n, "src"); src != "" && isLocalRef(src) {
			entry.Images++
		}
	}
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// extractText extracts text content from an HTML node and its children.
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}

	return strings.TrimSpace(text.String())
}

// isLocalRef reports whether a reference will be served by the embedded server.
func isLocalRef(ref string) bool {
	if strings.HasPrefix(ref, "data:") {
		return false
	}

	u, err := url.Parse(ref)
	if err != nil {
		return false
	}

	// Relative URLs and absolute paths are local
	return u.Scheme == "" && u.Host == ""
}
