package sources

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLSource reads lab reports exported as HTML. Each table row becomes one
// line with cells separated by two spaces; other text blocks become lines.
type HTMLSource struct{}

// NewHTMLSource creates a new HTML source
func NewHTMLSource() *HTMLSource {
	return &HTMLSource{}
}

// Name returns the source name
func (s *HTMLSource) Name() string {
	return "html"
}

// CanHandle accepts .html/.htm files and text/html content
func (s *HTMLSource) CanHandle(path string, contentType string) bool {
	return hasExt(path, ".html", ".htm") || strings.HasPrefix(contentType, "text/html")
}

// Lines parses the document and flattens it to lines
func (s *HTMLSource) Lines(ctx context.Context, r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lines []string
	var current strings.Builder

	flush := func() {
		line := strings.Join(strings.Fields(current.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			case "tr":
				flush()
				if row := rowText(n); row != "" {
					lines = append(lines, row)
				}
				return
			case "br":
				flush()
				return
			}
		}

		if n.Type == html.TextNode {
			current.WriteString(n.Data)
			current.WriteString(" ")
		}

		block := n.Type == html.ElementNode && isBlock(n.Data)
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}

	walk(doc)
	flush()

	return lines, nil
}

// rowText joins the cells of a table row
func rowText(tr *html.Node) string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		if text := nodeText(c); text != "" {
			cells = append(cells, text)
		}
	}
	return strings.Join(cells, "  ")
}

// nodeText extracts whitespace-normalised text content from a node
func nodeText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(strings.Fields(buf.String()), " ")
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "table", "section", "article",
		"h1", "h2", "h3", "h4", "h5", "h6", "pre", "body":
		return true
	}
	return false
}
