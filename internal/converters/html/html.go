// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package html converts HTML documents to Markdown in three stages: decode
// the declared charset to UTF-8, sanitize the markup, then render Markdown.
package html

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Name identifies the converter.
const Name = "html"

// Converter converts HTML files to Markdown. Safe for concurrent use.
type Converter struct {
	policy *bluemonday.Policy
}

// New creates an HTML converter. Sanitization uses a user-generated-content
// policy: scripts, event handlers and javascript: URLs are removed while
// formatting, links, images and tables are kept.
func New() *Converter {
	return &Converter{policy: bluemonday.UGCPolicy()}
}

func (c *Converter) Name() string                  { return Name }
func (c *Converter) SupportsOCR() bool             { return false }
func (c *Converter) Available() bool               { return true }
func (c *Converter) SupportedExtensions() []string { return []string{".html", ".htm", ".xhtml"} }

// Convert reads the HTML file at path and renders its body as Markdown.
func (c *Converter) Convert(ctx context.Context, path string, _ types.Options) (*types.Result, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r, err := charset.NewReader(f, "text/html")
	if err != nil {
		return nil, fmt.Errorf("decoding charset of %s: %w", path, err)
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body := findElement(doc, "body")
	if body == nil {
		body = doc
	}
	var raw bytes.Buffer
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&raw, n); err != nil {
			return nil, fmt.Errorf("rendering %s: %w", path, err)
		}
	}

	sanitized := c.policy.Sanitize(raw.String())

	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	markdown, err := conv.ConvertString(sanitized)
	if err != nil {
		return nil, fmt.Errorf("converting %s to markdown: %w", path, err)
	}

	result, err := convert.NewResult(path, strings.TrimSpace(markdown))
	if err != nil {
		return nil, err
	}
	if title := findElement(doc, "title"); title != nil {
		result.Metadata.Title = strings.TrimSpace(textContent(title))
	}
	result.Metadata.Author = metaContent(doc, "author")
	result.Tables = extractTables(body)
	result.Metadata.Duration = time.Since(start)
	return result, nil
}

// findElement returns the first element named tag in document order.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every element named tag below n, not descending into
// matches.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
			continue
		}
		out = append(out, findAll(c, tag)...)
	}
	return out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func metaContent(doc *html.Node, name string) string {
	for _, m := range findAll(doc, "meta") {
		if strings.EqualFold(attr(m, "name"), name) {
			return strings.TrimSpace(attr(m, "content"))
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// extractTables records the shape and cell text of each top-level table.
// A leading row made only of th cells becomes the header.
func extractTables(root *html.Node) []types.Table {
	var tables []types.Table
	for i, tn := range findAll(root, "table") {
		var headers []string
		var data [][]string
		for _, tr := range findAll(tn, "tr") {
			var row []string
			header := true
			for c := tr.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
					continue
				}
				if c.Data == "td" {
					header = false
				}
				row = append(row, textContent(c))
			}
			if len(row) == 0 {
				continue
			}
			if header && headers == nil && len(data) == 0 {
				headers = row
				continue
			}
			data = append(data, row)
		}
		tables = append(tables, convert.NewTable(0, i, headers, data))
	}
	return tables
}
