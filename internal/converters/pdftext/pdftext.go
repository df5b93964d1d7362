// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext converts PDFs by reading their embedded text layer with
// MuPDF. It is the fast PDF strategy and also samples pages for the
// scanned-document check.
package pdftext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/internal/converters/pdfdoc"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Name identifies the converter.
const Name = "pdftext"

// Converter reads the PDF text layer page by page.
type Converter struct {
	open pdfdoc.Opener
}

// New creates a text-layer converter backed by MuPDF.
func New() *Converter {
	return &Converter{open: pdfdoc.Open}
}

// NewWithOpener creates a converter that opens documents with open.
func NewWithOpener(open pdfdoc.Opener) *Converter {
	return &Converter{open: open}
}

func (c *Converter) Name() string                  { return Name }
func (c *Converter) SupportsOCR() bool             { return false }
func (c *Converter) Available() bool               { return c.open != nil }
func (c *Converter) SupportedExtensions() []string { return []string{".pdf"} }

// SamplePages implements convert.PageSampler.
func (c *Converter) SamplePages(ctx context.Context, path string, n int) ([]string, error) {
	return pdfdoc.SamplePages(ctx, c.open, path, n)
}

// Convert extracts the text of every page and joins the pages. With
// ExtractImages set, images embedded in each page are returned as well.
func (c *Converter) Convert(ctx context.Context, path string, opts types.Options) (*types.Result, error) {
	start := time.Now()

	doc, err := c.open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	n := doc.NumPage()
	pages := make([]string, 0, n)
	var (
		empty    int
		images   []types.Image
		warnings []string
	)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("reading text of page %d: %w", i+1, err)
		}
		md := TextToMarkdown(text)
		if md == "" {
			empty++
		}
		pages = append(pages, md)

		if opts.ExtractImages {
			imgs, err := pdfdoc.PageImages(doc, i, len(images))
			if err != nil {
				warnings = append(warnings, err.Error())
				continue
			}
			images = append(images, imgs...)
		}
	}

	result, err := convert.NewResult(path, convert.JoinPages(pages, opts))
	if err != nil {
		return nil, err
	}

	info := pdfdoc.ReadInfo(doc)
	result.Metadata.PageCount = n
	result.Metadata.Title = info.Title
	result.Metadata.Author = info.Author
	result.Metadata.Extra = info.Extra
	result.Metadata.Duration = time.Since(start)
	result.Images = images
	if empty > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d of %d pages have no text layer", empty, n))
	}
	result.Warnings = append(result.Warnings, warnings...)
	return result, nil
}

// TextToMarkdown turns extracted page text into Markdown paragraphs: line
// endings are normalized, trailing spaces dropped, and runs of blank lines
// collapsed to one.
func TextToMarkdown(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	blank := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\f\v")
		if strings.TrimSpace(line) == "" {
			blank++
			continue
		}
		if b.Len() > 0 {
			if blank > 0 {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		blank = 0
		b.WriteString(line)
	}
	return b.String()
}
