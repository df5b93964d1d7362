// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr converts scanned PDFs and images by running tesseract in a
// container. PDF pages are rendered to PNG with MuPDF first; image inputs
// are streamed to tesseract unchanged.
package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pdiddy/doc2md/internal/container"
	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/internal/converters/pdfdoc"
	"github.com/pdiddy/doc2md/internal/converters/pdftext"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Name identifies the converter.
const Name = "ocr"

var pdfMagic = []byte("%PDF-")

// Converter runs OCR through a container runtime.
type Converter struct {
	runtime  container.Runtime
	image    string
	maxPages int
	open     pdfdoc.Opener
}

// New creates an OCR converter. rt may be nil, in which case the converter
// reports itself unavailable.
func New(rt container.Runtime, cfg types.OCRConfig) *Converter {
	return &Converter{runtime: rt, image: cfg.Image, maxPages: cfg.MaxPages, open: pdfdoc.Open}
}

// WithOpener replaces the PDF opener.
func (c *Converter) WithOpener(open pdfdoc.Opener) *Converter {
	c.open = open
	return c
}

func (c *Converter) Name() string      { return Name }
func (c *Converter) SupportsOCR() bool { return true }

// Available reports whether a runtime is present and the tesseract image
// exists locally.
func (c *Converter) Available() bool {
	return c.runtime != nil && c.image != "" && c.runtime.ImageExists(c.image) == nil
}

func (c *Converter) SupportedExtensions() []string {
	return []string{".pdf", ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".gif", ".webp"}
}

// Convert recognizes the text of every page of path.
func (c *Converter) Convert(ctx context.Context, path string, opts types.Options) (*types.Result, error) {
	start := time.Now()

	isPDF, err := hasPDFMagic(path)
	if err != nil {
		return nil, err
	}

	var (
		pages    []string
		warnings []string
		info     pdfdoc.Info
	)
	if isPDF {
		pages, warnings, info, err = c.recognizePDF(ctx, path, opts)
	} else {
		pages, err = c.recognizeImage(ctx, path, opts)
	}
	if err != nil {
		return nil, err
	}

	result, err := convert.NewResult(path, convert.JoinPages(pages, opts))
	if err != nil {
		return nil, err
	}
	result.Metadata.PageCount = len(pages)
	result.Metadata.Title = info.Title
	result.Metadata.Author = info.Author
	result.Metadata.Extra = map[string]string{"ocr_language": lang(opts), "ocr_dpi": strconv.Itoa(dpi(opts))}
	result.Metadata.Duration = time.Since(start)
	result.Warnings = warnings
	return result, nil
}

func (c *Converter) recognizePDF(ctx context.Context, path string, opts types.Options) ([]string, []string, pdfdoc.Info, error) {
	doc, err := c.open(path)
	if err != nil {
		return nil, nil, pdfdoc.Info{}, err
	}
	defer doc.Close()

	n := doc.NumPage()
	var warnings []string
	if c.maxPages > 0 && n > c.maxPages {
		warnings = append(warnings, fmt.Sprintf("only the first %d of %d pages were recognized", c.maxPages, n))
		n = c.maxPages
	}

	pages := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, pdfdoc.Info{}, err
		}
		png, err := doc.ImagePNG(i, float64(dpi(opts)))
		if err != nil {
			return nil, nil, pdfdoc.Info{}, fmt.Errorf("rendering page %d: %w", i+1, err)
		}
		text, err := c.tesseract(ctx, bytes.NewReader(png), opts)
		if err != nil {
			return nil, nil, pdfdoc.Info{}, fmt.Errorf("recognizing page %d: %w", i+1, err)
		}
		pages = append(pages, text)
	}
	return pages, warnings, pdfdoc.ReadInfo(doc), nil
}

func (c *Converter) recognizeImage(ctx context.Context, path string, opts types.Options) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	text, err := c.tesseract(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("recognizing %s: %w", path, err)
	}
	return []string{text}, nil
}

// tesseract runs one image through the container and returns Markdown.
func (c *Converter) tesseract(ctx context.Context, img io.Reader, opts types.Options) (string, error) {
	if c.runtime == nil {
		return "", fmt.Errorf("no container runtime: %w", convert.ErrConverterUnavailable)
	}
	spec := container.Spec{
		Image: c.image,
		Args:  []string{"tesseract", "stdin", "stdout", "-l", lang(opts), "--dpi", strconv.Itoa(dpi(opts))},
	}
	var out bytes.Buffer
	if err := c.runtime.Run(ctx, spec, img, &out); err != nil {
		return "", err
	}
	return pdftext.TextToMarkdown(out.String()), nil
}

func hasPDFMagic(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	head, err := bufio.NewReader(f).Peek(len(pdfMagic))
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	return bytes.Equal(head, pdfMagic), nil
}

func lang(opts types.Options) string {
	if opts.OCRLanguage == "" {
		return types.DefaultOptions().OCRLanguage
	}
	return opts.OCRLanguage
}

func dpi(opts types.Options) int {
	if opts.OCRDPI <= 0 {
		return types.DefaultOptions().OCRDPI
	}
	return opts.OCRDPI
}
