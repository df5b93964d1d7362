// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdoc opens paged documents through MuPDF (go-fitz) behind a
// small interface so converters can be tested without the native library.
package pdfdoc

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/net/html"

	"github.com/pdiddy/doc2md/pkg/types"
)

// Document is the subset of *fitz.Document the converters use.
type Document interface {
	NumPage() int
	Text(pageNumber int) (string, error)
	ImagePNG(pageNumber int, dpi float64) ([]byte, error)
	// HTML renders a page as HTML; embedded images appear as data URIs.
	HTML(pageNumber int, header bool) (string, error)
	Metadata() map[string]string
	Close() error
}

// Opener opens the document at path.
type Opener func(path string) (Document, error)

// Open opens path with MuPDF.
func Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return doc, nil
}

// SamplePages returns the plain text of at most n leading pages.
func SamplePages(ctx context.Context, open Opener, path string, n int) ([]string, error) {
	doc, err := open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	count := min(n, doc.NumPage())
	pages := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("reading text of page %d: %w", i+1, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// Info is the document-level metadata MuPDF reports.
type Info struct {
	Title  string
	Author string
	Extra  map[string]string
}

// ReadInfo extracts title, author and the remaining non-empty metadata
// entries from doc.
func ReadInfo(doc Document) Info {
	var info Info
	for k, v := range doc.Metadata() {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		switch k {
		case "title":
			info.Title = v
		case "author":
			info.Author = v
		default:
			if info.Extra == nil {
				info.Extra = make(map[string]string)
			}
			info.Extra[k] = v
		}
	}
	return info
}

// PageImages returns the images embedded in page pageNumber (zero-based).
// Page numbers on the returned images are one-based; Index counts from
// first within the page.
func PageImages(doc Document, pageNumber, first int) ([]types.Image, error) {
	markup, err := doc.HTML(pageNumber, false)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d as html: %w", pageNumber+1, err)
	}
	if markup == "" {
		return nil, nil
	}

	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing page %d html: %w", pageNumber+1, err)
	}

	var images []types.Image
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			if img, ok := dataImage(attr(n, "src")); ok {
				img.Page = pageNumber + 1
				img.Index = first + len(images)
				img.AltText = attr(n, "alt")
				images = append(images, img)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return images, nil
}

// dataImage decodes a base64 data URI such as "data:image/png;base64,...".
func dataImage(src string) (types.Image, bool) {
	rest, ok := strings.CutPrefix(src, "data:image/")
	if !ok {
		return types.Image{}, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return types.Image{}, false
	}
	subtype, params, _ := strings.Cut(meta, ";")
	if !strings.Contains(params, "base64") {
		return types.Image{}, false
	}
	data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(payload), ""))
	if err != nil || len(data) == 0 {
		return types.Image{}, false
	}

	format := strings.ToLower(subtype)
	if format == "jpg" {
		format = "jpeg"
	}
	img := types.Image{Format: format, Data: data}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return img, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
