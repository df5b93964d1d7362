// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdoctest provides an in-memory pdfdoc.Document for converter
// tests.
package pdfdoctest

import "fmt"

// Document serves canned page text, renders and HTML.
type Document struct {
	Pages []string
	PNGs  [][]byte
	// HTMLPages holds the per-page HTML rendition; missing pages render empty.
	HTMLPages []string
	Meta      map[string]string
	TextErr   error
	HTMLErr   error
	Closed    bool
}

func (d *Document) NumPage() int { return len(d.Pages) }

func (d *Document) Text(n int) (string, error) {
	if d.TextErr != nil {
		return "", d.TextErr
	}
	if n < 0 || n >= len(d.Pages) {
		return "", fmt.Errorf("page %d out of range", n)
	}
	return d.Pages[n], nil
}

func (d *Document) ImagePNG(n int, _ float64) ([]byte, error) {
	if n < 0 || n >= len(d.PNGs) {
		return []byte(fmt.Sprintf("png-page-%d", n)), nil
	}
	return d.PNGs[n], nil
}

func (d *Document) HTML(n int, _ bool) (string, error) {
	if d.HTMLErr != nil {
		return "", d.HTMLErr
	}
	if n < 0 || n >= len(d.HTMLPages) {
		return "", nil
	}
	return d.HTMLPages[n], nil
}

func (d *Document) Metadata() map[string]string { return d.Meta }

func (d *Document) Close() error {
	d.Closed = true
	return nil
}
