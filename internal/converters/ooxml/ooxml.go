// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ooxml reads the parts of Office Open XML packages shared by the
// native DOCX and XLSX converters.
package ooxml

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/pdiddy/doc2md/pkg/types"
)

// ErrPartMissing is returned when a required package part is absent.
var ErrPartMissing = errors.New("package part missing")

// maxPartBytes bounds how much of a single part is read into memory.
const maxPartBytes = 256 << 20

// Package is an open OOXML zip archive.
type Package struct {
	zr    *zip.ReadCloser
	parts map[string]*zip.File
}

// Open opens the package at p.
func Open(p string) (*Package, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("opening package %s: %w", p, err)
	}
	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}
	return &Package{zr: zr, parts: parts}, nil
}

// Close releases the archive.
func (p *Package) Close() error { return p.zr.Close() }

// Has reports whether the package contains the named part.
func (p *Package) Has(name string) bool {
	_, ok := p.parts[name]
	return ok
}

// OpenPart opens the named part for streaming.
func (p *Package) OpenPart(name string) (io.ReadCloser, error) {
	f, ok := p.parts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartMissing, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening part %s: %w", name, err)
	}
	return rc, nil
}

// ReadPart reads the named part into memory.
func (p *Package) ReadPart(name string) ([]byte, error) {
	rc, err := p.OpenPart(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPartBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading part %s: %w", name, err)
	}
	if len(data) > maxPartBytes {
		return nil, fmt.Errorf("part %s exceeds %d bytes", name, maxPartBytes)
	}
	return data, nil
}

// DecodePart unmarshals the named XML part into v.
func (p *Package) DecodePart(name string, v any) error {
	rc, err := p.OpenPart(name)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decoding part %s: %w", name, err)
	}
	return nil
}

type coreProperties struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
	Subject string `xml:"subject"`
}

// Core holds the document properties stored in docProps/core.xml.
type Core struct {
	Title   string
	Author  string
	Subject string
}

// CoreProperties reads docProps/core.xml. A missing or unreadable part
// yields empty properties.
func (p *Package) CoreProperties() Core {
	var cp coreProperties
	if err := p.DecodePart("docProps/core.xml", &cp); err != nil {
		return Core{}
	}
	return Core{
		Title:   strings.TrimSpace(cp.Title),
		Author:  strings.TrimSpace(cp.Creator),
		Subject: strings.TrimSpace(cp.Subject),
	}
}

// Media returns the embedded files under dir (e.g. "word/media/"), sorted
// by name and indexed in that order.
func (p *Package) Media(dir string) ([]types.Image, error) {
	var names []string
	for name := range p.parts {
		if strings.HasPrefix(name, dir) && !strings.HasSuffix(name, "/") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	images := make([]types.Image, 0, len(names))
	for i, name := range names {
		data, err := p.ReadPart(name)
		if err != nil {
			return nil, err
		}
		images = append(images, types.Image{
			Index:  i,
			Format: imageFormat(name),
			Data:   data,
		})
	}
	return images, nil
}

func imageFormat(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	switch ext {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	return ext
}

// Attr returns the value of the attribute with the given local name,
// ignoring its namespace.
func Attr(se xml.StartElement, local string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Toggle reports whether a boolean property element such as <w:b/> is on.
// An absent val attribute means on.
func Toggle(se xml.StartElement) bool {
	v, ok := Attr(se, "val")
	if !ok {
		return true
	}
	switch strings.ToLower(v) {
	case "0", "false", "off", "none":
		return false
	}
	return true
}
