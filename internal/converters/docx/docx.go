// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docx converts Word documents to Markdown by walking the body of
// word/document.xml. It handles headings, list paragraphs, bold and italic
// runs, and tables; anything richer is left to the accurate strategy.
package docx

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/internal/converters/ooxml"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Name identifies the converter.
const Name = "docx"

const documentPart = "word/document.xml"

// Converter is the native DOCX converter. Safe for concurrent use.
type Converter struct{}

// New creates a DOCX converter.
func New() *Converter { return &Converter{} }

func (c *Converter) Name() string                  { return Name }
func (c *Converter) SupportsOCR() bool             { return false }
func (c *Converter) Available() bool               { return true }
func (c *Converter) SupportedExtensions() []string { return []string{".docx"} }

// Convert renders the document body as Markdown.
func (c *Converter) Convert(ctx context.Context, path string, opts types.Options) (*types.Result, error) {
	start := time.Now()

	pkg, err := ooxml.Open(path)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()

	rc, err := pkg.OpenPart(documentPart)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	body, err := parseDocument(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", documentPart, err)
	}

	result, err := convert.NewResult(path, strings.Join(body.blocks, "\n\n"))
	if err != nil {
		return nil, err
	}
	core := pkg.CoreProperties()
	result.Metadata.Title = core.Title
	result.Metadata.Author = core.Author
	result.Tables = body.tables

	if opts.ExtractImages {
		images, err := pkg.Media("word/media/")
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("skipping images: %v", err))
		} else {
			result.Images = images
		}
	}
	result.Metadata.Duration = time.Since(start)
	return result, nil
}

type document struct {
	blocks []string
	tables []types.Table
}

// parser holds the walk state over document.xml tokens.
type parser struct {
	doc document

	// paragraph
	para    strings.Builder
	heading int
	list    bool

	// run
	run    strings.Builder
	bold   bool
	italic bool
	inRun  bool
	inRPr  bool
	inText bool

	// tables; only the outermost table keeps its structure
	tableDepth int
	rows       [][]string
	row        []string
	cell       []string
}

func parseDocument(ctx context.Context, r io.Reader) (document, error) {
	p := &parser{}
	dec := xml.NewDecoder(r)
	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return document{}, err
			}
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return document{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			p.start(t)
		case xml.EndElement:
			p.end(t)
		case xml.CharData:
			p.text(t)
		}
	}
	return p.doc, nil
}

func (p *parser) start(se xml.StartElement) {
	switch se.Name.Local {
	case "p":
		p.para.Reset()
		p.heading = 0
		p.list = false
	case "pStyle":
		v, _ := ooxml.Attr(se, "val")
		p.heading = headingLevel(v)
	case "numPr":
		p.list = true
	case "r":
		p.run.Reset()
		p.bold, p.italic = false, false
		p.inRun = true
	case "t":
		p.inText = p.inRun
	case "rPr":
		p.inRPr = true
	case "b":
		if p.inRPr {
			p.bold = ooxml.Toggle(se)
		}
	case "i":
		if p.inRPr {
			p.italic = ooxml.Toggle(se)
		}
	case "tab":
		if p.inRun {
			p.run.WriteString("\t")
		}
	case "br", "cr":
		if p.inRun {
			p.run.WriteString("\n")
		}
	case "tbl":
		p.tableDepth++
		if p.tableDepth == 1 {
			p.rows = nil
		}
	case "tr":
		if p.tableDepth == 1 {
			p.row = nil
		}
	case "tc":
		if p.tableDepth == 1 {
			p.cell = nil
		}
	}
}

func (p *parser) end(ee xml.EndElement) {
	switch ee.Name.Local {
	case "rPr":
		p.inRPr = false
	case "t":
		p.inText = false
	case "r":
		p.inRun = false
		p.para.WriteString(emphasize(p.run.String(), p.bold, p.italic))
	case "p":
		p.endParagraph()
	case "tc":
		if p.tableDepth == 1 {
			p.row = append(p.row, strings.Join(p.cell, " "))
		}
	case "tr":
		if p.tableDepth == 1 {
			p.rows = append(p.rows, p.row)
		}
	case "tbl":
		p.tableDepth--
		if p.tableDepth == 0 && len(p.rows) > 0 {
			t := convert.NewTable(0, len(p.doc.tables), p.rows[0], p.rows[1:])
			p.doc.tables = append(p.doc.tables, t)
			p.doc.blocks = append(p.doc.blocks, t.Markdown)
		}
	}
}

func (p *parser) text(cd xml.CharData) {
	if p.inText {
		p.run.Write(cd)
	}
}

func (p *parser) endParagraph() {
	text := strings.TrimSpace(p.para.String())
	if text == "" {
		return
	}
	if p.tableDepth > 0 {
		p.cell = append(p.cell, text)
		return
	}
	switch {
	case p.heading > 0:
		text = strings.Repeat("#", p.heading) + " " + text
	case p.list:
		text = "- " + text
	}
	p.doc.blocks = append(p.doc.blocks, text)
}

// headingLevel maps a paragraph style id to a Markdown heading level, or 0
// when the style is not a heading.
func headingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	rest, ok := strings.CutPrefix(s, "heading")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0
	}
	return min(n, 6)
}

// emphasize wraps the non-blank core of s in Markdown emphasis, keeping
// surrounding whitespace outside the markers.
func emphasize(s string, bold, italic bool) string {
	if !bold && !italic {
		return s
	}
	core := strings.TrimSpace(s)
	if core == "" {
		return s
	}
	lead := s[:strings.Index(s, core)]
	trail := s[len(lead)+len(core):]
	if italic {
		core = "_" + core + "_"
	}
	if bold {
		core = "**" + core + "**"
	}
	return lead + core + trail
}
