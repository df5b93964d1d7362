// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package xlsx converts Excel workbooks to Markdown, one section and one
// table per worksheet. Cell values are rendered as stored; number formats
// are not applied.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/internal/converters/ooxml"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Name identifies the converter.
const Name = "xlsx"

const (
	workbookPart      = "xl/workbook.xml"
	workbookRelsPart  = "xl/_rels/workbook.xml.rels"
	sharedStringsPart = "xl/sharedStrings.xml"
)

type workbook struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"id,attr"`
	} `xml:"sheets>sheet"`
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type richText struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (rt richText) String() string {
	var b strings.Builder
	b.WriteString(rt.T)
	for _, r := range rt.Runs {
		b.WriteString(r.T)
	}
	return b.String()
}

type sharedStrings struct {
	Items []richText `xml:"si"`
}

type worksheet struct {
	Rows []struct {
		Cells []struct {
			Ref    string   `xml:"r,attr"`
			Type   string   `xml:"t,attr"`
			Value  string   `xml:"v"`
			Inline richText `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// Converter is the native XLSX converter. Safe for concurrent use.
type Converter struct{}

// New creates an XLSX converter.
func New() *Converter { return &Converter{} }

func (c *Converter) Name() string                  { return Name }
func (c *Converter) SupportsOCR() bool             { return false }
func (c *Converter) Available() bool               { return true }
func (c *Converter) SupportedExtensions() []string { return []string{".xlsx"} }

// Convert renders every worksheet as a "## <sheet>" section holding a
// Markdown table whose header is the sheet's first non-empty row.
func (c *Converter) Convert(ctx context.Context, p string, _ types.Options) (*types.Result, error) {
	start := time.Now()

	pkg, err := ooxml.Open(p)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()

	var wb workbook
	if err := pkg.DecodePart(workbookPart, &wb); err != nil {
		return nil, err
	}

	targets := sheetTargets(pkg)
	strs, err := readSharedStrings(pkg)
	if err != nil {
		return nil, err
	}

	var (
		blocks   []string
		tables   []types.Table
		warnings []string
	)
	for i, sheet := range wb.Sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part, ok := targets[sheet.RID]
		if !ok {
			part = fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)
		}

		var ws worksheet
		if err := pkg.DecodePart(part, &ws); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
		rows := ws.grid(strs)
		if len(rows) == 0 {
			warnings = append(warnings, fmt.Sprintf("sheet %q is empty", sheet.Name))
			continue
		}

		t := convert.NewTable(i+1, len(tables), rows[0], rows[1:])
		tables = append(tables, t)
		blocks = append(blocks, "## "+sheet.Name, t.Markdown)
	}

	result, err := convert.NewResult(p, strings.Join(blocks, "\n\n"))
	if err != nil {
		return nil, err
	}
	core := pkg.CoreProperties()
	result.Metadata.Title = core.Title
	result.Metadata.Author = core.Author
	result.Metadata.PageCount = len(wb.Sheets)
	result.Tables = tables
	result.Warnings = warnings
	result.Metadata.Duration = time.Since(start)
	return result, nil
}

// sheetTargets maps workbook relationship ids to worksheet part names.
func sheetTargets(pkg *ooxml.Package) map[string]string {
	var rels relationships
	if err := pkg.DecodePart(workbookRelsPart, &rels); err != nil {
		return nil
	}
	targets := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		if abs, ok := strings.CutPrefix(r.Target, "/"); ok {
			targets[r.ID] = abs
			continue
		}
		targets[r.ID] = path.Join("xl", r.Target)
	}
	return targets
}

func readSharedStrings(pkg *ooxml.Package) ([]string, error) {
	var sst sharedStrings
	if err := pkg.DecodePart(sharedStringsPart, &sst); err != nil {
		if errors.Is(err, ooxml.ErrPartMissing) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		out[i] = si.String()
	}
	return out, nil
}

// grid lays cells out by column reference and drops empty rows.
func (ws worksheet) grid(strs []string) [][]string {
	var rows [][]string
	for _, r := range ws.Rows {
		var row []string
		for pos, c := range r.Cells {
			col := pos
			if idx, ok := columnIndex(c.Ref); ok {
				col = idx
			}
			for len(row) <= col {
				row = append(row, "")
			}
			row[col] = cellValue(c.Type, c.Value, c.Inline, strs)
		}
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func cellValue(typ, v string, inline richText, strs []string) string {
	switch typ {
	case "s":
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && i >= 0 && i < len(strs) {
			return strs[i]
		}
		return ""
	case "inlineStr":
		return inline.String()
	case "b":
		if v == "1" {
			return "TRUE"
		}
		return "FALSE"
	}
	return v
}

// columnIndex converts the letters of a cell reference such as "AB12" to a
// zero-based column index.
func columnIndex(ref string) (int, bool) {
	n := 0
	letters := 0
	for _, r := range ref {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		if r < 'A' || r > 'Z' {
			break
		}
		n = n*26 + int(r-'A'+1)
		letters++
	}
	if letters == 0 {
		return 0, false
	}
	return n - 1, true
}
