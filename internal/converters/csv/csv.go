// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package csv converts delimited text files to a single Markdown table.
package csv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Name identifies the converter.
const Name = "csv"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Converter is the CSV converter. Safe for concurrent use.
type Converter struct{}

// New creates a CSV converter.
func New() *Converter { return &Converter{} }

func (c *Converter) Name() string                  { return Name }
func (c *Converter) SupportsOCR() bool             { return false }
func (c *Converter) Available() bool               { return true }
func (c *Converter) SupportedExtensions() []string { return []string{".csv", ".tsv"} }

// Convert reads every record and renders them as a table whose header is
// the first record. The delimiter is sniffed from the first line.
func (c *Converter) Convert(ctx context.Context, path string, _ types.Options) (*types.Result, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	first, _ := br.Peek(4096)

	r := csv.NewReader(br)
	r.Comma = sniffDelimiter(first)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		if len(records)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		records = append(records, rec)
	}

	var tables []types.Table
	markdown := ""
	if len(records) > 0 {
		t := convert.NewTable(0, 0, records[0], records[1:])
		tables = append(tables, t)
		markdown = t.Markdown
	}

	result, err := convert.NewResult(path, markdown)
	if err != nil {
		return nil, err
	}
	result.Tables = tables
	result.Metadata.Duration = time.Since(start)
	return result, nil
}

// sniffDelimiter picks the candidate that occurs most often on the first
// line, defaulting to a comma.
func sniffDelimiter(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	best, bestN := ',', 0
	for _, d := range []rune{',', '\t', ';', '|'} {
		if n := bytes.Count(sample, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
