// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plaintext passes text files through as Markdown after decoding
// them to UTF-8 and normalizing line endings.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Name identifies the converter.
const Name = "plaintext"

// maxBytes bounds how much of a text file is read.
const maxBytes = 64 << 20

// Converter is the plain-text converter. Safe for concurrent use.
type Converter struct{}

// New creates a plain-text converter.
func New() *Converter { return &Converter{} }

func (c *Converter) Name() string      { return Name }
func (c *Converter) SupportsOCR() bool { return false }
func (c *Converter) Available() bool   { return true }
func (c *Converter) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown", ".text"}
}

// Convert returns the file's text. Input that is not valid UTF-8 is decoded
// with the encoding sniffed from its content.
func (c *Converter) Convert(ctx context.Context, path string, _ types.Options) (*types.Result, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var warnings []string
	if len(data) > maxBytes {
		data = data[:maxBytes]
		warnings = append(warnings, fmt.Sprintf("input truncated to %d bytes", maxBytes))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	result, err := convert.NewResult(path, Normalize(text))
	if err != nil {
		return nil, err
	}
	result.Warnings = warnings
	result.Metadata.Duration = time.Since(start)
	return result, nil
}

func decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), nil
	}
	enc, _, _ := charset.DetermineEncoding(data, "text/plain")
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Normalize converts line endings to \n, strips trailing whitespace from
// each line and trims leading and trailing blank lines.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
