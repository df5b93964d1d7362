// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Image is an image extracted from a document.
type Image struct {
	// Index is the image position within its page (or document for pageless formats).
	Index int `json:"index" yaml:"index"`

	// Page is the 1-based page the image came from; 0 when not applicable.
	Page int `json:"page" yaml:"page"`

	// Format is the image encoding (e.g. "png", "jpeg").
	Format string `json:"format" yaml:"format"`

	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// Data holds the encoded image bytes.
	Data []byte `json:"-" yaml:"-"`

	// AltText is the description used when linking the image from Markdown.
	AltText string `json:"alt_text,omitempty" yaml:"alt_text,omitempty"`
}

// Filename returns the name the image is saved under.
func (img Image) Filename() string {
	ext := img.Format
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("image_%d_%d.%s", img.Page, img.Index, ext)
}

// Table is a table extracted from a document.
type Table struct {
	Page     int        `json:"page" yaml:"page"`
	Index    int        `json:"index" yaml:"index"`
	Rows     int        `json:"rows" yaml:"rows"`
	Columns  int        `json:"columns" yaml:"columns"`
	Headers  []string   `json:"headers" yaml:"headers"`
	Data     [][]string `json:"data" yaml:"data"`
	Markdown string     `json:"markdown" yaml:"markdown"`
}

// Metadata describes the source document and the conversion that produced a result.
type Metadata struct {
	SourcePath      string            `json:"source_path" yaml:"source_path"`
	SourceSizeBytes int64             `json:"source_size_bytes" yaml:"source_size_bytes"`
	SourceHash      string            `json:"source_hash,omitempty" yaml:"source_hash,omitempty"`
	Title           string            `json:"title,omitempty" yaml:"title,omitempty"`
	Author          string            `json:"author,omitempty" yaml:"author,omitempty"`
	PageCount       int               `json:"page_count" yaml:"page_count"`
	WordCount       int               `json:"word_count" yaml:"word_count"`
	Duration        time.Duration     `json:"duration" yaml:"duration"`
	Extra           map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Provenance records which converter and strategy produced a result, and
// every attempt made for it, the successful one last.
type Provenance struct {
	Converter string    `json:"converter" yaml:"converter"`
	Format    Format    `json:"format" yaml:"format"`
	Strategy  Strategy  `json:"strategy" yaml:"strategy"`
	Attempts  []Attempt `json:"attempts" yaml:"attempts"`
}

// PriorAttempts returns the number of failed attempts before the one that
// produced the result.
func (p Provenance) PriorAttempts() int {
	if len(p.Attempts) == 0 {
		return 0
	}
	return len(p.Attempts) - 1
}

// Result is the complete output of a conversion. The orchestrator never
// mutates a Result after it has passed validation.
type Result struct {
	Markdown   string     `json:"markdown" yaml:"markdown"`
	Images     []Image    `json:"images" yaml:"images"`
	Tables     []Table    `json:"tables" yaml:"tables"`
	Metadata   Metadata   `json:"metadata" yaml:"metadata"`
	Provenance Provenance `json:"provenance" yaml:"provenance"`
	Warnings   []string   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Summary returns a short human-readable description of the result.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pages: %d, words: %d, images: %d, tables: %d",
		r.Metadata.PageCount, r.Metadata.WordCount, len(r.Images), len(r.Tables))
	fmt.Fprintf(&b, ", converter: %s (%s/%s)", r.Provenance.Converter, r.Provenance.Format, r.Provenance.Strategy)
	if n := r.Provenance.PriorAttempts(); n > 0 {
		fmt.Fprintf(&b, " after %d failed attempt(s)", n)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, ", warnings: %d", len(r.Warnings))
	}
	return b.String()
}

// Verdict is the validation outcome of one attempt.
type Verdict string

const (
	VerdictNotRun Verdict = "not_run"
	VerdictPassed Verdict = "passed"
	VerdictFailed Verdict = "failed"
)

// Attempt records one candidate tried by the orchestrator.
type Attempt struct {
	Converter string   `json:"converter" yaml:"converter"`
	Format    Format   `json:"format" yaml:"format"`
	Strategy  Strategy `json:"strategy" yaml:"strategy"`
	Success   bool     `json:"success" yaml:"success"`
	Err       error    `json:"-" yaml:"-"`
	Verdict   Verdict  `json:"verdict" yaml:"verdict"`
}

func (a Attempt) String() string {
	name := a.Converter
	if name == "" {
		name = "<none>"
	}
	if a.Err != nil {
		return fmt.Sprintf("%s/%s via %s: %v", a.Format, a.Strategy, name, a.Err)
	}
	return fmt.Sprintf("%s/%s via %s: ok", a.Format, a.Strategy, name)
}

// Options are per-request conversion options passed through to converters.
type Options struct {
	// ExtractImages controls whether converters return embedded images.
	ExtractImages bool `json:"extract_images" yaml:"extract_images" mapstructure:"extract_images"`

	// PageBreaks inserts PageBreakMarker between pages for paged formats.
	PageBreaks bool `json:"page_breaks" yaml:"page_breaks" mapstructure:"page_breaks"`

	// PageBreakMarker is the Markdown inserted between pages (default "---").
	PageBreakMarker string `json:"page_break_marker" yaml:"page_break_marker" mapstructure:"page_break_marker"`

	// OCRLanguage is the tesseract language code(s), e.g. "eng" or "eng+fra".
	OCRLanguage string `json:"ocr_language" yaml:"ocr_language" mapstructure:"ocr_language"`

	// OCRDPI is the render resolution for OCR.
	OCRDPI int `json:"ocr_dpi" yaml:"ocr_dpi" mapstructure:"ocr_dpi"`

	// Timeout bounds each converter invocation. Zero means no deadline.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Format is the detected input format. The orchestrator sets it before
	// invoking a converter; callers leave it empty.
	Format Format `json:"-" yaml:"-" mapstructure:"-"`
}

// DefaultOptions returns the default conversion options.
func DefaultOptions() Options {
	return Options{
		ExtractImages:   true,
		PageBreakMarker: "---",
		OCRLanguage:     "eng",
		OCRDPI:          300,
	}
}

// Validate checks the option values that converters cannot recover from.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.OCRDPI, validation.Min(0), validation.Max(1200)),
		validation.Field(&o.Timeout, validation.Min(time.Duration(0))),
	)
}

// CountWords counts whitespace-separated tokens in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
