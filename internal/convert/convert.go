// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert defines the contract format converters implement, the
// errors the conversion core reports, output validation, and persistence of
// a finished result.
package convert

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/doc2md/pkg/types"
)

// Converter transforms one input file into a Result. Implementations cover
// a single (format, strategy) pair or several; the registry decides which
// pairs each one serves.
type Converter interface {
	// Convert reads the file at path and returns its Markdown rendition.
	// Implementations must honor ctx cancellation and must not modify path.
	Convert(ctx context.Context, path string, opts types.Options) (*types.Result, error)

	// SupportsOCR reports whether the converter can read text from images.
	SupportsOCR() bool

	// Name identifies the converter in logs and provenance.
	Name() string

	// Available reports whether the converter's external dependencies are
	// present. It is probed once when the registry is built.
	Available() bool

	// SupportedExtensions lists the file extensions the converter handles.
	SupportedExtensions() []string
}

// PageSampler extracts the plain text of the first n pages of a paged
// document. The strategy selector uses it to tell scanned PDFs from digital
// ones.
type PageSampler interface {
	SamplePages(ctx context.Context, path string, n int) ([]string, error)
}

// SourceMetadata returns the metadata every converter reports about its
// input: path, size and SHA-256 digest.
func SourceMetadata(path string) (types.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	return types.Metadata{
		SourcePath:      path,
		SourceSizeBytes: n,
		SourceHash:      hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// NewResult builds a Result from converted Markdown, filling source metadata
// and the word count. Converters call it once their body is ready.
func NewResult(path, markdown string) (*types.Result, error) {
	meta, err := SourceMetadata(path)
	if err != nil {
		return nil, err
	}
	meta.WordCount = types.CountWords(markdown)
	return &types.Result{Markdown: markdown, Metadata: meta}, nil
}

// JoinPages concatenates per-page Markdown, separating pages with the
// configured marker when page breaks are enabled.
func JoinPages(pages []string, opts types.Options) string {
	sep := "\n\n"
	if opts.PageBreaks {
		marker := opts.PageBreakMarker
		if marker == "" {
			marker = types.DefaultOptions().PageBreakMarker
		}
		sep = "\n\n" + marker + "\n\n"
	}

	return strings.Join(pages, sep)
}
