// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markitdown converts office documents and e-books by piping them
// through the markitdown container image.
package markitdown

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/doc2md/internal/container"
	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/pkg/types"
)

// Name identifies the converter.
const Name = "markitdown"

// Converter converts documents by piping them through the markitdown
// container image. It depends on a container.Runtime (docker or podman)
// injected at construction time.
type Converter struct {
	runtime   container.Runtime
	image     string
	llmAPIKey string
}

// New creates a converter that uses rt to run the markitdown image. rt may
// be nil, in which case the converter reports itself unavailable.
func New(rt container.Runtime, cfg types.MarkitdownConfig) *Converter {
	return &Converter{runtime: rt, image: cfg.Image, llmAPIKey: cfg.LLMAPIKey}
}

func (c *Converter) Name() string      { return Name }
func (c *Converter) SupportsOCR() bool { return c.llmAPIKey != "" }

func (c *Converter) SupportedExtensions() []string {
	return []string{".docx", ".xlsx", ".pptx", ".epub"}
}

// Available reports whether a runtime is present and the markitdown image
// exists locally.
func (c *Converter) Available() bool {
	return c.runtime != nil && c.image != "" && c.runtime.ImageExists(c.image) == nil
}

// Convert reads the file at path, pipes it through the markitdown container,
// and returns the resulting Markdown text.
func (c *Converter) Convert(ctx context.Context, path string, opts types.Options) (*types.Result, error) {
	if c.runtime == nil {
		return nil, fmt.Errorf("no container runtime: %w", convert.ErrConverterUnavailable)
	}
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	spec := container.Spec{Image: c.image}
	// markitdown cannot sniff the type of stdin without a hint.
	if ext := extensionHint(path, opts.Format); ext != "" {
		spec.Args = []string{"--extension", ext}
	}
	if c.llmAPIKey != "" {
		spec.Env = map[string]string{"OPENAI_API_KEY": c.llmAPIKey}
		spec.Network = true
	}

	var out bytes.Buffer
	if err := c.runtime.Run(ctx, spec, f, &out); err != nil {
		return nil, fmt.Errorf("converting %s with markitdown: %w", path, err)
	}

	if out.Len() == 0 {
		return nil, fmt.Errorf("markitdown produced empty output for %s", path)
	}

	result, err := convert.NewResult(path, strings.TrimSpace(out.String()))
	if err != nil {
		return nil, err
	}
	result.Metadata.Title = firstHeading(result.Markdown)
	result.Metadata.Duration = time.Since(start)
	return result, nil
}

// hintExtensions maps detected formats to the extension markitdown expects.
var hintExtensions = map[types.Format]string{
	types.FormatPDF:  "pdf",
	types.FormatDOCX: "docx",
	types.FormatXLSX: "xlsx",
	types.FormatPPTX: "pptx",
	types.FormatEPUB: "epub",
	types.FormatHTML: "html",
	types.FormatCSV:  "csv",
	types.FormatText: "txt",
}

// extensionHint prefers the detected format over the file name, which may
// be misleading.
func extensionHint(path string, format types.Format) string {
	if ext, ok := hintExtensions[format]; ok {
		return ext
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// firstHeading returns the text of the first level-one heading, if any.
func firstHeading(md string) string {
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
