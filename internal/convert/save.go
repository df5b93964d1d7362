// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doc2md/pkg/types"
)

// frontmatter is the YAML header written above saved Markdown.
type frontmatter struct {
	Source       string         `yaml:"source"`
	SourceSHA256 string         `yaml:"source_sha256,omitempty"`
	Format       types.Format   `yaml:"format"`
	Converter    string         `yaml:"converter"`
	Strategy     types.Strategy `yaml:"strategy"`
	Title        string         `yaml:"title,omitempty"`
	Author       string         `yaml:"author,omitempty"`
	Pages        int            `yaml:"pages,omitempty"`
	Words        int            `yaml:"words"`
	ConvertedAt  string         `yaml:"converted_at"`
}

// SaveOptions control how a result is written to disk.
type SaveOptions struct {
	// Frontmatter prepends a YAML header describing the conversion.
	Frontmatter bool

	// Images writes extracted images to <stem>_images/ next to the output.
	Images bool

	// Now overrides the converted_at timestamp; zero means time.Now.
	Now time.Time
}

// SavedFiles lists what Save wrote.
type SavedFiles struct {
	Markdown string
	ImageDir string
	Images   []string
}

// Save writes r's Markdown to outPath, creating parent directories as
// needed. The result itself is not modified.
func Save(r *types.Result, outPath string, opts SaveOptions) (SavedFiles, error) {
	var saved SavedFiles

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return saved, fmt.Errorf("creating output directory: %w", err)
	}

	content := r.Markdown
	if opts.Frontmatter {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		var err error
		content, err = addFrontmatter(r, now, content)
		if err != nil {
			return saved, err
		}
	}

	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return saved, fmt.Errorf("writing %s: %w", outPath, err)
	}
	saved.Markdown = outPath

	if !opts.Images || len(r.Images) == 0 {
		return saved, nil
	}

	stem := strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
	imageDir := filepath.Join(filepath.Dir(outPath), stem+"_images")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return saved, fmt.Errorf("creating image directory: %w", err)
	}
	saved.ImageDir = imageDir

	for _, img := range r.Images {
		if len(img.Data) == 0 {
			continue
		}
		p := filepath.Join(imageDir, img.Filename())
		if err := os.WriteFile(p, img.Data, 0o644); err != nil {
			return saved, fmt.Errorf("writing image %s: %w", p, err)
		}
		saved.Images = append(saved.Images, p)
	}
	return saved, nil
}

// addFrontmatter prepends YAML frontmatter to the converted Markdown content.
func addFrontmatter(r *types.Result, now time.Time, body string) (string, error) {
	fm := frontmatter{
		Source:       r.Metadata.SourcePath,
		SourceSHA256: r.Metadata.SourceHash,
		Format:       r.Provenance.Format,
		Converter:    r.Provenance.Converter,
		Strategy:     r.Provenance.Strategy,
		Title:        r.Metadata.Title,
		Author:       r.Metadata.Author,
		Pages:        r.Metadata.PageCount,
		Words:        r.Metadata.WordCount,
		ConvertedAt:  now.UTC().Format(time.RFC3339),
	}
	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String(), nil
}
