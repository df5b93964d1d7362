// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doc2md/pkg/types"
)

// Signature is a magic-byte prefix identifying a format family.
type Signature struct {
	Format types.Format
	Offset int
	Magic  []byte
}

// Marker maps an archive entry path prefix to the format it identifies.
type Marker struct {
	Prefix string
	Format types.Format
}

// Tables is the static data the detector consults. It is built once and
// never mutated afterwards; use the With* helpers to derive a new value.
type Tables struct {
	// Extensions maps a lowercase extension with leading dot to a format.
	Extensions map[string]types.Format

	// Signatures are checked in order; the first match wins.
	Signatures []Signature

	// Container is the generic archive format whose entries need inspecting.
	Container types.Format

	// Markers distinguish formats sharing the Container signature.
	Markers []Marker

	// Textual formats may be accepted on extension alone when the sample
	// holds no binary data.
	Textual map[types.Format]bool
}

// DefaultTables returns the built-in detection tables.
func DefaultTables() Tables {
	return Tables{
		Extensions: map[string]types.Format{
			".pdf":      types.FormatPDF,
			".docx":     types.FormatDOCX,
			".xlsx":     types.FormatXLSX,
			".pptx":     types.FormatPPTX,
			".epub":     types.FormatEPUB,
			".zip":      types.FormatZIP,
			".html":     types.FormatHTML,
			".htm":      types.FormatHTML,
			".csv":      types.FormatCSV,
			".txt":      types.FormatText,
			".md":       types.FormatText,
			".markdown": types.FormatText,
			".png":      types.FormatImage,
			".jpg":      types.FormatImage,
			".jpeg":     types.FormatImage,
			".gif":      types.FormatImage,
			".tif":      types.FormatImage,
			".tiff":     types.FormatImage,
			".webp":     types.FormatImage,
		},
		Signatures: []Signature{
			{Format: types.FormatPDF, Magic: []byte("%PDF-")},
			{Format: types.FormatZIP, Magic: []byte("PK\x03\x04")},
			{Format: types.FormatHTML, Magic: []byte("<!DOCTYPE html")},
			{Format: types.FormatHTML, Magic: []byte("<!doctype html")},
			{Format: types.FormatHTML, Magic: []byte("<html")},
			{Format: types.FormatHTML, Magic: []byte("<HTML")},
			{Format: types.FormatImage, Magic: []byte("\x89PNG\r\n\x1a\n")},
			{Format: types.FormatImage, Magic: []byte("\xff\xd8\xff")},
			{Format: types.FormatImage, Magic: []byte("GIF87a")},
			{Format: types.FormatImage, Magic: []byte("GIF89a")},
			{Format: types.FormatImage, Magic: []byte("II*\x00")},
			{Format: types.FormatImage, Magic: []byte("MM\x00*")},
			{Format: types.FormatImage, Offset: 8, Magic: []byte("WEBP")},
		},
		Container: types.FormatZIP,
		Markers: []Marker{
			{Prefix: "word/", Format: types.FormatDOCX},
			{Prefix: "xl/", Format: types.FormatXLSX},
			{Prefix: "ppt/", Format: types.FormatPPTX},
			{Prefix: "META-INF/container.xml", Format: types.FormatEPUB},
		},
		Textual: map[types.Format]bool{
			types.FormatHTML: true,
			types.FormatCSV:  true,
			types.FormatText: true,
		},
	}
}

// WithExtensions returns a copy of t where every extension in exts that is
// not already mapped points at format. Existing mappings are never replaced,
// so the result does not depend on the order converters are registered in.
func (t Tables) WithExtensions(format types.Format, exts []string) Tables {
	out := t
	out.Extensions = make(map[string]types.Format, len(t.Extensions)+len(exts))
	for k, v := range t.Extensions {
		out.Extensions[k] = v
	}
	for _, ext := range exts {
		ext = normalizeExt(ext)
		if ext == "" {
			continue
		}
		if _, ok := out.Extensions[ext]; !ok {
			out.Extensions[ext] = format
		}
	}
	return out
}

// ExtensionsFor returns the sorted extensions mapped to format.
func (t Tables) ExtensionsFor(format types.Format) []string {
	var exts []string
	for ext, f := range t.Extensions {
		if f == format {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// tablesFile is the YAML layout of a tables override file.
type tablesFile struct {
	Extensions map[string]string              `yaml:"extensions"`
	Signatures []signatureEntry               `yaml:"signatures"`
	Container  string                         `yaml:"container"`
	Markers    []markerEntry                  `yaml:"container_markers"`
	Textual    []string                       `yaml:"textual"`
	Fallbacks  map[string]map[string][]string `yaml:"fallbacks"`
}

type signatureEntry struct {
	Format string `yaml:"format"`
	Offset int    `yaml:"offset"`
	Hex    string `yaml:"hex"`
}

type markerEntry struct {
	Prefix string `yaml:"prefix"`
	Format string `yaml:"format"`
}

// LoadTables reads a YAML tables file and overlays it on the defaults.
// Sections present in the file replace the corresponding default section;
// absent sections keep their default. The fallback policy is returned
// alongside because it is part of the same static data.
func LoadTables(path string) (Tables, types.FallbackPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, nil, fmt.Errorf("reading tables file %s: %w", path, err)
	}
	return ParseTables(data)
}

// ParseTables decodes YAML tables data. See LoadTables.
func ParseTables(data []byte) (Tables, types.FallbackPolicy, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Tables{}, nil, fmt.Errorf("parsing tables: %w", err)
	}

	t := DefaultTables()
	policy := types.DefaultFallbackPolicy()

	if len(f.Extensions) > 0 {
		t.Extensions = make(map[string]types.Format, len(f.Extensions))
		for ext, name := range f.Extensions {
			format, err := types.ParseFormat(name)
			if err != nil {
				return Tables{}, nil, fmt.Errorf("extension %s: %w", ext, err)
			}
			t.Extensions[normalizeExt(ext)] = format
		}
	}

	if len(f.Signatures) > 0 {
		t.Signatures = make([]Signature, 0, len(f.Signatures))
		for i, s := range f.Signatures {
			format, err := types.ParseFormat(s.Format)
			if err != nil {
				return Tables{}, nil, fmt.Errorf("signature %d: %w", i, err)
			}
			magic, err := hex.DecodeString(strings.ReplaceAll(s.Hex, " ", ""))
			if err != nil || len(magic) == 0 {
				return Tables{}, nil, fmt.Errorf("signature %d: invalid hex %q", i, s.Hex)
			}
			if s.Offset < 0 {
				return Tables{}, nil, fmt.Errorf("signature %d: negative offset", i)
			}
			t.Signatures = append(t.Signatures, Signature{Format: format, Offset: s.Offset, Magic: magic})
		}
	}

	if f.Container != "" {
		format, err := types.ParseFormat(f.Container)
		if err != nil {
			return Tables{}, nil, fmt.Errorf("container: %w", err)
		}
		t.Container = format
	}

	if len(f.Markers) > 0 {
		t.Markers = make([]Marker, 0, len(f.Markers))
		for i, m := range f.Markers {
			format, err := types.ParseFormat(m.Format)
			if err != nil {
				return Tables{}, nil, fmt.Errorf("container marker %d: %w", i, err)
			}
			if m.Prefix == "" {
				return Tables{}, nil, fmt.Errorf("container marker %d: empty prefix", i)
			}
			t.Markers = append(t.Markers, Marker{Prefix: m.Prefix, Format: format})
		}
	}

	if len(f.Textual) > 0 {
		t.Textual = make(map[types.Format]bool, len(f.Textual))
		for _, name := range f.Textual {
			format, err := types.ParseFormat(name)
			if err != nil {
				return Tables{}, nil, fmt.Errorf("textual: %w", err)
			}
			t.Textual[format] = true
		}
	}

	if len(f.Fallbacks) > 0 {
		policy = make(types.FallbackPolicy, len(f.Fallbacks))
		for formatName, byStrategy := range f.Fallbacks {
			format, err := types.ParseFormat(formatName)
			if err != nil {
				return Tables{}, nil, fmt.Errorf("fallbacks: %w", err)
			}
			policy[format] = make(map[types.Strategy][]types.Strategy, len(byStrategy))
			for primaryName, secondaries := range byStrategy {
				primary, err := parseConcrete(primaryName)
				if err != nil {
					return Tables{}, nil, fmt.Errorf("fallbacks %s: %w", formatName, err)
				}
				for _, name := range secondaries {
					s, err := parseConcrete(name)
					if err != nil {
						return Tables{}, nil, fmt.Errorf("fallbacks %s/%s: %w", formatName, primaryName, err)
					}
					policy[format][primary] = append(policy[format][primary], s)
				}
			}
		}
	}

	return t, policy, nil
}

func parseConcrete(name string) (types.Strategy, error) {
	s, err := types.ParseStrategy(name)
	if err != nil {
		return "", err
	}
	if !s.Concrete() {
		return "", fmt.Errorf("strategy %q cannot be a fallback", name)
	}
	return s, nil
}
