// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converters

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doc2md/internal/container/containertest"
	"github.com/pdiddy/doc2md/internal/detect"
	"github.com/pdiddy/doc2md/internal/registry"
	"github.com/pdiddy/doc2md/pkg/types"
)

func key(f types.Format, s types.Strategy) types.Key {
	return types.Key{Format: f, Strategy: s}
}

func TestCapabilities_WithRuntime(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Remote.Endpoint = "https://convert.example.com/v1/convert"
	rt := &containertest.Runtime{Images: map[string]bool{
		cfg.OCR.Image:        true,
		cfg.Markitdown.Image: true,
	}}

	reg, err := registry.Build(Capabilities(Deps{Config: cfg, Runtime: rt}), zerolog.Nop())
	require.NoError(t, err)

	available := reg.ListAvailable()
	for _, k := range []types.Key{
		key(types.FormatPDF, types.StrategyFast),
		key(types.FormatPDF, types.StrategyAccurate),
		key(types.FormatPDF, types.StrategyOCR),
		key(types.FormatDOCX, types.StrategyFast),
		key(types.FormatDOCX, types.StrategyAccurate),
		key(types.FormatXLSX, types.StrategyAccurate),
		key(types.FormatPPTX, types.StrategyFast),
		key(types.FormatEPUB, types.StrategyFast),
		key(types.FormatHTML, types.StrategyFast),
		key(types.FormatCSV, types.StrategyFast),
		key(types.FormatText, types.StrategyFast),
		key(types.FormatImage, types.StrategyOCR),
	} {
		assert.Contains(t, available, k)
	}
	assert.NotNil(t, reg.Sampler(types.FormatPDF))
}

func TestCapabilities_WithoutRuntime(t *testing.T) {
	reg, err := registry.Build(Capabilities(Deps{Config: types.DefaultConfig()}), zerolog.Nop())
	require.NoError(t, err)

	available := reg.ListAvailable()
	assert.Contains(t, available, key(types.FormatPDF, types.StrategyFast))
	assert.Contains(t, available, key(types.FormatDOCX, types.StrategyFast))
	assert.NotContains(t, available, key(types.FormatPDF, types.StrategyOCR))
	assert.NotContains(t, available, key(types.FormatPDF, types.StrategyAccurate))
	assert.NotContains(t, available, key(types.FormatPPTX, types.StrategyFast))
	assert.NotContains(t, available, key(types.FormatImage, types.StrategyOCR))

	var pptx []registry.Descriptor
	for _, d := range reg.Descriptors() {
		if d.Format == types.FormatPPTX {
			pptx = append(pptx, d)
		}
	}
	require.Len(t, pptx, 1)
	assert.False(t, pptx[0].Available)
}

func TestSeedExtensions(t *testing.T) {
	reg, err := registry.Build(Capabilities(Deps{Config: types.DefaultConfig()}), zerolog.Nop())
	require.NoError(t, err)

	tables := SeedExtensions(detect.DefaultTables(), reg)
	assert.Equal(t, types.FormatCSV, tables.Extensions[".tsv"])
	assert.Equal(t, types.FormatHTML, tables.Extensions[".xhtml"])
	assert.Equal(t, types.FormatDOCX, tables.Extensions[".docx"])
	assert.Equal(t, types.FormatPDF, tables.Extensions[".pdf"])
}

func TestLoadTables(t *testing.T) {
	tables, policy, err := LoadTables("")
	require.NoError(t, err)
	assert.NotEmpty(t, tables.Extensions)
	assert.NotEmpty(t, policy)

	_, _, err = LoadTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewEngine(t *testing.T) {
	eng, err := NewEngine(Deps{Config: types.DefaultConfig()}, zerolog.Nop())
	require.NoError(t, err)

	dir := t.TempDir()
	tests := []struct {
		name      string
		content   string
		converter string
		format    types.Format
		contains  string
	}{
		{name: "prices.tsv", content: "item\tprice\ntea\t3\n", converter: "csv", format: types.FormatCSV, contains: "| tea | 3 |"},
		{name: "notes.txt", content: "remember the milk\n", converter: "plaintext", format: types.FormatText, contains: "remember the milk"},
		{name: "page.html", content: "<html><body><h2>Hello</h2></body></html>", converter: "html", format: types.FormatHTML, contains: "## Hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			r, err := eng.Convert(context.Background(), path, types.StrategyAuto, types.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.converter, r.Provenance.Converter)
			assert.Equal(t, tt.format, r.Provenance.Format)
			assert.Equal(t, types.StrategyFast, r.Provenance.Strategy)
			assert.Contains(t, r.Markdown, tt.contains)
		})
	}
}

func TestNewEngine_BadTablesFile(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.TablesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewEngine(Deps{Config: cfg}, zerolog.Nop())
	assert.Error(t, err)
}
