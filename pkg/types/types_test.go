// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "zero sample pages", modify: func(c *Config) { c.Selector.SamplePages = 0 }},
		{name: "negative min chars", modify: func(c *Config) { c.Selector.MinCharsPerPage = -1 }},
		{name: "zero workers", modify: func(c *Config) { c.Workers = 0 }},
		{name: "bad log level", modify: func(c *Config) { c.Log.Level = "chatty" }},
		{name: "bad log format", modify: func(c *Config) { c.Log.Format = "xml" }},
		{name: "dpi too high", modify: func(c *Config) { c.Options.OCRDPI = 5000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyAuto, s)

	s, err = ParseStrategy("ocr")
	require.NoError(t, err)
	assert.Equal(t, StrategyOCR, s)

	_, err = ParseStrategy("slow")
	assert.Error(t, err)

	assert.False(t, StrategyAuto.Concrete())
	assert.True(t, StrategyAccurate.Concrete())
	assert.Less(t, StrategyFast.Rank(), StrategyOCR.Rank())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("docx")
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, f)

	f, err = ParseFormat("unknown")
	require.NoError(t, err)
	assert.Equal(t, FormatUnknown, f)

	_, err = ParseFormat("rtf")
	assert.Error(t, err)
}

func TestFallbackCandidates(t *testing.T) {
	p := DefaultFallbackPolicy()

	tests := []struct {
		name    string
		format  Format
		primary Strategy
		want    []Strategy
	}{
		{name: "pdf fast", format: FormatPDF, primary: StrategyFast, want: []Strategy{StrategyFast, StrategyOCR}},
		{name: "pdf accurate", format: FormatPDF, primary: StrategyAccurate, want: []Strategy{StrategyAccurate, StrategyFast, StrategyOCR}},
		{name: "pdf ocr has none", format: FormatPDF, primary: StrategyOCR, want: []Strategy{StrategyOCR}},
		{name: "docx fast", format: FormatDOCX, primary: StrategyFast, want: []Strategy{StrategyFast, StrategyAccurate}},
		{name: "html has no policy", format: FormatHTML, primary: StrategyFast, want: []Strategy{StrategyFast}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Candidates(tt.format, tt.primary))
		})
	}

	custom := FallbackPolicy{FormatPDF: {StrategyFast: {StrategyFast, StrategyAuto, StrategyOCR, StrategyOCR}}}
	assert.Equal(t, []Strategy{StrategyFast, StrategyOCR}, custom.Candidates(FormatPDF, StrategyFast))
}

func TestResultSummary(t *testing.T) {
	r := &Result{
		Metadata: Metadata{PageCount: 2, WordCount: 40},
		Provenance: Provenance{
			Converter: "ocr",
			Format:    FormatPDF,
			Strategy:  StrategyOCR,
			Attempts:  []Attempt{{Converter: "pdftext"}, {Converter: "ocr", Success: true}},
		},
	}
	s := r.Summary()
	assert.Contains(t, s, "pages: 2, words: 40")
	assert.Contains(t, s, "converter: ocr (pdf/ocr) after 1 failed attempt(s)")
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords("  \n\t"))
	assert.Equal(t, 3, CountWords("# one\ttwo\n"))
	assert.Equal(t, "image_0_0.bin", Image{}.Filename())
}
