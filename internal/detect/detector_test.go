// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doc2md/pkg/types"
)

// zipBytes builds an in-memory archive holding the named empty entries.
func zipBytes(t *testing.T, entries ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDetectBytes(t *testing.T) {
	pdf := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	tests := []struct {
		name       string
		file       string
		data       []byte
		wantFormat types.Format
		wantMethod types.DetectionMethod
		wantConf   float64
	}{
		{
			name:       "pdf by magic",
			file:       "paper.pdf",
			data:       pdf,
			wantFormat: types.FormatPDF,
			wantMethod: types.MethodMagic,
			wantConf:   ConfidenceMagic,
		},
		{
			name:       "pdf magic overrides misleading extension",
			file:       "paper.txt",
			data:       pdf,
			wantFormat: types.FormatPDF,
			wantMethod: types.MethodMagic,
			wantConf:   ConfidenceMagic,
		},
		{
			name:       "pdf extension with foreign content is not pdf",
			file:       "fake.pdf",
			data:       []byte("just some words that are not a pdf"),
			wantFormat: types.FormatUnknown,
			wantMethod: types.MethodNone,
		},
		{
			name:       "docx under opaque name",
			file:       "upload.dat",
			data:       zipBytes(t, "[Content_Types].xml", "word/document.xml"),
			wantFormat: types.FormatDOCX,
			wantMethod: types.MethodContainer,
			wantConf:   ConfidenceContainer,
		},
		{
			name:       "xlsx marker",
			file:       "book.xlsx",
			data:       zipBytes(t, "xl/workbook.xml"),
			wantFormat: types.FormatXLSX,
			wantMethod: types.MethodContainer,
			wantConf:   ConfidenceContainer,
		},
		{
			name:       "epub marker",
			file:       "book",
			data:       zipBytes(t, "mimetype", "META-INF/container.xml"),
			wantFormat: types.FormatEPUB,
			wantMethod: types.MethodContainer,
			wantConf:   ConfidenceContainer,
		},
		{
			name:       "plain zip",
			file:       "bundle.docx",
			data:       zipBytes(t, "readme.txt"),
			wantFormat: types.FormatZIP,
			wantMethod: types.MethodContainer,
			wantConf:   ConfidenceContainerGeneric,
		},
		{
			name:       "truncated zip falls back to magic",
			file:       "broken.zip",
			data:       []byte("PK\x03\x04garbage"),
			wantFormat: types.FormatZIP,
			wantMethod: types.MethodMagic,
			wantConf:   ConfidenceMagic,
		},
		{
			name:       "html by signature",
			file:       "page",
			data:       []byte("<!DOCTYPE html><html><body>hi</body></html>"),
			wantFormat: types.FormatHTML,
			wantMethod: types.MethodMagic,
			wantConf:   ConfidenceMagic,
		},
		{
			name:       "html by heuristic",
			file:       "fragment",
			data:       []byte("\n  <DIV class=\"x\">hello</DIV>"),
			wantFormat: types.FormatHTML,
			wantMethod: types.MethodContent,
			wantConf:   ConfidenceContent,
		},
		{
			name:       "image by magic",
			file:       "scan.bin",
			data:       png,
			wantFormat: types.FormatImage,
			wantMethod: types.MethodMagic,
			wantConf:   ConfidenceMagic,
		},
		{
			name:       "csv on extension",
			file:       "data.CSV",
			data:       []byte("a,b\n1,2\n"),
			wantFormat: types.FormatCSV,
			wantMethod: types.MethodExtension,
			wantConf:   ConfidenceExtension,
		},
		{
			name:       "text extension with binary content",
			file:       "notes.txt",
			data:       []byte("abc\x00\x01\x02"),
			wantFormat: types.FormatUnknown,
			wantMethod: types.MethodNone,
		},
		{
			name:       "unknown extension",
			file:       "thing.xyz",
			data:       []byte("hello world"),
			wantFormat: types.FormatUnknown,
			wantMethod: types.MethodNone,
		},
		{
			name:       "markdown opening with a div stays text",
			file:       "README.md",
			data:       []byte("<div align=\"center\">\n  <img src=\"logo.png\">\n</div>\n\n# Project\n"),
			wantFormat: types.FormatText,
			wantMethod: types.MethodExtension,
			wantConf:   ConfidenceExtension,
		},
		{
			name:       "csv with a markup cell stays csv",
			file:       "data.csv",
			data:       []byte("id,snippet\n1,<body> tag\n"),
			wantFormat: types.FormatCSV,
			wantMethod: types.MethodExtension,
			wantConf:   ConfidenceExtension,
		},
		{
			name:       "html extension with markup",
			file:       "page.htm",
			data:       []byte("<div>fragment</div>"),
			wantFormat: types.FormatHTML,
			wantMethod: types.MethodContent,
			wantConf:   ConfidenceContent,
		},
		{
			name:       "markup under a signature extension is html",
			file:       "saved.pdf",
			data:       []byte("<body>error page</body>"),
			wantFormat: types.FormatHTML,
			wantMethod: types.MethodContent,
			wantConf:   ConfidenceContent,
		},
		{
			name:       "empty input",
			file:       "empty",
			data:       nil,
			wantFormat: types.FormatUnknown,
			wantMethod: types.MethodNone,
		},
	}

	d := New(DefaultTables())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.DetectBytes(tt.file, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, got.Format)
			assert.Equal(t, tt.wantMethod, got.Method)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
			if got.Known() {
				assert.GreaterOrEqual(t, got.Confidence, ConfidenceExtension)
			} else {
				assert.Zero(t, got.Confidence)
			}
		})
	}
}

func TestDetectBytes_AmbiguousMarkers(t *testing.T) {
	d := New(DefaultTables())
	_, err := d.DetectBytes("mixed.zip", zipBytes(t, "word/document.xml", "xl/workbook.xml"))
	require.ErrorIs(t, err, ErrDetectionAmbiguous)
	assert.Contains(t, err.Error(), "docx")
	assert.Contains(t, err.Error(), "xlsx")
}

func TestDetectFile(t *testing.T) {
	d := New(DefaultTables())

	path := writeFile(t, "report.bin", zipBytes(t, "ppt/presentation.xml"))
	got, err := d.DetectFile(path)
	require.NoError(t, err)
	assert.Equal(t, types.FormatPPTX, got.Format)

	_, err = d.DetectFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestDetect_Deterministic(t *testing.T) {
	d := New(DefaultTables())
	path := writeFile(t, "doc.dat", zipBytes(t, "word/document.xml", "docProps/core.xml"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	first, err := d.Detect(path, data)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := d.Detect(path, data)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDetect_SampleIsBounded(t *testing.T) {
	d := New(DefaultTables())
	data := append(bytes.Repeat([]byte("a"), SampleSize), []byte("<html>")...)
	got, err := d.DetectBytes("long", data)
	require.NoError(t, err)
	assert.Equal(t, types.FormatUnknown, got.Format, "markup past the sample window must not be seen")
}

func TestWithExtensions(t *testing.T) {
	base := DefaultTables()
	out := base.WithExtensions(types.FormatText, []string{"log", ".PDF", " "})

	assert.Equal(t, types.FormatText, out.Extensions[".log"])
	assert.Equal(t, types.FormatPDF, out.Extensions[".pdf"], "existing mapping must be kept")
	_, ok := base.Extensions[".log"]
	assert.False(t, ok, "original tables must not change")
	assert.Equal(t, []string{".pdf"}, out.ExtensionsFor(types.FormatPDF))
}

func TestParseTables(t *testing.T) {
	data := []byte(`
extensions:
  pdf: pdf
  log: text
signatures:
  - format: pdf
    hex: "25 50 44 46"
textual: [text]
fallbacks:
  pdf:
    fast: [ocr, accurate]
`)
	tables, policy, err := ParseTables(data)
	require.NoError(t, err)

	assert.Equal(t, types.FormatText, tables.Extensions[".log"])
	_, hasDocx := tables.Extensions[".docx"]
	assert.False(t, hasDocx, "extensions section replaces defaults")
	require.Len(t, tables.Signatures, 1)
	assert.Equal(t, []byte("%PDF"), tables.Signatures[0].Magic)
	assert.Equal(t, DefaultTables().Markers, tables.Markers, "absent section keeps default")
	assert.Equal(t, []types.Strategy{types.StrategyFast, types.StrategyOCR, types.StrategyAccurate},
		policy.Candidates(types.FormatPDF, types.StrategyFast))
	assert.Nil(t, policy[types.FormatDOCX])
}

func TestParseTables_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "bad yaml", data: "extensions: [unterminated"},
		{name: "unknown format", data: "extensions:\n  foo: nope\n"},
		{name: "bad hex", data: "signatures:\n  - format: pdf\n    hex: zz\n"},
		{name: "empty marker prefix", data: "container_markers:\n  - format: docx\n"},
		{name: "auto fallback", data: "fallbacks:\n  pdf:\n    fast: [auto]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseTables([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadTables_MissingFile(t *testing.T) {
	_, _, err := LoadTables(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
