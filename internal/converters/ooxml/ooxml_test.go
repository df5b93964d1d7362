// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ooxml

import (
	"archive/zip"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePackage(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestPackage(t *testing.T) {
	path := writePackage(t, map[string]string{
		"docProps/core.xml": `<?xml version="1.0"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title> Quarterly Report </dc:title>
  <dc:creator>Finance</dc:creator>
</cp:coreProperties>`,
		"word/media/image2.jpg": "jpg",
		"word/media/image1.png": "png",
		"word/document.xml":     "<doc/>",
	})

	pkg, err := Open(path)
	require.NoError(t, err)
	defer pkg.Close()

	assert.True(t, pkg.Has("word/document.xml"))
	assert.False(t, pkg.Has("xl/workbook.xml"))

	core := pkg.CoreProperties()
	assert.Equal(t, "Quarterly Report", core.Title)
	assert.Equal(t, "Finance", core.Author)

	media, err := pkg.Media("word/media/")
	require.NoError(t, err)
	require.Len(t, media, 2)
	assert.Equal(t, "png", media[0].Format)
	assert.Equal(t, 0, media[0].Index)
	assert.Equal(t, "jpeg", media[1].Format)
	assert.Equal(t, []byte("jpg"), media[1].Data)

	_, err = pkg.ReadPart("missing.xml")
	assert.ErrorIs(t, err, ErrPartMissing)
}

func TestCoreProperties_Missing(t *testing.T) {
	pkg, err := Open(writePackage(t, map[string]string{"a.xml": "<a/>"}))
	require.NoError(t, err)
	defer pkg.Close()
	assert.Equal(t, Core{}, pkg.CoreProperties())
}

func TestOpen_NotZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))
	_, err := Open(path)
	assert.Error(t, err)
}

func TestToggle(t *testing.T) {
	tests := []struct {
		attrs []xml.Attr
		want  bool
	}{
		{nil, true},
		{[]xml.Attr{{Name: xml.Name{Local: "val"}, Value: "1"}}, true},
		{[]xml.Attr{{Name: xml.Name{Space: "w", Local: "val"}, Value: "false"}}, false},
		{[]xml.Attr{{Name: xml.Name{Local: "val"}, Value: "0"}}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Toggle(xml.StartElement{Attr: tt.attrs}))
	}
}
