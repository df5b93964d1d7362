// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package xlsx

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doc2md/internal/convert"
	"github.com/pdiddy/doc2md/pkg/types"
)

var _ convert.Converter = (*Converter)(nil)

const workbookXML = `<?xml version="1.0"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets>
    <sheet name="Inventory" sheetId="1" r:id="rId1"/>
    <sheet name="Blank" sheetId="2" r:id="rId2"/>
  </sheets>
</workbook>`

const relsXML = `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="worksheet" Target="worksheets/data.xml"/>
  <Relationship Id="rId2" Type="worksheet" Target="/xl/worksheets/blank.xml"/>
</Relationships>`

const sharedXML = `<?xml version="1.0"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <si><t>Item</t></si>
  <si><t>Count</t></si>
  <si><r><t>wid</t></r><r><t>get</t></r></si>
</sst>`

const dataXML = `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="inlineStr"><is><t>In stock</t></is></c></row>
    <row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>42</v></c><c r="C2" t="b"><v>1</v></c></row>
    <row r="3"><c r="A3"><v></v></c></row>
    <row r="4"><c r="A4" t="inlineStr"><is><t>gear</t></is></c><c r="C4" t="b"><v>0</v></c></row>
  </sheetData>
</worksheet>`

const blankXML = `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData/></worksheet>`

func writeXLSX(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.xlsx")
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

func TestConvert(t *testing.T) {
	path := writeXLSX(t, map[string]string{
		"xl/workbook.xml":            workbookXML,
		"xl/_rels/workbook.xml.rels": relsXML,
		"xl/sharedStrings.xml":       sharedXML,
		"xl/worksheets/data.xml":     dataXML,
		"xl/worksheets/blank.xml":    blankXML,
	})

	r, err := New().Convert(context.Background(), path, types.DefaultOptions())
	require.NoError(t, err)

	want := "## Inventory\n\n" +
		"| Item | Count | In stock |\n" +
		"| --- | --- | --- |\n" +
		"| widget | 42 | TRUE |\n" +
		"| gear |  | FALSE |"
	assert.Equal(t, want, r.Markdown)
	assert.Equal(t, 2, r.Metadata.PageCount)

	require.Len(t, r.Tables, 1)
	assert.Equal(t, 1, r.Tables[0].Page)
	assert.Equal(t, 2, r.Tables[0].Rows)
	assert.Equal(t, 3, r.Tables[0].Columns)
	assert.Equal(t, []string{`sheet "Blank" is empty`}, r.Warnings)
}

func TestConvert_DefaultSheetPaths(t *testing.T) {
	path := writeXLSX(t, map[string]string{
		"xl/workbook.xml": `<workbook><sheets><sheet name="S" sheetId="1"/></sheets></workbook>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData>
  <row><c t="inlineStr"><is><t>a</t></is></c><c><v>1</v></c></row>
</sheetData></worksheet>`,
	})

	r, err := New().Convert(context.Background(), path, types.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "## S\n\n| a | 1 |\n| --- | --- |", r.Markdown)
}

func TestConvert_MissingWorkbook(t *testing.T) {
	path := writeXLSX(t, map[string]string{"xl/worksheets/sheet1.xml": blankXML})
	_, err := New().Convert(context.Background(), path, types.DefaultOptions())
	assert.Error(t, err)
}

func TestColumnIndex(t *testing.T) {
	tests := []struct {
		ref  string
		want int
		ok   bool
	}{
		{"A1", 0, true},
		{"Z9", 25, true},
		{"AA3", 26, true},
		{"ab12", 27, true},
		{"12", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := columnIndex(tt.ref)
		assert.Equal(t, tt.ok, ok, tt.ref)
		assert.Equal(t, tt.want, got, tt.ref)
	}
}
