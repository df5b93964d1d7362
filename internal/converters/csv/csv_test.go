// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package csv

import (
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

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		rows    int
	}{
		{
			name:    "comma",
			content: "name,qty\napple,3\n\"pear, green\",5\n",
			want:    "| name | qty |\n| --- | --- |\n| apple | 3 |\n| pear, green | 5 |",
			rows:    2,
		},
		{
			name:    "semicolon with bom",
			content: "\xEF\xBB\xBFa;b\n1;2\n",
			want:    "| a | b |\n| --- | --- |\n| 1 | 2 |",
			rows:    1,
		},
		{
			name:    "tab and ragged rows",
			content: "a\tb\n1\n2\t3\t4\n",
			want:    "| a | b |  |\n| --- | --- | --- |\n| 1 |  |  |\n| 2 | 3 | 4 |",
			rows:    2,
		},
		{
			name:    "pipe in cell is escaped",
			content: "expr,val\na|b,1\n",
			want:    "| expr | val |\n| --- | --- |\n| a\\|b | 1 |",
			rows:    1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New().Convert(context.Background(), writeCSV(t, "data.csv", tt.content), types.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Markdown)
			require.Len(t, r.Tables, 1)
			assert.Equal(t, tt.rows, r.Tables[0].Rows)
		})
	}
}

func TestConvert_Empty(t *testing.T) {
	r, err := New().Convert(context.Background(), writeCSV(t, "empty.csv", ""), types.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, r.Markdown)
	assert.Empty(t, r.Tables)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b,c\nx;y;z;w;v")))
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c")))
	assert.Equal(t, '\t', sniffDelimiter([]byte("a\tb")))
	assert.Equal(t, ',', sniffDelimiter([]byte("single")))
}
