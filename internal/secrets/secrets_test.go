// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		subdirs []string
		want    Store
	}{
		{
			name:  "values are trimmed",
			files: map[string]string{RemoteAPIKey: "  rk_abc123  \n", OpenAIAPIKey: "sk_xyz789\n"},
			want:  Store{RemoteAPIKey: "rk_abc123", OpenAIAPIKey: "sk_xyz789"},
		},
		{
			name:  "blank files are ignored",
			files: map[string]string{OpenAIAPIKey: "valid-key", "empty-key": "", "whitespace-only": "   \n\t  "},
			want:  Store{OpenAIAPIKey: "valid-key"},
		},
		{
			name:  "dotfiles are ignored",
			files: map[string]string{".gitkeep": "", ".hidden-key": "secret", RemoteAPIKey: "rk_real"},
			want:  Store{RemoteAPIKey: "rk_real"},
		},
		{
			name:    "directories are ignored",
			files:   map[string]string{OpenAIAPIKey: "ak_123"},
			subdirs: []string{"archive"},
			want:    Store{OpenAIAPIKey: "ak_123"},
		},
		{name: "empty directory", want: Store{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			for _, sub := range tt.subdirs {
				require.NoError(t, os.Mkdir(filepath.Join(dir, sub), 0o755))
			}

			got, err := Load(dir, zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), ".secrets"), zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestStoreGet(t *testing.T) {
	s := Store{RemoteAPIKey: "from-file", OpenAIAPIKey: "file-openai"}

	t.Setenv("DOC2MD_REMOTE_API_KEY", "from-env")
	t.Setenv("DOC2MD_OPENAI_API_KEY", "  ")

	assert.Equal(t, "from-env", s.Get(RemoteAPIKey), "environment wins")
	assert.Equal(t, "file-openai", s.Get(OpenAIAPIKey), "blank environment falls through")
	assert.Empty(t, s.Get("missing-key"))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "DOC2MD_REMOTE_API_KEY", EnvName("remote-api-key"))
	assert.Equal(t, "DOC2MD_A_B", EnvName("a.b"))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
