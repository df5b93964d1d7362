// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value. An environment variable derived from the key
// name overrides the file, so keys can also come from .env.
//
// Supported key files: remote-api-key (remote conversion service), openai-api-key
// (markitdown image descriptions).
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Key names understood by the converters.
const (
	RemoteAPIKey = "remote-api-key"
	OpenAIAPIKey = "openai-api-key"
)

// Store holds loaded secrets keyed by file name.
type Store map[string]string

// Load reads all files in dir and returns a store of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty store.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, logger zerolog.Logger) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Store)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Str("secret", name).Err(err).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Get returns the secret named key. The environment variable EnvName(key)
// takes precedence over the file.
func (s Store) Get(key string) string {
	if v := strings.TrimSpace(os.Getenv(EnvName(key))); v != "" {
		return v
	}
	return s[key]
}

// EnvName maps a key file name to its environment variable,
// e.g. "remote-api-key" to "DOC2MD_REMOTE_API_KEY".
func EnvName(key string) string {
	return "DOC2MD_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}
