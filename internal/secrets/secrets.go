// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads backend credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// A backend named "east" reads its API key from the file east-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/fedsearch/internal/logger"
	"github.com/pdiddy/fedsearch/pkg/types"
)

// DefaultDir is the secrets directory used by the CLI.
const DefaultDir = ".secrets"

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning but do not abort.
func Load(fs afero.Fs, dir string) (Secrets, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret %s: %v", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// KeyName returns the secret file name holding backend's API key.
func KeyName(backend string) string {
	return backend + "-api-key"
}

// APIKey returns the stored API key for backend, or "".
func (s Secrets) APIKey(backend string) string {
	return s[KeyName(backend)]
}

// Names returns the loaded key names, sorted.
func (s Secrets) Names() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FillCredentials sets Credential on every descriptor that has none and
// whose key file exists. It returns the names of the backends filled.
func (s Secrets) FillCredentials(descs []types.BackendDescriptor) []string {
	var filled []string
	for i := range descs {
		if descs[i].Credential != "" {
			continue
		}
		if key := s.APIKey(descs[i].Name); key != "" {
			descs[i].Credential = key
			filled = append(filled, descs[i].Name)
		}
	}
	return filled
}
