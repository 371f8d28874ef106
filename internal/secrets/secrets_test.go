// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fedsearch/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, fs afero.Fs)
		want  Secrets
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T, fs afero.Fs) {
				writeFile(t, fs, "east-api-key", "  ek_abc123  \n")
				writeFile(t, fs, "west-api-key", "wk_xyz789")
			},
			want: Secrets{
				"east-api-key": "ek_abc123",
				"west-api-key": "wk_xyz789",
			},
		},
		{
			name:  "returns empty map for nonexistent directory",
			setup: func(t *testing.T, fs afero.Fs) {},
			want:  Secrets{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T, fs afero.Fs) {
				writeFile(t, fs, "east-api-key", "valid-key")
				writeFile(t, fs, "empty-key", "")
				writeFile(t, fs, "whitespace-only", "   \n\t  ")
			},
			want: Secrets{"east-api-key": "valid-key"},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T, fs afero.Fs) {
				writeFile(t, fs, ".gitkeep", "")
				writeFile(t, fs, ".hidden-key", "secret")
				writeFile(t, fs, "west-api-key", "wk_real")
			},
			want: Secrets{"west-api-key": "wk_real"},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T, fs afero.Fs) {
				writeFile(t, fs, "east-api-key", "ek_123")
				require.NoError(t, fs.MkdirAll(filepath.Join(DefaultDir, "subdir"), 0o755))
			},
			want: Secrets{"east-api-key": "ek_123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			tt.setup(t, fs)
			got, err := Load(fs, DefaultDir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	dir := t.TempDir()
	fs := afero.NewOsFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "good-key"), []byte("value123"), 0o644))

	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(fs, dir)
	require.NoError(t, err)
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestFillCredentials(t *testing.T) {
	s := Secrets{"east-api-key": "ek", "west-api-key": "wk"}
	descs := []types.BackendDescriptor{
		{Name: "east"},
		{Name: "west", Credential: "explicit"},
		{Name: "local"},
	}

	filled := s.FillCredentials(descs)
	assert.Equal(t, []string{"east"}, filled)
	assert.Equal(t, "ek", descs[0].Credential)
	assert.Equal(t, "explicit", descs[1].Credential)
	assert.Empty(t, descs[2].Credential)
	assert.Equal(t, []string{"east-api-key", "west-api-key"}, s.Names())
}

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(DefaultDir, name), []byte(content), 0o644))
}
