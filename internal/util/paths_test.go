package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TEST_VAR", "/test/path")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty path", "", ""},
		{"tilde only", "~", homeDir},
		{"tilde with path", "~/data", filepath.Join(homeDir, "data")},
		{"absolute path unchanged", "/absolute/path", "/absolute/path"},
		{"relative path cleaned", "relative/./path", "relative/path"},
		{"env var", "$TEST_VAR/data", "/test/path/data"},
		{"braced env var", "${TEST_VAR}/data", "/test/path/data"},
		{"dot-dot collapsed", "/a/b/../c", "/a/c"},
		{"duplicate slashes", "/path//to///file", "/path/to/file"},
		{"trailing slash", "/path/to/dir/", "/path/to/dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandPathTildeNotAtStart(t *testing.T) {
	result, err := ExpandPath("/path/to/~")
	require.NoError(t, err)
	assert.Contains(t, result, "~")
}
