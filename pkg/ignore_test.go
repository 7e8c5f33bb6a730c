package recursivehasher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreManagerShouldIgnore(t *testing.T) {
	im, err := NewIgnoreManager([]string{"*.tmp", "./build/**", "# comment", "", "**/.git/**"})
	require.NoError(t, err)
	assert.Equal(t, []string{"*.tmp", "build/**", "**/.git/**"}, im.Patterns())

	root := "/data/project"
	tests := []struct {
		rel     string
		ignored bool
	}{
		{"notes.tmp", true},
		{"deep/inside/notes.tmp", true},
		{"build/out/app", true},
		{"src/build/keep", false},
		{"vendor/.git/config", true},
		{"main.go", false},
	}

	for _, tt := range tests {
		got := im.ShouldIgnore(root, filepath.Join(root, tt.rel))
		assert.Equal(t, tt.ignored, got, tt.rel)
	}
}

func TestIgnoreManagerInvalidPattern(t *testing.T) {
	_, err := NewIgnoreManager([]string{"[unclosed"})
	assert.Error(t, err)
}

func TestIgnoreManagerNil(t *testing.T) {
	var im *IgnoreManager
	assert.False(t, im.ShouldIgnore("/r", "/r/x"))
	assert.Nil(t, im.Patterns())
}

func TestLoadIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ignore")
	writeTestFile(t, path, "# scratch files\n*.swp\n\n  cache/**  \n")

	im, err := NewIgnoreManager(nil)
	require.NoError(t, err)
	require.NoError(t, im.LoadIgnoreFile(path))
	assert.Equal(t, []string{"*.swp", "cache/**"}, im.Patterns())

	require.NoError(t, im.LoadIgnoreFile(filepath.Join(dir, "absent")), "a missing ignore file is not an error")

	writeTestFile(t, path, "ok\n[broken\n")
	err = im.LoadIgnoreFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
