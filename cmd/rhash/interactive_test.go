package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recursivehasher "github.com/mattkeenan/recursivehasher/pkg"
)

// newTestApp returns an app whose results land in a temporary directory
func newTestApp(t *testing.T) (*app, string) {
	t.Helper()
	resultsDir := filepath.Join(t.TempDir(), "results")
	cfg := recursivehasher.NewDefaultConfig()
	require.NoError(t, cfg.ApplyOverrides([]string{"results_dir:" + resultsDir}))
	return &app{config: cfg}, resultsDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestInteractiveUnknownChoiceThenQuit(t *testing.T) {
	a, _ := newTestApp(t)
	var out bytes.Buffer

	err := runInteractive(context.Background(), a, strings.NewReader("x\nq\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `Unknown choice "x"`)
	assert.Equal(t, 2, strings.Count(out.String(), "[Q] Quit"))
}

func TestInteractiveAnalyze(t *testing.T) {
	a, resultsDir := newTestApp(t)
	root := filepath.Join(t.TempDir(), "music")
	writeFile(t, filepath.Join(root, "track.flac"), "notes")

	var out bytes.Buffer
	input := "D\n\"" + root + "\"\nQ\n"
	require.NoError(t, runInteractive(context.Background(), a, strings.NewReader(input), &out))

	saved := filepath.Join(resultsDir, "FileHashes_music.csv")
	assert.FileExists(t, saved)
	assert.Contains(t, out.String(), "Saved "+saved)
}

func TestInteractiveFailedRunShowsMenuAgain(t *testing.T) {
	a, _ := newTestApp(t)
	var out bytes.Buffer

	input := "D\n" + filepath.Join(t.TempDir(), "absent") + "\nQ\n"
	require.NoError(t, runInteractive(context.Background(), a, strings.NewReader(input), &out))

	assert.Contains(t, out.String(), "Failed:")
	assert.Equal(t, 2, strings.Count(out.String(), "[D] Analyze a directory"))
}

func TestInteractiveCompare(t *testing.T) {
	a, resultsDir := newTestApp(t)
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "one", "f.txt"), "v1")
	writeFile(t, filepath.Join(base, "two", "f.txt"), "v2")

	var out bytes.Buffer
	input := strings.Join([]string{
		"D", filepath.Join(base, "one"),
		"D", filepath.Join(base, "two"),
		"C", filepath.Join(resultsDir, "FileHashes_one.csv"), filepath.Join(resultsDir, "FileHashes_two.csv"), "y",
		"Q",
	}, "\n") + "\n"
	require.NoError(t, runInteractive(context.Background(), a, strings.NewReader(input), &out))

	assert.NotContains(t, out.String(), "Failed:")
	assert.FileExists(t, filepath.Join(resultsDir, "Differences_FileHashes_one_vs_FileHashes_two.csv"))
	assert.FileExists(t, filepath.Join(resultsDir, "Differences_FileHashes_one_vs_FileHashes_two", "hash", "f.txt"))
}

func TestInteractiveEndOfInput(t *testing.T) {
	a, _ := newTestApp(t)
	var out bytes.Buffer

	assert.NoError(t, runInteractive(context.Background(), a, strings.NewReader("D\n"), &out))
	assert.Contains(t, out.String(), "Directory to analyze: ")
}

func TestInteractiveCancelled(t *testing.T) {
	a, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	assert.NoError(t, runInteractive(ctx, a, strings.NewReader("D\n"), &out))
	assert.Empty(t, out.String())
}

func TestTrimQuotes(t *testing.T) {
	assert.Equal(t, "/a b/c", trimQuotes(`"/a b/c"`))
	assert.Equal(t, "/a/c", trimQuotes(`'/a/c'`))
	assert.Equal(t, "/plain", trimQuotes("/plain"))
}
