package recursivehasher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSession returns a session writing its results under a temporary directory
func newTestSession(t *testing.T, overrides ...string) (*Session, string) {
	t.Helper()
	resultsDir := filepath.Join(t.TempDir(), "results")

	cfg := NewDefaultConfig()
	require.NoError(t, cfg.ApplyOverrides(append([]string{"results_dir:" + resultsDir}, overrides...)))

	session, err := NewSession(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session, resultsDir
}

func TestAnalyzeDirectory(t *testing.T) {
	session, resultsDir := newTestSession(t)
	root := filepath.Join(t.TempDir(), "photos")
	buildTree(t, root, map[string]string{
		"a.jpg":          "hello world",
		"sub/b.jpg":      "",
		"sub/deep/c.jpg": "third",
	})

	result, err := session.AnalyzeDirectory(root)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Files())
	assert.Zero(t, result.Failed)
	assert.Equal(t, int64(len("hello world")+len("third")), result.BytesHashed)
	assert.Equal(t, filepath.Join(resultsDir, "FileHashes_photos.csv"), result.OutputPath)

	loaded, err := LoadDataset(result.OutputPath)
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	digests := map[string]string{}
	for _, r := range loaded {
		digests[r.Path] = r.Digest
		assert.False(t, r.AnalyzedAt.IsZero())
	}
	assert.Equal(t, "5EB63BBBE01EEED093CB22BB8F5ACDC3", digests[filepath.Join(root, "a.jpg")])
	assert.Equal(t, "D41D8CD98F00B204E9800998ECF8427E", digests[filepath.Join(root, "sub", "b.jpg")])

	progress := session.Progress()
	require.NotNil(t, progress)
	assert.Equal(t, int64(3), progress.Completed())
	select {
	case <-progress.Done():
	default:
		t.Error("progress should be closed after the run")
	}
}

func TestAnalyzeDirectoryTwiceKeepsBothResults(t *testing.T) {
	session, resultsDir := newTestSession(t)
	root := filepath.Join(t.TempDir(), "docs")
	buildTree(t, root, map[string]string{"x.txt": "x"})

	first, err := session.AnalyzeDirectory(root)
	require.NoError(t, err)
	second, err := session.AnalyzeDirectory(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(resultsDir, "FileHashes_docs.csv"), first.OutputPath)
	assert.Equal(t, filepath.Join(resultsDir, "FileHashes_docs (1).csv"), second.OutputPath)
}

func TestAnalyzeDirectoryErrors(t *testing.T) {
	session, _ := newTestSession(t)

	empty := t.TempDir()
	_, err := session.AnalyzeDirectory(empty)
	assert.True(t, errors.Is(err, ErrEmptyDirectory), "got %v", err)

	file := filepath.Join(t.TempDir(), "plain.txt")
	writeTestFile(t, file, "x")
	_, err = session.AnalyzeDirectory(file)
	assert.True(t, errors.Is(err, ErrNotDirectory), "got %v", err)

	_, err = session.AnalyzeDirectory(filepath.Join(t.TempDir(), "absent"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
}

func TestAnalyzeDirectoryUnlistableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	session, _ := newTestSession(t)
	root := filepath.Join(t.TempDir(), "locked")
	buildTree(t, root, map[string]string{"x.txt": "x"})
	// Searchable but not readable: entries can be opened by name, not listed
	require.NoError(t, os.Chmod(root, 0300))
	t.Cleanup(func() { os.Chmod(root, 0755) })

	_, err := session.AnalyzeDirectory(root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrPermission), "got %v", err)
	assert.False(t, errors.Is(err, ErrEmptyDirectory))
}

func TestAnalyzeDirectoryExcludes(t *testing.T) {
	session, _ := newTestSession(t, "exclude:*.tmp")
	root := filepath.Join(t.TempDir(), "src")
	buildTree(t, root, map[string]string{"keep.go": "k", "scratch.tmp": "s", "sub/more.tmp": "m"})

	result, err := session.AnalyzeDirectory(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "keep.go")}, result.Records.Paths())
}

func TestCompareDatasetsEndToEnd(t *testing.T) {
	session, resultsDir := newTestSession(t)
	base := t.TempDir()
	left := filepath.Join(base, "left")
	right := filepath.Join(base, "right")
	buildTree(t, left, map[string]string{"same.txt": "s", "changed.txt": "c1", "removed.txt": "r"})
	buildTree(t, right, map[string]string{"same.txt": "s", "changed.txt": "c2", "added.txt": "n"})

	a, err := session.AnalyzeDirectory(left)
	require.NoError(t, err)
	b, err := session.AnalyzeDirectory(right)
	require.NoError(t, err)

	result, err := session.CompareDatasets(context.Background(), a.OutputPath, b.OutputPath, true)
	require.NoError(t, err)

	assert.Equal(t, "FileHashes_left", result.LabelA)
	assert.Equal(t, "FileHashes_right", result.LabelB)
	assert.Equal(t, 3, result.RecordsA)
	assert.Equal(t, 3, result.RecordsB)
	assert.Equal(t, 3, result.TotalChanges())
	assert.Equal(t, filepath.Join(resultsDir, "Differences_FileHashes_left_vs_FileHashes_right.csv"), result.OutputPath)

	diffs, err := LoadDataset(result.OutputPath)
	require.NoError(t, err)
	tags := map[string]string{}
	for _, r := range diffs {
		tags[r.Path] = r.DiffTag
	}
	assert.Equal(t, map[string]string{
		filepath.Join(right, "changed.txt"): DiffHashMismatch,
		filepath.Join(right, "added.txt"):   "missing-from-FileHashes_left",
		filepath.Join(left, "removed.txt"):  "missing-from-FileHashes_right",
	}, tags)

	require.NotNil(t, result.Copy)
	require.NoError(t, result.CopyErr)
	assert.Equal(t, 3, result.Copy.Copied)

	destRoot := filepath.Join(resultsDir, "Differences_FileHashes_left_vs_FileHashes_right")
	content, err := os.ReadFile(filepath.Join(destRoot, HashFolder, "changed.txt"))
	require.NoError(t, err)
	assert.Equal(t, "c2", string(content))
	for _, name := range []string{"added.txt", "removed.txt"} {
		_, err := os.Stat(filepath.Join(destRoot, MissingFolder, name))
		assert.NoError(t, err, name)
	}
}

func TestCompareDatasetsNoChangesNoCopy(t *testing.T) {
	session, resultsDir := newTestSession(t)
	root := filepath.Join(t.TempDir(), "stable")
	buildTree(t, root, map[string]string{"a": "1", "b": "2"})

	a, err := session.AnalyzeDirectory(root)
	require.NoError(t, err)
	b, err := session.AnalyzeDirectory(root)
	require.NoError(t, err)

	result, err := session.CompareDatasets(context.Background(), a.OutputPath, b.OutputPath, true)
	require.NoError(t, err)
	assert.False(t, result.HasChanges())
	assert.Nil(t, result.Copy)

	diffs, err := LoadDataset(result.OutputPath)
	require.NoError(t, err)
	assert.Empty(t, diffs)
	assert.Equal(t, filepath.Join(resultsDir, "Differences_FileHashes_stable_vs_FileHashes_stable (1).csv"), result.OutputPath)
}

func TestCompareDatasetsInvalidInput(t *testing.T) {
	session, _ := newTestSession(t)
	bad := filepath.Join(t.TempDir(), "bad.csv")
	writeTestFile(t, bad, "nonsense\n")

	_, err := session.CompareDatasets(context.Background(), bad, bad, false)
	assert.True(t, errors.Is(err, ErrInvalidDataset), "got %v", err)
}

func TestComparisonLabels(t *testing.T) {
	a, b := comparisonLabels("/x/FileHashes_one.csv", "/y/FileHashes_two.csv")
	assert.Equal(t, "FileHashes_one", a)
	assert.Equal(t, "FileHashes_two", b)

	a, b = comparisonLabels("/x/snap.csv", "/y/snap.csv")
	assert.Equal(t, "snap_A", a)
	assert.Equal(t, "snap_B", b)
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.ApplyOverrides([]string{"default:crc32"}))

	_, err := NewSession(cfg, nil)
	assert.Error(t, err)
}

func TestAnalyzeDirectoryIgnoreFile(t *testing.T) {
	session, _ := newTestSession(t)
	root := filepath.Join(t.TempDir(), "media")
	buildTree(t, root, map[string]string{
		IgnoreFileName:    "cache/**\n",
		"song.mp3":        "la",
		"cache/thumb.jpg": "t",
	})

	result, err := session.AnalyzeDirectory(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, IgnoreFileName), filepath.Join(root, "song.mp3")}, result.Records.Paths())
}
