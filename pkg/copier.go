package recursivehasher

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

// CopySummary describes a CopyDifferences batch
type CopySummary struct {
	DestRoot string
	Copied   int            // files copied
	Skipped  int            // records without a copyable diff tag
	Failed   int            // files reported to the sink
	ByFolder map[string]int // copied files per category folder
}

// Partial reports whether some, but not all, copies failed
func (cs *CopySummary) Partial() bool {
	return cs.Failed > 0 && cs.Copied > 0
}

// ResultCopier copies the files behind differing records into category folders
type ResultCopier struct {
	sink        *ExceptionSink
	workers     int
	maxAttempts int
}

// NewResultCopier creates a copier; workers <= 0 selects the default
func NewResultCopier(sink *ExceptionSink, workers, maxAttempts int) *ResultCopier {
	if workers <= 0 {
		workers = DefaultCopyWorkers
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &ResultCopier{sink: sink, workers: workers, maxAttempts: maxAttempts}
}

// CategoryFolder returns the folder name for a diff tag, or "" when the tag is not copied
func CategoryFolder(tag string) string {
	switch {
	case tag == DiffHashMismatch:
		return HashFolder
	case IsMissingTag(tag):
		return MissingFolder
	default:
		return ""
	}
}

// CopyDifferences copies each record's file to destRoot/missing or destRoot/hash
// according to its diff tag, never overwriting. A file that cannot be copied is
// reported to the sink with stage "copy" and the batch continues; the returned
// error aggregates those failures and is nil when every copy succeeded.
func (rc *ResultCopier) CopyDifferences(records Dataset, destRoot string) (*CopySummary, error) {
	defer VerboseEnter()()

	copyable := lo.Filter(records, func(r FileRecord, _ int) bool {
		return CategoryFolder(r.DiffTag) != ""
	})
	summary := &CopySummary{
		DestRoot: destRoot,
		Skipped:  len(records) - len(copyable),
		ByFolder: make(map[string]int),
	}

	var (
		mu     sync.Mutex
		merr   *multierror.Error
		copied atomic.Int64
	)

	p := pool.New().WithMaxGoroutines(rc.workers)
	for _, rec := range copyable {
		p.Go(func() {
			folder := CategoryFolder(rec.DiffTag)
			dest, err := rc.copyOne(rec, filepath.Join(destRoot, folder))
			if err != nil {
				rc.sink.Report(StageCopy, rec.Path, err)
				mu.Lock()
				merr = multierror.Append(merr, err)
				summary.Failed++
				mu.Unlock()
				return
			}
			debugLog(StageCopy, "copied %s to %s", rec.Path, dest)
			copied.Add(1)
			mu.Lock()
			summary.ByFolder[folder]++
			mu.Unlock()
		})
	}
	p.Wait()

	summary.Copied = int(copied.Load())
	VerboseLog(1, "Copied %d of %d differing files to %s (%d failed)", summary.Copied, len(copyable), destRoot, summary.Failed)
	return summary, merr.ErrorOrNil()
}

// copyOne copies rec's file into folder under a unique name and returns the destination
func (rc *ResultCopier) copyOne(rec FileRecord, folder string) (string, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", folder, err)
	}

	src, err := os.Open(rec.Path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", &os.PathError{Op: "copy", Path: rec.Path, Err: fmt.Errorf("not a regular file")}
	}

	dest, err := UniqueFilename(folder, rec.Name(), rc.maxAttempts)
	if err != nil {
		return "", &os.PathError{Op: "copy", Path: rec.Path, Err: err}
	}

	if err := copyInto(dest, src, info); err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

// copyInto fills the reserved file dest with src and carries over its modification time
func copyInto(dest string, src io.Reader, info os.FileInfo) error {
	dst, err := os.OpenFile(dest, os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy into %s: %w", dest, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}
	if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		VerboseLog(2, "Could not preserve times on %s: %v", dest, err)
	}
	return nil
}
