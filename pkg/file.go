package recursivehasher

import (
	"strings"
	"time"
)

// FileRecord is one row of a dataset
type FileRecord struct {
	Path       string    // Absolute path at analysis time
	Digest     string    // Hex digest, or a failure sentinel
	AnalyzedAt time.Time // When the digest was computed
	DiffTag    string    // Set only by the comparer

	// analyzedRaw keeps the DateOfAnalysis text of loaded rows that did not parse
	analyzedRaw string
}

// Name returns the file's base name. Backslash separates components only in
// paths that look like Windows paths (drive letter or UNC prefix), since
// datasets may have been produced on another platform.
func (r FileRecord) Name() string {
	separators := "/"
	if isWindowsPath(r.Path) {
		separators = `/\`
	}
	if idx := strings.LastIndexAny(r.Path, separators); idx != -1 {
		return r.Path[idx+1:]
	}
	return r.Path
}

// isWindowsPath reports whether path starts with a drive letter ("C:") or a UNC prefix
func isWindowsPath(path string) bool {
	if strings.HasPrefix(path, `\\`) {
		return true
	}
	if len(path) < 2 || path[1] != ':' {
		return false
	}
	c := path[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// DateOfAnalysis returns the persisted form of AnalyzedAt
func (r FileRecord) DateOfAnalysis() string {
	if r.AnalyzedAt.IsZero() {
		return r.analyzedRaw
	}
	return r.AnalyzedAt.Format(time.RFC3339)
}

// Failed reports whether the digest is a failure sentinel
func (r FileRecord) Failed() bool {
	return IsFailureDigest(r.Digest)
}

// withTag returns a copy of r carrying tag
func (r FileRecord) withTag(tag string) FileRecord {
	r.DiffTag = tag
	return r
}

// Dataset is an ordered collection of records; order carries no meaning
type Dataset []FileRecord

// Paths returns the path of every record
func (d Dataset) Paths() []string {
	paths := make([]string, len(d))
	for i, r := range d {
		paths[i] = r.Path
	}
	return paths
}

// FailedCount returns how many records hold a failure digest
func (d Dataset) FailedCount() int {
	n := 0
	for _, r := range d {
		if r.Failed() {
			n++
		}
	}
	return n
}

// HashOutcome is the tagged result of hashing one file
type HashOutcome struct {
	Digest string
	Kind   ErrorKind
	Err    error
}

// Success builds a successful outcome
func Success(digest string) HashOutcome {
	return HashOutcome{Digest: digest}
}

// Failure builds a failed outcome carrying the sentinel digest for kind
func Failure(kind ErrorKind, err error) HashOutcome {
	return HashOutcome{Digest: kind.FailureDigest(), Kind: kind, Err: err}
}

// OK reports whether hashing succeeded
func (o HashOutcome) OK() bool {
	return o.Err == nil
}
