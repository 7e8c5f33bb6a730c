package recursivehasher

import (
	"time"

	"github.com/docker/go-units"
	"github.com/samber/lo"
)

// AnalysisResult represents the result of hashing one directory tree
type AnalysisResult struct {
	Root           string
	OutputPath     string
	Records        Dataset
	Failed         int
	FailuresByKind map[ErrorKind]int
	BytesHashed    int64
	Elapsed        time.Duration
}

// newAnalysisResult summarises a hashed dataset
func newAnalysisResult(root, outputPath string, records Dataset, progress *Progress, elapsed time.Duration) *AnalysisResult {
	failed := lo.Filter(records, func(r FileRecord, _ int) bool { return r.Failed() })
	byKind := lo.CountValuesBy(failed, func(r FileRecord) ErrorKind {
		kind, _ := KindOfDigest(r.Digest)
		return kind
	})

	return &AnalysisResult{
		Root:           root,
		OutputPath:     outputPath,
		Records:        records,
		Failed:         len(failed),
		FailuresByKind: byKind,
		BytesHashed:    progress.BytesHashed(),
		Elapsed:        elapsed,
	}
}

// Files returns the number of records written
func (ar *AnalysisResult) Files() int {
	return len(ar.Records)
}

// HumanBytes returns BytesHashed in human readable form
func (ar *AnalysisResult) HumanBytes() string {
	return units.HumanSize(float64(ar.BytesHashed))
}

// ComparisonResult represents the result of comparing two datasets
type ComparisonResult struct {
	LabelA     string
	LabelB     string
	RecordsA   int
	RecordsB   int
	Sets       *ComparisonSets
	OutputPath string
	Copy       *CopySummary // nil unless copying was requested
	CopyErr    error        // aggregated per-file copy failures
	Elapsed    time.Duration
}

// HasChanges returns true if there are any differences
func (cr *ComparisonResult) HasChanges() bool {
	return cr.TotalChanges() > 0
}

// TotalChanges returns the total number of differing records
func (cr *ComparisonResult) TotalChanges() int {
	return cr.Sets.Total()
}
