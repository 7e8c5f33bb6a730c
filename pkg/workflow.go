package recursivehasher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AnalyzeDirectory enumerates root, hashes every file and saves the dataset as
// FileHashes_<root name>.csv in the results directory. Per-file and
// per-directory failures end up in the sink and in the dataset; only
// operation-wide failures are returned.
func (s *Session) AnalyzeDirectory(root string) (*AnalysisResult, error) {
	defer VerboseEnter()()
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot analyze %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot analyze %s: %w", absRoot, ErrNotDirectory)
	}

	// Step 1: enumerate
	ignore, err := NewIgnoreManager(s.config.GetScanConfig().Exclude)
	if err != nil {
		return nil, err
	}
	if err := ignore.LoadIgnoreFile(filepath.Join(absRoot, IgnoreFileName)); err != nil {
		return nil, err
	}
	enumerator, err := NewPathEnumerator(s.sink, s.config.GetSymlinkConfig().Mode, ignore)
	if err != nil {
		return nil, err
	}
	paths, err := enumerator.Enumerate(absRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot analyze %s: %w", absRoot, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", absRoot, ErrEmptyDirectory)
	}

	// Step 2: hash
	perf := s.config.GetPerformanceConfig()
	progress := NewProgress()
	s.progress.Store(progress)
	pool := NewHashWorkerPool(s.algorithm, perf.HashBufferBytes(), s.sink)
	records := pool.HashAll(paths, perf.EffectiveHashWorkers(), progress)

	// Step 3: persist
	name := HashesFilePrefix + ScrubStringForFilename(filepath.Base(absRoot)) + DatasetExtension
	outputPath, err := s.saveResults(name, records, false)
	if err != nil {
		return nil, err
	}

	result := newAnalysisResult(absRoot, outputPath, records, progress, time.Since(start))
	VerboseLog(1, "Analyzed %s: %d files, %d failed, %s in %s",
		absRoot, result.Files(), result.Failed, result.HumanBytes(), result.Elapsed.Round(time.Millisecond))
	return result, nil
}

// CompareDatasets loads two datasets, compares them under the configured
// timeout and saves the differences as Differences_<A>_vs_<B>.csv. With
// copyFiles set, the differing files are copied next to that file into
// "missing" and "hash" folders; copy failures do not fail the comparison.
func (s *Session) CompareDatasets(ctx context.Context, pathA, pathB string, copyFiles bool) (*ComparisonResult, error) {
	defer VerboseEnter()()
	start := time.Now()

	a, err := LoadDataset(pathA)
	if err != nil {
		return nil, err
	}
	b, err := LoadDataset(pathB)
	if err != nil {
		return nil, err
	}

	labelA, labelB := comparisonLabels(pathA, pathB)
	sets, err := CompareWithTimeout(ctx, a, b, labelA, labelB, s.config.GetCompareConfig().Timeout)
	if err != nil {
		return nil, err
	}

	result := &ComparisonResult{
		LabelA:   labelA,
		LabelB:   labelB,
		RecordsA: len(a),
		RecordsB: len(b),
		Sets:     sets,
	}

	differences := sets.Union()
	name := DifferencesFilePrefix + labelA + "_vs_" + labelB + DatasetExtension
	result.OutputPath, err = s.saveResults(name, differences, true)
	if err != nil {
		return nil, err
	}

	if copyFiles && len(differences) > 0 {
		out := s.config.GetOutputConfig()
		destRoot := strings.TrimSuffix(result.OutputPath, DatasetExtension)
		copier := NewResultCopier(s.sink, s.config.GetPerformanceConfig().CopyWorkers, out.MaxAttempts)
		result.Copy, result.CopyErr = copier.CopyDifferences(differences, destRoot)
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// comparisonLabels derives the diff tag labels; identical names are disambiguated
func comparisonLabels(pathA, pathB string) (string, string) {
	labelA, labelB := DatasetLabel(pathA), DatasetLabel(pathB)
	if labelA == labelB {
		labelA, labelB = labelA+"_A", labelB+"_B"
	}
	return labelA, labelB
}

// saveResults reserves a unique file in the results directory and writes records to it
func (s *Session) saveResults(name string, records Dataset, withDiff bool) (string, error) {
	out := s.config.GetOutputConfig()
	if err := os.MkdirAll(out.ResultsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory %s: %w", out.ResultsDir, err)
	}

	outputPath, err := UniqueFilename(out.ResultsDir, name, out.MaxAttempts)
	if err != nil {
		return "", err
	}
	if err := SaveDataset(outputPath, records, withDiff); err != nil {
		os.Remove(outputPath)
		return "", err
	}
	return outputPath, nil
}
