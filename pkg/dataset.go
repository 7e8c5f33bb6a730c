package recursivehasher

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// datasetHeader returns the column row for a dataset file
func datasetHeader(withDiff bool) []string {
	header := []string{ColumnFilePath, ColumnFileHash, ColumnDateOfAnalysis}
	if withDiff {
		header = append(header, ColumnDiff)
	}
	return header
}

// EncodeDataset renders records as CSV and returns one buffer per line,
// header first. The buffers share a single backing array.
func EncodeDataset(dataset Dataset, withDiff bool) ([][]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	offsets := make([]int, 0, len(dataset)+2)
	offsets = append(offsets, 0)

	if err := w.Write(datasetHeader(withDiff)); err != nil {
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}
	w.Flush()
	offsets = append(offsets, buf.Len())

	row := make([]string, 0, 4)
	for _, rec := range dataset {
		row = append(row[:0], rec.Path, rec.Digest, rec.DateOfAnalysis())
		if withDiff {
			row = append(row, rec.DiffTag)
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", rec.Path, err)
		}
		w.Flush()
		offsets = append(offsets, buf.Len())
	}
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode dataset: %w", err)
	}

	data := buf.Bytes()
	lines := make([][]byte, 0, len(offsets)-1)
	for i := 1; i < len(offsets); i++ {
		lines = append(lines, data[offsets[i-1]:offsets[i]])
	}
	return lines, nil
}

// SaveDataset writes dataset to path, replacing whatever is there atomically.
// withDiff adds the Diff column used by comparison output.
func SaveDataset(path string, dataset Dataset, withDiff bool) error {
	defer VerboseEnter()()

	lines, err := EncodeDataset(dataset, withDiff)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, lines, 0644); err != nil {
		return fmt.Errorf("failed to save dataset %s: %w", path, err)
	}

	debugLog(StageDataset, "saved %d records to %s (diff=%t)", len(dataset), path, withDiff)
	VerboseLog(1, "Saved %d records to %s", len(dataset), path)
	return nil
}

// datasetColumns maps column names to their position in a loaded file
type datasetColumns struct {
	path, digest, date, diff int
}

func parseDatasetHeader(header []string) (datasetColumns, error) {
	cols := datasetColumns{path: -1, digest: -1, date: -1, diff: -1}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch {
		case strings.EqualFold(name, ColumnFilePath):
			cols.path = i
		case strings.EqualFold(name, ColumnFileHash):
			cols.digest = i
		case strings.EqualFold(name, ColumnDateOfAnalysis):
			cols.date = i
		case strings.EqualFold(name, ColumnDiff):
			cols.diff = i
		}
	}
	if cols.path < 0 || cols.digest < 0 {
		return cols, fmt.Errorf("%w: header must contain %s and %s, got %v",
			ErrInvalidDataset, ColumnFilePath, ColumnFileHash, header)
	}
	return cols, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// DecodeDataset parses CSV dataset content
func DecodeDataset(r io.Reader) (Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	cols, err := parseDatasetHeader(header)
	if err != nil {
		return nil, err
	}
	minFields := max(cols.path, cols.digest) + 1

	var dataset Dataset
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
		}
		if len(row) < minFields {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, expected at least %d",
				ErrInvalidDataset, line, len(row), minFields)
		}

		rec := FileRecord{
			Path:    strings.Clone(row[cols.path]),
			Digest:  strings.Clone(row[cols.digest]),
			DiffTag: strings.Clone(field(row, cols.diff)),
		}
		if raw := field(row, cols.date); raw != "" {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				rec.AnalyzedAt = t
			} else {
				rec.analyzedRaw = strings.Clone(raw)
			}
		}
		dataset = append(dataset, rec)
	}
	return dataset, nil
}

// LoadDataset reads a dataset file written by SaveDataset or by an earlier
// release of the tool. Unknown columns are ignored; Diff is optional.
func LoadDataset(path string) (Dataset, error) {
	defer VerboseEnter()()

	data, release, err := mmapFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer release()

	dataset, err := DecodeDataset(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", path, err)
	}

	debugLog(StageDataset, "loaded %d records from %s", len(dataset), path)
	VerboseLog(1, "Loaded %d records from %s", len(dataset), path)
	return dataset, nil
}
