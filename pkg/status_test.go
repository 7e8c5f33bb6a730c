package recursivehasher

import (
	"testing"
	"time"
)

func TestAnalysisResultSummary(t *testing.T) {
	records := Dataset{
		{Path: "/r/a", Digest: "AAAA"},
		{Path: "/r/b", Digest: DigestAccessDenied},
		{Path: "/r/c", Digest: DigestAccessDenied},
		{Path: "/r/d", Digest: DigestFileInUse},
	}
	progress := NewProgress()
	progress.finish(Success("AAAA"), 2048)

	result := newAnalysisResult("/r", "/out/FileHashes_r.csv", records, progress, time.Second)

	if result.Files() != 4 {
		t.Errorf("Expected 4 files, got %d", result.Files())
	}
	if result.Failed != 3 {
		t.Errorf("Expected 3 failures, got %d", result.Failed)
	}
	if result.FailuresByKind[KindAccessDenied] != 2 {
		t.Errorf("Expected 2 access denied, got %d", result.FailuresByKind[KindAccessDenied])
	}
	if result.FailuresByKind[KindFileInUse] != 1 {
		t.Errorf("Expected 1 file in use, got %d", result.FailuresByKind[KindFileInUse])
	}
	if result.BytesHashed != 2048 {
		t.Errorf("Expected 2048 bytes hashed, got %d", result.BytesHashed)
	}
	if result.HumanBytes() != "2.048kB" {
		t.Errorf("Expected '2.048kB', got '%s'", result.HumanBytes())
	}
}

func TestComparisonResult_HasChanges(t *testing.T) {
	tests := []struct {
		name     string
		sets     *ComparisonSets
		expected bool
		total    int
	}{
		{
			name:     "no sets",
			sets:     nil,
			expected: false,
			total:    0,
		},
		{
			name:     "empty sets",
			sets:     &ComparisonSets{},
			expected: false,
			total:    0,
		},
		{
			name:     "mismatch only",
			sets:     &ComparisonSets{Mismatches: Dataset{{Path: "/b/x"}}},
			expected: true,
			total:    1,
		},
		{
			name: "every category",
			sets: &ComparisonSets{
				Mismatches:   Dataset{{Path: "/b/x"}},
				MissingFromA: Dataset{{Path: "/b/y"}, {Path: "/b/z"}},
				MissingFromB: Dataset{{Path: "/a/w"}},
			},
			expected: true,
			total:    4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &ComparisonResult{Sets: tt.sets}
			if got := result.HasChanges(); got != tt.expected {
				t.Errorf("HasChanges() = %v, expected %v", got, tt.expected)
			}
			if got := result.TotalChanges(); got != tt.total {
				t.Errorf("TotalChanges() = %d, expected %d", got, tt.total)
			}
		})
	}
}
