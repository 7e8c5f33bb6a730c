package recursivehasher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// invalidFilenameChars are stripped from generated file names
const invalidFilenameChars = `\/:*?"<>|`

// ScrubStringForFilename removes characters that are not allowed in file names
func ScrubStringForFilename(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidFilenameChars, r) || r < 0x20 {
			return -1
		}
		return r
	}, s)
}

// DatasetLabel derives the label used in diff tags from a dataset file path:
// the base name without extension, scrubbed.
func DatasetLabel(path string) string {
	base := filepath.Base(path)
	return ScrubStringForFilename(strings.TrimSuffix(base, filepath.Ext(base)))
}

// candidateFilename returns name for attempt 0, otherwise "base (n)ext"
func candidateFilename(name string, attempt int) string {
	if attempt == 0 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", base, attempt, ext)
}

// UniqueFilename reserves a file in folder named name, or "name (n).ext" for
// the smallest n that is free. The reservation is an empty file created
// exclusively, so concurrent callers never receive the same path and nothing
// existing is overwritten. maxAttempts <= 0 selects the default.
func UniqueFilename(folder, name string, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	name = ScrubStringForFilename(name)
	if name == "" {
		return "", fmt.Errorf("empty file name after scrubbing")
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := filepath.Join(folder, candidateFilename(name, attempt))

		file, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			if err := file.Close(); err != nil {
				return "", fmt.Errorf("failed to close reserved file %s: %w", candidate, err)
			}
			if attempt > 0 {
				VerboseLog(2, "Using %s, %s already exists", candidate, filepath.Join(folder, name))
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("failed to reserve %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("%w in %d attempts: %s", ErrNoUniqueFilename, maxAttempts, filepath.Join(folder, name))
}
