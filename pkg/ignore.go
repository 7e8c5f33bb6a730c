package recursivehasher

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreManager holds exclusion globs matched against paths relative to the scanned root.
// Patterns without a slash also match any single path element, so "*.tmp" excludes
// temporary files at every depth.
type IgnoreManager struct {
	patterns []string
}

// NewIgnoreManager validates and stores the given doublestar patterns
func NewIgnoreManager(patterns []string) (*IgnoreManager, error) {
	im := &IgnoreManager{}
	for _, p := range patterns {
		if err := im.AddPattern(p); err != nil {
			return nil, err
		}
	}
	return im, nil
}

// AddPattern validates and appends one pattern; blank lines and # comments are ignored
func (im *IgnoreManager) AddPattern(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return nil
	}
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid exclude pattern: %s", pattern)
	}
	im.patterns = append(im.patterns, pattern)
	return nil
}

// LoadIgnoreFile appends patterns from a file, one per line. A missing file is not an error.
func (im *IgnoreManager) LoadIgnoreFile(path string) error {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if err := im.AddPattern(scanner.Text()); err != nil {
			return fmt.Errorf("ignore file %s line %d: %w", path, lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading ignore file: %w", err)
	}
	return nil
}

// Patterns returns the active patterns
func (im *IgnoreManager) Patterns() []string {
	if im == nil {
		return nil
	}
	return append([]string(nil), im.patterns...)
}

// ShouldIgnore reports whether fullPath, found under root, matches any pattern
func (im *IgnoreManager) ShouldIgnore(root, fullPath string) bool {
	if im == nil || len(im.patterns) == 0 {
		return false
	}

	rel, err := filepath.Rel(root, fullPath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(fullPath)

	for _, pattern := range im.patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, base); ok {
				return true
			}
		}
	}
	return false
}
