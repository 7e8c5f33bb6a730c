package recursivehasher

import (
	"strings"
	"time"
)

// Stage tags for ExceptionRecord
const (
	StageEnumeration = "enumeration"
	StageHashing     = "hashing"
	StageCopy        = "copy"
)

// Debug-only stages; these never appear in an ExceptionRecord
const (
	StageCompare = "compare"
	StageDataset = "dataset"
)

// Failure digests stored in FileRecord.Digest when hashing fails
const (
	DigestAccessDenied      = "Read access denied."
	DigestFileInUse         = "File in use."
	DigestDirectoryNotFound = "Directory not found."
	DigestFailed            = "Hash failed."
)

// Diff tags assigned by the comparer
const (
	DiffHashMismatch      = "hash-mismatch"
	DiffMissingFromPrefix = "missing-from-"
)

// Dataset column names
const (
	ColumnFilePath       = "FilePath"
	ColumnFileHash       = "FileHash"
	ColumnDateOfAnalysis = "DateOfAnalysis"
	ColumnDiff           = "Diff"
)

// Output naming
const (
	HashesFilePrefix      = "FileHashes_"
	DifferencesFilePrefix = "Differences_"
	DatasetExtension      = ".csv"
	MissingFolder         = "missing"
	HashFolder            = "hash"
	IgnoreFileName        = ".rhashignore"
)

// Defaults
const (
	DefaultCompareTimeout  = 4800 * time.Second
	DefaultMaxAttempts     = 1024
	DefaultHashBuffer      = "2M"
	DefaultCopyWorkers     = 4
	DefaultSymlinkMode     = "none"
	DefaultHashAlgorithm   = "md5"
	fallbackHashBufferSize = 2 * 1024 * 1024
)

// Hash size constants
const (
	HashSizeMD5    = 16
	HashSizeSHA1   = 20
	HashSizeSHA256 = 32
	HashSizeSHA512 = 64
)

// HashSizeFromName returns the digest size in bytes for a hash name (case-insensitive)
func HashSizeFromName(name string) (int, bool) {
	switch strings.ToLower(name) {
	case "md5":
		return HashSizeMD5, true
	case "sha1":
		return HashSizeSHA1, true
	case "sha256":
		return HashSizeSHA256, true
	case "sha512":
		return HashSizeSHA512, true
	default:
		return 0, false
	}
}

// MissingFromTag builds the diff tag for records absent from the dataset with the given label
func MissingFromTag(label string) string {
	return DiffMissingFromPrefix + label
}

// IsMissingTag reports whether tag is one of the missing-from-* tags
func IsMissingTag(tag string) bool {
	return strings.HasPrefix(tag, DiffMissingFromPrefix)
}
