package recursivehasher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Operation-wide failures surfaced to the operator
var (
	ErrCompareTimeout   = errors.New("comparison query timed out")
	ErrNoUniqueFilename = errors.New("could not create unique filename")
	ErrEmptyDirectory   = errors.New("directory contains no files")
	ErrNotDirectory     = errors.New("not a directory")
	ErrInvalidDataset   = errors.New("invalid dataset")
)

// ErrorKind categorises a per-item failure
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindAccessDenied
	KindFileInUse
	KindDirectoryNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindAccessDenied:
		return "AccessDenied"
	case KindFileInUse:
		return "FileInUse"
	case KindDirectoryNotFound:
		return "DirectoryNotFound"
	default:
		return "Other"
	}
}

// FailureDigest returns the sentinel digest stored for a failed file of this kind
func (k ErrorKind) FailureDigest() string {
	switch k {
	case KindAccessDenied:
		return DigestAccessDenied
	case KindFileInUse:
		return DigestFileInUse
	case KindDirectoryNotFound:
		return DigestDirectoryNotFound
	default:
		return DigestFailed
	}
}

// IsFailureDigest reports whether digest is one of the failure sentinels
func IsFailureDigest(digest string) bool {
	switch digest {
	case DigestAccessDenied, DigestFileInUse, DigestDirectoryNotFound, DigestFailed:
		return true
	}
	return false
}

// KindOfDigest returns the ErrorKind a failure digest stands for
func KindOfDigest(digest string) (ErrorKind, bool) {
	switch digest {
	case DigestAccessDenied:
		return KindAccessDenied, true
	case DigestFileInUse:
		return KindFileInUse, true
	case DigestDirectoryNotFound:
		return KindDirectoryNotFound, true
	case DigestFailed:
		return KindOther, true
	}
	return KindOther, false
}

// ClassifyError maps an I/O error onto an ErrorKind
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return KindOther
	case errors.Is(err, fs.ErrPermission), errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return KindAccessDenied
	case errors.Is(err, unix.EBUSY), errors.Is(err, unix.ETXTBSY), errors.Is(err, unix.EAGAIN):
		return KindFileInUse
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENOTDIR):
		return KindDirectoryNotFound
	default:
		return KindOther
	}
}

// ExceptionRecord describes one per-item failure
type ExceptionRecord struct {
	Stage string
	Kind  ErrorKind
	Path  string
	Err   error
	At    time.Time
}

// NewExceptionRecord builds a record for err raised while working on path.
// The path carried by the error itself wins; when neither is known the error
// text stands in for it.
func NewExceptionRecord(stage string, path string, err error) ExceptionRecord {
	return ExceptionRecord{
		Stage: stage,
		Kind:  ClassifyError(err),
		Path:  pathFromError(err, path),
		Err:   err,
		At:    time.Now(),
	}
}

func (r ExceptionRecord) String() string {
	return fmt.Sprintf("%s failed: %s - %s", r.Stage, r.Kind, r.Path)
}

func pathFromError(err error, fallback string) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Path != "" {
		return pathErr.Path
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && linkErr.Old != "" {
		return linkErr.Old
	}
	if fallback != "" {
		return fallback
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
