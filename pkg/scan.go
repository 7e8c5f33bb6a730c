package recursivehasher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// Symlink handling modes
const (
	SymlinkNone      = "none"      // symlinks are neither listed nor followed
	SymlinkContained = "contained" // follow only when the target stays under root
	SymlinkAll       = "all"       // follow every symlink, guarding against cycles
)

// PathEnumerator lists every regular file under a root directory. Directories
// that cannot be listed are reported to the sink and skipped.
type PathEnumerator struct {
	symlinkMode   string
	ignoreManager *IgnoreManager
	sink          *ExceptionSink
}

// devIno identifies a directory for cycle detection
type devIno struct {
	dev uint64
	ino uint64
}

// dirFrame is a directory waiting to be listed, with the identities of the
// directories above it (tracked only when symlinks are followed)
type dirFrame struct {
	path      string
	ancestors []devIno
}

// NewPathEnumerator creates an enumerator; ignore may be nil
func NewPathEnumerator(sink *ExceptionSink, symlinkMode string, ignore *IgnoreManager) (*PathEnumerator, error) {
	if symlinkMode == "" {
		symlinkMode = DefaultSymlinkMode
	}
	if err := ValidateSymlinkMode(symlinkMode); err != nil {
		return nil, err
	}
	return &PathEnumerator{
		symlinkMode:   strings.ToLower(symlinkMode),
		ignoreManager: ignore,
		sink:          sink,
	}, nil
}

// Enumerate returns the absolute path of every regular file reachable from root.
// Subdirectories that cannot be listed are reported to the sink and skipped.
// A root that cannot be listed is reported too, and its error is also returned.
func (pe *PathEnumerator) Enumerate(root string) ([]string, error) {
	defer VerboseEnter()()

	var files []string
	err := pe.walk(root, func(path string) {
		files = append(files, path)
	})
	if err != nil {
		return nil, err
	}

	VerboseLog(1, "Enumerated %d files under %s", len(files), root)
	return files, nil
}

// walk visits files depth-first in lexical order. Only failures on root itself are returned.
func (pe *PathEnumerator) walk(root string, visit func(path string)) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		pe.sink.Report(StageEnumeration, root, err)
		return err
	}
	absRoot = filepath.Clean(absRoot)

	info, err := os.Stat(absRoot)
	if err != nil {
		pe.sink.Report(StageEnumeration, absRoot, err)
		return err
	}
	if !info.IsDir() {
		err := &fs.PathError{Op: "readdir", Path: absRoot, Err: ErrNotDirectory}
		pe.sink.Report(StageEnumeration, absRoot, err)
		return err
	}

	var rootAncestors []devIno
	if pe.symlinkMode != SymlinkNone {
		if id, ok := statDevIno(info); ok {
			rootAncestors = []devIno{id}
		}
	}

	stack := []dirFrame{{path: absRoot, ancestors: rootAncestors}}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(current.path)
		if err != nil {
			pe.sink.Report(StageEnumeration, current.path, err)
			if current.path == absRoot {
				return err
			}
			debugLog(StageEnumeration, "skipping %s: %v", current.path, err)
			continue
		}

		var subdirs []dirFrame
		for _, entry := range entries {
			fullPath := filepath.Join(current.path, entry.Name())

			if pe.ignoreManager.ShouldIgnore(absRoot, fullPath) {
				debugLog(StageEnumeration, "ignored %s", fullPath)
				continue
			}

			mode := entry.Type()
			switch {
			case mode.IsDir():
				if frame, ok := pe.enterDir(current, fullPath); ok {
					subdirs = append(subdirs, frame)
				}

			case mode.IsRegular():
				visit(fullPath)

			case mode&fs.ModeSymlink != 0:
				targetInfo, ok := pe.followSymlink(absRoot, fullPath)
				if !ok {
					continue
				}
				if targetInfo.IsDir() {
					if frame, ok := pe.enterDir(current, fullPath); ok {
						subdirs = append(subdirs, frame)
					}
				} else if targetInfo.Mode().IsRegular() {
					visit(fullPath)
				}
			}
		}

		// Push in reverse so the lexically smallest directory is processed next
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}
	return nil
}

// followSymlink applies the symlink mode and returns the target's info when the link may be followed
func (pe *PathEnumerator) followSymlink(root, linkPath string) (os.FileInfo, bool) {
	switch pe.symlinkMode {
	case SymlinkNone:
		return nil, false
	case SymlinkContained:
		target, err := filepath.EvalSymlinks(linkPath)
		if err != nil {
			VerboseLog(2, "Skipping broken symlink %s: %v", linkPath, err)
			return nil, false
		}
		if !isPathContained(target, root) {
			VerboseLog(2, "Skipping symlink %s pointing outside %s", linkPath, root)
			return nil, false
		}
	}

	targetInfo, err := os.Stat(linkPath)
	if err != nil {
		VerboseLog(2, "Skipping broken symlink %s: %v", linkPath, err)
		return nil, false
	}
	return targetInfo, true
}

// enterDir builds the frame for descending into dir. When symlinks are followed
// a directory that is already one of its own ancestors is a cycle: it is
// reported and not entered. The same directory reached along unrelated paths
// is listed each time.
func (pe *PathEnumerator) enterDir(parent dirFrame, dir string) (dirFrame, bool) {
	if pe.symlinkMode == SymlinkNone {
		return dirFrame{path: dir}, true
	}

	info, err := os.Stat(dir)
	if err != nil {
		pe.sink.Report(StageEnumeration, dir, err)
		return dirFrame{}, false
	}
	id, ok := statDevIno(info)
	if !ok {
		return dirFrame{path: dir, ancestors: parent.ancestors}, true
	}
	for _, ancestor := range parent.ancestors {
		if ancestor == id {
			pe.sink.Report(StageEnumeration, dir, &fs.PathError{
				Op:   "readdir",
				Path: dir,
				Err:  fmt.Errorf("directory cycle: %w", unix.ELOOP),
			})
			return dirFrame{}, false
		}
	}

	ancestors := make([]devIno, len(parent.ancestors), len(parent.ancestors)+1)
	copy(ancestors, parent.ancestors)
	return dirFrame{path: dir, ancestors: append(ancestors, id)}, true
}

func statDevIno(info os.FileInfo) (devIno, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return devIno{}, false
	}
	return devIno{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}, true
}

// isPathContained checks if targetPath is contained within containerPath
func isPathContained(targetPath, containerPath string) bool {
	targetPath = filepath.Clean(targetPath)
	containerPath = filepath.Clean(containerPath)

	// The root itself may sit behind a symlink (e.g. /tmp on some systems)
	if resolved, err := filepath.EvalSymlinks(containerPath); err == nil {
		if targetPath == resolved || strings.HasPrefix(targetPath, resolved+string(filepath.Separator)) {
			return true
		}
	}

	if targetPath == containerPath {
		return true
	}
	return strings.HasPrefix(targetPath, containerPath+string(filepath.Separator))
}
