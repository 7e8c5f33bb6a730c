package recursivehasher

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/google/vectorio"
	"golang.org/x/sys/unix"
)

// fallbackIOVMax is the conservative iovec limit per writev call (golang/go#58623)
const fallbackIOVMax = 1024

// getSystemIOVMax returns the number of iovecs passed to a single writev call
func getSystemIOVMax() int {
	return fallbackIOVMax
}

// writeBuffersVectored writes bufs to file in order using writev, chunked to IOV_MAX.
// Short writes are completed with plain writes so the whole payload always lands.
func writeBuffersVectored(file *os.File, bufs [][]byte) (int, error) {
	iovecs := make([]syscall.Iovec, 0, len(bufs))
	payload := make([][]byte, 0, len(bufs))
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		iov := syscall.Iovec{Base: &b[0]}
		iov.SetLen(len(b))
		iovecs = append(iovecs, iov)
		payload = append(payload, b)
	}

	maxIovecs := getSystemIOVMax()
	totalWritten := 0
	for offset := 0; offset < len(iovecs); offset += maxIovecs {
		end := offset + maxIovecs
		if end > len(iovecs) {
			end = len(iovecs)
		}

		expected := 0
		for _, b := range payload[offset:end] {
			expected += len(b)
		}

		nw, err := vectorio.WritevRaw(uintptr(file.Fd()), iovecs[offset:end])
		if err != nil {
			return totalWritten, fmt.Errorf("failed to write chunk with vectorio: %w", err)
		}
		totalWritten += nw

		if nw < expected {
			n, err := writeRemainder(file, payload[offset:end], nw)
			totalWritten += n
			if err != nil {
				return totalWritten, err
			}
		}
	}
	return totalWritten, nil
}

// writeRemainder finishes a short writev by skipping the first skip bytes of bufs
func writeRemainder(file *os.File, bufs [][]byte, skip int) (int, error) {
	written := 0
	for _, b := range bufs {
		if skip >= len(b) {
			skip -= len(b)
			continue
		}
		n, err := file.Write(b[skip:])
		written += n
		if err != nil {
			return written, fmt.Errorf("failed to complete short write: %w", err)
		}
		skip = 0
	}
	return written, nil
}

// mmapFile maps a whole file read-only. The returned release func must be called
// once the data is no longer referenced. Empty files map to a nil slice.
func mmapFile(path string) ([]byte, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if stat.IsDir() {
		return nil, nil, &os.PathError{Op: "mmap", Path: path, Err: syscall.EISDIR}
	}
	if stat.Size() == 0 {
		return nil, func() error { return nil }, nil
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to mmap %s: %w", path, err)
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return data, func() error { return unix.Munmap(data) }, nil
}

// tempFileName returns a hidden sibling of target used for atomic replacement
func tempFileName(target string) string {
	dir, name := filepath.Split(target)
	return filepath.Join(dir, fmt.Sprintf(".%s.tmp-%s", name, uuid.NewString()))
}

// writeFileAtomic writes bufs to a temporary sibling of target, syncs it and
// renames it into place. On failure the temporary file is removed.
func writeFileAtomic(target string, bufs [][]byte, perm os.FileMode) (err error) {
	tmpPath := tempFileName(target)
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file %s: %w", tmpPath, err)
	}
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tmpPath)
		}
	}()

	expected := 0
	for _, b := range bufs {
		expected += len(b)
	}
	nw, err := writeBuffersVectored(file, bufs)
	if err != nil {
		return err
	}
	if nw != expected {
		return fmt.Errorf("write incomplete: wrote %d bytes, expected %d", nw, expected)
	}

	if err = file.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", tmpPath, target, err)
	}
	return nil
}
