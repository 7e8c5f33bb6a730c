package recursivehasher

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	md5simd "github.com/minio/md5-simd"
	"golang.org/x/sys/unix"
)

// HashAlgorithm represents a hash algorithm configuration
type HashAlgorithm struct {
	Name    string
	Size    int
	NewFunc func() hash.Hash

	// md5 hashers are multiplexed onto one md5-simd server shared by all workers
	server md5simd.Server
}

// GetHashAlgorithm returns the hash algorithm configuration for the given name.
// Callers must Close the returned algorithm once all hashing is done.
func GetHashAlgorithm(name string) (*HashAlgorithm, error) {
	switch strings.ToLower(name) {
	case "md5":
		return &HashAlgorithm{
			Name:   "md5",
			Size:   HashSizeMD5,
			server: md5simd.NewServer(),
		}, nil
	case "sha1":
		return &HashAlgorithm{
			Name:    "sha1",
			Size:    HashSizeSHA1,
			NewFunc: func() hash.Hash { return sha1.New() },
		}, nil
	case "sha256":
		return &HashAlgorithm{
			Name:    "sha256",
			Size:    HashSizeSHA256,
			NewFunc: func() hash.Hash { return sha256.New() },
		}, nil
	case "sha512":
		return &HashAlgorithm{
			Name:    "sha512",
			Size:    HashSizeSHA512,
			NewFunc: func() hash.Hash { return sha512.New() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
}

// newHasher returns a fresh accumulator and the function that releases it
func (a *HashAlgorithm) newHasher() (hash.Hash, func()) {
	if a.server != nil {
		h := a.server.NewHash()
		return h, h.Close
	}
	return a.NewFunc(), func() {}
}

// Close releases the shared md5 server, if any
func (a *HashAlgorithm) Close() {
	if a != nil && a.server != nil {
		a.server.Close()
		a.server = nil
	}
}

// HashFile streams a file through the algorithm and returns the upper-case hex
// digest and the number of bytes read. bufferSize <= 0 selects the default.
func HashFile(filePath string, algorithm *HashAlgorithm, bufferSize int) (string, int64, error) {
	if bufferSize <= 0 {
		bufferSize = fallbackHashBufferSize
	}
	return HashFileWithBuffer(filePath, algorithm, make([]byte, bufferSize))
}

// HashFileWithBuffer is HashFile reading through buf, which callers hashing
// many files reuse. The file is opened read-only without any lock so files
// held open by other processes can still be hashed.
func HashFileWithBuffer(filePath string, algorithm *HashAlgorithm, buf []byte) (string, int64, error) {
	if len(buf) == 0 {
		return "", 0, fmt.Errorf("failed to hash file %s: empty read buffer", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	// Advisory only; not every filesystem supports it
	_ = unix.Fadvise(int(file.Fd()), 0, 0, unix.FADV_SEQUENTIAL)

	hasher, release := algorithm.newHasher()
	defer release()

	// Hide os.File's WriterTo so the copy goes through buf
	n, err := io.CopyBuffer(hasher, struct{ io.Reader }{file}, buf)
	if err != nil {
		return "", n, fmt.Errorf("failed to hash file %s: %w", filePath, err)
	}

	return FormatDigest(hasher.Sum(make([]byte, 0, algorithm.Size))), n, nil
}

// FormatDigest renders digest bytes the way datasets store them
func FormatDigest(sum []byte) string {
	return strings.ToUpper(hex.EncodeToString(sum))
}
