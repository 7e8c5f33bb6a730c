package recursivehasher

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteBuffersVectoredManyBuffers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectored.txt")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	defer file.Close()

	// More buffers than a single writev call accepts, plus empty ones that must be skipped
	count := getSystemIOVMax()*2 + 17
	var bufs [][]byte
	var expected bytes.Buffer
	for i := 0; i < count; i++ {
		line := []byte(fmt.Sprintf("line %05d\n", i))
		bufs = append(bufs, line)
		expected.Write(line)
		if i%100 == 0 {
			bufs = append(bufs, nil)
		}
	}

	n, err := writeBuffersVectored(file, bufs)
	if err != nil {
		t.Fatalf("writeBuffersVectored failed: %v", err)
	}
	if n != expected.Len() {
		t.Errorf("Expected %d bytes written, got %d", expected.Len(), n)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if !bytes.Equal(got, expected.Bytes()) {
		t.Error("File content does not match the buffers in order")
	}
}

func TestWriteRemainder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remainder.txt")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	defer file.Close()

	// Pretend the first 5 bytes ("abcde") already landed
	n, err := writeRemainder(file, [][]byte{[]byte("abc"), []byte("defg"), []byte("hi")}, 5)
	if err != nil {
		t.Fatalf("writeRemainder failed: %v", err)
	}
	if n != 4 {
		t.Errorf("Expected 4 bytes written, got %d", n)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "fghi" {
		t.Errorf("Expected 'fghi', got '%s'", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	if err := writeFileAtomic(target, [][]byte{[]byte("one\n"), []byte("two\n")}, 0644); err != nil {
		t.Fatalf("writeFileAtomic failed: %v", err)
	}
	if err := writeFileAtomic(target, [][]byte{[]byte("three\n")}, 0644); err != nil {
		t.Fatalf("writeFileAtomic replace failed: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read target: %v", err)
	}
	if string(got) != "three\n" {
		t.Errorf("Expected replaced content, got '%s'", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the target file, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicMissingDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "absent", "out.csv")
	if err := writeFileAtomic(target, [][]byte{[]byte("x")}, 0644); err == nil {
		t.Error("Expected an error writing into a missing directory")
	}
}

func TestTempFileName(t *testing.T) {
	target := filepath.Join("/results", "FileHashes_x.csv")

	first := tempFileName(target)
	second := tempFileName(target)

	if filepath.Dir(first) != "/results" {
		t.Errorf("Temp file should be a sibling of the target, got %s", first)
	}
	if !strings.HasPrefix(filepath.Base(first), ".FileHashes_x.csv.tmp-") {
		t.Errorf("Unexpected temp file name %s", first)
	}
	if first == second {
		t.Error("Temp file names should be unique")
	}
}

func TestMmapFile(t *testing.T) {
	dir := t.TempDir()

	full := filepath.Join(dir, "full.txt")
	writeTestFile(t, full, "mapped content")
	data, release, err := mmapFile(full)
	if err != nil {
		t.Fatalf("mmapFile failed: %v", err)
	}
	if string(data) != "mapped content" {
		t.Errorf("Expected mapped content, got '%s'", data)
	}
	if err := release(); err != nil {
		t.Errorf("release failed: %v", err)
	}

	empty := filepath.Join(dir, "empty.txt")
	writeTestFile(t, empty, "")
	data, release, err = mmapFile(empty)
	if err != nil {
		t.Fatalf("mmapFile on empty file failed: %v", err)
	}
	if data != nil {
		t.Errorf("Expected nil data for empty file, got %d bytes", len(data))
	}
	if err := release(); err != nil {
		t.Errorf("release failed: %v", err)
	}

	if _, _, err := mmapFile(dir); err == nil {
		t.Error("Expected an error mapping a directory")
	}
}
