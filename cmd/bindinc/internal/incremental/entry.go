// Package incremental snapshots the layout-info folder between builds so the
// change set can be derived when the build system does not report one.
package incremental

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Entry is one tracked input file. Path is slash-separated and relative to
// the tracked root.
type Entry struct {
	Path    string `json:"path"`
	Hash    string `json:"hash"`     // xxHash64 hex
	ModTime int64  `json:"mtime_ns"` // UnixNano
	Size    int64  `json:"size"`
}

// sameStat reports whether mtime and size match, in which case the content
// is assumed unchanged.
func (e *Entry) sameStat(other *Entry) bool {
	return e.ModTime == other.ModTime && e.Size == other.Size
}

// HashFile computes the xxHash64 of a file's contents as hex.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash input: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the xxHash64 of data as hex.
func HashBytes(data []byte) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], xxhash.Sum64(data))
	return hex.EncodeToString(buf[:])
}
