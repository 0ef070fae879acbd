package fileid

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ContentHasher derives IDs from file content instead of path order. Files with
// identical bytes share an ID; a path keeps the ID it was first given even if the
// file is rewritten later.
type ContentHasher struct {
	ids map[string]int
}

// NewContentHasher returns an empty ContentHasher.
func NewContentHasher() *ContentHasher {
	return &ContentHasher{ids: make(map[string]int)}
}

// IDFromPath validates p like Generator does and returns the content-derived ID.
func (h *ContentHasher) IDFromPath(p Path) (int, error) {
	resolved, err := resolve(p)
	if err != nil {
		return 0, err
	}
	if id, ok := h.ids[resolved]; ok {
		return id, nil
	}
	id, err := hashFile(resolved)
	if err != nil {
		return 0, err
	}
	h.ids[resolved] = id
	return id, nil
}

// Seed records known assignments so those paths keep their earlier IDs.
func (h *ContentHasher) Seed(known map[string]int) {
	for path, id := range known {
		h.ids[filepath.Clean(path)] = id
	}
}

// Records returns every assignment ordered by ID.
func (h *ContentHasher) Records() []FileRecord {
	return sortedRecords(h.ids)
}

// hashFile returns the first 63 bits of the SHA-256 of the file at path.
func hashFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("hash %s: %w", path, err)
	}
	sum := h.Sum(nil)
	return int(binary.BigEndian.Uint64(sum[:8]) >> 1), nil
}
