// Package fileid assigns stable identifiers to the data files a release is built from.
//
// A Generator hands out small sequential integer IDs keyed by resolved absolute path.
// Inputs are validated before any state changes: symlinks are rejected outright and
// the resolved path must name an existing regular file. A Generator is not safe for
// concurrent use; wrap it with NewSynchronized when it is shared.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

const docPrefix = "file:"

// Path is a filesystem path handed to an Assigner. Plain strings are not accepted
// by IDFromValue so that callers have to opt in explicitly.
type Path struct {
	raw string
}

// NewPath wraps p as a Path.
func NewPath(p string) Path {
	return Path{raw: p}
}

// String returns the path as given to NewPath.
func (p Path) String() string {
	return p.raw
}

// FileRecord pairs a resolved absolute path with its assigned ID.
type FileRecord struct {
	Path string `json:"path"`
	ID   int    `json:"id"`
}

// Assigner maps file paths to integer IDs.
type Assigner interface {
	IDFromPath(p Path) (int, error)
}

// IDFromValue type-checks v before delegating to a.IDFromPath. Values decoded from
// request bodies arrive untyped; anything but a Path or *Path fails with TypeKind.
func IDFromValue(a Assigner, v any) (int, error) {
	switch p := v.(type) {
	case Path:
		return a.IDFromPath(p)
	case *Path:
		if p != nil {
			return a.IDFromPath(*p)
		}
	}
	return 0, typeError(v)
}

// DocID returns a deterministic string key for the given absolute path.
// Same path always yields the same key. Used as the storage primary key for files.
func DocID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return docPrefix + hex.EncodeToString(hash[:])
}

// resolve validates p and returns its canonical absolute form.
// Order: symlink check on the path itself, resolution, regular-file check.
// The symlink check runs on the cleaned path so "link/" and "link/." are caught too.
func resolve(p Path) (string, error) {
	if info, err := os.Lstat(filepath.Clean(p.raw)); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return "", symlinkError(p.raw)
	}
	abs, err := filepath.Abs(p.raw)
	if err != nil {
		return "", notAFileError(p.raw)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", notAFileError(p.raw)
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return "", notAFileError(p.raw)
	}
	return filepath.Clean(resolved), nil
}
