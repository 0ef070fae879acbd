// Package manifest assigns file IDs to the data files of a release and records them in storage.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/brainobs/internal/fileid"
	"github.com/hyperjump/brainobs/internal/models"
	"github.com/hyperjump/brainobs/internal/storage"
)

// Writer registers data files: it asks an Assigner for each file's ID and upserts a
// FileRecord tagged with the writer's run ID.
type Writer struct {
	storage    storage.Storage
	assigner   fileid.Assigner
	runID      string
	extensions []string
	recursive  bool
	logger     *zap.Logger

	mu       sync.Mutex
	loaded   bool
	knownMax int
}

// loadPageSize bounds each ListFiles page read while loading stored assignments.
const loadPageSize = 1000

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets a logger for debug output (file registered, file skipped, etc.).
func WithLogger(l *zap.Logger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

// WithExtensions limits directory walks to the given extensions (empty = all).
func WithExtensions(exts []string) WriterOption {
	return func(w *Writer) { w.extensions = exts }
}

// WithRecursive sets whether WriteDirectory descends into subdirectories (default true).
func WithRecursive(recursive bool) WriterOption {
	return func(w *Writer) { w.recursive = recursive }
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) WriterOption {
	return func(w *Writer) { w.runID = id }
}

// NewWriter creates a writer. The assigner must be safe for the caller's concurrency;
// wrap it with fileid.NewSynchronized when the writer is shared.
func NewWriter(store storage.Storage, assigner fileid.Assigner, opts ...WriterOption) *Writer {
	w := &Writer{
		storage:   store,
		assigner:  assigner,
		runID:     uuid.New().String(),
		recursive: true,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RunID returns the identifier stamped on every record this writer produces.
func (w *Writer) RunID() string {
	return w.runID
}

// RegisterFile assigns an ID to path and records it. Rejections from the assigner
// (wrong type, symlink, not a file) are returned unchanged in kind and nothing is stored.
// A file already recorded with the same ID, size and mtime is not rewritten.
func (w *Writer) RegisterFile(ctx context.Context, path string) (*models.FileRecord, error) {
	return w.RegisterValue(ctx, fileid.NewPath(path))
}

// RegisterValue is RegisterFile for an untyped value such as a decoded request field.
// Anything but a fileid.Path or *fileid.Path fails with fileid.TypeKind.
//
// Assignments already in storage are handed to the assigner first, so a path keeps
// its stored ID and new IDs never collide with IDs recorded by another process.
func (w *Writer) RegisterValue(ctx context.Context, v any) (*models.FileRecord, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.loadAssignments(ctx); err != nil {
		return nil, err
	}
	id, err := fileid.IDFromValue(w.assigner, v)
	if err != nil {
		return nil, fmt.Errorf("assign id: %w", err)
	}
	path := v.(fmt.Stringer).String()
	resolved, err := canonical(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	rec := &models.FileRecord{
		DocID:   fileid.DocID(resolved),
		FileID:  id,
		Path:    resolved,
		Size:    info.Size(),
		ModTime: info.ModTime().UTC(),
		RunID:   w.runID,
	}
	if existing, err := w.storage.GetFile(ctx, rec.DocID); err == nil && unchanged(existing, rec) {
		w.logger.Debug("manifest file unchanged", zap.String("path", resolved), zap.Int("file_id", id))
		return existing, nil
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup file: %w", err)
	}
	if err := w.storage.UpsertFile(ctx, rec); err != nil {
		return nil, fmt.Errorf("store file record: %w", err)
	}
	if id > w.knownMax {
		w.knownMax = id
	}
	w.logger.Debug("manifest file registered", zap.String("path", resolved), zap.Int("file_id", id))
	return rec, nil
}

// loadAssignments seeds the assigner with the manifest's path to ID pairs. It reads
// the manifest on first use and again whenever storage holds an ID above any this
// writer has seen, which means another process has registered files since.
// Assigners that cannot be seeded are left alone.
func (w *Writer) loadAssignments(ctx context.Context) error {
	seeder, ok := w.assigner.(fileid.Seeder)
	if !ok {
		return nil
	}
	maxID, err := w.storage.MaxFileID(ctx)
	if err != nil {
		return fmt.Errorf("load file ids: %w", err)
	}
	if w.loaded && maxID <= w.knownMax {
		return nil
	}
	known := make(map[string]int)
	for offset := 0; ; offset += loadPageSize {
		page, err := w.storage.ListFiles(ctx, offset, loadPageSize)
		if err != nil {
			return fmt.Errorf("load file ids: %w", err)
		}
		for _, rec := range page {
			known[rec.Path] = rec.FileID
		}
		if len(page) < loadPageSize {
			break
		}
	}
	seeder.Seed(known)
	w.loaded = true
	w.knownMax = maxID
	w.logger.Debug("manifest ids loaded", zap.Int("files", len(known)), zap.Int("max_file_id", maxID))
	return nil
}

func unchanged(a, b *models.FileRecord) bool {
	return a.FileID == b.FileID && a.Path == b.Path && a.Size == b.Size && a.ModTime.Equal(b.ModTime)
}

// WriteDirectory walks dir and registers every regular file whose extension is allowed.
// Symlinks are skipped. Returns the records in walk order and the first error, if any.
func (w *Writer) WriteDirectory(ctx context.Context, dir string) ([]*models.FileRecord, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}
	var out []*models.FileRecord
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != absDir && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			w.logger.Debug("manifest skipping symlink", zap.String("path", path))
			return nil
		}
		if !d.Type().IsRegular() || !MatchExtension(path, w.extensions) {
			return nil
		}
		rec, err := w.RegisterFile(ctx, path)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

// RemoveFile deletes the record for a path that no longer exists.
func (w *Writer) RemoveFile(ctx context.Context, path string) error {
	resolved, err := canonical(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := w.storage.DeleteFile(ctx, fileid.DocID(resolved)); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	w.logger.Debug("manifest file removed", zap.String("path", resolved))
	return nil
}

// canonical resolves the directory part of path so that records match the form
// fileid resolves to, even after the file itself is gone.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return filepath.Clean(abs), nil
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}

// MatchExtension reports whether path has one of extensions (case-insensitive, leading dot optional).
// An empty list matches everything.
func MatchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
