// Package storage defines the persistence interface for project metadata and the file manifest.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/brainobs/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines project metadata and file manifest persistence.
type Storage interface {
	// Session tables
	UpsertBehaviorSession(ctx context.Context, s *models.BehaviorSession) error
	ListBehaviorSessions(ctx context.Context) ([]models.BehaviorSession, error)
	UpsertOphysSession(ctx context.Context, s *models.OphysSession) error
	ListOphysSessions(ctx context.Context) ([]models.OphysSession, error)

	// File manifest
	UpsertFile(ctx context.Context, f *models.FileRecord) error
	GetFile(ctx context.Context, docID string) (*models.FileRecord, error)
	GetFileByID(ctx context.Context, fileID int) (*models.FileRecord, error)
	ListFiles(ctx context.Context, offset, limit int) ([]*models.FileRecord, error)
	DeleteFile(ctx context.Context, docID string) error
	// MaxFileID returns the highest recorded file ID, or -1 when the manifest is empty.
	MaxFileID(ctx context.Context) (int, error)

	// Stats
	CountSessions(ctx context.Context) (int64, error)
	CountFiles(ctx context.Context) (int64, error)

	Close() error
}
