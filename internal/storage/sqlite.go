package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/brainobs/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS behavior_sessions (
		behavior_session_id INTEGER PRIMARY KEY,
		mouse_id TEXT NOT NULL,
		session_type TEXT,
		date_of_acquisition TIMESTAMP,
		equipment_name TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_behavior_sessions_mouse ON behavior_sessions(mouse_id, date_of_acquisition);

	CREATE TABLE IF NOT EXISTS ophys_sessions (
		ophys_session_id INTEGER PRIMARY KEY,
		behavior_session_id INTEGER NOT NULL,
		ophys_experiment_ids TEXT,
		ophys_container_ids TEXT,
		mouse_id TEXT NOT NULL,
		session_type TEXT,
		date_of_acquisition TIMESTAMP,
		equipment_name TEXT,
		genotype TEXT,
		sex TEXT,
		age_in_days INTEGER,
		project_code TEXT
	);

	CREATE TABLE IF NOT EXISTS files (
		doc_id TEXT PRIMARY KEY,
		file_id INTEGER NOT NULL,
		path TEXT NOT NULL,
		size INTEGER,
		mtime TIMESTAMP,
		run_id TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_files_file_id ON files(file_id);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertBehaviorSession inserts or replaces a behavior session.
func (s *SQLiteStorage) UpsertBehaviorSession(ctx context.Context, b *models.BehaviorSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO behavior_sessions
		 (behavior_session_id, mouse_id, session_type, date_of_acquisition, equipment_name)
		 VALUES (?, ?, ?, ?, ?)`,
		b.BehaviorSessionID, b.MouseID, b.SessionType, b.DateOfAcquisition, b.EquipmentName,
	)
	return err
}

// ListBehaviorSessions returns all behavior sessions ordered by acquisition date.
func (s *SQLiteStorage) ListBehaviorSessions(ctx context.Context) ([]models.BehaviorSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT behavior_session_id, mouse_id, session_type, date_of_acquisition, equipment_name
		 FROM behavior_sessions ORDER BY date_of_acquisition, behavior_session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BehaviorSession
	for rows.Next() {
		var b models.BehaviorSession
		if err := rows.Scan(&b.BehaviorSessionID, &b.MouseID, &b.SessionType, &b.DateOfAcquisition, &b.EquipmentName); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpsertOphysSession inserts or replaces an ophys session.
func (s *SQLiteStorage) UpsertOphysSession(ctx context.Context, o *models.OphysSession) error {
	expJSON, err := json.Marshal(o.OphysExperimentIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal experiment ids: %w", err)
	}
	contJSON, err := json.Marshal(o.OphysContainerIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal container ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO ophys_sessions
		 (ophys_session_id, behavior_session_id, ophys_experiment_ids, ophys_container_ids, mouse_id,
		  session_type, date_of_acquisition, equipment_name, genotype, sex, age_in_days, project_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OphysSessionID, o.BehaviorSessionID, string(expJSON), string(contJSON), o.MouseID,
		o.SessionType, o.DateOfAcquisition, o.EquipmentName, o.Genotype, o.Sex, o.AgeInDays, o.ProjectCode,
	)
	return err
}

// ListOphysSessions returns all ophys sessions ordered by session ID.
func (s *SQLiteStorage) ListOphysSessions(ctx context.Context) ([]models.OphysSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ophys_session_id, behavior_session_id, ophys_experiment_ids, ophys_container_ids, mouse_id,
		        session_type, date_of_acquisition, equipment_name, genotype, sex, age_in_days, project_code
		 FROM ophys_sessions ORDER BY ophys_session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OphysSession
	for rows.Next() {
		var o models.OphysSession
		var expJSON, contJSON string
		if err := rows.Scan(&o.OphysSessionID, &o.BehaviorSessionID, &expJSON, &contJSON, &o.MouseID,
			&o.SessionType, &o.DateOfAcquisition, &o.EquipmentName, &o.Genotype, &o.Sex, &o.AgeInDays, &o.ProjectCode); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(expJSON), &o.OphysExperimentIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal experiment ids: %w", err)
		}
		if err := json.Unmarshal([]byte(contJSON), &o.OphysContainerIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal container ids: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpsertFile inserts or replaces a manifest entry keyed by DocID.
func (s *SQLiteStorage) UpsertFile(ctx context.Context, f *models.FileRecord) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO files (doc_id, file_id, path, size, mtime, run_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.DocID, f.FileID, f.Path, f.Size, f.ModTime, f.RunID, f.CreatedAt,
	)
	return err
}

const fileColumns = `doc_id, file_id, path, size, mtime, run_id, created_at`

func scanFile(row interface{ Scan(...any) error }) (*models.FileRecord, error) {
	var f models.FileRecord
	if err := row.Scan(&f.DocID, &f.FileID, &f.Path, &f.Size, &f.ModTime, &f.RunID, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetFile returns a manifest entry by DocID.
func (s *SQLiteStorage) GetFile(ctx context.Context, docID string) (*models.FileRecord, error) {
	f, err := scanFile(s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE doc_id = ?`, docID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", docID, ErrNotFound)
	}
	return f, err
}

// GetFileByID returns the manifest entry with the given integer file ID.
func (s *SQLiteStorage) GetFileByID(ctx context.Context, fileID int) (*models.FileRecord, error) {
	f, err := scanFile(s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE file_id = ? ORDER BY created_at DESC LIMIT 1`, fileID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file id %d: %w", fileID, ErrNotFound)
	}
	return f, err
}

// ListFiles returns manifest entries ordered by file ID.
func (s *SQLiteStorage) ListFiles(ctx context.Context, offset, limit int) ([]*models.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files ORDER BY file_id, path LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFile removes a manifest entry.
func (s *SQLiteStorage) DeleteFile(ctx context.Context, docID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE doc_id = ?`, docID)
	return err
}

// MaxFileID returns the highest file ID in the manifest, or -1 when it is empty.
func (s *SQLiteStorage) MaxFileID(ctx context.Context) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(file_id), -1) FROM files`).Scan(&id)
	return id, err
}

// CountSessions returns the number of ophys sessions.
func (s *SQLiteStorage) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ophys_sessions`).Scan(&count)
	return count, err
}

// CountFiles returns the number of manifest entries.
func (s *SQLiteStorage) CountFiles(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
