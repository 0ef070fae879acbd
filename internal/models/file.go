package models

import "time"

// FileRecord is a manifest entry for one data file with its assigned integer ID.
type FileRecord struct {
	DocID     string    `json:"doc_id" db:"doc_id"`
	FileID    int       `json:"file_id" db:"file_id"`
	Path      string    `json:"path" db:"path"`
	Size      int64     `json:"size" db:"size"`
	ModTime   time.Time `json:"mtime" db:"mtime"`
	RunID     string    `json:"run_id" db:"run_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
