package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "project.db")
	wal := filepath.Join(dir, "wal", "project.db-wal")
	for path, size := range map[string]int{db: 4096, wal: 512, filepath.Join(dir, "wal", "deep", "x"): 3} {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{db}, 4096},
		{"directory is summed recursively", []string{filepath.Join(dir, "wal")}, 515},
		{"file and directory", []string{db, filepath.Join(dir, "wal")}, 4611},
		{"empty path ignored", []string{"", db}, 4096},
		{"missing path ignored", []string{filepath.Join(dir, "nope.db")}, 0},
		{"no paths", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatalf("DiskUsageBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}
