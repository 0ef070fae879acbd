package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
sessions:
  index_column: ophys_experiment_id
  suppress: [genotype]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Sessions.IndexColumn != "ophys_experiment_id" || len(cfg.Sessions.Suppress) != 1 {
		t.Errorf("sessions config: %+v", cfg.Sessions)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/project.db"
data:
  directories: ["./releases/vbo"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "db", "project.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if len(cfg.Data.Directories) != 1 || cfg.Data.Directories[0] != filepath.Join(dir, "releases", "vbo") {
		t.Errorf("data directories = %v", cfg.Data.Directories)
	}
	if !cfg.Data.RecursiveOrDefault() {
		t.Error("recursive should default to true")
	}
}

func TestLoad_invalidStrategy(t *testing.T) {
	path := writeConfig(t, `
data:
  id_strategy: random
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown id strategy")
	}
	path = writeConfig(t, `
data:
  id_base: -1
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative id base")
	}
}

func TestLoad_missingAndMalformed(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "server: [")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server: %+v", cfg.Server)
	}
	if cfg.Data.IDStrategy != StrategyPath {
		t.Errorf("default id strategy: %s", cfg.Data.IDStrategy)
	}
	if len(cfg.Data.Extensions) != 3 || cfg.Data.Extensions[0] != ".nwb" {
		t.Errorf("default extensions: %v", cfg.Data.Extensions)
	}
	if cfg.Sessions.IndexColumn != "ophys_session_id" {
		t.Errorf("default index column: %s", cfg.Sessions.IndexColumn)
	}
	if cfg.Data.Recursive != nil {
		t.Error("recursive should stay unset without directories")
	}
}

func TestDataConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		d := &DataConfig{}
		if !d.RecursiveOrDefault() {
			t.Error("want true")
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		d := &DataConfig{Recursive: &f}
		if d.RecursiveOrDefault() {
			t.Error("want false")
		}
	})
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/project.db"},
		Data:    DataConfig{IDStrategy: StrategyContent, IDBase: 1},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 || loaded.Data.IDStrategy != StrategyContent || loaded.Data.IDBase != 1 {
		t.Errorf("loaded: %+v", loaded)
	}
}
