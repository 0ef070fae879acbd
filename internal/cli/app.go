package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/brainobs/internal/config"
	"github.com/hyperjump/brainobs/internal/fileid"
	"github.com/hyperjump/brainobs/internal/manifest"
	"github.com/hyperjump/brainobs/internal/storage"
	"github.com/hyperjump/brainobs/pkg/utils"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory takes precedence, and a missing default file yields built-in defaults.
// Returns the config and the path it was loaded from ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == DefaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// NewAssigner builds the file ID assigner selected by the data config. The result is
// safe for concurrent use.
func NewAssigner(cfg config.DataConfig) fileid.Assigner {
	var a fileid.Assigner
	switch cfg.IDStrategy {
	case config.StrategyContent:
		a = fileid.NewContentHasher()
	default:
		a = fileid.NewGenerator(fileid.WithBase(cfg.IDBase))
	}
	return fileid.NewSynchronized(a)
}

// Components holds initialized services.
type Components struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger
	Storage    storage.Storage
	Files      *manifest.Writer
}

// Close releases storage and flushes the logger.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

func initializeComponents(opts *RootOptions) (*Components, error) {
	cfg, configPath, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || opts.Debug
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", configPath), zap.Bool("debug", debug))

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	writerOpts := []manifest.WriterOption{
		manifest.WithExtensions(cfg.Data.Extensions),
		manifest.WithRecursive(cfg.Data.RecursiveOrDefault()),
	}
	if debug {
		writerOpts = append(writerOpts, manifest.WithLogger(logger))
	}
	files := manifest.NewWriter(store, NewAssigner(cfg.Data), writerOpts...)

	return &Components{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     logger,
		Storage:    store,
		Files:      files,
	}, nil
}
