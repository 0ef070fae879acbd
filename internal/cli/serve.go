package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/brainobs/internal/server"
	"github.com/hyperjump/brainobs/internal/watcher"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and watch data directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func runServe(opts *RootOptions) error {
	c, err := initializeComponents(opts)
	if err != nil {
		return err
	}
	defer c.Close()
	logger := c.Logger
	cfg := c.Config

	watchOpts := []watcher.Option{}
	if cfg.Debug || opts.Debug {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.New(
		cfg.Data.Directories,
		cfg.Data.Extensions,
		cfg.Data.RecursiveOrDefault(),
		func(path string) {
			if _, err := c.Files.RegisterFile(context.Background(), path); err != nil {
				logger.Warn("watch register file failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := c.Files.RemoveFile(context.Background(), path); err != nil {
				logger.Warn("watch remove file failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		return err
	}
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(c.Storage, c.Files, cfg, logger, watchSvc, c.ConfigPath)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
		return err
	}

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}
