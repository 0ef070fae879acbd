package utils

import (
	"go.uber.org/zap"
)

// NewLogger returns a zap logger writing to stderr; stdout is left for command output.
// debug selects the development encoder at debug level, otherwise JSON at info level.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
