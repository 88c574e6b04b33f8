// Package logging builds the zap logger used across qtool.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/config"
)

// New builds a JSON production logger, or a console logger in development
// mode, at the configured level
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Writer adapts a logger to an io.Writer, logging each write as one info
// line. Trailing newlines are dropped.
func Writer(logger *zap.Logger, msg string) io.Writer {
	return &writer{logger: logger, msg: msg}
}

type writer struct {
	logger *zap.Logger
	msg    string
}

func (w *writer) Write(p []byte) (int, error) {
	line := string(p)
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	if line != "" {
		w.logger.Info(w.msg, zap.String("line", line))
	}
	return len(p), nil
}
