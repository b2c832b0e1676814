// Package diaglog writes the raw daemon output and parser trace messages to an
// append-only file next to the zync configuration. Nothing ever reads the file
// back, and failing to open or write it never affects status processing.
package diaglog

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
)

const dirPerm = 0o755

type Sink struct {
	log *zap.Logger
}

// New opens the diagnostic log. When the file cannot be opened the problem is
// reported to logger and a sink that discards everything is returned.
func New(config Config, logger *zap.Logger) *Sink {
	if config.Path == "" {
		logger.Info("diagnostic log disabled")
		return Nop()
	}

	log, err := open(config.Path)
	if err != nil {
		logger.Warn("diagnostic log unavailable", zap.String("path", config.Path), zap.Error(err))
		return Nop()
	}

	logger.Info("diagnostic log opened", zap.String("path", config.Path))
	return &Sink{log: log}
}

// Nop returns a sink that drops everything.
func Nop() *Sink {
	return &Sink{log: zap.NewNop()}
}

func open(path string) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	encoder := zap.NewDevelopmentEncoderConfig()
	encoder.EncodeLevel = zapcore.CapitalLevelEncoder

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(zap.DebugLevel),
		Encoding:          "console",
		EncoderConfig:     encoder,
		OutputPaths:       []string{path},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     true,
		DisableStacktrace: true,
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return log, nil
}

// Logger returns the trace logger, named after the component writing to it.
func (s *Sink) Logger(name string) *zap.Logger {
	return s.log.Named(name)
}

// Writer returns a writer that records raw output of one stream line by line.
// The caller must Close it to flush a trailing partial line.
func (s *Sink) Writer(source string) *zapio.Writer {
	return &zapio.Writer{
		Log:   s.log.Named("output").With(zap.String("source", source)),
		Level: zap.InfoLevel,
	}
}

// Sync flushes buffered entries.
func (s *Sink) Sync() error {
	return s.log.Sync() //nolint:wrapcheck //passthrough
}
