package txlog

import (
	"io"
	"log/slog"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotationConfig controls rotation of the transaction log file.
type RotationConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewFileWriter returns a rotating writer for the transaction log in dir.
func NewFileWriter(dir string, rc RotationConfig) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, "transactions.log"),
		MaxSize:    rc.MaxSizeMB,
		MaxBackups: rc.MaxBackups,
		MaxAge:     rc.MaxAgeDays,
		Compress:   rc.Compress,
	}
}

// NewSlogLogger returns the slog logger records are written through.
func NewSlogLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
