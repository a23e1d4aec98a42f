package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/arthur-debert/pidminter/txlog"
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// initLogging opens the application log and the transaction log in the
// log directory. With log.stdout set, application records are also written
// to stderr.
func (a *app) initLogging() error {
	lc := a.cfg.Log
	level, ok := logLevelMap[strings.ToLower(lc.Level)]
	if !ok {
		level = slog.LevelWarn
	}

	logDir := lc.Dir
	if logDir == "" {
		logDir = getXDGCacheDir()
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "pidminter.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.closers = append(a.closers, logFile.Close)

	var handler slog.Handler = slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	if lc.Stdout {
		handler = &multiHandler{handlers: []slog.Handler{
			handler,
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		}}
	}
	a.log = slog.New(handler)
	slog.SetDefault(a.log)

	txWriter := txlog.NewFileWriter(logDir, txlog.RotationConfig{
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAgeDays: lc.MaxAgeDays,
		Compress:   lc.Compress,
	})
	a.closers = append(a.closers, txWriter.Close)

	opts := []txlog.Option{txlog.WithDebug(a.cfg.Debug)}
	if nc := a.cfg.Notify; nc.Enabled {
		mailer := &txlog.SMTPMailer{Addr: nc.SMTPAddr, From: nc.From, To: nc.To}
		opts = append(opts, txlog.WithNotifier(txlog.NewNotifier(mailer, nc.SuppressionWindow, nc.ErrorLifetime,
			txlog.WithNotifierLogger(a.log))))
	}
	a.tx = txlog.New(txlog.NewSlogLogger(txWriter), opts...)

	a.log.Debug("logging initialized",
		"level", level.String(),
		"log_file", logPath,
		"log_stdout", lc.Stdout,
		"notify", a.cfg.Notify.Enabled)
	return nil
}

// getXDGCacheDir returns the XDG cache directory for pidminter.
func getXDGCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "pidminter")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pidminter")
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(homeDir, "Library", "Caches", "pidminter")
	}
	return filepath.Join(homeDir, ".cache", "pidminter")
}

// multiHandler fans records out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
