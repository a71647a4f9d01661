package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "nanomodel"

var (
	// Global loggers
	mainLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	opsLogger  *slog.Logger

	logFiles []*os.File

	logLevelMap = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

// initLogging sets up the JSON file loggers under the XDG cache directory.
// With verbose set, records are also written as text to stderr.
func initLogging(logLevel string, verbose bool, stderr io.Writer) error {
	closeLogging()

	level, ok := logLevelMap[strings.ToLower(logLevel)]
	if !ok {
		level = slog.LevelWarn
	}
	if verbose && level > slog.LevelInfo {
		level = slog.LevelInfo
	}

	logDir := getXDGCacheDir()
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, appName+".log")
	logFile, err := openLogFile(logPath)
	if err != nil {
		return err
	}

	var handler slog.Handler = slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	if verbose {
		handler = &multiHandler{handlers: []slog.Handler{
			handler,
			slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}),
		}}
	}
	mainLogger = slog.New(handler)

	// Operations are always recorded at INFO, independent of --log-level.
	opsPath := filepath.Join(logDir, appName+"-operations.log")
	opsFile, err := openLogFile(opsPath)
	if err != nil {
		return err
	}
	opsLogger = slog.New(slog.NewJSONHandler(opsFile, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With("logger", "operations")

	mainLogger.Debug("logging initialized",
		"level", level.String(),
		"log_file", logPath,
		"operations_file", opsPath,
		"verbose", verbose)

	return nil
}

func openLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logFiles = append(logFiles, f)
	return f, nil
}

// closeLogging releases the log files opened by initLogging.
func closeLogging() {
	for _, f := range logFiles {
		_ = f.Close()
	}
	logFiles = nil
	opsLogger = nil
}

// getXDGCacheDir returns the XDG cache directory for nanomodel
func getXDGCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, appName)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(homeDir, "Library", "Caches", appName)
	}
	return filepath.Join(homeDir, ".cache", appName)
}

// multiHandler implements slog.Handler to write to multiple handlers
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

// logOperation records a mutating command and its outcome
func logOperation(operation, collection string, args ...any) {
	if opsLogger != nil {
		opsLogger.Info("operation",
			append([]any{"operation", operation, "collection", collection}, args...)...)
	}
}
