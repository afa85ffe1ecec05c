// Package logging builds the process logger: slog text records on stdout,
// optionally teed into a rotating log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrick/logrotate/rotator"
)

// Options configures New.
type Options struct {
	Level     string // debug, info, warn or error
	File      string // empty disables the rotating file
	MaxSizeKB int64
	MaxRolls  int
	Compress  bool
	Stdout    io.Writer // defaults to os.Stdout
	AddSource bool
}

const (
	defaultMaxSizeKB = 10 * 1024
	defaultMaxRolls  = 3
)

// LogWriter writes every record to stdout and to the rotator.
type LogWriter struct {
	stdout  io.Writer
	rotator *rotator.Rotator
}

func (w LogWriter) Write(p []byte) (int, error) {
	w.stdout.Write(p)
	if w.rotator != nil {
		w.rotator.Write(p)
	}
	return len(p), nil
}

// Logger is a configured slog.Logger plus the resources behind it.
type Logger struct {
	*slog.Logger
	rotator *rotator.Rotator
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.rotator == nil {
		return nil
	}
	return l.rotator.Close()
}

// New builds a logger from opts.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	w := LogWriter{stdout: opts.Stdout}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}
	if opts.File != "" {
		r, err := newRotator(opts)
		if err != nil {
			return nil, err
		}
		w.rotator = r
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level, AddSource: opts.AddSource})
	return &Logger{Logger: slog.New(h), rotator: w.rotator}, nil
}

func newRotator(opts Options) (*rotator.Rotator, error) {
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	size, rolls := opts.MaxSizeKB, opts.MaxRolls
	if size <= 0 {
		size = defaultMaxSizeKB
	}
	if rolls <= 0 {
		rolls = defaultMaxRolls
	}
	r, err := rotator.New(opts.File, size, opts.Compress, rolls)
	if err != nil {
		return nil, fmt.Errorf("create log rotator: %w", err)
	}
	return r, nil
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger { return slog.New(slog.DiscardHandler) }
