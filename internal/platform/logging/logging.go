package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config captures logging configuration options.
type Config struct {
	Level    string `yaml:"log_level"`
	Dir      string `yaml:"log_dir"`
	Filename string `yaml:"log_file"`
}

// Logger wraps slog with printf-style helpers and module tags.
type Logger struct {
	slogger *slog.Logger
	file    *os.File
}

// DefaultLogger is used by components that are constructed before the
// configured logger exists.
var DefaultLogger = &Logger{slogger: slog.Default()}

// New creates a Logger writing to stdout and, when Dir is set, to a log file.
func New(cfg Config) (*Logger, error) {
	var writers []io.Writer
	writers = append(writers, os.Stdout)

	var file *os.File
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		name := cfg.Filename
		if name == "" {
			name = "server.log"
		}
		f, err := os.OpenFile(filepath.Join(cfg.Dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		writers = append(writers, f)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	return &Logger{
		slogger: slog.New(handler),
		file:    file,
	}, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog exposes the structured logger for integrations that want it directly.
func (l *Logger) Slog() *slog.Logger {
	return l.slogger
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.slogger.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.slogger.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.slogger.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, args...))
}

// InfoTag prefixes the message with a module tag, e.g. "[HTTP] ...".
func (l *Logger) InfoTag(tag, format string, args ...interface{}) {
	l.slogger.Info(fmt.Sprintf("[%s] ", tag) + fmt.Sprintf(format, args...))
}

func (l *Logger) WarnTag(tag, format string, args ...interface{}) {
	l.slogger.Warn(fmt.Sprintf("[%s] ", tag) + fmt.Sprintf(format, args...))
}

func (l *Logger) ErrorTag(tag, format string, args ...interface{}) {
	l.slogger.Error(fmt.Sprintf("[%s] ", tag) + fmt.Sprintf(format, args...))
}

// Close releases the log file when one was opened.
func (l *Logger) Close() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}
