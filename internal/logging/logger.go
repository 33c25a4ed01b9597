package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Conf describes where pipeline logs go.
type Conf struct {
	// Path is the aggregate pipeline log shared by every run.
	Path string
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string
	// RotateSize is the size in megabytes after which the log is rotated.
	RotateSize int
	// RotateNum is the number of rotated files kept.
	RotateNum int
}

// Logger is the process-wide append-only log sink. Every line goes to the
// console and to the aggregate pipeline log.
type Logger struct {
	*slog.Logger
	handler *lineHandler
	file    *lumberjack.Logger
	conf    Conf
}

// New opens the sink. console may be nil to log only to file; Path may be
// empty to log only to the console. now overrides the line timestamp.
func New(conf Conf, console io.Writer, now func() time.Time) (*Logger, error) {
	if conf.RotateSize <= 0 {
		conf.RotateSize = 100
	}
	if conf.RotateNum <= 0 {
		conf.RotateNum = 10
	}

	var writers []io.Writer
	if console != nil {
		writers = append(writers, console)
	}

	var file *lumberjack.Logger
	if conf.Path != "" {
		w, err := openAppend(conf.Path, conf)
		if err != nil {
			return nil, err
		}
		file = w
		writers = append(writers, file)
	}

	h := newLineHandler(ParseLevel(conf.Level), now, writers...)
	return &Logger{Logger: slog.New(h), handler: h, file: file, conf: conf}, nil
}

// Discard returns a logger that drops every line.
func Discard() *Logger {
	h := newLineHandler(slog.LevelError+1, nil)
	return &Logger{Logger: slog.New(h), handler: h}
}

// Close releases the aggregate log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ModuleLog mirrors log lines into a per-module log and accepts raw tool
// output. It must be closed when the phase that opened it ends.
type ModuleLog struct {
	*slog.Logger
	file *lumberjack.Logger
}

// ForModule opens the per-module log at path in append mode.
func (l *Logger) ForModule(path string) (*ModuleLog, error) {
	file, err := openAppend(path, l.conf)
	if err != nil {
		return nil, err
	}
	return &ModuleLog{Logger: slog.New(l.handler.withWriter(file)), file: file}, nil
}

// Write appends raw bytes to the module log only.
func (m *ModuleLog) Write(p []byte) (int, error) {
	return m.file.Write(p)
}

// Close releases the module log file.
func (m *ModuleLog) Close() error {
	return m.file.Close()
}

// OpenCapture creates or truncates the raw output capture at path. Unlike the
// module log it only ever holds the output of the current run.
func OpenCapture(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create capture directory for %q: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open capture %q: %w", path, err)
	}
	return f, nil
}

// ParseLevel maps a level name to a slog level, defaulting to INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// lumberjack opens existing files with O_APPEND and rotates by renaming, so
// earlier runs are never truncated.
func openAppend(path string, conf Conf) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory for %q: %w", path, err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    conf.RotateSize,
		MaxBackups: conf.RotateNum,
	}, nil
}
