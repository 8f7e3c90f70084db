// Package logging builds the application logger: JSON lines appended to
// <dir>/intake.log plus a console core for warnings. A log file larger than
// the rotation limit is renamed to intake-<timestamp>.log at startup.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the active log file inside the log directory.
const FileName = "intake.log"

// DefaultRotateBytes is the size above which the log is rotated at startup.
const DefaultRotateBytes int64 = 5 << 20

// Options configures New.
type Options struct {
	Dir         string
	Level       string
	Console     io.Writer
	RotateBytes int64
	Now         func() time.Time
}

// Logger owns the zap logger and its log file.
type Logger struct {
	*zap.Logger
	path string
	file *os.File
}

// Path returns the active log file, empty when logging to console only.
func (l *Logger) Path() string { return l.path }

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	_ = l.Logger.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// New builds the logger. When Dir cannot be created the logger falls back to
// the console core and the error is returned alongside it so callers can
// report where logs went.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.RotateBytes <= 0 {
		opts.RotateBytes = DefaultRotateBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var cores []zapcore.Core
	if opts.Console != nil {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCfg.TimeKey = ""
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.AddSync(opts.Console),
			zap.NewAtomicLevelAt(maxLevel(level, zapcore.WarnLevel)),
		))
	}

	out := &Logger{}
	var fileErr error
	if opts.Dir != "" {
		out.path = filepath.Join(opts.Dir, FileName)
		out.file, fileErr = openLog(out.path, opts.RotateBytes, opts.Now)
		if fileErr == nil {
			fileCfg := zap.NewProductionEncoderConfig()
			fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(fileCfg),
				zapcore.AddSync(out.file),
				zap.NewAtomicLevelAt(level),
			))
		} else {
			out.path = ""
		}
	}

	out.Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return out, fileErr
}

// ParseLevel maps a level name onto zap's levels; empty means info.
func ParseLevel(raw string) (zapcore.Level, error) {
	var level zapcore.Level
	text := strings.TrimSpace(raw)
	if text == "" {
		return zapcore.InfoLevel, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToLower(text))); err != nil {
		return level, fmt.Errorf("logging: unknown level %q", raw)
	}
	return level, nil
}

// LogPanic records a panic in flight, flushes, and re-raises it. Use with
// defer at the top of main.
func LogPanic(logger *zap.Logger) {
	if r := recover(); r != nil {
		logger.Error("uncaught panic", zap.Any("panic", r), zap.Stack("stack"))
		_ = logger.Sync()
		panic(r)
	}
}

func openLog(path string, limit int64, now func() time.Time) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: create %s: %w", filepath.Dir(path), err)
	}
	if info, err := os.Stat(path); err == nil && info.Size() > limit {
		rotated := filepath.Join(filepath.Dir(path), "intake-"+now().Format("20060102-150405")+".log")
		if err := os.Rename(path, rotated); err != nil {
			return nil, fmt.Errorf("logging: rotate %s: %w", path, err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", path, err)
	}
	return file, nil
}

func maxLevel(a, b zapcore.Level) zapcore.Level {
	if a > b {
		return a
	}
	return b
}
