// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/abhisek/studyplan/internal/store"
)

// Options selects the log sinks.
type Options struct {
	// Level is a zap level name. Empty means info.
	Level string

	// File is the rotated JSON log file. Empty disables the file sink.
	File string

	// Console adds a human-readable sink on Stderr. Leave it off while the
	// TUI owns the terminal.
	Console bool

	// Stderr overrides os.Stderr for the console sink.
	Stderr io.Writer
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New returns a logger and a cleanup func that flushes and closes the
// file sink. With no sinks selected it returns a no-op logger.
func New(opts Options) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	var cores []zapcore.Core
	var rotator *lumberjack.Logger

	if opts.File != "" {
		if err := store.EnsureDir(opts.File); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig()),
			zapcore.AddSync(rotator),
			level,
		))
	}

	if opts.Console {
		w := opts.Stderr
		if w == nil {
			w = os.Stderr
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig()),
			zapcore.Lock(zapcore.AddSync(w)),
			level,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), func() {}, nil
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	cleanup := func() {
		_ = logger.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
	return logger, cleanup, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
