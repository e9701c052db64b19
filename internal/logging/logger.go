// Package logging builds the zap logger shared by the CLI and the
// submission flow.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Common field keys, so log lines from different packages line up.
const (
	KeyStep      = "step"
	KeyNoteID    = "note_id"
	KeyMessageID = "message_id"
	KeySource    = "source"
	KeyTag       = "tag"
	KeyFile      = "file"
)

// New returns a console logger writing to stderr. Debug enables debug
// level and caller annotations.
func New(debug bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.WarnLevel)
	if debug {
		level.SetLevel(zap.DebugLevel)
	}

	config := zap.Config{
		Level:             level,
		Development:       debug,
		Encoding:          "console",
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !debug,
		DisableStacktrace: true,
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:     "message",
			LevelKey:       "level",
			TimeKey:        "time",
			NameKey:        "logger",
			CallerKey:      "caller",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
	}

	return config.Build()
}

// Step returns a field naming a submission step.
func Step(name string) zap.Field {
	return zap.String(KeyStep, name)
}
