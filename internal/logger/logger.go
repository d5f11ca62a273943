package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AppName is attached to every entry under FieldApp.
const AppName = "job-matcher"

// New builds the process logger. Entries go to stderr; stdout carries results only.
func New(json bool, debug bool) (*zap.Logger, error) {
	logger, err := newConfig(json, debug).Build()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	return logger, nil
}

func newConfig(json bool, debug bool) zap.Config {
	level := zapcore.InfoLevel
	encoding := "console"

	if json {
		encoding = "json"
	}

	if debug {
		level = zapcore.DebugLevel
	}

	return zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]any{FieldApp: AppName},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
}
