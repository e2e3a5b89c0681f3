package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// FieldProvider names the generative model vendor.
	FieldProvider = "ai_provider"
	// FieldModel names the generative model identifier.
	FieldModel = "ai_model"
	// FieldFileName names the uploaded file.
	FieldFileName = "file_name"
	// FieldUserID names the caller's identity provider user id.
	FieldUserID = "user_id"
)

// New builds the process logger. Console encoding is used unless json is set.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoding := "console"
	if json {
		encoding = "json"
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:   "msg",
			LevelKey:     "level",
			EncodeLevel:  zapcore.LowercaseLevelEncoder,
			TimeKey:      "time",
			EncodeTime:   zapcore.RFC3339TimeEncoder,
			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}

	return cfg.Build()
}

// Field is a string-valued structured logging field.
type Field struct {
	Key   string
	Value string
}

// Fields converts key/value pairs into zap fields, dropping blank keys and values.
func Fields(fields ...Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		key := strings.TrimSpace(f.Key)
		value := strings.TrimSpace(f.Value)
		if key == "" || value == "" {
			continue
		}
		out = append(out, zap.String(key, value))
	}
	return out
}

// With attaches fields to log. A nil log becomes a no-op logger.
func With(log *zap.Logger, fields ...zap.Field) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// ModelFields describes the generative model a log entry relates to.
func ModelFields(provider, model string) []zap.Field {
	return Fields(
		Field{Key: FieldProvider, Value: provider},
		Field{Key: FieldModel, Value: model},
	)
}

// Truncate shortens s to limit runes, appending an ellipsis when it cut anything.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
