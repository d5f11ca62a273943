package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldApp is the structured log field key for the application name.
	FieldApp = "app"
	// FieldRunID is the structured log field key for the workflow run identifier.
	FieldRunID = "run_id"
	// FieldOperation is the structured log field key for the workflow operation name.
	FieldOperation = "operation"
	// FieldState is the structured log field key for the orchestrator state.
	FieldState = "state"
	// FieldEndpoint is the structured log field key for the remote endpoint path.
	FieldEndpoint = "endpoint"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced with a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// WorkflowFields returns the fields that tie log entries to a single workflow run.
func WorkflowFields(runID, operation string) []zap.Field {
	return StringFields(
		StringField{Key: FieldRunID, Value: runID},
		StringField{Key: FieldOperation, Value: operation},
	)
}

// WithWorkflow attaches the workflow run fields to the provided logger.
func WithWorkflow(logger *zap.Logger, runID, operation string) *zap.Logger {
	return WithFields(logger, WorkflowFields(runID, operation)...)
}
