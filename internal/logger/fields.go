package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldEvaluator is the structured log field key for the evaluation backend.
	FieldEvaluator = "evaluator"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel    = "model"
	FieldFileName = "file_name"
	FieldFileType = "file_type"
	FieldEntryID  = "entry_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, trimming whitespace
// and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// EvaluatorFields describes which backend and model produced an evaluation.
func EvaluatorFields(evaluator, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldEvaluator, Value: evaluator},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithEvaluator(logger *zap.Logger, evaluator, model string) *zap.Logger {
	return WithFields(logger, EvaluatorFields(evaluator, model)...)
}

// DocumentFields describes an uploaded file.
func DocumentFields(fileName, fileType string) []zap.Field {
	return StringFields(
		StringField{Key: FieldFileName, Value: fileName},
		StringField{Key: FieldFileType, Value: fileType},
	)
}
