package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  evaluator  ", Value: "  remote  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "evaluator" || fields[0].String != "remote" {
		t.Fatalf("unexpected field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithFields(zap.New(core), zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	if ctx := entries[0].ContextMap(); ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	fallback := WithFields(nil, zap.String("baz", "qux"))
	if fallback == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	fallback.Info("another log")
}

func TestWithEvaluator(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithEvaluator(zap.New(core), "gemini", "gemini-2.5-pro").Info("evaluating")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldEvaluator] != "gemini" {
		t.Fatalf("expected evaluator field, got %v", ctx)
	}
	if ctx[FieldModel] != "gemini-2.5-pro" {
		t.Fatalf("expected model field, got %v", ctx)
	}

	if fields := EvaluatorFields("remote", ""); len(fields) != 1 {
		t.Fatalf("expected empty model to be omitted, got %d fields", len(fields))
	}
}

func TestDocumentFields(t *testing.T) {
	fields := DocumentFields("cv.pdf", "application/pdf")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != FieldFileName || fields[1].Key != FieldFileType {
		t.Fatalf("unexpected field keys: %s, %s", fields[0].Key, fields[1].Key)
	}
}
