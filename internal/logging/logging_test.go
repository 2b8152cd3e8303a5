package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"retronote/internal/config"
)

func TestNewHonoursLevel(t *testing.T) {
	l, err := New(config.Log{Level: "warn"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("error should be enabled at warn level")
	}
	if _, err := New(config.Log{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestContextCarriesLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := NewContext(context.Background(), zap.New(core))
	L(ctx).Info("saved", zap.String("key", "content"))
	if logs.Len() != 1 || logs.All()[0].Message != "saved" {
		t.Fatalf("unexpected log entries: %v", logs.All())
	}
	L(context.Background()).Info("dropped")
}
