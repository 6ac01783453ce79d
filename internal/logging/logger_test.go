package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core)).With("session", "abc")

	logger.Infow("subtitle loaded", "cues", 2)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["session"] != "abc" {
		t.Errorf("expected session field, got %v", ctx)
	}
	if ctx["cues"] != int64(2) {
		t.Errorf("expected cues=2, got %v", ctx["cues"])
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"default", false, false},
		{"verbose", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.verbose)
			if got := logger.Desugar().Core().Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if !logger.Desugar().Core().Enabled(zapcore.InfoLevel) {
				t.Error("expected info to be enabled")
			}
		})
	}
}

func TestNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Infow("ignored")
	logger.Sync()
	if logger.Desugar().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("nop logger should not enable any level")
	}
}
