package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KevinKickass/OpenGroveCore/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestNewLevel(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "warn"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error should be enabled at warn level")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "chatty"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewWritesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ogc.log")
	logger, err := New(config.LoggingConfig{Level: "debug", File: file, MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("Adapter attached")
	_ = logger.Sync()

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"Adapter attached"`) {
		t.Fatalf("log file = %s", data)
	}
}
