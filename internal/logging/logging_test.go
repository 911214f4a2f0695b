package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hidden")
	logger.Info("unknown language", zap.String("language", "klingon"))
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry written at info level: %q", out)
	}
	if !strings.Contains(out, "INFO") || !strings.Contains(out, `"language": "klingon"`) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{JSON: true, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Warn("skipped record", zap.Int("record", 3))
	_ = logger.Sync()
	if !strings.Contains(buf.String(), `"record":3`) {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(Options{Level: "chatty", Output: &bytes.Buffer{}}); err == nil {
		t.Error("expected error for bad level")
	}
	if _, err := New(Options{}); err == nil {
		t.Error("expected error for missing output")
	}
}
