package logger

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuildJSON(t *testing.T) {
	var buf bytes.Buffer
	l, done := Build(Options{Level: "info", JSON: true, Out: &buf})
	l.Debug("hidden")
	l.Info("pet created", zap.String("pet_id", "p1"))
	done()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked: %s", out)
	}
	if !strings.Contains(out, `"msg":"pet created"`) || !strings.Contains(out, `"pet_id":"p1"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, done := Build(Options{Level: "debug", JSON: true, Out: &buf})
	w := ToWriter(l, zapcore.WarnLevel)
	_, _ = w.Write([]byte("slow query\n"))
	done()
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), "slow query") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
