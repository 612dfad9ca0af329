package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func newBufferLogger(level LogLevel) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewStandardLogger(log.New(&buf, "", 0), level, "[pushrelay]"), &buf
}

func TestStandardLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(Warn)

	l.Debug("debug message")
	l.Info("info message")
	if buf.Len() != 0 {
		t.Errorf("debug/info should be suppressed at Warn level, got %q", buf.String())
	}

	l.Warn("warn message")
	l.Error("error message")
	out := buf.String()
	if !strings.Contains(out, "[WARN] warn message") {
		t.Errorf("missing warn output: %q", out)
	}
	if !strings.Contains(out, "[ERROR] error message") {
		t.Errorf("missing error output: %q", out)
	}
}

func TestStandardLogger_KeyValueFormatting(t *testing.T) {
	l, buf := newBufferLogger(Info)

	l.Info("message delivered", "channel", "dingtalk", "attempts", 2)
	out := buf.String()
	if !strings.Contains(out, "[pushrelay] [INFO] message delivered") {
		t.Errorf("missing prefix or message: %q", out)
	}
	if !strings.Contains(out, "channel=dingtalk") || !strings.Contains(out, "attempts=2") {
		t.Errorf("missing key-value fields: %q", out)
	}
}

func TestStandardLogger_OddArgs(t *testing.T) {
	l, buf := newBufferLogger(Info)

	l.Info("lonely key", "channel")
	if out := buf.String(); !strings.Contains(out, "channel=(no value)") {
		t.Errorf("dangling key not marked: %q", out)
	}
}

func TestLogMode_ReturnsNewInstance(t *testing.T) {
	l, buf := newBufferLogger(Silent)

	l.Error("hidden")
	if buf.Len() != 0 {
		t.Errorf("silent logger must not write, got %q", buf.String())
	}

	verbose := l.LogMode(Debug)
	verbose.Debug("visible")
	if !strings.Contains(buf.String(), "[DEBUG] visible") {
		t.Errorf("LogMode(Debug) logger must write: %q", buf.String())
	}

	buf.Reset()
	l.Error("still hidden")
	if buf.Len() != 0 {
		t.Error("LogMode must not mutate the original logger")
	}
}

func TestDiscard(t *testing.T) {
	// Must not panic and must keep discarding across LogMode.
	Discard.Info("a", "k", "v")
	Discard.LogMode(Debug).Error("b")
}
