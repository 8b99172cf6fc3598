package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerWritesKeyvals(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelDebug)
	defer SetOutput(nil)

	Info("Executing tool", "name", "calculator", "args", `{"expression":"2+2"}`)

	line := buf.String()
	if !strings.Contains(line, "INFO: Executing tool") {
		t.Errorf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "name=calculator") {
		t.Errorf("keyvals missing: %q", line)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	defer func() {
		SetOutput(nil)
		SetLevel(LevelDebug)
	}()

	Debug("hidden")
	Info("hidden too")
	Warn("budget exhausted", "max_iterations", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below level were written: %q", out)
	}
	if !strings.Contains(out, "WARN: budget exhausted max_iterations=2") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestLoggerNoOutputIsNoop(t *testing.T) {
	SetOutput(nil)
	// Не должно паниковать
	Error("nothing", "k", "v")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("sk-1234567890"); got != "sk-123..." {
		t.Errorf("MaskSecret() = %q", got)
	}
	if got := MaskSecret(""); got != "<empty>" {
		t.Errorf("MaskSecret(empty) = %q", got)
	}
	if got := MaskSecret("abc"); got != "***" {
		t.Errorf("MaskSecret(short) = %q", got)
	}
}
