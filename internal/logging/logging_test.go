package logging

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   LogLevel
		wantOK bool
	}{
		{name: "debug", input: "debug", want: LevelDebug, wantOK: true},
		{name: "info", input: "info", want: LevelInfo, wantOK: true},
		{name: "warn", input: "warn", want: LevelWarn, wantOK: true},
		{name: "warning alias", input: "warning", want: LevelWarn, wantOK: true},
		{name: "error", input: "error", want: LevelError, wantOK: true},
		{name: "case insensitive", input: "DEBUG", want: LevelDebug, wantOK: true},
		{name: "surrounding space", input: " error ", want: LevelError, wantOK: true},
		{name: "empty falls back to info", input: "", want: LevelInfo, wantOK: false},
		{name: "garbage falls back to info", input: "loud", want: LevelInfo, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("DEBUG", "")
	t.Setenv("LOG_LEVEL", "warn")
	if got := levelFromEnv(); got != LevelWarn {
		t.Errorf("levelFromEnv() = %v, want warn", got)
	}

	t.Setenv("DEBUG", "yes")
	if got := levelFromEnv(); got != LevelDebug {
		t.Errorf("DEBUG=yes should win over LOG_LEVEL, got %v", got)
	}
}

func TestSetLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := GetLevel()
	t.Cleanup(func() {
		SetLevel(prev)
		log.SetOutput(os.Stderr)
	})

	SetLevel(LevelWarn)
	Debug("hidden debug")
	Info("hidden info")
	Warn("shown %s", "warn")
	Error("shown error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below warn were written: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown warn") {
		t.Errorf("warn message missing: %q", out)
	}
	if !strings.Contains(out, "[ERROR] shown error") {
		t.Errorf("error message missing: %q", out)
	}
	if IsDebugEnabled() {
		t.Error("IsDebugEnabled() should be false at warn level")
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := tt.level.String()
			if got != tt.expected {
				t.Errorf("LogLevel.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}
