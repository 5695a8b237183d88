package log

import (
	"bytes"
	"strings"
	"testing"
)

func capture(t *testing.T, level LogLevel) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := Level
	SetOutput(buf)
	Level = level
	t.Cleanup(func() {
		Level = prev
		SetOutput(nil)
	})
	return buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LogLevel_Warn)
	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	got := buf.String()
	if strings.Contains(got, "debug 1") || strings.Contains(got, "info 2") {
		t.Fatalf("messages below level leaked: %q", got)
	}
	if !strings.Contains(got, "[WARNING] warn 3") {
		t.Fatalf("warning missing: %q", got)
	}
}

func TestIndent(t *testing.T) {
	buf := capture(t, LogLevel_Debug)
	Enter()
	Infof("nested")
	Leave()
	Leave()
	Infof("flat")
	if !strings.Contains(buf.String(), "  nested\n") {
		t.Fatalf("expected indented line, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "\nflat\n") {
		t.Fatalf("expected flat line, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":  LogLevel_Debug,
		"INFO":   LogLevel_Info,
		"":       LogLevel_Info,
		"quiet":  LogLevel_Warn,
		"silent": LogLevel_None,
	}
	for in, want := range cases {
		got, ok := ParseLevel(in)
		if !ok || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseLevel("loud"); ok {
		t.Error("ParseLevel accepted an unknown level")
	}
}
