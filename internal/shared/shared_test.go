package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestGenerateState(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("GenerateState() error = %v", err)
		}
		if len(state) != 36 {
			t.Errorf("expected uuid-shaped state, got %q", state)
		}
		if seen[state] {
			t.Fatalf("GenerateState() returned duplicate value %q", state)
		}
		seen[state] = true
	}
}

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want log.Level
	}{
		{name: "debug", in: "debug", want: log.DebugLevel},
		{name: "upper case", in: "WARN", want: log.WarnLevel},
		{name: "padded", in: "  error ", want: log.ErrorLevel},
		{name: "unknown falls back to info", in: "verbose", want: log.InfoLevel},
		{name: "empty falls back to info", in: "", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := WithLogger(NewLogger(&buf), "component", "test")
	logger.Info("hello")

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected log output to contain message, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "component=test") {
		t.Errorf("expected log output to contain child fields, got %q", buf.String())
	}
}
