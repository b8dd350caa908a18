package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  zapcore.Level
	}{
		{"DEBUG", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"Error", zapcore.ErrorLevel},
		{"INFO", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseLevel(tc.input); got != tc.want {
				t.Fatalf("ParseLevel(%q) = %v; want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, closer, err := New(Options{Level: "INFO", Format: "json", OutputPath: path})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	log.Info("hello from test")
	log.Debug("filtered out")
	_ = log.Sync()
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file missing info line: %s", data)
	}
	if strings.Contains(string(data), "filtered out") {
		t.Errorf("debug line written at INFO level: %s", data)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}
