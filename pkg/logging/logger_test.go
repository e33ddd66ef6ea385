package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"argusgo/pkg/config"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	cfg := &config.LogConfig{
		Server:   config.LogSettings{Path: filepath.Join(tempDir, "server.log"), Level: "DEBUG"},
		Requests: config.LogSettings{Path: filepath.Join(tempDir, "requests.log"), Level: "INFO"},
	}

	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer cleanup()

	slog.Info("server line", "k", "v")
	RequestLogger.Info("request line", "path", "/api/preferences/sensitivity")

	serverData, err := os.ReadFile(cfg.Server.Path)
	if err != nil {
		t.Fatalf("server log missing: %v", err)
	}
	if !strings.Contains(string(serverData), "server line") {
		t.Error("server log missing entry")
	}

	reqData, err := os.ReadFile(cfg.Requests.Path)
	if err != nil {
		t.Fatalf("requests log missing: %v", err)
	}
	if !strings.Contains(string(reqData), "request line") {
		t.Error("requests log missing entry")
	}
	if strings.Contains(string(reqData), "server line") {
		t.Error("server entries leaked into the requests log")
	}
}

func TestRotation(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "server.log")
	if err := os.WriteFile(path, []byte("previous run\n"), 0o644); err != nil {
		t.Fatalf("seed write failed: %v", err)
	}

	cfg := &config.LogConfig{
		Server:   config.LogSettings{Path: path, Level: "INFO"},
		Requests: config.LogSettings{Path: filepath.Join(tempDir, "requests.log"), Level: "INFO"},
	}
	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer cleanup()

	old, err := os.ReadFile(path + ".old")
	if err != nil {
		t.Fatalf("rotated log missing: %v", err)
	}
	if !strings.Contains(string(old), "previous run") {
		t.Error("rotated log lost previous content")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
