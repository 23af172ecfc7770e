package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/milk9111/locationgame/config"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LoggingConfig
		debug bool
	}{
		{"debug_console", config.LoggingConfig{Level: "debug"}, true},
		{"info_json", config.LoggingConfig{Level: "info", Format: "json"}, false},
		{"unknown_level_falls_back", config.LoggingConfig{Level: "chatty"}, false},
		{"development", config.LoggingConfig{Level: "debug", Development: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := log.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
				t.Fatalf("debug enabled = %v, want %v", got, tt.debug)
			}
			if !log.Core().Enabled(zapcore.InfoLevel) {
				t.Fatalf("info must always be enabled")
			}
		})
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.log")
	log, err := New(config.LoggingConfig{Level: "info", Format: "json", File: path})
	if err != nil {
		t.Fatal(err)
	}
	log.Named("scene").Info("loaded")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"logger":"scene"`) || !strings.Contains(string(data), "loaded") {
		t.Fatalf("unexpected log contents %s", data)
	}
}
