package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/menta2k/page-annotator/pkg/types"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Browser.Timeout = Duration{90 * time.Second}
	cfg.Annotation.BoxColor = types.RGBA(0, 255, 0, 128)
	cfg.Output.Format = "webp"

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"timeout": "1m30s"`) {
		t.Errorf("Expected timeout as a duration string, got:\n%s", data)
	}
	if !strings.Contains(string(data), `"box_color": "#00ff0080"`) {
		t.Errorf("Expected box color as hex, got:\n%s", data)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Browser.Timeout.Duration != 90*time.Second {
		t.Errorf("Expected 90s timeout, got %v", loaded.Browser.Timeout)
	}
	if loaded.Annotation.BoxColor != types.RGBA(0, 255, 0, 128) {
		t.Errorf("Unexpected box color %v", loaded.Annotation.BoxColor)
	}
	if loaded.Output.Format != "webp" {
		t.Errorf("Unexpected format %s", loaded.Output.Format)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"annotation": {"font_size": 20, "text_color": "#0000ff"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Annotation.FontSize != 20 {
		t.Errorf("Expected font size 20, got %v", cfg.Annotation.FontSize)
	}
	if cfg.Annotation.TextColor != types.RGB(0, 0, 255) {
		t.Errorf("Unexpected text color %v", cfg.Annotation.TextColor)
	}
	if cfg.Annotation.StrokeWidth != 2 || cfg.Browser.WindowWidth != 1280 {
		t.Error("Expected missing keys to keep defaults")
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	dir := t.TempDir()
	bad := map[string]string{
		"syntax.json":   `{"browser": `,
		"color.json":    `{"annotation": {"box_color": "red"}}`,
		"duration.json": `{"browser": {"timeout": "soon"}}`,
	}
	for name, content := range bad {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFromFile(path); err == nil {
			t.Errorf("%s: expected parse error", name)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"window", func(c *Config) { c.Browser.WindowWidth = 0 }},
		{"timeout", func(c *Config) { c.Browser.Timeout = Duration{-time.Second} }},
		{"font size", func(c *Config) { c.Annotation.FontSize = 0 }},
		{"padding", func(c *Config) { c.Annotation.TextPadding = -1 }},
		{"stroke", func(c *Config) { c.Annotation.StrokeWidth = -2 }},
		{"backend", func(c *Config) { c.Caption.Enabled = true; c.Caption.Backend = "openai" }},
		{"model", func(c *Config) { c.Caption.Enabled = true; c.Caption.Model = "" }},
		{"format", func(c *Config) { c.Output.Format = "gif" }},
		{"quality", func(c *Config) { c.Output.Quality = 101 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()
	if filepath.Base(path) != "config.json" {
		t.Errorf("Unexpected config path %s", path)
	}
}
