package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/menta2k/page-annotator/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Browser    BrowserConfig    `json:"browser"`
	Annotation AnnotationConfig `json:"annotation"`
	Caption    CaptionConfig    `json:"caption"`
	Output     OutputConfig     `json:"output"`
}

// BrowserConfig holds configuration for the Chrome session
type BrowserConfig struct {
	Headless     bool     `json:"headless"`
	WindowWidth  int      `json:"window_width"`
	WindowHeight int      `json:"window_height"`
	UserAgent    string   `json:"user_agent"`
	ExecPath     string   `json:"exec_path"`
	Timeout      Duration `json:"timeout"`
}

// AnnotationConfig holds configuration for boxes and labels
type AnnotationConfig struct {
	FontPath    string      `json:"font_path"`
	FontSize    float64     `json:"font_size"`
	TextPadding int         `json:"text_padding"`
	StrokeWidth int         `json:"stroke_width"`
	BoxColor    types.Color `json:"box_color"`
	TextColor   types.Color `json:"text_color"`
}

// CaptionConfig holds configuration for vision model captions
type CaptionConfig struct {
	Enabled bool   `json:"enabled"`
	Backend string `json:"backend"`
	URL     string `json:"url"`
	Model   string `json:"model"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format    string `json:"format"`
	Quality   int    `json:"quality"`
	Lossless  bool   `json:"lossless"`
	OutputDir string `json:"output_dir"`
	Prefix    string `json:"prefix"`
}

// Duration is a time.Duration written as a string such as "45s" in JSON
type Duration struct {
	time.Duration
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:     true,
			WindowWidth:  1280,
			WindowHeight: 800,
			Timeout:      Duration{60 * time.Second},
		},
		Annotation: AnnotationConfig{
			FontSize:    14,
			TextPadding: 2,
			StrokeWidth: 2,
			BoxColor:    types.RGBA(255, 0, 0, 200),
			TextColor:   types.Red,
		},
		Caption: CaptionConfig{
			Enabled: false,
			Backend: "ollama",
			URL:     "http://localhost:11434",
			Model:   "llava",
		},
		Output: OutputConfig{
			Format:    "png",
			Quality:   90,
			OutputDir: "./out",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Browser.WindowWidth < 1 || c.Browser.WindowHeight < 1 {
		return fmt.Errorf("browser.window_width and browser.window_height must be positive")
	}

	if c.Browser.Timeout.Duration < 0 {
		return fmt.Errorf("browser.timeout must not be negative")
	}

	if c.Annotation.FontSize <= 0 {
		return fmt.Errorf("annotation.font_size must be positive")
	}

	if c.Annotation.TextPadding < 0 {
		return fmt.Errorf("annotation.text_padding must not be negative")
	}

	if c.Annotation.StrokeWidth < 0 {
		return fmt.Errorf("annotation.stroke_width must not be negative")
	}

	if c.Caption.Enabled {
		switch c.Caption.Backend {
		case "ollama", "llamacpp":
		default:
			return fmt.Errorf("caption.backend must be ollama or llamacpp, got %q", c.Caption.Backend)
		}
		if c.Caption.Model == "" {
			return fmt.Errorf("caption.model cannot be empty")
		}
	}

	switch c.Output.Format {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("output.format must be png, jpg or webp, got %q", c.Output.Format)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "page-annotator", "config.json")
}
