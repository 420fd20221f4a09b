package config

import (
	"fmt"
	"image/png"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/yuew620/imageConvertFunction/converter"
	"github.com/yuew620/imageConvertFunction/images"
)

// Config represents the application configuration
type Config struct {
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
}

// ThumbnailConfig holds the canvas size and scaling settings.
type ThumbnailConfig struct {
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	PreserveRatio bool   `yaml:"preserve_ratio"`
	Interpolation string `yaml:"interpolation"`
}

// OutputConfig controls where and how thumbnails are written.
type OutputConfig struct {
	// Policy is "warn" or "reject" for paths outside the working directory.
	Policy string `yaml:"policy"`
	// Compression is one of "default", "none", "speed" or "best".
	Compression string `yaml:"compression"`
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level string `yaml:"level"`
	// Format is "console" or "json".
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Thumbnail: ThumbnailConfig{
			Width:         converter.DefaultWidth,
			Height:        converter.DefaultHeight,
			PreserveRatio: true,
			Interpolation: "bicubic",
		},
		Output: OutputConfig{
			Policy:      string(converter.PolicyWarn),
			Compression: "default",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads and parses the configuration file. Keys missing from the file keep
// their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks that every field holds a usable value
func (c *Config) Validate() error {
	if c.Thumbnail.Width <= 0 || c.Thumbnail.Height <= 0 {
		return fmt.Errorf("thumbnail.width and thumbnail.height must be positive")
	}
	if _, err := images.InterpolatorByName(c.Thumbnail.Interpolation); err != nil {
		return fmt.Errorf("thumbnail.interpolation: %w", err)
	}
	switch converter.OutputPolicy(c.Output.Policy) {
	case converter.PolicyWarn, converter.PolicyReject:
	default:
		return fmt.Errorf("output.policy must be warn or reject, got %q", c.Output.Policy)
	}
	if _, err := c.CompressionLevel(); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// Options converts the thumbnail and output sections into converter options.
func (c *Config) Options() converter.Options {
	return converter.Options{
		Width:         c.Thumbnail.Width,
		Height:        c.Thumbnail.Height,
		PreserveRatio: c.Thumbnail.PreserveRatio,
		Interpolation: c.Thumbnail.Interpolation,
		OutputPolicy:  converter.OutputPolicy(c.Output.Policy),
	}
}

// CompressionLevel maps output.compression to a PNG encoder level.
func (c *Config) CompressionLevel() (png.CompressionLevel, error) {
	switch c.Output.Compression {
	case "", "default":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	default:
		return 0, fmt.Errorf("output.compression must be default, none, speed or best, got %q", c.Output.Compression)
	}
}
