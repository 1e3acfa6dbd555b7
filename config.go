package extvideo

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration of an external video track
type Config struct {
	Track    TrackConfig   `yaml:"track"`
	Queue    QueueConfig   `yaml:"queue"`
	Capture  CaptureConfig `yaml:"capture"`
	Pattern  PatternYAML   `yaml:"pattern"`
	LogLevel string        `yaml:"log_level"` // trace, debug, info, warning, error
}

// TrackConfig configures the track source
type TrackConfig struct {
	Name      string `yaml:"name"`       // Empty generates a name per start
	Format    string `yaml:"format"`     // I420A, ARGB32
	AutoStart bool   `yaml:"auto_start"` // Start when the session becomes ready
	Enabled   bool   `yaml:"enabled"`    // Initial enabled flag
}

// QueueConfig configures the preview frame queue
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// CaptureConfig configures what the native side requests
type CaptureConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// PatternYAML configures the built-in pattern producer
type PatternYAML struct {
	Type  string `yaml:"type"`  // color_bars, gradient, checkerboard, solid, moving_box
	Alpha uint8  `yaml:"alpha"` // 0 = opaque
}

// DefaultConfig returns the configuration used for fields a file leaves out
func DefaultConfig() Config {
	return Config{
		Track: TrackConfig{
			Format:    PixelFormatI420A.String(),
			AutoStart: true,
			Enabled:   true,
		},
		Queue: QueueConfig{
			Capacity: DefaultQueueCapacity,
		},
		Capture: CaptureConfig{
			Width:  640,
			Height: 480,
			FPS:    30,
		},
		Pattern: PatternYAML{
			Type: "color_bars",
		},
		LogLevel: "info",
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML on top of DefaultConfig and validates the result
func ParseConfig(data []byte) (*Config, error) {
	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Track.Name != "" {
		if err := ValidateTrackName(c.Track.Name); err != nil {
			return fmt.Errorf("track.name: %w", err)
		}
	}
	format, err := ParsePixelFormat(c.Track.Format)
	if err != nil {
		return fmt.Errorf("track.format: %w", err)
	}
	if !format.Supported() {
		return fmt.Errorf("track.format: %w: %s", ErrUnsupportedPixelFormat, format)
	}
	if c.Queue.Capacity < 0 {
		return fmt.Errorf("queue.capacity: must not be negative, got %d", c.Queue.Capacity)
	}
	if c.Capture.Width < 0 || c.Capture.Height < 0 {
		return fmt.Errorf("capture: invalid size %dx%d", c.Capture.Width, c.Capture.Height)
	}
	if c.Capture.FPS < 0 {
		return fmt.Errorf("capture.fps: must not be negative, got %d", c.Capture.FPS)
	}
	if _, err := ParsePatternType(c.Pattern.Type); err != nil {
		return fmt.Errorf("pattern.type: %w", err)
	}
	return nil
}

// PixelFormat returns the parsed track format. It assumes Validate passed.
func (c *Config) PixelFormat() PixelFormat {
	format, _ := ParsePixelFormat(c.Track.Format)
	return format
}

// TrackSourceConfig builds the VideoTrackSource configuration.
func (c *Config) TrackSourceConfig(handler FrameRequestHandler) VideoTrackSourceConfig {
	return VideoTrackSourceConfig{
		Name:          c.Track.Name,
		Format:        c.PixelFormat(),
		AutoStart:     c.Track.AutoStart,
		Enabled:       c.Track.Enabled,
		QueueCapacity: c.Queue.Capacity,
		Handler:       handler,
	}
}

// PatternConfig builds the PatternSource configuration.
func (c *Config) PatternConfig() PatternConfig {
	pattern, _ := ParsePatternType(c.Pattern.Type)
	return PatternConfig{
		Width:   c.Capture.Width,
		Height:  c.Capture.Height,
		Pattern: pattern,
		Alpha:   c.Pattern.Alpha,
	}
}

// ParsePatternType parses a pattern name as used in configuration files.
func ParsePatternType(s string) (PatternType, error) {
	switch strings.ToLower(s) {
	case "", "color_bars", "colorbars":
		return PatternColorBars, nil
	case "gradient":
		return PatternGradient, nil
	case "checkerboard":
		return PatternCheckerboard, nil
	case "solid", "solid_color":
		return PatternSolidColor, nil
	case "moving_box", "movingbox":
		return PatternMovingBox, nil
	default:
		return PatternColorBars, fmt.Errorf("unknown pattern %q", s)
	}
}
