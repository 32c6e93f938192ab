// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastui/internal/gesture"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/placement"
)

var (
	ErrInvalidPlacement  = errors.New("invalid placement")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidValue      = errors.New("invalid value")
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Config is the toastui configuration.
// Loaded from ~/.config/toastui/config.toml (or .yaml).
type Config struct {
	Display  DisplayConfig  `toml:"display" yaml:"display"`
	Timeouts TimeoutConfig  `toml:"timeouts" yaml:"timeouts"`
	Behavior BehaviorConfig `toml:"behavior" yaml:"behavior"`
	Gesture  GestureConfig  `toml:"gesture" yaml:"gesture"`
	Audio    AudioConfig    `toml:"audio" yaml:"audio"`
	Metrics  MetricsConfig  `toml:"metrics" yaml:"metrics"`
}

// DisplayConfig controls where and how toasts are stacked.
type DisplayConfig struct {
	Placement string `toml:"placement" yaml:"placement"` // "top-end", "bottom-center", etc.
	Direction string `toml:"direction" yaml:"direction"` // "ltr", "rtl" or "auto"
	Locale    string `toml:"locale" yaml:"locale"`       // for "auto"; defaults to $LANG
	OffsetX   int    `toml:"offset_x" yaml:"offset_x"`
	OffsetY   int    `toml:"offset_y" yaml:"offset_y"`
	// Width is in pixels. The terminal host divides it by its cell width.
	Width      int     `toml:"width" yaml:"width"`
	MaxHeight  int     `toml:"max_height" yaml:"max_height"`
	MaxVisible int     `toml:"max_visible" yaml:"max_visible"`
	Gap        int     `toml:"gap" yaml:"gap"`
	Opacity    float64 `toml:"opacity" yaml:"opacity"`
	// Monitor is 1-indexed; 0 follows the compositor's choice.
	Monitor int `toml:"monitor" yaml:"monitor"`
	// Theme names a bundled stylesheet: "default" or "compact".
	Theme string `toml:"theme" yaml:"theme"`
	// Style is an extra GTK stylesheet layered over the theme.
	Style string `toml:"style" yaml:"style"`
}

// TimeoutConfig holds auto-dismiss delays per level. Zero never expires.
type TimeoutConfig struct {
	Info    Duration `toml:"info" yaml:"info"`
	Success Duration `toml:"success" yaml:"success"`
	Warning Duration `toml:"warning" yaml:"warning"`
	Error   Duration `toml:"error" yaml:"error"`
}

// BehaviorConfig controls pausing and presentation mode.
type BehaviorConfig struct {
	PauseOnHover    bool   `toml:"pause_on_hover" yaml:"pause_on_hover"`
	PauseOnPageIdle bool   `toml:"pause_on_page_idle" yaml:"pause_on_page_idle"`
	Mode            string `toml:"mode" yaml:"mode"`                       // "list" or "stack"
	ActivationMode  string `toml:"activation_mode" yaml:"activation_mode"` // "hover", "click" or ""
	Dismissible     bool   `toml:"dismissible" yaml:"dismissible"`
}

// GestureConfig tunes swipe dismissal. Distances are in pixels.
type GestureConfig struct {
	Tolerance         float64  `toml:"tolerance" yaml:"tolerance"`
	CommitThreshold   float64  `toml:"commit_threshold" yaml:"commit_threshold"`
	FlickMinProgress  float64  `toml:"flick_min_progress" yaml:"flick_min_progress"`
	FlickVelocity     float64  `toml:"flick_velocity" yaml:"flick_velocity"`         // px/ms
	FlickAcceleration float64  `toml:"flick_acceleration" yaml:"flick_acceleration"` // px/ms²
	FlickWindow       Duration `toml:"flick_window" yaml:"flick_window"`
	SettleDuration    Duration `toml:"settle_duration" yaml:"settle_duration"`
}

// AudioConfig controls the sound cue.
type AudioConfig struct {
	Enabled bool        `toml:"enabled" yaml:"enabled"`
	Volume  int         `toml:"volume" yaml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds" yaml:"sounds"`
}

// SoundConfig holds sound file paths per level.
type SoundConfig struct {
	Info    string `toml:"info" yaml:"info"`
	Success string `toml:"success" yaml:"success"`
	Warning string `toml:"warning" yaml:"warning"`
	Error   string `toml:"error" yaml:"error"`
}

// MetricsConfig controls the Prometheus endpoint of the daemon.
type MetricsConfig struct {
	Listen string `toml:"listen" yaml:"listen"` // e.g. "127.0.0.1:9464"; empty disables
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	th := gesture.DefaultThresholds()
	return &Config{
		Display: DisplayConfig{
			Placement:  string(placement.Default),
			Direction:  "auto",
			OffsetX:    10,
			OffsetY:    10,
			Width:      350,
			MaxHeight:  200,
			MaxVisible: 5,
			Gap:        5,
			Opacity:    1.0,
			Theme:      "default",
		},
		Timeouts: TimeoutConfig{
			Info:    Duration(5 * time.Second),
			Success: Duration(5 * time.Second),
			Warning: Duration(10 * time.Second),
			Error:   Duration(0),
		},
		Behavior: BehaviorConfig{
			PauseOnHover:    true,
			PauseOnPageIdle: true,
			Mode:            "list",
			Dismissible:     true,
		},
		Gesture: GestureConfig{
			Tolerance:         th.Tolerance,
			CommitThreshold:   th.Commit,
			FlickMinProgress:  th.FlickMinProgress,
			FlickVelocity:     th.FlickVelocity,
			FlickAcceleration: th.FlickAcceleration,
			FlickWindow:       Duration(th.FlickWindow),
			SettleDuration:    Duration(th.SettleDuration),
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  80,
		},
	}
}

// Path returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "toastui", "config.toml")
}

// Format is a config file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file extension. Unknown extensions
// are read as TOML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// ParseFormat converts a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "toml", "":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Load loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.Unmarshal(data, FormatFor(path)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Unmarshal overlays encoded data onto c.
func (c *Config) Unmarshal(data []byte, format Format) error {
	switch format {
	case FormatYAML:
		return yaml.Unmarshal(data, c)
	case FormatTOML:
		return toml.Unmarshal(data, c)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Marshal encodes c.
func (c *Config) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(c)
	case FormatTOML:
		return toml.Marshal(c)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Save writes the configuration atomically, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal(FormatFor(path))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := placement.Parse(c.Display.Placement); err != nil {
		return fmt.Errorf("%w %q, must be one of: %v", ErrInvalidPlacement, c.Display.Placement, placement.All())
	}
	if _, err := placement.ResolveDirection(c.Display.Direction, ""); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDirection, err)
	}

	if c.Display.Width < 10 || c.Display.Width > 2000 {
		return fmt.Errorf("%w: width must be between 10 and 2000, got %d", ErrInvalidValue, c.Display.Width)
	}
	if c.Display.MaxVisible < 1 || c.Display.MaxVisible > 20 {
		return fmt.Errorf("%w: max_visible must be between 1 and 20, got %d", ErrInvalidValue, c.Display.MaxVisible)
	}
	if c.Display.Monitor < 0 {
		return fmt.Errorf("%w: monitor must not be negative, got %d", ErrInvalidValue, c.Display.Monitor)
	}
	if c.Display.Opacity < 0 || c.Display.Opacity > 1 {
		return fmt.Errorf("%w: opacity must be between 0 and 1, got %v", ErrInvalidValue, c.Display.Opacity)
	}

	switch c.Behavior.Mode {
	case "", "list", "stack":
	default:
		return fmt.Errorf("%w: mode %q, must be list or stack", ErrInvalidValue, c.Behavior.Mode)
	}
	switch c.Behavior.ActivationMode {
	case "", "hover", "click":
	default:
		return fmt.Errorf("%w: activation_mode %q, must be hover, click or empty", ErrInvalidValue, c.Behavior.ActivationMode)
	}

	g := c.Gesture
	for name, v := range map[string]float64{
		"tolerance":          g.Tolerance,
		"commit_threshold":   g.CommitThreshold,
		"flick_min_progress": g.FlickMinProgress,
		"flick_velocity":     g.FlickVelocity,
		"flick_acceleration": g.FlickAcceleration,
	} {
		if v <= 0 {
			return fmt.Errorf("%w: gesture %s must be positive, got %v", ErrInvalidValue, name, v)
		}
	}
	if g.CommitThreshold > 1 {
		return fmt.Errorf("%w: gesture commit_threshold must be at most 1, got %v", ErrInvalidValue, g.CommitThreshold)
	}
	if g.FlickMinProgress >= g.CommitThreshold {
		return fmt.Errorf("%w: gesture flick_min_progress must be below commit_threshold", ErrInvalidValue)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("%w: volume must be between 0 and 100, got %d", ErrInvalidValue, c.Audio.Volume)
	}

	return nil
}

// Placement returns the parsed placement, or the default when invalid.
func (c *Config) Placement() placement.Placement {
	return placement.ParseOr(c.Display.Placement, placement.Default)
}

// Direction resolves the configured writing direction. In auto mode the
// locale comes from Display.Locale, then LC_ALL, LC_MESSAGES and LANG.
func (c *Config) Direction() placement.Direction {
	locale := c.Display.Locale
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if locale != "" {
			break
		}
		locale = os.Getenv(env)
	}
	dir, err := placement.ResolveDirection(c.Display.Direction, locale)
	if err != nil {
		return placement.LTR
	}
	return dir
}

// TimeoutFor returns the auto-dismiss delay for a level. Zero means never.
func (c *Config) TimeoutFor(level model.Level) time.Duration {
	switch level {
	case model.LevelSuccess:
		return c.Timeouts.Success.Duration()
	case model.LevelWarning:
		return c.Timeouts.Warning.Duration()
	case model.LevelError:
		return c.Timeouts.Error.Duration()
	default:
		return c.Timeouts.Info.Duration()
	}
}

// SoundFor returns the sound file for a level, with ~ expanded.
func (c *Config) SoundFor(level model.Level) string {
	var path string
	switch level {
	case model.LevelSuccess:
		path = c.Audio.Sounds.Success
	case model.LevelWarning:
		path = c.Audio.Sounds.Warning
	case model.LevelError:
		path = c.Audio.Sounds.Error
	default:
		path = c.Audio.Sounds.Info
	}
	return expandPath(path)
}

// StylePath returns the user stylesheet path with ~ expanded, or "".
func (c *Config) StylePath() string {
	return expandPath(c.Display.Style)
}

// Thresholds converts the gesture section.
func (c *Config) Thresholds() gesture.Thresholds {
	return gesture.Thresholds{
		Tolerance:         c.Gesture.Tolerance,
		Commit:            c.Gesture.CommitThreshold,
		FlickMinProgress:  c.Gesture.FlickMinProgress,
		FlickVelocity:     c.Gesture.FlickVelocity,
		FlickAcceleration: c.Gesture.FlickAcceleration,
		FlickWindow:       c.Gesture.FlickWindow.Duration(),
		SettleDuration:    c.Gesture.SettleDuration.Duration(),
	}
}

// QueueDuration is the queue-wide default delay: the info timeout, or no
// auto-dismiss when that is zero.
func (c *Config) QueueDuration() time.Duration {
	if d := c.Timeouts.Info.Duration(); d > 0 {
		return d
	}
	return -1
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
