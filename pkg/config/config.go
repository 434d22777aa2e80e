package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultFileName = "dragsense.yaml"
	EnvPrefix       = "DRAGSENSE"
)

// Config captures the user-adjustable knobs for gesture detection and the
// outputs that notifications fan out to.
type Config struct {
	Gesture   GestureConfig   `mapstructure:"gesture"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `mapstructure:"-"`
}

// GestureConfig tunes the shake classifier.
type GestureConfig struct {
	WindowMS      int `mapstructure:"window_ms"`
	ReversalGapMS int `mapstructure:"reversal_gap_ms"`
	MinReversals  int `mapstructure:"min_reversals"`
}

// Window returns the sample window as a duration.
func (g GestureConfig) Window() time.Duration {
	return time.Duration(g.WindowMS) * time.Millisecond
}

// ReversalGap returns the maximum spacing between chained reversals.
func (g GestureConfig) ReversalGap() time.Duration {
	return time.Duration(g.ReversalGapMS) * time.Millisecond
}

// JournalConfig controls the notification journal.
type JournalConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Path           string   `mapstructure:"path"`
	RedactEmails   bool     `mapstructure:"redact_emails"`
	RedactPatterns []string `mapstructure:"redact_patterns"`
}

// BroadcastConfig controls the WebSocket fan-out.
type BroadcastConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Listen         string `mapstructure:"listen"`
	AllowAnyOrigin bool   `mapstructure:"allow_any_origin"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Gesture: GestureConfig{
			WindowMS:      500,
			ReversalGapMS: 200,
			MinReversals:  4,
		},
		Journal: JournalConfig{
			Enabled:      true,
			Path:         "dragsense.db",
			RedactEmails: true,
		},
		Broadcast: BroadcastConfig{
			Enabled: false,
			Listen:  "127.0.0.1:7878",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Source: "<defaults>",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("gesture.window_ms", d.Gesture.WindowMS)
	v.SetDefault("gesture.reversal_gap_ms", d.Gesture.ReversalGapMS)
	v.SetDefault("gesture.min_reversals", d.Gesture.MinReversals)
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("journal.redact_emails", d.Journal.RedactEmails)
	v.SetDefault("journal.redact_patterns", []string{})
	v.SetDefault("broadcast.enabled", d.Broadcast.Enabled)
	v.SetDefault("broadcast.listen", d.Broadcast.Listen)
	v.SetDefault("broadcast.allow_any_origin", d.Broadcast.AllowAnyOrigin)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Load reads configuration from disk and DRAGSENSE_* environment variables.
// When path is empty, the loader attempts to read ./dragsense.yaml but
// tolerates a missing file; an explicit path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	source := Default().Source
	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	if _, err := os.Stat(candidate); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Default(), fmt.Errorf("stat config file %q: %w", candidate, err)
		}
		if explicit {
			return Default(), fmt.Errorf("config file %q not found", candidate)
		}
	} else {
		v.SetConfigFile(candidate)
		if err := v.ReadInConfig(); err != nil {
			return Default(), fmt.Errorf("read config file %q: %w", candidate, err)
		}
		source = candidate
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Default(), fmt.Errorf("decode config: %w", err)
	}
	cfg.Source = source
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if c.Gesture.WindowMS <= 0 {
		return errors.New("gesture.window_ms must be positive")
	}
	if c.Gesture.ReversalGapMS <= 0 {
		return errors.New("gesture.reversal_gap_ms must be positive")
	}
	if c.Gesture.MinReversals < 1 {
		return errors.New("gesture.min_reversals must be at least 1")
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" {
		return errors.New("journal.path must not be empty when the journal is enabled")
	}
	if c.Broadcast.Enabled && strings.TrimSpace(c.Broadcast.Listen) == "" {
		return errors.New("broadcast.listen must not be empty when broadcasting is enabled")
	}
	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}

// NormalizeLogLevel coerces the provided level to a supported value.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat coerces the provided logging format to a supported value.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return "json", nil
	case "console", "text":
		return "console", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}

func (c *Config) normalize() {
	defaults := Default()

	if path := strings.TrimSpace(c.Journal.Path); path != "" {
		c.Journal.Path = filepath.Clean(path)
	}
	c.Broadcast.Listen = strings.TrimSpace(c.Broadcast.Listen)

	patterns := c.Journal.RedactPatterns[:0]
	for _, p := range c.Journal.RedactPatterns {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	c.Journal.RedactPatterns = patterns

	if level, err := NormalizeLogLevel(c.Logging.Level); err == nil {
		c.Logging.Level = level
	}
	if format, err := NormalizeFormat(c.Logging.Format); err == nil {
		c.Logging.Format = format
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}
}
