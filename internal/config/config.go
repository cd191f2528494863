package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"animreview/internal/schema"
	"animreview/internal/source"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".animreview.yaml"

// ErrInvalid wraps every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all animreview configuration.
type Config struct {
	Review     ReviewConfig      `yaml:"review"`
	Vocabulary schema.Vocabulary `yaml:"vocabulary"`
	Logging    LoggingConfig     `yaml:"logging"`
	UI         UIConfig          `yaml:"ui"`
}

// ReviewConfig locates submissions and the base template.
type ReviewConfig struct {
	Directory string   `yaml:"directory"`
	BaseFile  string   `yaml:"base_file"` // empty = <directory>/animations.js
	Pattern   string   `yaml:"pattern"`
	Exclude   []string `yaml:"exclude"`
	Workers   int      `yaml:"workers"` // 0 = GOMAXPROCS
}

// DefaultConfig returns the donald-2021 layout with the stock vocabulary.
func DefaultConfig() *Config {
	return &Config{
		Review: ReviewConfig{
			Directory: ".",
			Pattern:   source.DefaultPattern,
			Exclude:   []string{source.DefaultBaseName},
		},
		Vocabulary: schema.Default(),
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		UI: UIConfig{
			Theme:    ThemeAuto,
			Watch:    true,
			Debounce: "300ms",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("ANIMREVIEW_DIR"); dir != "" {
		c.Review.Directory = dir
	}
	if base := os.Getenv("ANIMREVIEW_BASE"); base != "" {
		c.Review.BaseFile = base
	}
	if level := os.Getenv("ANIMREVIEW_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if theme := os.Getenv("ANIMREVIEW_THEME"); theme != "" {
		c.UI.Theme = strings.ToLower(theme)
	}
}

// Validate checks every section; failures wrap ErrInvalid.
func (c *Config) Validate() error {
	if c.Review.Directory == "" {
		return fmt.Errorf("%w: review.directory is empty", ErrInvalid)
	}
	if _, err := filepath.Match(c.Review.Pattern, ""); err != nil {
		return fmt.Errorf("%w: review.pattern %q: %v", ErrInvalid, c.Review.Pattern, err)
	}
	if c.Review.Workers < 0 {
		return fmt.Errorf("%w: review.workers must not be negative", ErrInvalid)
	}
	if err := c.Vocabulary.Validate(); err != nil {
		return fmt.Errorf("%w: vocabulary: %v", ErrInvalid, err)
	}
	if err := c.Logging.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.UI.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// BasePath is the configured base file, or animations.js in the directory.
func (c *Config) BasePath() string {
	if c.Review.BaseFile != "" {
		return c.Review.BaseFile
	}
	return filepath.Join(c.Review.Directory, source.DefaultBaseName)
}

// UIConfig configures the interactive presenter.
type UIConfig struct {
	Theme    string `yaml:"theme"` // auto, light, dark
	Watch    bool   `yaml:"watch"`
	Debounce string `yaml:"debounce"`
}

// Themes accepted by UIConfig.Theme.
const (
	ThemeAuto  = "auto"
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// DebounceDuration parses Debounce, zero when unset or malformed.
func (u UIConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(u.Debounce)
	if err != nil {
		return 0
	}
	return d
}

func (u UIConfig) validate() error {
	switch u.Theme {
	case ThemeAuto, ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("ui.theme %q (valid: auto, light, dark)", u.Theme)
	}
	if u.Debounce != "" {
		if d, err := time.ParseDuration(u.Debounce); err != nil || d < 0 {
			return fmt.Errorf("ui.debounce %q is not a duration", u.Debounce)
		}
	}
	return nil
}
