package config

import (
	"fmt"

	"animreview/internal/logging"
)

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`                // debug, info, warn, error
	Format     string          `yaml:"format"`               // json, console
	File       string          `yaml:"file"`                 // empty = stderr (CLI) or discarded (TUI)
	Categories map[string]bool `yaml:"categories,omitempty"` // per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Unlisted categories are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	enabled, exists := c.Categories[category]
	return !exists || enabled
}

// Options converts the section for logging.New.
func (c *LoggingConfig) Options(verbose bool) logging.Options {
	return logging.Options{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		Verbose:    verbose,
		Categories: c.Categories,
	}
}

func (c *LoggingConfig) validate() error {
	if _, err := logging.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("logging.level: %v", err)
	}
	switch c.Format {
	case "", "json", "console", "text":
	default:
		return fmt.Errorf("logging.format %q (valid: json, console)", c.Format)
	}
	return nil
}
