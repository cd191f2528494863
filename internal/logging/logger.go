// Package logging builds the zap loggers used across animreview.
// Each subsystem logs through a named child logger; categories can be
// switched off individually from the config file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a subsystem logger.
type Category string

const (
	CategoryBoot     Category = "boot"     // CLI startup, config resolution
	CategorySource   Category = "source"   // File reads and discovery
	CategoryExtract  Category = "extract"  // Regex extraction
	CategoryValidate Category = "validate" // Rule checks
	CategoryCompare  Category = "compare"  // Base comparison and scoring
	CategoryReview   Category = "review"   // Batch orchestration
	CategoryWatch    Category = "watch"    // Directory watcher
	CategoryUI       Category = "ui"       // Interactive presenter
)

// Options mirrors config.LoggingConfig so this package does not import config.
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	File       string          // empty = stderr
	Verbose    bool            // forces debug level
	Categories map[string]bool // per-category toggles, missing = enabled
}

var (
	disabledMu sync.RWMutex
	disabled   = map[Category]bool{}
)

// New builds a logger from opts. The caller owns Sync.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	var cfg zap.Config
	switch strings.ToLower(opts.Format) {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console", "text":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: json, console)", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = level > zapcore.DebugLevel

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	setCategories(opts.Categories)
	return logger, nil
}

// ParseLevel maps the config spelling of a level onto zap.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", s)
}

func setCategories(toggles map[string]bool) {
	disabledMu.Lock()
	defer disabledMu.Unlock()
	disabled = make(map[Category]bool, len(toggles))
	for name, on := range toggles {
		if !on {
			disabled[Category(name)] = true
		}
	}
}

// Enabled reports whether a category is switched on.
func Enabled(cat Category) bool {
	disabledMu.RLock()
	defer disabledMu.RUnlock()
	return !disabled[cat]
}

// Named returns the child logger for a category. A nil parent or a
// disabled category yields a no-op logger, so callers never nil-check.
func Named(parent *zap.Logger, cat Category) *zap.Logger {
	if parent == nil || !Enabled(cat) {
		return zap.NewNop()
	}
	return parent.Named(string(cat))
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
