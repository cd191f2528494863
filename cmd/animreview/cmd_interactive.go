package main

import (
	"fmt"
	"path/filepath"

	"animreview/cmd/animreview/ui"
	"animreview/internal/source"
	"animreview/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runInteractive opens the two-pane reviewer, refreshing on file changes
// unless watching is off.
func runInteractive(cmd *cobra.Command, args []string) error {
	c := activeConfig()
	if len(args) > 0 {
		c.Review.Directory = args[0]
	}

	base, err := source.ResolveBase(c.Review.Directory, c.Review.BaseFile)
	if err != nil {
		return fmt.Errorf("%w (use --base to point at the template)", err)
	}
	if _, err := source.Discover(c.Review.Directory, c.Review.Pattern, c.Review.Exclude...); err != nil {
		return err
	}

	var watcher *watch.Watcher
	if c.UI.Watch && !noWatch {
		watcher, err = watch.New(c.Review.Directory, watch.Options{
			Pattern:  c.Review.Pattern,
			Exclude:  c.Review.Exclude,
			Base:     filepath.Base(base),
			Debounce: c.UI.DebounceDuration(),
		}, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(commandContext(cmd)); err != nil {
			watcher.Stop()
			return err
		}
		defer watcher.Stop()
	}

	logger.Info("Starting interactive review",
		zap.String("directory", c.Review.Directory),
		zap.String("base", base),
		zap.Bool("watch", watcher != nil))

	return ui.Run(ui.Options{
		Dir:      c.Review.Directory,
		Pattern:  c.Review.Pattern,
		Exclude:  c.Review.Exclude,
		Reviewer: newReviewer(&c, base),
		Watcher:  watcher,
		Styles:   ui.NewStyles(ui.ThemeNamed(c.UI.Theme)),
		Symbols:  c.Vocabulary.WatchedSymbols,
		Logger:   logger,
	})
}
