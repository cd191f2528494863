package main

import (
	"fmt"
	"os"
	"path/filepath"

	"animreview/internal/config"
	"animreview/internal/report"
	"animreview/internal/review"
	"animreview/internal/source"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// checkCmd prints the batch report for a directory
var checkCmd = &cobra.Command{
	Use:   "check [directory]",
	Short: "Validate and compare every submission in a directory",
	Long: `Validates every animations-*.js file in the directory and compares it with the
base template. Equivalent to animreview --validate.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

// compareCmd reviews one submission
var compareCmd = &cobra.Command{
	Use:   "compare <submission>",
	Short: "Validate and compare a single submission",
	Long: `Reviews one file. The base defaults to animations.js next to the submission;
use --base to pick another template.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	addReportFlags(checkCmd)
	addReportFlags(compareCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	c := activeConfig()
	if len(args) > 0 {
		c.Review.Directory = args[0]
	}

	format, err := report.ParseFormat(outFormat)
	if err != nil {
		return err
	}
	base, err := source.ResolveBase(c.Review.Directory, c.Review.BaseFile)
	if err != nil {
		return fmt.Errorf("%w (use --base to point at the template)", err)
	}
	paths, err := source.Discover(c.Review.Directory, c.Review.Pattern, c.Review.Exclude...)
	if err != nil {
		return err
	}

	reviewer := newReviewer(&c, base)
	batch, err := reviewer.ReviewAll(commandContext(cmd), paths)
	if err != nil {
		return err
	}
	logger.Debug("Check finished",
		zap.String("run_id", batch.RunID),
		zap.Int("files", len(batch.Reports)),
		zap.Duration("duration", batch.Duration))

	opts := reportOptions(&c, reviewer)
	if format == report.FormatMarkdown && renderOutput {
		return writeRendered(cmd, &c, report.Markdown(batch, opts))
	}
	return report.Write(cmd.OutOrStdout(), format, batch, opts)
}

func runCompare(cmd *cobra.Command, args []string) error {
	c := activeConfig()
	student := args[0]

	format, err := report.ParseFormat(outFormat)
	if err != nil {
		return err
	}
	if _, err := os.Stat(student); err != nil {
		return fmt.Errorf("submission: %w", err)
	}
	base, err := source.ResolveBase(filepath.Dir(student), c.Review.BaseFile)
	if err != nil {
		return fmt.Errorf("%w (use --base to point at the template)", err)
	}

	reviewer := newReviewer(&c, base)
	r, err := reviewer.Review(commandContext(cmd), student)
	if err != nil {
		return err
	}

	opts := reportOptions(&c, reviewer)
	out := cmd.OutOrStdout()
	switch format {
	case report.FormatJSON:
		return report.WriteJSON(out, r)
	case report.FormatMarkdown:
		md := report.MarkdownReport(r, opts)
		if renderOutput {
			return writeRendered(cmd, &c, md)
		}
		_, err = fmt.Fprint(out, md)
		return err
	default:
		_, err = fmt.Fprint(out, report.Text(r, opts))
		return err
	}
}

func newReviewer(c *config.Config, base string) *review.Reviewer {
	return review.New(c.Vocabulary, review.Options{
		BasePath: base,
		Workers:  c.Review.Workers,
	}, logger)
}

func reportOptions(c *config.Config, r *review.Reviewer) report.Options {
	return report.Options{
		Symbols: c.Vocabulary.WatchedSymbols,
		Diffs:   withDiffs,
		Engine:  r.Diff(),
	}
}

// writeRendered styles markdown for the terminal with glamour.
func writeRendered(cmd *cobra.Command, c *config.Config, md string) error {
	style := glamour.WithAutoStyle()
	switch c.UI.Theme {
	case config.ThemeLight:
		style = glamour.WithStylePath("light")
	case config.ThemeDark:
		style = glamour.WithStylePath("dark")
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}
