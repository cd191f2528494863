package report

import (
	"fmt"
	"strings"

	"animreview/internal/compare"
	"animreview/internal/review"
	"animreview/internal/validate"
)

// ValidationText mirrors the console validation block.
func ValidationText(r *validate.Result) string {
	var sb strings.Builder
	sb.WriteString(Status(r.Valid))
	sb.WriteString("\n")
	if len(r.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "  ✗ %s\n", e)
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "  ⚠ %s\n", w)
		}
	}
	return sb.String()
}

// ComparisonText renders scores, changes and synth detections.
func ComparisonText(c *compare.Result, opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Similarity: %.1f%% (%s)\n", c.OverallSimilarity, review.Grade(c.OverallSimilarity))
	fmt.Fprintf(&sb, "  Timings:    %.1f%%\n", c.TimingSimilarity)
	fmt.Fprintf(&sb, "  Colors:     %.1f%%\n", c.ColorSimilarity)
	fmt.Fprintf(&sb, "  Functions:  %.1f%%\n", c.FunctionSimilarity)

	if c.IDChanged {
		fmt.Fprintf(&sb, "\nID Changed: '%s' → '%s'\n", c.BaseID, c.StudentID)
	}

	if lines := TimingChangeLines(c.TimingChanges); len(lines) > 0 {
		fmt.Fprintf(&sb, "\nTiming Changes (%d):\n", len(lines))
		writeIndented(&sb, lines)
	}
	if lines := ColorChangeLines(c.ColorChanges); len(lines) > 0 {
		fmt.Fprintf(&sb, "\nColor Changes (%d):\n", len(lines))
		writeIndented(&sb, lines)
	}
	if len(c.ModifiedFunctions) > 0 {
		fmt.Fprintf(&sb, "\nModified Functions (%d):\n", len(c.ModifiedFunctions))
		for _, name := range c.ModifiedFunctions {
			fmt.Fprintf(&sb, "  • %s()\n", name)
			if opts.Diffs {
				for _, line := range strings.Split(strings.TrimSuffix(FunctionDiff(opts.Engine, c.ModifiedBodies[name], 2), "\n"), "\n") {
					fmt.Fprintf(&sb, "      %s\n", line)
				}
			}
		}
	}
	if !c.HasChanges() {
		sb.WriteString("\nNo changes detected from base\n")
	}

	for _, d := range Detections(c.SynthReferences, opts.symbols()) {
		fmt.Fprintf(&sb, "\n%s Detected\n", d.Token)
		for _, scope := range d.Scopes {
			fmt.Fprintf(&sb, "  %s\n", ScopeLabel(scope))
		}
	}
	return sb.String()
}

// Text renders one submission with a title rule.
func Text(r *review.Report, opts Options) string {
	var sb strings.Builder
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(&sb, "%s\nFile: %s\n%s\n", rule, r.Name(), rule)
	sb.WriteString(ValidationText(r.Validation))
	sb.WriteString("\n")
	sb.WriteString(ComparisonText(r.Comparison, opts))
	return sb.String()
}

// BatchText renders every report of a batch followed by a summary line.
func BatchText(b *review.Batch, opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d animation file(s)\n\n", len(b.Reports))
	fmt.Fprintf(&sb, "Base file: %s\n", b.BasePath)
	for _, r := range b.Reports {
		sb.WriteString("\n")
		sb.WriteString(Text(r, opts))
	}
	s := b.Summary()
	fmt.Fprintf(&sb, "\n%s\n%d valid, %d invalid, average similarity %.1f%%\n",
		strings.Repeat("-", ruleWidth), s.Valid, s.Invalid, s.Average)
	return sb.String()
}

func writeIndented(sb *strings.Builder, lines []string) {
	for _, l := range lines {
		fmt.Fprintf(sb, "  %s\n", l)
	}
}
