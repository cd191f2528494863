package report

import (
	"fmt"
	"strings"

	"animreview/internal/compare"
	"animreview/internal/review"
)

// Markdown renders a batch as a markdown document: an overview table, then
// one section per submission.
func Markdown(b *review.Batch, opts Options) string {
	var sb strings.Builder
	s := b.Summary()

	sb.WriteString("# Animation review\n\n")
	fmt.Fprintf(&sb, "- **Run:** `%s`\n", b.RunID)
	fmt.Fprintf(&sb, "- **Base:** `%s`\n", b.BasePath)
	fmt.Fprintf(&sb, "- **Files:** %d (%d valid, %d invalid)\n", s.Total, s.Valid, s.Invalid)
	fmt.Fprintf(&sb, "- **Average similarity:** %.1f%%\n\n", s.Average)

	if len(b.Reports) == 0 {
		return sb.String()
	}

	sb.WriteString("| File | Status | Overall | Timing | Colors | Functions | Band |\n")
	sb.WriteString("|---|---|---:|---:|---:|---:|---|\n")
	for _, r := range b.Reports {
		c := r.Comparison
		fmt.Fprintf(&sb, "| %s | %s | %.1f%% | %.1f%% | %.1f%% | %.1f%% | %s |\n",
			r.Name(), Status(r.Validation.Valid),
			c.OverallSimilarity, c.TimingSimilarity, c.ColorSimilarity, c.FunctionSimilarity, r.Band)
	}

	for _, r := range b.Reports {
		sb.WriteString("\n")
		sb.WriteString(MarkdownReport(r, opts))
	}
	return sb.String()
}

// MarkdownReport renders one submission section.
func MarkdownReport(r *review.Report, opts Options) string {
	var sb strings.Builder
	v, c := r.Validation, r.Comparison

	fmt.Fprintf(&sb, "## %s\n\n**%s**\n\n", r.Name(), Status(v.Valid))
	markdownList(&sb, "Errors", v.Errors)
	markdownList(&sb, "Warnings", v.Warnings)
	if v.Clean() {
		sb.WriteString("All validation checks passed.\n\n")
	}

	sb.WriteString("### Similarity\n\n")
	fmt.Fprintf(&sb, "- Overall: **%.1f%%** (%s)\n", c.OverallSimilarity, r.Band)
	fmt.Fprintf(&sb, "- Timing variables: %.1f%%\n", c.TimingSimilarity)
	fmt.Fprintf(&sb, "- Color arrays: %.1f%%\n", c.ColorSimilarity)
	fmt.Fprintf(&sb, "- Functions: %.1f%%\n\n", c.FunctionSimilarity)
	if c.IDChanged {
		fmt.Fprintf(&sb, "ID: `%s` → `%s`\n\n", c.BaseID, c.StudentID)
	}

	sb.WriteString("### Changes\n\n")
	if !c.HasChanges() {
		sb.WriteString("No changes detected from base.\n\n")
	}
	markdownList(&sb, fmt.Sprintf("Timing changes (%d)", len(c.TimingChanges)), TimingChangeLines(c.TimingChanges))
	colors := ColorChangeLines(c.ColorChanges)
	markdownList(&sb, fmt.Sprintf("Color array changes (%d)", len(colors)), colors)
	markdownFunctions(&sb, c, opts)

	for _, d := range Detections(c.SynthReferences, opts.symbols()) {
		labels := make([]string, len(d.Scopes))
		for i, scope := range d.Scopes {
			labels[i] = ScopeLabel(scope)
		}
		markdownList(&sb, d.Token+" detected", labels)
	}
	return sb.String()
}

func markdownFunctions(sb *strings.Builder, c *compare.Result, opts Options) {
	if len(c.ModifiedFunctions) == 0 {
		return
	}
	fmt.Fprintf(sb, "#### Modified functions (%d)\n\n", len(c.ModifiedFunctions))
	for _, name := range c.ModifiedFunctions {
		fmt.Fprintf(sb, "- `%s()`\n", name)
	}
	sb.WriteString("\n")
	if !opts.Diffs {
		return
	}
	for _, name := range c.ModifiedFunctions {
		fmt.Fprintf(sb, "```diff\n// %s\n%s```\n\n", name, FunctionDiff(opts.Engine, c.ModifiedBodies[name], 2))
	}
}

func markdownList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "#### %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(sb, "- %s\n", it)
	}
	sb.WriteString("\n")
}
