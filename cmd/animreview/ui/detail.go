package ui

import (
	"fmt"
	"strings"

	"animreview/internal/compare"
	"animreview/internal/diff"
	"animreview/internal/report"
	"animreview/internal/review"
	"animreview/internal/schema"
	"animreview/internal/validate"
)

// detailRenderer draws the right-hand pane for one report.
type detailRenderer struct {
	styles  Styles
	symbols []schema.WatchedSymbol
	engine  *diff.Engine
	width   int
}

var synthIcons = map[string]string{
	"PolySynth":  "🎹",
	"Oscillator": "🎺",
}

func (d detailRenderer) render(r *review.Report, showDiffs bool) string {
	if r == nil {
		return d.styles.Muted.Render("Select a file on the left to see details")
	}

	var sb strings.Builder
	sb.WriteString(d.styles.Title.Render(r.Name()))
	sb.WriteString("\n")
	sb.WriteString(d.styles.RenderDivider(d.width, "═"))
	sb.WriteString("\n\n")

	d.validation(&sb, r.Validation)
	d.comparison(&sb, r, showDiffs)
	return sb.String()
}

func (d detailRenderer) validation(sb *strings.Builder, v *validate.Result) {
	status := d.styles.Error
	if v.Valid {
		status = d.styles.Success
	}
	sb.WriteString(status.Render(report.Status(v.Valid)))
	sb.WriteString("\n")
	sb.WriteString(d.styles.RenderDivider(d.width, "─"))
	sb.WriteString("\n\n")

	if len(v.Errors) > 0 {
		sb.WriteString(d.styles.Error.Render("❌ ERRORS:"))
		sb.WriteString("\n")
		for _, e := range v.Errors {
			fmt.Fprintf(sb, "  ✗ %s\n", e)
		}
		sb.WriteString("\n")
	}
	if len(v.Warnings) > 0 {
		sb.WriteString(d.styles.Warning.Render("⚠️  WARNINGS:"))
		sb.WriteString("\n")
		for _, w := range v.Warnings {
			fmt.Fprintf(sb, "  ⚠ %s\n", w)
		}
		sb.WriteString("\n")
	}
	if v.Clean() {
		sb.WriteString(d.styles.Success.Render("✓ All validation checks passed!"))
		sb.WriteString("\n\n")
	}
}

func (d detailRenderer) comparison(sb *strings.Builder, r *review.Report, showDiffs bool) {
	c := r.Comparison

	sb.WriteString(d.styles.Section.Render("📊 SIMILARITY ANALYSIS"))
	sb.WriteString("\n")
	sb.WriteString(d.styles.RenderDivider(d.width, "─"))
	sb.WriteString("\n\n")

	sb.WriteString(d.styles.Band(r.Band).Render(fmt.Sprintf("Overall Similarity: %5.1f%%", c.OverallSimilarity)))
	sb.WriteString("\n\n")
	sb.WriteString(d.styles.Bold.Render("Component Scores:"))
	sb.WriteString("\n")
	d.score(sb, "Timing Variables:", c.TimingSimilarity)
	d.score(sb, "Color Arrays:    ", c.ColorSimilarity)
	d.score(sb, "Functions:       ", c.FunctionSimilarity)

	if c.IDChanged {
		fmt.Fprintf(sb, "\n%s '%s' → '%s'\n", d.styles.Section.Render("ID:"), c.BaseID, c.StudentID)
	}

	sb.WriteString("\n")
	sb.WriteString(d.styles.Warning.Render("🔄 CHANGES DETECTED"))
	sb.WriteString("\n")
	sb.WriteString(d.styles.RenderDivider(d.width, "─"))
	sb.WriteString("\n")

	if lines := report.TimingChangeLines(c.TimingChanges); len(lines) > 0 {
		d.list(sb, fmt.Sprintf("Timing Changes (%d):", len(lines)), lines)
	}
	if lines := report.ColorChangeLines(c.ColorChanges); len(lines) > 0 {
		d.list(sb, fmt.Sprintf("Color Array Changes (%d):", len(lines)), lines)
	}
	if len(c.ModifiedFunctions) > 0 {
		d.functions(sb, c, showDiffs)
	}
	if !c.HasChanges() {
		sb.WriteString(d.styles.Muted.Render("No changes detected from base"))
		sb.WriteString("\n")
	}

	symbols := d.symbols
	if symbols == nil {
		symbols = schema.Default().WatchedSymbols
	}
	for _, det := range report.Detections(c.SynthReferences, symbols) {
		icon := synthIcons[strings.TrimPrefix(det.Token, "p5.")]
		if icon == "" {
			icon = "🔊"
		}
		fmt.Fprintf(sb, "\n%s\n", d.styles.Synth.Render(icon+" "+det.Token+" Detected"))
		for _, scope := range det.Scopes {
			fmt.Fprintf(sb, "  %s\n", report.ScopeLabel(scope))
		}
	}
}

func (d detailRenderer) score(sb *strings.Builder, label string, v float64) {
	style := d.styles.Band(review.Grade(v))
	fmt.Fprintf(sb, "  • %s %s\n", label, style.Render(fmt.Sprintf("%5.1f%%", v)))
}

func (d detailRenderer) list(sb *strings.Builder, title string, lines []string) {
	fmt.Fprintf(sb, "\n%s\n", d.styles.Bold.Render(title))
	for _, l := range lines {
		fmt.Fprintf(sb, "  %s\n", l)
	}
}

func (d detailRenderer) functions(sb *strings.Builder, c *compare.Result, showDiffs bool) {
	title := fmt.Sprintf("Modified Functions (%d):", len(c.ModifiedFunctions))
	if !showDiffs {
		title += d.styles.Muted.Render("  (d to show diffs)")
	}
	fmt.Fprintf(sb, "\n%s\n", d.styles.Bold.Render(title))

	for _, name := range c.ModifiedFunctions {
		fmt.Fprintf(sb, "  • %s()\n", name)
		if !showDiffs {
			continue
		}
		b := c.ModifiedBodies[name]
		engine := d.engine
		if engine == nil {
			engine = diff.DefaultEngine
		}
		for _, h := range engine.LineDiff(b.Base+"\n", b.Student+"\n", 2) {
			fmt.Fprintf(sb, "    %s\n", d.styles.Hunk.Render(fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)))
			for _, l := range h.Lines {
				sb.WriteString("    ")
				sb.WriteString(d.diffLine(l))
				sb.WriteString("\n")
			}
		}
	}
}

func (d detailRenderer) diffLine(l diff.Line) string {
	text := string(l.Type.Prefix()) + " " + l.Content
	switch l.Type {
	case diff.LineAdded:
		return d.styles.Added.Render(text)
	case diff.LineRemoved:
		return d.styles.Removed.Render(text)
	default:
		return d.styles.Body.Render(text)
	}
}
