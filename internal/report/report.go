// Package report renders review output as console text, markdown or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"animreview/internal/compare"
	"animreview/internal/diff"
	"animreview/internal/review"
	"animreview/internal/schema"
)

// Format selects a renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts text, markdown (md) and json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

const ruleWidth = 60

// Detection lists the scopes that reference one watched symbol.
type Detection struct {
	Token  string
	Scopes []string
}

// Detections groups a scope → categories map by symbol, in vocabulary order.
// The global scope comes first, functions follow sorted by name.
func Detections(refs map[string][]string, symbols []schema.WatchedSymbol) []Detection {
	var out []Detection
	for _, sym := range symbols {
		var scopes []string
		for scope, cats := range refs {
			for _, c := range cats {
				if c == sym.Category {
					scopes = append(scopes, scope)
					break
				}
			}
		}
		if len(scopes) == 0 {
			continue
		}
		sort.Slice(scopes, func(i, j int) bool {
			if scopes[i] == schema.GlobalScope || scopes[j] == schema.GlobalScope {
				return scopes[i] == schema.GlobalScope && scopes[j] != schema.GlobalScope
			}
			return scopes[i] < scopes[j]
		})
		out = append(out, Detection{Token: sym.Token, Scopes: scopes})
	}
	return out
}

// ScopeLabel is how a scope is shown to a reviewer.
func ScopeLabel(scope string) string {
	if scope == schema.GlobalScope {
		return "[global scope]"
	}
	return scope + "()"
}

// ColorChangeLines describes each color change on one line: modified arrays
// sorted by name, then added and removed arrays.
func ColorChangeLines(c compare.ColorChanges) []string {
	names := make([]string, 0, len(c.Modified))
	for name := range c.Modified {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		d := c.Modified[name]
		if d.SizeChanged() {
			lines = append(lines, fmt.Sprintf("%s: %d colors → %d colors", name, len(d.Base), len(d.Student)))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %d of %d colors changed", name, d.Differing, len(d.Base)))
		}
	}
	for _, name := range c.Added {
		lines = append(lines, fmt.Sprintf("%s: added", name))
	}
	for _, name := range c.Removed {
		lines = append(lines, fmt.Sprintf("%s: removed", name))
	}
	return lines
}

// TimingChangeLines formats timing changes sorted by slot, with signed deltas.
func TimingChangeLines(changes map[string]compare.TimingChange) []string {
	slots := make([]string, 0, len(changes))
	for slot := range changes {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		c := changes[slot]
		lines = append(lines, fmt.Sprintf("%s: %d → %d  (%+d)", slot, c.Base, c.Student, c.Delta()))
	}
	return lines
}

// FunctionDiff renders the unified line diff of one modified function.
func FunctionDiff(engine *diff.Engine, b compare.Bodies, context int) string {
	if engine == nil {
		engine = diff.DefaultEngine
	}
	return diff.Unified(engine.LineDiff(b.Base+"\n", b.Student+"\n", context))
}

// Status is the validity banner.
func Status(valid bool) string {
	if valid {
		return "✓ VALID"
	}
	return "✗ INVALID"
}

// Options tune the text and markdown renderers.
type Options struct {
	// Symbols drives the detection section; nil means schema defaults.
	Symbols []schema.WatchedSymbol
	// Diffs includes the line diff of each modified function.
	Diffs bool
	// Engine renders those diffs; nil uses diff.DefaultEngine.
	Engine *diff.Engine
}

func (o Options) symbols() []schema.WatchedSymbol {
	if o.Symbols == nil {
		return schema.Default().WatchedSymbols
	}
	return o.Symbols
}

// WriteJSON encodes v (a report or a batch) as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Write renders a batch in the requested format.
func Write(w io.Writer, f Format, b *review.Batch, opts Options) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, b)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(b, opts))
		return err
	default:
		_, err := io.WriteString(w, BatchText(b, opts))
		return err
	}
}
