package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"animreview/internal/compare"
	"animreview/internal/review"
	"animreview/internal/schema"
	"animreview/internal/script/scripttest"
	"animreview/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewPair(t *testing.T, student, base scripttest.Script) *review.Report {
	t.Helper()
	r := review.New(schema.Default(), review.Options{}, nil)
	return r.ReviewDocuments(
		source.FromString("/subs/animations-grp.js", student.String()),
		source.FromString("/subs/animations.js", base.String()),
	)
}

func batchOf(reports ...*review.Report) *review.Batch {
	return &review.Batch{RunID: "run-1", BasePath: "/subs/animations.js", Reports: reports}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "md": FormatMarkdown, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestDetections(t *testing.T) {
	refs := map[string][]string{
		"zeta":      {"PolySynth"},
		"global":    {"PolySynth"},
		"playSound": {"Oscillator", "PolySynth"},
	}
	got := Detections(refs, schema.Default().WatchedSymbols)

	require.Len(t, got, 2)
	assert.Equal(t, Detection{Token: "p5.PolySynth", Scopes: []string{"global", "playSound", "zeta"}}, got[0])
	assert.Equal(t, Detection{Token: "p5.Oscillator", Scopes: []string{"playSound"}}, got[1])

	assert.Empty(t, Detections(nil, schema.Default().WatchedSymbols))
}

func TestScopeLabel(t *testing.T) {
	assert.Equal(t, "[global scope]", ScopeLabel("global"))
	assert.Equal(t, "playSound()", ScopeLabel("playSound"))
}

func TestTimingChangeLinesSortedWithDeltas(t *testing.T) {
	lines := TimingChangeLines(map[string]compare.TimingChange{
		"T4": {Base: 360, Student: 300},
		"T0": {Base: 20, Student: 30},
	})
	assert.Equal(t, []string{"T0: 20 → 30  (+10)", "T4: 360 → 300  (-60)"}, lines)
}

func TestColorChangeLines(t *testing.T) {
	lines := ColorChangeLines(compare.ColorChanges{
		Added:   []string{"bonusColors"},
		Removed: []string{"failColors"},
		Modified: map[string]compare.ColorDiff{
			"prepColors": {Base: []string{"a", "b"}, Student: []string{"a", "c"}, Differing: 1},
			"idleColors": {Base: []string{"a", "b"}, Student: []string{"a"}},
		},
	})
	assert.Equal(t, []string{
		"idleColors: 2 colors → 1 colors",
		"prepColors: 1 of 2 colors changed",
		"bonusColors: added",
		"failColors: removed",
	}, lines)
}

func TestTextUnchangedSubmission(t *testing.T) {
	out := Text(reviewPair(t, scripttest.Valid(), scripttest.Valid()), Options{})

	assert.True(t, strings.HasPrefix(out, strings.Repeat("=", 60)+"\nFile: animations-grp.js\n"))
	assert.Contains(t, out, "✓ VALID\n")
	assert.Contains(t, out, "Similarity: 100.0% (green)")
	assert.Contains(t, out, "No changes detected from base")
	assert.NotContains(t, out, "Detected\n")
}

func TestTextChangedSubmission(t *testing.T) {
	student := scripttest.Valid().
		WithID("YOUR_GROUP").
		WithTiming("T0", 30).
		WithArray("idleColors", "red").
		WithFunction("showDecay", "totally();\n  different();")
	student.Trailer = "var poly = new p5.PolySynth();\nfunction playSound() {\n  o = new p5.Oscillator();\n}"

	out := Text(reviewPair(t, student, scripttest.Valid()), Options{Diffs: true})

	for _, want := range []string{
		"✗ INVALID",
		"Errors:\n  ✗ ID is still 'YOUR_GROUP' - appears to be unmodified template",
		"Warnings:\n  ⚠ Arrays with fewer than 8 colors: idleColors (1 colors)",
		"ID Changed: 'GRP08E' → 'YOUR_GROUP'",
		"Timing Changes (1):\n  T0: 20 → 30  (+10)",
		"Color Changes (1):\n  idleColors: 12 colors → 1 colors",
		"Modified Functions (1):\n  • showDecay()",
		"      -showButtons();",
		"      +totally();",
		"p5.PolySynth Detected\n  [global scope]",
		"p5.Oscillator Detected\n  playSound()",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "No changes detected")
}

func TestBatchText(t *testing.T) {
	b := batchOf(
		reviewPair(t, scripttest.Valid(), scripttest.Valid()),
		reviewPair(t, scripttest.Valid().WithID(""), scripttest.Valid()),
	)
	out := BatchText(b, Options{})

	assert.True(t, strings.HasPrefix(out, "Found 2 animation file(s)\n\nBase file: /subs/animations.js\n"))
	assert.Equal(t, 2, strings.Count(out, "File: animations-grp.js"))
	assert.Contains(t, out, "1 valid, 1 invalid")
}

func TestMarkdown(t *testing.T) {
	student := scripttest.Valid().WithFunction("showIdle", "blink();")
	b := batchOf(reviewPair(t, student, scripttest.Valid()))

	out := Markdown(b, Options{Diffs: true})
	assert.True(t, strings.HasPrefix(out, "# Animation review\n"))
	assert.Contains(t, out, "- **Run:** `run-1`")
	assert.Contains(t, out, "| animations-grp.js | ✓ VALID |")
	assert.Contains(t, out, "## animations-grp.js")
	assert.Contains(t, out, "- `showIdle()`")
	assert.Contains(t, out, "```diff\n// showIdle\n@@")
	assert.Contains(t, out, "showIdle() missing showLeds() call")
}

func TestMarkdownEmptyBatch(t *testing.T) {
	out := Markdown(batchOf(), Options{})
	assert.Contains(t, out, "- **Files:** 0 (0 valid, 0 invalid)")
	assert.NotContains(t, out, "| File |")
}

func TestWriteJSON(t *testing.T) {
	student := scripttest.Valid().WithTiming("T1", 90)
	b := batchOf(reviewPair(t, student, scripttest.Valid()))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, b, Options{}))

	var decoded struct {
		RunID   string `json:"run_id"`
		Reports []struct {
			Band       string `json:"band"`
			Validation struct {
				Valid  bool     `json:"valid"`
				Errors []string `json:"errors"`
			} `json:"validation"`
			Comparison struct {
				TimingChanges map[string]compare.TimingChange `json:"timing_changes"`
			} `json:"comparison"`
		} `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "run-1", decoded.RunID)
	require.Len(t, decoded.Reports, 1)
	assert.True(t, decoded.Reports[0].Validation.Valid)
	assert.NotNil(t, decoded.Reports[0].Validation.Errors)
	assert.Equal(t, compare.TimingChange{Base: 120, Student: 90}, decoded.Reports[0].Comparison.TimingChanges["T1"])
	assert.NotContains(t, buf.String(), "ModifiedBodies")
}

func TestWriteTextAndMarkdown(t *testing.T) {
	b := batchOf(reviewPair(t, scripttest.Valid(), scripttest.Valid()))

	var text, md bytes.Buffer
	require.NoError(t, Write(&text, FormatText, b, Options{}))
	require.NoError(t, Write(&md, FormatMarkdown, b, Options{}))
	assert.Contains(t, text.String(), "Found 1 animation file(s)")
	assert.Contains(t, md.String(), "# Animation review")
}
