package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "showLeds(idleColors);", "showLeds(idleColors);", 1},
		{"both empty", "", "", 1},
		{"one empty", "abc", "", 0},
		{"one char differs", "abcd", "abce", 0.75},
		{"disjoint", "abc", "xyz", 0},
		{"multibyte counted as runes", "ééé", "éé", 0.8},
	}
	e := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, e.Ratio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRatioIsSymmetric(t *testing.T) {
	e := NewEngine()
	a := "if (frameCount % T0_IDLE == 0) {\n    showButtons();\n  }"
	b := "if (frameCount % T1_WARN == 0) {\n    showLeds();\n  }"
	assert.InDelta(t, e.Ratio(a, b), e.Ratio(b, a), 1e-9)
}

func TestRatioToleratesWhitespace(t *testing.T) {
	body := strings.Repeat("showButtons();\n  showLeds(idleColors);\n  ", 4)
	spaced := strings.ReplaceAll(body, "showLeds(idleColors)", "showLeds( idleColors )")

	r := Ratio(body, spaced)
	assert.GreaterOrEqual(t, r, 0.95)
	assert.Less(t, r, 1.0)
}

func TestRatioCache(t *testing.T) {
	e := NewEngine()
	first := e.Ratio("abcdef", "abcxef")
	second := e.Ratio("abcdef", "abcxef")
	assert.Equal(t, first, second)

	_, cached := e.ratios.Load(pairKey{hash("abcdef"), hash("abcxef")})
	assert.True(t, cached)

	e.ClearCache()
	_, cached = e.ratios.Load(pairKey{hash("abcdef"), hash("abcxef")})
	assert.False(t, cached)
}

func TestLineDiffIdentical(t *testing.T) {
	assert.Nil(t, LineDiff("a\nb", "a\nb", 3))
}

func TestLineDiffSingleChange(t *testing.T) {
	hunks := NewEngine().LineDiff("a\nb\nc", "a\nB\nc", 1)
	require.Len(t, hunks, 1)

	h := hunks[0]
	assert.Equal(t, 1, h.OldStart)
	assert.Equal(t, 3, h.OldCount)
	assert.Equal(t, 1, h.NewStart)
	assert.Equal(t, 3, h.NewCount)

	var added, removed []string
	for _, l := range h.Lines {
		switch l.Type {
		case LineAdded:
			added = append(added, l.Content)
		case LineRemoved:
			removed = append(removed, l.Content)
		}
	}
	assert.Equal(t, []string{"B"}, added)
	assert.Equal(t, []string{"b"}, removed)
}

func TestLineDiffSeparateHunks(t *testing.T) {
	old := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10"
	updated := "1\ntwo\n3\n4\n5\n6\n7\n8\nnine\n10"

	hunks := LineDiff(old, updated, 1)
	require.Len(t, hunks, 2)

	assert.Equal(t, 1, hunks[0].OldStart)
	assert.Equal(t, 3, hunks[0].OldCount)
	assert.Equal(t, 8, hunks[1].OldStart)
	assert.Equal(t, 3, hunks[1].OldCount)
	assert.Equal(t, 8, hunks[1].NewStart)
	assert.Equal(t, 3, hunks[1].NewCount)
}

func TestLineDiffAddedOnly(t *testing.T) {
	hunks := LineDiff("a\nb\n", "a\nb\nc\n", 0)
	require.Len(t, hunks, 1)
	require.Len(t, hunks[0].Lines, 1)
	assert.Equal(t, LineAdded, hunks[0].Lines[0].Type)
	assert.Equal(t, "c", hunks[0].Lines[0].Content)
	assert.Equal(t, 3, hunks[0].Lines[0].NewNum)
	assert.Equal(t, 0, hunks[0].OldCount)
}

func TestUnified(t *testing.T) {
	hunks := LineDiff("a\nb\nc\n", "a\nB\nc\n", 1)
	want := "@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n"
	assert.Equal(t, want, Unified(hunks))

	assert.Equal(t, "@@ -0,0 +3,1 @@\n+c\n", Unified(LineDiff("a\nb\n", "a\nb\nc\n", 0)))
	assert.Empty(t, Unified(nil))
}
