// Package diff wraps sergi/go-diff for the two things a review needs: a
// similarity ratio between two function bodies and line hunks for showing
// what changed.
package diff

import (
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType marks a line inside a hunk.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// Line is one line of a hunk. OldNum/NewNum are 1-based, 0 when the line
// does not exist on that side.
type Line struct {
	OldNum  int
	NewNum  int
	Content string
	Type    LineType
}

// Hunk is a run of changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// Engine computes diffs and caches ratios for repeated pairs.
type Engine struct {
	dmp    *diffmatchpatch.DiffMatchPatch
	ratios sync.Map // pairKey -> float64
}

type pairKey struct {
	a, b uint64
}

// NewEngine returns an engine with the timeout disabled, which keeps
// DiffMain on the exact (minimal) edit script.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Engine{dmp: dmp}
}

// DefaultEngine is shared by callers that do not need their own cache.
var DefaultEngine = NewEngine()

// Ratio returns 2*M/T where M is the number of runes in the longest common
// subsequence of a and b and T the total rune count. Two empty strings are
// identical (1.0).
func (e *Engine) Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}

	key := pairKey{hash(a), hash(b)}
	if v, ok := e.ratios.Load(key); ok {
		return v.(float64)
	}

	matched := 0
	for _, d := range e.dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(d.Text)
		}
	}
	r := 2 * float64(matched) / float64(total)

	e.ratios.Store(key, r)
	return r
}

// Ratio uses DefaultEngine.
func Ratio(a, b string) float64 {
	return DefaultEngine.Ratio(a, b)
}

// ClearCache drops every cached ratio.
func (e *Engine) ClearCache() {
	e.ratios.Range(func(k, _ any) bool {
		e.ratios.Delete(k)
		return true
	})
}

// LineDiff returns the hunks turning oldText into newText, with context lines of
// unchanged text around each change. Identical inputs yield nil.
func (e *Engine) LineDiff(oldText, newText string, context int) []Hunk {
	if oldText == newText {
		return nil
	}
	if context < 0 {
		context = 0
	}

	a, b, lines := e.dmp.DiffLinesToChars(oldText, newText)
	diffs := e.dmp.DiffCharsToLines(e.dmp.DiffMain(a, b, false), lines)

	ops := toLines(diffs)
	return group(ops, context)
}

// LineDiff uses DefaultEngine.
func LineDiff(oldText, newText string, context int) []Hunk {
	return DefaultEngine.LineDiff(oldText, newText, context)
}

func toLines(diffs []diffmatchpatch.Diff) []Line {
	var out []Line
	oldNum, newNum := 0, 0
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if d.Text == "" {
			continue
		}
		for _, content := range strings.Split(text, "\n") {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				oldNum++
				newNum++
				out = append(out, Line{OldNum: oldNum, NewNum: newNum, Content: content, Type: LineContext})
			case diffmatchpatch.DiffDelete:
				oldNum++
				out = append(out, Line{OldNum: oldNum, Content: content, Type: LineRemoved})
			case diffmatchpatch.DiffInsert:
				newNum++
				out = append(out, Line{NewNum: newNum, Content: content, Type: LineAdded})
			}
		}
	}
	return out
}

// group cuts ops into hunks: every change plus up to context lines on each
// side, merging windows that touch.
func group(ops []Line, context int) []Hunk {
	var hunks []Hunk
	start, end := -1, -1
	flush := func() {
		if start < 0 {
			return
		}
		hunks = append(hunks, newHunk(ops[start:end]))
		start, end = -1, -1
	}

	for i, op := range ops {
		if op.Type == LineContext {
			continue
		}
		lo := i - context
		if lo < 0 {
			lo = 0
		}
		hi := i + context + 1
		if hi > len(ops) {
			hi = len(ops)
		}
		if start >= 0 && lo > end {
			flush()
		}
		if start < 0 {
			start = lo
		}
		end = hi
	}
	flush()
	return hunks
}

func newHunk(lines []Line) Hunk {
	h := Hunk{Lines: append([]Line(nil), lines...)}
	for _, l := range lines {
		if l.Type != LineAdded {
			h.OldCount++
			if h.OldStart == 0 {
				h.OldStart = l.OldNum
			}
		}
		if l.Type != LineRemoved {
			h.NewCount++
			if h.NewStart == 0 {
				h.NewStart = l.NewNum
			}
		}
	}
	return h
}

func hash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// String renders the hunk in unified format without file headers.
func (h Hunk) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	for _, l := range h.Lines {
		sb.WriteByte(l.Type.Prefix())
		sb.WriteString(l.Content)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Prefix is the unified-diff marker for the line type.
func (t LineType) Prefix() byte {
	switch t {
	case LineAdded:
		return '+'
	case LineRemoved:
		return '-'
	default:
		return ' '
	}
}

// Unified joins the rendered hunks.
func Unified(hunks []Hunk) string {
	var sb strings.Builder
	for _, h := range hunks {
		sb.WriteString(h.String())
	}
	return sb.String()
}
