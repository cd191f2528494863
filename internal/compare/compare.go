// Package compare scores a student submission against the base template.
//
// Every loop is driven by the base: categories the base does not have score
// 0, and student-only items only surface through ColorChanges.Added.
package compare

import (
	"animreview/internal/diff"
	"animreview/internal/logging"
	"animreview/internal/schema"
	"animreview/internal/script"
	"animreview/internal/source"

	"go.uber.org/zap"
)

// Score weights of the overall similarity.
const (
	TimingWeight   = 0.3
	ColorWeight    = 0.4
	FunctionWeight = 0.3
)

// MatchRatio is the body similarity at which a function counts as unchanged.
const MatchRatio = 0.95

// TimingChange is a slot whose value differs while present on both sides.
type TimingChange struct {
	Base    int `json:"base"`
	Student int `json:"student"`
}

// Delta is Student - Base.
func (c TimingChange) Delta() int {
	return c.Student - c.Base
}

// ColorDiff records a color array present on both sides with different
// contents.
type ColorDiff struct {
	Base    []string `json:"base"`
	Student []string `json:"student"`
	// Differing counts the indexes that differ. Only meaningful when the
	// lengths match.
	Differing int `json:"differing"`
}

// SizeChanged reports a length change; Differing is 0 in that case.
func (d ColorDiff) SizeChanged() bool {
	return len(d.Base) != len(d.Student)
}

func newColorDiff(base, student []string) ColorDiff {
	d := ColorDiff{Base: base, Student: student}
	if !d.SizeChanged() {
		for i := range base {
			if base[i] != student[i] {
				d.Differing++
			}
		}
	}
	return d
}

// Bodies holds both versions of a modified function. Student is empty when
// the student dropped the function.
type Bodies struct {
	Base    string
	Student string
}

// ColorChanges groups color array differences.
type ColorChanges struct {
	Added    []string             `json:"added"`
	Removed  []string             `json:"removed"`
	Modified map[string]ColorDiff `json:"modified"`
}

// Empty reports whether no array differs.
func (c ColorChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// Result is the comparison of one student file with the base.
type Result struct {
	StudentPath string `json:"student_path"`
	BasePath    string `json:"base_path"`

	StudentID string `json:"student_id"`
	BaseID    string `json:"base_id"`
	IDChanged bool   `json:"id_changed"`

	TimingSimilarity   float64 `json:"timing_similarity"`
	ColorSimilarity    float64 `json:"color_similarity"`
	FunctionSimilarity float64 `json:"function_similarity"`
	OverallSimilarity  float64 `json:"overall_similarity"`

	TimingChanges     map[string]TimingChange `json:"timing_changes"`
	ColorChanges      ColorChanges            `json:"color_changes"`
	ModifiedFunctions []string                `json:"modified_functions"`
	ModifiedBodies    map[string]Bodies       `json:"-"`

	// SynthReferences is the student's reference map, unchanged.
	SynthReferences map[string][]string `json:"synth_references"`
}

func newResult(studentPath, basePath string) *Result {
	return &Result{
		StudentPath:       studentPath,
		BasePath:          basePath,
		TimingChanges:     map[string]TimingChange{},
		ColorChanges:      ColorChanges{Added: []string{}, Removed: []string{}, Modified: map[string]ColorDiff{}},
		ModifiedFunctions: []string{},
		ModifiedBodies:    map[string]Bodies{},
		SynthReferences:   map[string][]string{},
	}
}

// HasChanges reports whether any timing, color or function change was found.
// Synth references are reported separately.
func (r *Result) HasChanges() bool {
	return len(r.TimingChanges) > 0 || !r.ColorChanges.Empty() || len(r.ModifiedFunctions) > 0
}

// Comparator compares documents using a shared extractor and diff engine.
type Comparator struct {
	extractor *script.Extractor
	engine    *diff.Engine
	logger    *zap.Logger
}

// New builds a comparator. logger may be nil.
func New(vocab schema.Vocabulary, logger *zap.Logger) *Comparator {
	return &Comparator{
		extractor: script.NewExtractor(vocab, logger),
		engine:    diff.NewEngine(),
		logger:    logging.Named(logger, logging.CategoryCompare),
	}
}

// Engine exposes the diff engine so presenters can render body diffs with
// the same cache.
func (c *Comparator) Engine() *diff.Engine {
	return c.engine
}

// Compare extracts both documents and compares them. When either read
// failed the result keeps only the two paths: every score is 0 and every
// change set is empty.
func (c *Comparator) Compare(student, base source.Document) *Result {
	if student.Failed() || base.Failed() {
		c.logger.Debug("degraded comparison",
			zap.String("student", student.Path),
			zap.String("base", base.Path),
			zap.NamedError("student_err", student.Err),
			zap.NamedError("base_err", base.Err))
		return newResult(student.Path, base.Path)
	}

	r := c.CompareFields(c.extractor.Extract(student.Text), c.extractor.Extract(base.Text))
	r.StudentPath = student.Path
	r.BasePath = base.Path
	return r
}

// CompareFields is the pure core of Compare.
func (c *Comparator) CompareFields(student, base *script.Fields) *Result {
	r := newResult("", "")

	r.StudentID = student.ID
	r.BaseID = base.ID
	r.IDChanged = student.ID != base.ID

	r.TimingSimilarity = c.compareTimings(r, student, base)
	r.ColorSimilarity = c.compareColors(r, student, base)
	r.FunctionSimilarity = c.compareFunctions(r, student, base)
	r.OverallSimilarity = Overall(r.TimingSimilarity, r.ColorSimilarity, r.FunctionSimilarity)

	for scope, cats := range student.SynthRefs {
		r.SynthReferences[scope] = append([]string(nil), cats...)
	}

	c.logger.Debug("compared",
		zap.String("student_id", r.StudentID),
		zap.Float64("overall", r.OverallSimilarity),
		zap.Int("timing_changes", len(r.TimingChanges)),
		zap.Int("modified_functions", len(r.ModifiedFunctions)))
	return r
}

// compareTimings counts equal slots. Mismatches with a missing side are not
// recorded as changes.
func (c *Comparator) compareTimings(r *Result, student, base *script.Fields) float64 {
	total, matches := len(base.Timings), 0
	for slot, bv := range base.Timings {
		sv, ok := student.Timings[slot]
		if !ok {
			sv = schema.TimingMissing
		}
		if sv == bv {
			matches++
			continue
		}
		if bv != schema.TimingMissing && sv != schema.TimingMissing {
			r.TimingChanges[slot] = TimingChange{Base: bv, Student: sv}
		}
	}
	return percent(matches, total)
}

func (c *Comparator) compareColors(r *Result, student, base *script.Fields) float64 {
	total, matches := len(base.ColorOrder), 0
	for _, name := range base.ColorOrder {
		bc := base.Colors[name]
		sc, ok := student.Colors[name]
		switch {
		case !ok:
			r.ColorChanges.Removed = append(r.ColorChanges.Removed, name)
		case equalSeq(bc, sc):
			matches++
		default:
			r.ColorChanges.Modified[name] = newColorDiff(bc, sc)
		}
	}

	for _, name := range student.ColorOrder {
		if _, ok := base.Colors[name]; !ok {
			r.ColorChanges.Added = append(r.ColorChanges.Added, name)
		}
	}
	return percent(matches, total)
}

func (c *Comparator) compareFunctions(r *Result, student, base *script.Fields) float64 {
	total, matches := len(base.FunctionOrder), 0
	for _, name := range base.FunctionOrder {
		sb, ok := student.Functions[name]
		if ok && c.engine.Ratio(base.Functions[name], sb) >= MatchRatio {
			matches++
			continue
		}
		r.ModifiedFunctions = append(r.ModifiedFunctions, name)
		r.ModifiedBodies[name] = Bodies{Base: base.Functions[name], Student: sb}
	}
	return percent(matches, total)
}

// Overall combines the three category scores with the fixed weights. Each
// input is clamped to [0,100] first.
func Overall(timing, color, function float64) float64 {
	return TimingWeight*clamp(timing) + ColorWeight*clamp(color) + FunctionWeight*clamp(function)
}

func percent(matches, total int) float64 {
	if total == 0 {
		return 0
	}
	return clamp(float64(matches) / float64(total) * 100)
}

func clamp(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

func equalSeq(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
