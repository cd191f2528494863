// Package script extracts the reviewable fields of an animation script with
// regular expressions. There is no parser: anything the patterns do not
// recognise is treated as absent.
package script

import (
	"sort"

	"animreview/internal/schema"
)

// Fields is everything extraction pulls out of one script.
type Fields struct {
	ID string `json:"id"`

	// Timings has one entry per vocabulary slot; schema.TimingMissing marks
	// an absent slot.
	Timings map[string]int `json:"timings"`

	Colors     map[string][]string `json:"colors"`
	ColorOrder []string            `json:"color_order"`

	Functions     map[string]string `json:"functions"`
	FunctionOrder []string          `json:"function_order"`

	// SynthRefs maps a scope (function name or schema.GlobalScope) to the
	// sorted, distinct watched-symbol categories referenced there.
	SynthRefs map[string][]string `json:"synth_refs"`
}

func newFields() *Fields {
	return &Fields{
		ID:        schema.IDNotFound,
		Timings:   make(map[string]int),
		Colors:    make(map[string][]string),
		Functions: make(map[string]string),
		SynthRefs: make(map[string][]string),
	}
}

// HasID reports whether an identifier was found.
func (f *Fields) HasID() bool {
	return f.ID != schema.IDNotFound
}

// Timing returns the value of slot and whether it was present.
func (f *Fields) Timing(slot string) (int, bool) {
	v, ok := f.Timings[slot]
	if !ok || v == schema.TimingMissing {
		return schema.TimingMissing, false
	}
	return v, true
}

// Function returns the trimmed body of name.
func (f *Fields) Function(name string) (string, bool) {
	body, ok := f.Functions[name]
	return body, ok
}

// ColorArray returns the sequence stored under name.
func (f *Fields) ColorArray(name string) ([]string, bool) {
	colors, ok := f.Colors[name]
	return colors, ok
}

// Scopes returns the scopes with synth references, global first and the
// rest sorted.
func (f *Fields) Scopes() []string {
	scopes := make([]string, 0, len(f.SynthRefs))
	for scope := range f.SynthRefs {
		if scope != schema.GlobalScope {
			scopes = append(scopes, scope)
		}
	}
	sort.Strings(scopes)
	if _, ok := f.SynthRefs[schema.GlobalScope]; ok {
		scopes = append([]string{schema.GlobalScope}, scopes...)
	}
	return scopes
}
