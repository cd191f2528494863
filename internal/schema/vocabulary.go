// Package schema holds the fixed name sets that extraction, validation and
// comparison depend on. The defaults describe the animation template handed
// out to students; a config file may replace any of them.
package schema

import (
	"fmt"
	"strings"
)

// Sentinels produced by extraction when a field is absent.
const (
	IDNotFound    = "NOT_FOUND"
	TimingMissing = -1
	GlobalScope   = "global"
)

// WatchedSymbol is an external API reference the review flags, e.g. the
// p5.sound synthesizers. Category is what gets recorded per scope; Token is
// the literal text searched for.
type WatchedSymbol struct {
	Category string `yaml:"category" json:"category"`
	Token    string `yaml:"token" json:"token"`
}

// Vocabulary is the complete set of names a submission is judged against.
type Vocabulary struct {
	TimingSlots         []string        `yaml:"timing_slots" json:"timing_slots"`
	RequiredFunctions   []string        `yaml:"required_functions" json:"required_functions"`
	RequiredColorArrays []string        `yaml:"required_color_arrays" json:"required_color_arrays"`
	KeyFunctions        []string        `yaml:"key_functions" json:"key_functions"`
	CallMarker          string          `yaml:"call_marker" json:"call_marker"`
	WatchedSymbols      []WatchedSymbol `yaml:"watched_symbols" json:"watched_symbols"`
	PlaceholderID       string          `yaml:"placeholder_id" json:"placeholder_id"`
}

// Default returns the vocabulary of the donald-2021 animation template.
func Default() Vocabulary {
	return Vocabulary{
		TimingSlots: []string{"T0", "T1", "T2", "T3", "T4", "T5", "T6", "T7"},
		RequiredFunctions: []string{
			"showIdle",
			"showPrepare",
			"showTestStep",
			"showDecay",
			"showCountdown",
			"showTimeout",
			"showSuccess",
			"showFailure",
		},
		RequiredColorArrays: []string{
			"idleColors",
			"prepColors",
			"blokColors",
			"decayColors",
			"countColors",
			"timeoutColors",
			"successColors",
			"failColors",
		},
		KeyFunctions: []string{
			"showIdle",
			"showPrepare",
			"showDecay",
			"showCountdown",
			"showTimeout",
		},
		CallMarker: "showLeds",
		WatchedSymbols: []WatchedSymbol{
			{Category: "PolySynth", Token: "p5.PolySynth"},
			{Category: "Oscillator", Token: "p5.Oscillator"},
		},
		PlaceholderID: "YOUR_GROUP",
	}
}

// Clone returns a deep copy so callers can tweak a vocabulary without
// touching the one it came from.
func (v Vocabulary) Clone() Vocabulary {
	out := v
	out.TimingSlots = append([]string(nil), v.TimingSlots...)
	out.RequiredFunctions = append([]string(nil), v.RequiredFunctions...)
	out.RequiredColorArrays = append([]string(nil), v.RequiredColorArrays...)
	out.KeyFunctions = append([]string(nil), v.KeyFunctions...)
	out.WatchedSymbols = append([]WatchedSymbol(nil), v.WatchedSymbols...)
	return out
}

// Validate reports vocabularies that would make extraction meaningless.
func (v Vocabulary) Validate() error {
	if len(v.TimingSlots) == 0 {
		return fmt.Errorf("vocabulary: no timing slots")
	}
	seen := make(map[string]bool, len(v.TimingSlots))
	for _, slot := range v.TimingSlots {
		if slot == "" || strings.ContainsAny(slot, " \t_") {
			return fmt.Errorf("vocabulary: invalid timing slot %q", slot)
		}
		if seen[slot] {
			return fmt.Errorf("vocabulary: duplicate timing slot %q", slot)
		}
		seen[slot] = true
	}
	for _, sym := range v.WatchedSymbols {
		if sym.Category == "" || sym.Token == "" {
			return fmt.Errorf("vocabulary: watched symbol needs category and token (got %+v)", sym)
		}
	}
	if len(v.KeyFunctions) > 0 && v.CallMarker == "" {
		return fmt.Errorf("vocabulary: key functions configured without a call marker")
	}
	return nil
}
