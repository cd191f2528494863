// Package scripttest builds animation scripts for tests in the shape of the
// donald-2021 template.
package scripttest

import (
	"fmt"
	"strings"
)

// Array is a color array declaration.
type Array struct {
	Name   string
	Colors []string
}

// Func is a top-level function definition.
type Func struct {
	Name string
	Body string
}

// Script describes a submission. Empty ID omits the declaration; a slot
// missing from Timings is omitted as well.
type Script struct {
	ID        string
	Timings   map[string]int
	Arrays    []Array
	Functions []Func
	Prelude   string // global text placed after the timings
	Trailer   string // global text appended at the end
}

var timingNames = []string{
	"T0_IDLE", "T1_WARN", "T2_SHOWTEST", "T3_DECAY",
	"T4_COUNTDOWN", "T5_TIMEOUT", "T6_CORRECT", "T7_INCORRECT",
}

var pairs = []struct{ fn, colors string }{
	{"showIdle", "idleColors"},
	{"showPrepare", "prepColors"},
	{"showTestStep", "blokColors"},
	{"showDecay", "decayColors"},
	{"showCountdown", "countColors"},
	{"showTimeout", "timeoutColors"},
	{"showSuccess", "successColors"},
	{"showFailure", "failColors"},
}

// Twelve returns a 12-entry color sequence starting with lead.
func Twelve(lead string) []string {
	out := []string{lead}
	for len(out) < 12 {
		out = append(out, "black")
	}
	return out
}

// Valid returns a submission that passes every validation rule.
func Valid() Script {
	s := Script{
		ID: "GRP08E",
		Timings: map[string]int{
			"T0": 20, "T1": 120, "T2": 40, "T3": 120,
			"T4": 360, "T5": 120, "T6": 120, "T7": 120,
		},
	}
	for _, p := range pairs {
		s.Arrays = append(s.Arrays, Array{Name: p.colors, Colors: Twelve("red")})
		s.Functions = append(s.Functions, Func{
			Name: p.fn,
			Body: fmt.Sprintf("showButtons();\n  showLeds(%s);\n  %s.rotateRight(1);", p.colors, p.colors),
		})
	}
	return s
}

// WithID returns a copy with a different identifier.
func (s Script) WithID(id string) Script {
	s.ID = id
	return s
}

// WithTiming returns a copy with slot set to v.
func (s Script) WithTiming(slot string, v int) Script {
	t := make(map[string]int, len(s.Timings))
	for k, val := range s.Timings {
		t[k] = val
	}
	t[slot] = v
	s.Timings = t
	return s
}

// WithoutTiming returns a copy without slot.
func (s Script) WithoutTiming(slot string) Script {
	t := make(map[string]int, len(s.Timings))
	for k, val := range s.Timings {
		if k != slot {
			t[k] = val
		}
	}
	s.Timings = t
	return s
}

// WithArray returns a copy where name holds colors, added at the end when new.
func (s Script) WithArray(name string, colors ...string) Script {
	arrays := make([]Array, 0, len(s.Arrays)+1)
	replaced := false
	for _, a := range s.Arrays {
		if a.Name == name {
			a = Array{Name: name, Colors: colors}
			replaced = true
		}
		arrays = append(arrays, a)
	}
	if !replaced {
		arrays = append(arrays, Array{Name: name, Colors: colors})
	}
	s.Arrays = arrays
	return s
}

// WithoutArray returns a copy without the named array.
func (s Script) WithoutArray(name string) Script {
	arrays := make([]Array, 0, len(s.Arrays))
	for _, a := range s.Arrays {
		if a.Name != name {
			arrays = append(arrays, a)
		}
	}
	s.Arrays = arrays
	return s
}

// WithFunction returns a copy where name has body, added at the end when new.
func (s Script) WithFunction(name, body string) Script {
	funcs := make([]Func, 0, len(s.Functions)+1)
	replaced := false
	for _, f := range s.Functions {
		if f.Name == name {
			f = Func{Name: name, Body: body}
			replaced = true
		}
		funcs = append(funcs, f)
	}
	if !replaced {
		funcs = append(funcs, Func{Name: name, Body: body})
	}
	s.Functions = funcs
	return s
}

// WithoutFunction returns a copy without the named function.
func (s Script) WithoutFunction(name string) Script {
	funcs := make([]Func, 0, len(s.Functions))
	for _, f := range s.Functions {
		if f.Name != name {
			funcs = append(funcs, f)
		}
	}
	s.Functions = funcs
	return s
}

// String renders the script as JavaScript source.
func (s Script) String() string {
	var sb strings.Builder
	sb.WriteString("//\n// timings in frames not milliseconds!\n//\n")
	if s.ID != "" {
		fmt.Fprintf(&sb, "var id             = '%s';\n\n", s.ID)
	}
	for i, name := range timingNames {
		slot := fmt.Sprintf("T%d", i)
		if v, ok := s.Timings[slot]; ok {
			fmt.Fprintf(&sb, "var %-14s = %d;\n", name, v)
		}
	}
	sb.WriteString("\n")
	if s.Prelude != "" {
		sb.WriteString(s.Prelude)
		sb.WriteString("\n\n")
	}
	for _, a := range s.Arrays {
		fmt.Fprintf(&sb, "var %s = new Array(\n", a.Name)
		for i, c := range a.Colors {
			sep := ","
			if i == len(a.Colors)-1 {
				sep = ""
			}
			fmt.Fprintf(&sb, "  '%s'%s // named color\n", c, sep)
		}
		sb.WriteString("  );\n\n")
	}
	for _, f := range s.Functions {
		fmt.Fprintf(&sb, "function %s() {\n  %s\n}\n\n", f.Name, f.Body)
	}
	if s.Trailer != "" {
		sb.WriteString(s.Trailer)
		sb.WriteString("\n")
	}
	return sb.String()
}
