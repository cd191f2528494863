// Package validate applies the submission rules to extracted fields.
//
// Errors make a submission invalid; warnings never do. Rules run in a fixed
// order (identifier, timings, functions, color arrays, call markers) so the
// output is reproducible.
package validate

import (
	"fmt"
	"strings"

	"animreview/internal/logging"
	"animreview/internal/schema"
	"animreview/internal/script"
	"animreview/internal/source"

	"go.uber.org/zap"
)

const (
	// LowTimingLimit: positive timings below this are suspicious.
	LowTimingLimit = 10
	// MinColors is the smallest color array that does not draw a warning.
	MinColors = 8
)

// Result is the outcome of validating one file.
type Result struct {
	Path     string   `json:"path"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newResult(path string) *Result {
	return &Result{Path: path, Valid: true, Errors: []string{}, Warnings: []string{}}
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Clean reports a valid result with no warnings.
func (r *Result) Clean() bool {
	return r.Valid && len(r.Warnings) == 0
}

// Validator checks Fields against a vocabulary.
type Validator struct {
	vocab     schema.Vocabulary
	extractor *script.Extractor
	logger    *zap.Logger
}

// New builds a validator. logger may be nil.
func New(vocab schema.Vocabulary, logger *zap.Logger) *Validator {
	return &Validator{
		vocab:     vocab.Clone(),
		extractor: script.NewExtractor(vocab, logger),
		logger:    logging.Named(logger, logging.CategoryValidate),
	}
}

// Check extracts and validates a document. A failed read becomes a single
// error and no other rule runs.
func (v *Validator) Check(doc source.Document) *Result {
	if doc.Failed() {
		r := newResult(doc.Path)
		r.addError("Could not read file: %v", doc.Err)
		v.logger.Debug("read failure", zap.String("path", doc.Path), zap.Error(doc.Err))
		return r
	}
	return v.Validate(doc.Path, v.extractor.Extract(doc.Text))
}

// Validate is pure: the same fields always give the same result.
func (v *Validator) Validate(path string, f *script.Fields) *Result {
	r := newResult(path)

	switch {
	case !f.HasID():
		r.addError("Missing 'id' variable")
	case v.vocab.PlaceholderID != "" && f.ID == v.vocab.PlaceholderID:
		r.addError("ID is still '%s' - appears to be unmodified template", v.vocab.PlaceholderID)
	}

	v.checkTimings(r, f)
	v.checkFunctions(r, f)
	v.checkColors(r, f)
	v.checkCallMarkers(r, f)

	v.logger.Debug("validated",
		zap.String("path", path),
		zap.Bool("valid", r.Valid),
		zap.Int("errors", len(r.Errors)),
		zap.Int("warnings", len(r.Warnings)))
	return r
}

func (v *Validator) checkTimings(r *Result, f *script.Fields) {
	var missing []string
	for _, slot := range v.vocab.TimingSlots {
		if _, ok := f.Timing(slot); !ok {
			missing = append(missing, slot)
		}
	}
	if len(missing) > 0 {
		r.addError("Missing timing variables: %s", strings.Join(missing, ", "))
	}

	for _, slot := range v.vocab.TimingSlots {
		if val, ok := f.Timing(slot); ok && val > 0 && val < LowTimingLimit {
			r.addWarning("%s value %d seems too low (typically ≥20)", slot, val)
		}
	}
}

func (v *Validator) checkFunctions(r *Result, f *script.Fields) {
	var missing []string
	for _, name := range v.vocab.RequiredFunctions {
		if _, ok := f.Function(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		r.addError("Missing functions: %s", strings.Join(missing, ", "))
	}
}

func (v *Validator) checkColors(r *Result, f *script.Fields) {
	var missing, undersized []string
	for _, name := range v.vocab.RequiredColorArrays {
		colors, ok := f.ColorArray(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if len(colors) < MinColors {
			undersized = append(undersized, fmt.Sprintf("%s (%d colors)", name, len(colors)))
		}
	}
	if len(missing) > 0 {
		r.addError("Missing color arrays: %s", strings.Join(missing, ", "))
	}
	if len(undersized) > 0 {
		r.addWarning("Arrays with fewer than %d colors: %s", MinColors, strings.Join(undersized, ", "))
	}
}

func (v *Validator) checkCallMarkers(r *Result, f *script.Fields) {
	if v.vocab.CallMarker == "" {
		return
	}
	for _, name := range v.vocab.KeyFunctions {
		body, ok := f.Function(name)
		if ok && !strings.Contains(body, v.vocab.CallMarker) {
			r.addWarning("%s() missing %s() call", name, v.vocab.CallMarker)
		}
	}
}
