package script

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"animreview/internal/logging"
	"animreview/internal/schema"

	"go.uber.org/zap"
)

// declPrefix accepts a var/let/const declaration or a bare assignment at the
// start of a line.
const declPrefix = `(?:\b(?:var|let|const)\s+|^[ \t]*)`

var (
	idPattern       = regexp.MustCompile(`(?m)` + declPrefix + `id\s*=\s*['"]([^'"]+)['"]`)
	colorPattern    = regexp.MustCompile(`(?m)` + declPrefix + `(\w+Colors)\s*=\s*(?:new\s+Array\(([\s\S]*?)\);|\[([\s\S]*?)\])`)
	quotedPattern   = regexp.MustCompile(`['"]([^'"]+)['"]`)
	functionPattern = regexp.MustCompile(`function\s+(\w+)\s*\((.*?)\)\s*\{([\s\S]*?)\n\}`)
)

// Extractor turns raw script text into Fields. It is safe for concurrent use.
type Extractor struct {
	vocab   schema.Vocabulary
	timings map[string]*regexp.Regexp
	synth   *regexp.Regexp
	tokens  map[string]string // watched token -> category
	logger  *zap.Logger
}

// NewExtractor compiles the per-vocabulary patterns once. logger may be nil.
func NewExtractor(vocab schema.Vocabulary, logger *zap.Logger) *Extractor {
	e := &Extractor{
		vocab:   vocab.Clone(),
		timings: make(map[string]*regexp.Regexp, len(vocab.TimingSlots)),
		tokens:  make(map[string]string, len(vocab.WatchedSymbols)),
		logger:  logging.Named(logger, logging.CategoryExtract),
	}

	for _, slot := range vocab.TimingSlots {
		e.timings[slot] = regexp.MustCompile(`(?m)` + declPrefix + regexp.QuoteMeta(slot) + `_\w+\s*=\s*(\d+)`)
	}

	if len(vocab.WatchedSymbols) > 0 {
		// Longest token first so a token that prefixes another cannot win.
		toks := make([]string, 0, len(vocab.WatchedSymbols))
		for _, sym := range vocab.WatchedSymbols {
			e.tokens[sym.Token] = sym.Category
			toks = append(toks, sym.Token)
		}
		sort.SliceStable(toks, func(i, j int) bool { return len(toks[i]) > len(toks[j]) })
		alts := make([]string, len(toks))
		for i, tok := range toks {
			alts[i] = regexp.QuoteMeta(tok)
		}
		e.synth = regexp.MustCompile(strings.Join(alts, "|"))
	}

	return e
}

// Vocabulary returns the vocabulary the extractor was built with.
func (e *Extractor) Vocabulary() schema.Vocabulary {
	return e.vocab.Clone()
}

// Extract never fails; absent fields come back as sentinels.
func (e *Extractor) Extract(content string) *Fields {
	f := newFields()

	if m := idPattern.FindStringSubmatch(content); m != nil {
		f.ID = m[1]
	}

	for _, slot := range e.vocab.TimingSlots {
		f.Timings[slot] = schema.TimingMissing
		m := e.timings[slot].FindStringSubmatch(content)
		if m == nil {
			continue
		}
		if v, err := strconv.Atoi(m[1]); err == nil {
			f.Timings[slot] = v
		}
	}

	e.extractColors(content, f)
	spans := e.extractFunctions(content, f)
	e.extractSynthRefs(content, spans, f)

	e.logger.Debug("extracted fields",
		zap.String("id", f.ID),
		zap.Int("colors", len(f.Colors)),
		zap.Int("functions", len(f.Functions)),
		zap.Int("synth_scopes", len(f.SynthRefs)))

	return f
}

func (e *Extractor) extractColors(content string, f *Fields) {
	for _, m := range colorPattern.FindAllStringSubmatch(content, -1) {
		name := m[1]
		inner := m[2]
		if inner == "" {
			inner = m[3]
		}

		colors := make([]string, 0)
		for _, tok := range quotedPattern.FindAllStringSubmatch(inner, -1) {
			colors = append(colors, tok[1])
		}

		if _, seen := f.Colors[name]; !seen {
			f.ColorOrder = append(f.ColorOrder, name)
		}
		f.Colors[name] = colors
	}
}

// extractFunctions fills f.Functions and returns the byte spans of every
// matched definition so the global scope can be computed from what is left.
func (e *Extractor) extractFunctions(content string, f *Fields) [][2]int {
	matches := functionPattern.FindAllStringSubmatchIndex(content, -1)
	spans := make([][2]int, 0, len(matches))
	for _, m := range matches {
		name := content[m[2]:m[3]]
		body := strings.TrimSpace(content[m[6]:m[7]])

		if _, seen := f.Functions[name]; !seen {
			f.FunctionOrder = append(f.FunctionOrder, name)
		}
		f.Functions[name] = body
		spans = append(spans, [2]int{m[0], m[1]})
	}
	return spans
}

func (e *Extractor) extractSynthRefs(content string, spans [][2]int, f *Fields) {
	if e.synth == nil {
		return
	}

	for _, name := range f.FunctionOrder {
		e.addRefs(f, name, f.Functions[name])
	}

	var global strings.Builder
	prev := 0
	for _, s := range spans {
		global.WriteString(content[prev:s[0]])
		global.WriteByte('\n')
		prev = s[1]
	}
	global.WriteString(content[prev:])
	e.addRefs(f, schema.GlobalScope, global.String())
}

func (e *Extractor) addRefs(f *Fields, scope, text string) {
	found := e.synth.FindAllString(text, -1)
	if len(found) == 0 {
		return
	}

	set := make(map[string]bool, len(f.SynthRefs[scope])+len(found))
	for _, cat := range f.SynthRefs[scope] {
		set[cat] = true
	}
	for _, tok := range found {
		set[e.tokens[tok]] = true
	}

	cats := make([]string, 0, len(set))
	for cat := range set {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	f.SynthRefs[scope] = cats
}
