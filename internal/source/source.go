// Package source acquires submission text from disk. A failed read is not
// returned as an error; it travels inside the Document so validation and
// comparison can degrade instead of aborting a whole batch.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"
)

// Defaults for the donald-2021 layout: submissions sit next to the template.
const (
	DefaultPattern  = "animations-*.js"
	DefaultBaseName = "animations.js"
)

var (
	// ErrBaseNotFound is returned by ResolveBase when the template is missing.
	ErrBaseNotFound = errors.New("base file not found")
	// ErrNoSubmissions is returned by Discover when nothing matches.
	ErrNoSubmissions = errors.New("no submission files found")
	// ErrNotUTF8 marks a file that was read but is not text.
	ErrNotUTF8 = errors.New("not valid UTF-8")
)

// Document is the outcome of reading one script file.
type Document struct {
	Path string
	Text string
	Err  error
}

// Failed reports whether the read failed. Text is empty in that case.
func (d Document) Failed() bool {
	return d.Err != nil
}

// Name is the base name of the document path.
func (d Document) Name() string {
	return filepath.Base(d.Path)
}

// FromString wraps in-memory text, mostly for tests and stdin.
func FromString(path, text string) Document {
	return Document{Path: path, Text: text}
}

// Read loads a whole file. Invalid UTF-8 is treated as a read failure.
func Read(path string) Document {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{Path: path, Err: err}
	}
	if !utf8.Valid(data) {
		return Document{Path: path, Err: fmt.Errorf("%s: %w", path, ErrNotUTF8)}
	}
	return Document{Path: path, Text: string(data)}
}

// Discover lists the submissions in dir matching pattern, skipping any file
// whose base name is in exclude. Results are sorted.
func Discover(dir, pattern string, exclude ...string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	if pattern == "" {
		pattern = DefaultPattern
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if skip[filepath.Base(m)] {
			continue
		}
		if fi, err := os.Stat(m); err != nil || fi.IsDir() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoSubmissions, pattern, dir)
	}
	return files, nil
}

// ResolveBase picks the base template: override when set, otherwise
// animations.js inside dir. The returned path is absolute.
func ResolveBase(dir, override string) (string, error) {
	path := override
	if path == "" {
		path = filepath.Join(dir, DefaultBaseName)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil || fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrBaseNotFound, abs)
	}
	return abs, nil
}

// Matches reports whether name would be picked up by Discover.
func Matches(name, pattern string, exclude ...string) bool {
	if pattern == "" {
		pattern = DefaultPattern
	}
	base := filepath.Base(name)
	for _, ex := range exclude {
		if base == ex {
			return false
		}
	}
	ok, err := filepath.Match(pattern, base)
	return err == nil && ok
}
