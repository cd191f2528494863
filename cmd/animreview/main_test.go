package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"animreview/internal/config"
	"animreview/internal/review"
	"animreview/internal/script"
	"animreview/internal/script/scripttest"
	"animreview/internal/source"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ANIMREVIEW_DIR", "ANIMREVIEW_BASE", "ANIMREVIEW_LOG_LEVEL", "ANIMREVIEW_THEME"} {
		t.Setenv(k, "")
	}
	reset := func() {
		logger = zap.NewNop()
		cfg = config.DefaultConfig()
		verbose, validateOnly, noWatch = false, false, false
		configPath, baseFile, workers = config.DefaultPath, "", 0
		outFormat, withDiffs, renderOutput, forceInit = "text", false, false, false
	}
	reset()
	t.Cleanup(reset)
}

// fixtureDir holds a base template and two submissions, the second with a
// timing change and a rewritten showIdle.
func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write("animations.js", scripttest.Valid().WithID("YOUR_GROUP").String())
	write("animations-aaa.js", scripttest.Valid().String())
	write("animations-bbb.js", scripttest.Valid().
		WithTiming("T3", 90).
		WithFunction("showIdle", "background(0);\n  noLoop();").
		String())
	write("notes.txt", "not a submission")
	return dir
}

func run(t *testing.T, fn func(*cobra.Command, []string) error, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	err := fn(cmd, args)
	return buf.String(), err
}

func TestRunCheckText(t *testing.T) {
	resetGlobals(t)
	dir := fixtureDir(t)

	out, err := run(t, runCheck, dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Found 2 animation file(s)")
	assert.Contains(t, out, "Base file: "+filepath.Join(dir, "animations.js"))
	assert.Contains(t, out, "File: animations-aaa.js")
	assert.Contains(t, out, "File: animations-bbb.js")
	assert.Contains(t, out, "T3: 120 → 90  (-30)")
	assert.Contains(t, out, "2 valid, 0 invalid")
	assert.NotContains(t, out, "notes.txt")
	assert.True(t, strings.Index(out, "animations-aaa.js") < strings.Index(out, "animations-bbb.js"))
}

func TestRunCheckJSON(t *testing.T) {
	resetGlobals(t)
	outFormat = "json"

	out, err := run(t, runCheck, fixtureDir(t))
	require.NoError(t, err)

	var batch review.Batch
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	assert.NotEmpty(t, batch.RunID)
	require.Len(t, batch.Reports, 2)
	assert.Equal(t, review.BandGreen, batch.Reports[0].Band)
	assert.Equal(t, []string{"showIdle"}, batch.Reports[1].Comparison.ModifiedFunctions)
}

func TestRunCheckRenderedMarkdown(t *testing.T) {
	resetGlobals(t)
	cfg.UI.Theme = config.ThemeLight
	outFormat, renderOutput = "markdown", true

	out, err := run(t, runCheck, fixtureDir(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Animation review")
	assert.NotContains(t, out, "# Animation review")
}

func TestRunCheckErrors(t *testing.T) {
	t.Run("missing base", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		_, err := run(t, runCheck, dir)
		assert.ErrorIs(t, err, source.ErrBaseNotFound)
	})
	t.Run("no submissions", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "animations.js"), []byte(scripttest.Valid().String()), 0644))
		_, err := run(t, runCheck, dir)
		assert.ErrorIs(t, err, source.ErrNoSubmissions)
	})
	t.Run("bad format", func(t *testing.T) {
		resetGlobals(t)
		outFormat = "html"
		_, err := run(t, runCheck, fixtureDir(t))
		assert.Error(t, err)
	})
}

func TestRunCheckBaseOverride(t *testing.T) {
	resetGlobals(t)
	dir := fixtureDir(t)
	other := filepath.Join(t.TempDir(), "template.js")
	require.NoError(t, os.WriteFile(other, []byte(scripttest.Valid().WithTiming("T3", 90).String()), 0644))
	cfg.Review.BaseFile = other

	out, err := run(t, runCheck, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Base file: "+other)
	assert.Contains(t, out, "T3: 90 → 120  (+30)")
}

func TestRunCompare(t *testing.T) {
	resetGlobals(t)
	dir := fixtureDir(t)

	out, err := run(t, runCompare, filepath.Join(dir, "animations-bbb.js"))
	require.NoError(t, err)
	assert.Contains(t, out, "File: animations-bbb.js")
	assert.Contains(t, out, "ID Changed: 'YOUR_GROUP' → 'GRP08E'")
	assert.Contains(t, out, "showIdle()")
	assert.NotContains(t, out, "Found")
}

func TestRunCompareMarkdownWithDiffs(t *testing.T) {
	resetGlobals(t)
	outFormat, withDiffs = "markdown", true

	out, err := run(t, runCompare, filepath.Join(fixtureDir(t), "animations-bbb.js"))
	require.NoError(t, err)
	assert.Contains(t, out, "```diff")
	assert.Contains(t, out, "+  noLoop();")
}

func TestRunCompareMissingSubmission(t *testing.T) {
	resetGlobals(t)
	_, err := run(t, runCompare, filepath.Join(fixtureDir(t), "animations-zzz.js"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunExtract(t *testing.T) {
	resetGlobals(t)
	out, err := run(t, runExtract, filepath.Join(fixtureDir(t), "animations-bbb.js"))
	require.NoError(t, err)

	var f script.Fields
	require.NoError(t, json.Unmarshal([]byte(out), &f))
	assert.Equal(t, "GRP08E", f.ID)
	assert.Equal(t, 90, f.Timings["T3"])
	assert.Equal(t, "background(0);\n  noLoop();", f.Functions["showIdle"])

	_, err = run(t, runExtract, filepath.Join(t.TempDir(), "missing.js"))
	assert.ErrorContains(t, err, "failed to read script")
}

func TestRunConfigInit(t *testing.T) {
	resetGlobals(t)
	configPath = filepath.Join(t.TempDir(), "animreview.yaml")

	out, err := run(t, runConfigInit)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+configPath)

	_, err = run(t, runConfigInit)
	assert.ErrorContains(t, err, "already exists")

	forceInit = true
	_, err = run(t, runConfigInit)
	require.NoError(t, err)

	loaded, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), loaded)
}

func TestRunConfigShow(t *testing.T) {
	resetGlobals(t)
	cfg.Review.Directory = "/srv/subs"

	out, err := run(t, runConfigShow)
	require.NoError(t, err)
	assert.Contains(t, out, "directory: /srv/subs")
	assert.Contains(t, out, "timing_slots:")
}

func TestSetupAppliesFlags(t *testing.T) {
	resetGlobals(t)
	configPath = filepath.Join(t.TempDir(), "absent.yaml")
	baseFile = "/tmp/template.js"
	workers = 3

	require.NoError(t, setup(checkCmd, nil))
	assert.Equal(t, "/tmp/template.js", cfg.BasePath())
	assert.Equal(t, 3, cfg.Review.Workers)
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestSetupInteractiveLogsNowhere(t *testing.T) {
	resetGlobals(t)
	configPath = filepath.Join(t.TempDir(), "absent.yaml")

	require.NoError(t, setup(rootCmd, nil))
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))

	validateOnly = true
	require.NoError(t, setup(rootCmd, nil))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	resetGlobals(t)
	configPath = filepath.Join(t.TempDir(), "animreview.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: loud\n"), 0644))

	err := setup(checkCmd, nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
