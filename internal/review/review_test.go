package review

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"animreview/internal/schema"
	"animreview/internal/script/scripttest"
	"animreview/internal/source"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGrade(t *testing.T) {
	tests := []struct {
		score float64
		want  Band
	}{
		{100, BandGreen},
		{95, BandGreen},
		{94.99, BandYellow},
		{50, BandYellow},
		{49.9, BandRed},
		{0, BandRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.score), "score %v", tt.score)
	}
}

func TestReviewDocuments(t *testing.T) {
	r := New(schema.Default(), Options{}, nil)
	base := source.FromString("animations.js", scripttest.Valid().WithID("YOUR_GROUP").String())

	rep := r.ReviewDocuments(source.FromString("animations-grp.js", scripttest.Valid().String()), base)
	assert.True(t, rep.Validation.Valid)
	assert.True(t, rep.Comparison.IDChanged)
	assert.Equal(t, BandGreen, rep.Band)
	assert.Equal(t, "animations-grp.js", rep.Name())

	rep = r.ReviewDocuments(source.FromString("animations-bad.js", ""), base)
	assert.False(t, rep.Validation.Valid)
	assert.Equal(t, BandRed, rep.Band)
}

func TestReviewReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	basePath := writeFile(t, dir, "animations.js", scripttest.Valid().String())
	student := writeFile(t, dir, "animations-a.js", scripttest.Valid().WithTiming("T0", 30).String())

	r := New(schema.Default(), Options{BasePath: basePath}, nil)
	rep, err := r.Review(context.Background(), student)
	require.NoError(t, err)

	assert.Equal(t, student, rep.Path)
	assert.Contains(t, rep.Comparison.TimingChanges, "T0")
	assert.Equal(t, basePath, rep.Comparison.BasePath)
}

func TestReviewMissingBaseDegrades(t *testing.T) {
	dir := t.TempDir()
	student := writeFile(t, dir, "animations-a.js", scripttest.Valid().String())

	r := New(schema.Default(), Options{BasePath: filepath.Join(dir, "animations.js")}, nil)
	rep, err := r.Review(context.Background(), student)
	require.NoError(t, err)

	assert.True(t, rep.Validation.Valid)
	assert.Zero(t, rep.Comparison.OverallSimilarity)
	assert.Equal(t, BandRed, rep.Band)
}

func TestReviewCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(schema.Default(), Options{}, nil).Review(ctx, "animations-a.js")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReviewAllKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	basePath := writeFile(t, dir, "animations.js", scripttest.Valid().String())

	var paths []string
	for i, id := range []string{"GRP01A", "GRP02B", "GRP03C", "GRP04D", "GRP05E"} {
		s := scripttest.Valid().WithID(id)
		if i%2 == 1 {
			s = s.WithoutFunction("showIdle")
		}
		paths = append(paths, writeFile(t, dir, "animations-"+id+".js", s.String()))
	}
	paths = append(paths, filepath.Join(dir, "animations-missing.js"))

	r := New(schema.Default(), Options{BasePath: basePath, Workers: 2}, nil)
	batch, err := r.ReviewAll(context.Background(), paths)
	require.NoError(t, err)

	_, err = uuid.Parse(batch.RunID)
	assert.NoError(t, err)
	assert.Equal(t, basePath, batch.BasePath)
	require.Len(t, batch.Reports, len(paths))
	for i, rep := range batch.Reports {
		assert.Equal(t, paths[i], rep.Path)
	}

	last := batch.Reports[len(paths)-1]
	require.Len(t, last.Validation.Errors, 1)
	assert.Contains(t, last.Validation.Errors[0], "Could not read file:")

	sum := batch.Summary()
	assert.Equal(t, 6, sum.Total)
	assert.Equal(t, 3, sum.Valid)
	assert.Equal(t, 3, sum.Invalid)
	// A missing showIdle still leaves 96.25 overall.
	assert.Equal(t, 5, sum.Bands[BandGreen])
	assert.Equal(t, 1, sum.Bands[BandRed])
}

func TestReviewAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(schema.Default(), Options{Workers: 1}, nil).ReviewAll(ctx, []string{"a.js", "b.js"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReviewAllEmpty(t *testing.T) {
	batch, err := New(schema.Default(), Options{}, nil).ReviewAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, batch.Reports)
	assert.Zero(t, batch.Summary().Average)
}
