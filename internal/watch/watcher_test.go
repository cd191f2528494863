package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()
	w, err := New(dir, Options{
		Exclude:  []string{"animations.js"},
		Base:     "animations.js",
		Debounce: 40 * time.Millisecond,
	}, nil)
	require.NoError(t, err)
	return w
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
	return Event{}
}

func TestWatcherReportsSubmissionChanges(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	sub := filepath.Join(dir, "animations-grp.js")
	require.NoError(t, os.WriteFile(sub, []byte("var id = 'A';"), 0644))

	ev := waitEvent(t, w)
	assert.Equal(t, []string{sub}, ev.Paths)

	stats := w.Stats()
	assert.GreaterOrEqual(t, stats.Created+stats.Modified, 1)
	assert.Equal(t, sub, stats.LastPath)
	assert.GreaterOrEqual(t, stats.Batches, 1)
}

func TestWatcherReportsBaseChanges(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	base := filepath.Join(dir, "animations.js")
	require.NoError(t, os.WriteFile(base, []byte("var id = 'YOUR_GROUP';"), 0644))

	ev := waitEvent(t, w)
	assert.Equal(t, []string{base}, ev.Paths)
}

func TestWatcherRelevant(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())
	defer w.Stop()

	assert.True(t, w.Relevant("/x/animations-a.js"))
	assert.True(t, w.Relevant("/x/animations.js"))
	assert.False(t, w.Relevant("/x/animations-a.js.swp"))
	assert.False(t, w.Relevant("/x/readme.md"))
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()

	_, ok := <-w.Events()
	assert.False(t, ok)
	assert.Error(t, w.Start(context.Background()))
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	cancel()
	select {
	case _, ok := <-w.Events():
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("event loop did not exit")
	}
	w.Stop()
}

func TestWatcherStopWithoutStart(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())
	w.Stop()
	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestWatcherMissingDir(t *testing.T) {
	w := newTestWatcher(t, filepath.Join(t.TempDir(), "nope"))
	defer w.Stop()
	assert.Error(t, w.Start(context.Background()))
}
