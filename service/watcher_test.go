package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeRecorder struct {
	mu   sync.Mutex
	uris []string
}

func (r *changeRecorder) record(uri string) {
	r.mu.Lock()
	r.uris = append(r.uris, uri)
	r.mu.Unlock()
}

func (r *changeRecorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.uris...)
}

func (r *changeRecorder) waitFor(t *testing.T, n int, timeout time.Duration) []string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if got := r.get(); len(got) >= n {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d changes, have %v", n, r.get())
	return nil
}

func newTestWatcher(t *testing.T, root string, rec *changeRecorder) *Watcher {
	t.Helper()
	w, err := NewWatcher(WatcherConfig{
		Root:     root,
		Include:  []string{"**/*.oml"},
		Debounce: 50 * time.Millisecond,
	}, rec.record)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestWatcherDebouncesWrites(t *testing.T) {
	root := t.TempDir()
	rec := &changeRecorder{}
	w := newTestWatcher(t, root, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	path := filepath.Join(root, "model.oml")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("vocabulary v\n"), 0644))
		time.Sleep(5 * time.Millisecond)
	}

	got := rec.waitFor(t, 1, 2*time.Second)
	// A rapid burst collapses into one trigger.
	assert.Len(t, got, 1)
	assert.Equal(t, fileURI(path), got[0])
}

func TestWatcherIgnoresNonMatchingFiles(t *testing.T) {
	root := t.TempDir()
	rec := &changeRecorder{}
	w := newTestWatcher(t, root, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "model.oml"), []byte("x"), 0644))

	got := rec.waitFor(t, 1, 2*time.Second)
	assert.Len(t, got, 1)
	assert.Equal(t, fileURI(filepath.Join(root, "model.oml")), got[0])
}

func TestWatcherFlushCancelsPendingTimer(t *testing.T) {
	rec := &changeRecorder{}
	w, err := NewWatcher(WatcherConfig{
		Root:     t.TempDir(),
		Debounce: time.Hour, // never fires on its own
	}, rec.record)
	require.NoError(t, err)
	defer w.Close()

	w.Notify("file:///a.oml")
	w.Flush("file:///a.oml")

	got := rec.get()
	require.Len(t, got, 1)
	assert.Equal(t, "file:///a.oml", got[0])

	// No debounced twin ever arrives.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, rec.get(), 1)
}

func TestWatcherNotifyResetsTimer(t *testing.T) {
	rec := &changeRecorder{}
	w, err := NewWatcher(WatcherConfig{
		Root:     t.TempDir(),
		Debounce: 60 * time.Millisecond,
	}, rec.record)
	require.NoError(t, err)
	defer w.Close()

	w.Notify("file:///a.oml")
	time.Sleep(30 * time.Millisecond)
	w.Notify("file:///a.oml")
	time.Sleep(30 * time.Millisecond)
	// The first timer would have fired by now had the second notify not
	// reset it.
	assert.Empty(t, rec.get())

	rec.waitFor(t, 1, 2*time.Second)
}

func TestWatcherSkipsDotDirectories(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, ".git")
	require.NoError(t, os.Mkdir(hidden, 0755))

	rec := &changeRecorder{}
	w := newTestWatcher(t, root, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(hidden, "x.oml"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "y.oml"), []byte("y"), 0644))

	got := rec.waitFor(t, 1, 2*time.Second)
	assert.Len(t, got, 1)
	assert.Equal(t, fileURI(filepath.Join(root, "y.oml")), got[0])
}

func TestWatcherPicksUpNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	rec := &changeRecorder{}
	w := newTestWatcher(t, root, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	sub := filepath.Join(root, "vocab")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Give the watcher a moment to register the new directory.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "z.oml"), []byte("z"), 0644))

	got := rec.waitFor(t, 1, 2*time.Second)
	assert.Equal(t, fileURI(filepath.Join(sub, "z.oml")), got[0])
}
