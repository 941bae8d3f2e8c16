package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string) (*atomic.Int32, context.CancelFunc, <-chan error) {
	t.Helper()

	var builds atomic.Int32
	w, err := NewWatcher(root, 50*time.Millisecond, func(ctx context.Context) error {
		builds.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register its directories
	time.Sleep(100 * time.Millisecond)
	return &builds, cancel, done
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "naruto"), 0755))

	builds, cancel, done := startWatcher(t, root)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "naruto", "a.png"), []byte{byte(i)}, 0644))
	}

	assert.Eventually(t, func() bool { return builds.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), builds.Load(), "bursts are debounced into one rebuild")

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_NewGroupIsWatched(t *testing.T) {
	root := t.TempDir()
	builds, cancel, done := startWatcher(t, root)
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "bleach"), 0755))
	assert.Eventually(t, func() bool { return builds.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)

	before := builds.Load()
	require.NoError(t, os.WriteFile(filepath.Join(root, "bleach", "ichigo.png"), []byte("x"), 0644))
	assert.Eventually(t, func() bool { return builds.Load() > before }, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresHiddenFiles(t *testing.T) {
	root := t.TempDir()
	builds, cancel, done := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".DS_Store"), []byte("x"), 0644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), builds.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_MissingRoot(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "absent"), time.Millisecond, func(context.Context) error { return nil }, nil)
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))
}
