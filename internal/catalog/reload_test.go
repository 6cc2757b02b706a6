package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizwanabrish101/shayari/internal/watcher"
)

func TestWatchFile_ReloadsOnChange(t *testing.T) {
	svc, em := setupService(t, false)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, defaultDataset, 0o644))

	events := make(chan watcher.Event)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.WatchFile(ctx, path, events)
	}()

	events <- watcher.Event{Type: watcher.EventModified, Path: path}
	// Events for other files do not import. The unbuffered send also waits
	// for the previous import to finish.
	events <- watcher.Event{Type: watcher.EventModified, Path: path + ".bak"}

	// A broken file keeps the previous catalog.
	require.NoError(t, os.WriteFile(path, []byte("poets: ["), 0o644))
	events <- watcher.Event{Type: watcher.EventModified, Path: path}
	events <- watcher.Event{Type: watcher.EventRemoved, Path: path}

	cancel()
	<-done

	assert.Len(t, em.events, 1)
	poets, err := svc.ListPoets(context.Background())
	require.NoError(t, err)
	assert.Len(t, poets, 10)
}

func TestWatchFile_WithWatcher(t *testing.T) {
	svc, _ := setupService(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")

	w, err := watcher.New(nil, watcher.Options{SettleDelay: 50 * time.Millisecond})
	require.NoError(t, err)
	defer w.Stop() //nolint:errcheck // Test cleanup
	require.NoError(t, w.Watch(path))
	go w.Start(ctx) //nolint:errcheck // Test goroutine
	go svc.WatchFile(ctx, path, w.Events())

	unfeatured := strings.Replace(string(defaultDataset), "featured: true", "featured: false", 1)
	require.NoError(t, os.WriteFile(path, []byte(unfeatured), 0o644))

	assert.Eventually(t, func() bool {
		verses, err := svc.ListVerses(context.Background(), VerseFilter{})
		return err == nil && len(verses) == 12
	}, 3*time.Second, 20*time.Millisecond)

	_, err = svc.GetFeaturedVerse(context.Background())
	assert.Error(t, err)
}
