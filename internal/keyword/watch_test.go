package keyword

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.txt")
	require.NoError(t, os.WriteFile(path, []byte("dragon\n"), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loaded := make(chan *Set, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(set *Set, err error) {
			if err == nil {
				loaded <- set
			}
		})
	}()

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("goblin\nlich\n"), 0o644))

	select {
	case set := <-loaded:
		assert.Equal(t, []string{"goblin", "lich"}, set.Strings())
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload keyword file")
	}

	cancel()
	<-done
}

func TestWatcher_ReportsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.txt")
	require.NoError(t, os.WriteFile(path, []byte("dragon\n"), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 4)
	go func() {
		_ = w.Run(ctx, func(_ *Set, err error) {
			if err != nil {
				errs <- err
			}
		})
	}()

	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o644))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrEmptyKeywordSet)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report empty keyword file")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.txt")
	require.NoError(t, os.WriteFile(path, []byte("dragon\n"), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
