package dumpwatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/smlship/internal/adapters/log"
	"github.com/bft-labs/smlship/internal/domain"
)

type decodeRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *decodeRecorder) decode(ctx context.Context, path string) (domain.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, filepath.Base(path))
	return domain.Summary{}, nil
}

func (r *decodeRecorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func startWatcher(t *testing.T, cfg Config, rec *decodeRecorder) (*Watcher, context.CancelFunc, <-chan error) {
	t.Helper()
	w, err := New(cfg, rec.decode, log.NewNoopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		done <- w.Run(ctx)
		close(finished)
	}()
	t.Cleanup(func() {
		cancel()
		<-finished
	})
	return w, cancel, done
}

func TestWatcher_DecodesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.hex"), []byte("1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hex"), []byte("1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	rec := &decodeRecorder{}
	startWatcher(t, Config{Dir: dir, Debounce: 10 * time.Millisecond}, rec)

	assert.Eventually(t, func() bool { return len(rec.Paths()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"a.hex", "b.hex"}, rec.Paths())
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &decodeRecorder{}
	startWatcher(t, Config{Dir: dir, Debounce: 200 * time.Millisecond, SkipExisting: true}, rec)

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "dump.hex")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.WriteString("77 7 1\n")
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, f.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool { return len(rec.Paths()) >= 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, []string{"dump.hex"}, rec.Paths())
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	rec := &decodeRecorder{}
	_, cancel, done := startWatcher(t, Config{Dir: dir, Debounce: time.Hour}, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.hex"), []byte("1\n"), 0o644))
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Empty(t, rec.Paths())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, nil, log.NewNoopLogger())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = New(Config{Dir: "x", Pattern: "["}, nil, log.NewNoopLogger())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestWatcher_MissingDir(t *testing.T) {
	w, err := New(Config{Dir: filepath.Join(t.TempDir(), "missing")}, (&decodeRecorder{}).decode, log.NewNoopLogger())
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))
}
