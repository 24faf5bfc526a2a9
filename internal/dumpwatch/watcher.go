// Package dumpwatch decodes hex dumps as they appear in a directory.
// Each Create or Write of a matching file schedules a decode of that file
// once the file has been quiet for the debounce delay.
package dumpwatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/smlship/internal/domain"
	"github.com/bft-labs/smlship/internal/ports"
)

// Defaults for the watcher.
const (
	DefaultPattern  = "*.hex"
	DefaultDebounce = 500 * time.Millisecond
)

// DecodeFunc decodes one dump file.
type DecodeFunc func(ctx context.Context, path string) (domain.Summary, error)

// Config holds configuration options for the watcher.
type Config struct {
	// Dir is the directory to watch. Subdirectories are not watched.
	Dir string

	// Pattern selects files by base name. Default: *.hex
	Pattern string

	// Debounce is the quiet period after the last event before decoding.
	// Default: 500 milliseconds
	Debounce time.Duration

	// SkipExisting disables the decode of matching files present at start.
	SkipExisting bool
}

// Watcher watches a directory and decodes dump files through a DecodeFunc.
type Watcher struct {
	cfg    Config
	decode DecodeFunc
	logger ports.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer

	// runMu serialises decodes so state updates never interleave.
	runMu sync.Mutex
	wg    sync.WaitGroup

	runs int
}

// New creates a watcher.
func New(cfg Config, decode DecodeFunc, logger ports.Logger) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: watch directory is required", domain.ErrInvalidConfig)
	}
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if _, err := filepath.Match(cfg.Pattern, "x"); err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %v", domain.ErrInvalidConfig, cfg.Pattern, err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Watcher{
		cfg:    cfg,
		decode: decode,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}, nil
}

// Run watches until ctx is canceled. Pending decodes are dropped and a
// decode in progress is allowed to finish before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}
	w.logger.Info("watching for dumps",
		ports.String("dir", w.cfg.Dir),
		ports.String("pattern", w.cfg.Pattern),
	)

	if !w.cfg.SkipExisting {
		w.scanExisting(ctx)
	}

	defer func() {
		w.stopTimers()
		w.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", ports.Err(err))
		}
	}
}

// Runs returns the number of completed decodes.
func (w *Watcher) Runs() int {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	return w.runs
}

func (w *Watcher) matches(path string) bool {
	ok, _ := filepath.Match(w.cfg.Pattern, filepath.Base(path))
	return ok
}

func (w *Watcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		w.logger.Warn("failed to list watch directory", ports.Err(err))
		return
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && w.matches(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		w.schedule(ctx, filepath.Join(w.cfg.Dir, name))
	}
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
	}

	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.cfg.Debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		w.process(ctx, path)
	})
	w.timers[path] = t
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	summary, err := w.decode(ctx, path)
	w.runs++
	if err != nil {
		w.logger.Error("dump decode failed",
			ports.String("file", path),
			ports.Err(err),
		)
		return
	}
	w.logger.Info("dump decoded",
		ports.String("file", path),
		ports.Int("frames", summary.Frames),
		ports.Int("emitted", summary.Emitted),
		ports.Int("skipped", summary.Skipped),
		ports.Duration("took", time.Since(start)),
	)
}
