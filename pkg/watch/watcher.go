// Package watch regenerates declarations when doclet dumps change.
package watch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/tsdgen/pkg/doclet"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Patterns are the doublestar input patterns whose matches are watched.
	Patterns []string

	// Exclude drops matching paths.
	Exclude []string

	// Debounce groups bursts of events into one regeneration.
	Debounce time.Duration
}

// Regenerate is called after watched dumps changed, with the sorted paths
// named by the burst of events. Its error is logged; the watcher keeps
// running.
type Regenerate func(changed []string) error

// Watcher watches the directories under the input patterns and calls
// Regenerate once per burst of changes to matching files.
//
// Usage:
//
//	w, err := New(Options{Patterns: cfg.Inputs}, regenerate, logger)
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(); err != nil {
//	    return err
//	}
//	defer w.Stop()
type Watcher struct {
	watcher    *fsnotify.Watcher
	regenerate Regenerate
	logger     *slog.Logger
	options    Options

	timer   *time.Timer
	changed map[string]bool
	timerMu sync.Mutex

	// runMu serializes regenerations
	runMu sync.Mutex

	stats   Stats
	statsMu sync.Mutex

	stopChan chan struct{}
	done     chan struct{}
	started  bool
	stopped  bool
	mu       sync.Mutex
}

// Stats counts what the watcher has done.
type Stats struct {
	Regenerations int
	Failures      int
	LastError     string
	Pending       bool
	IsRunning     bool
}

// New creates a watcher. Patterns must be valid and must not include stdin.
func New(options Options, regenerate Regenerate, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if regenerate == nil {
		return nil, errors.New("regenerate callback is required")
	}
	if len(options.Patterns) == 0 {
		return nil, errors.New("no input patterns to watch")
	}
	for _, p := range options.Patterns {
		if p == doclet.StdinPath {
			return nil, errors.New("cannot watch standard input")
		}
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return nil, errors.Newf("invalid input pattern %q", p)
		}
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	return &Watcher{
		watcher:    fsw,
		regenerate: regenerate,
		logger:     logger,
		options:    options,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Roots returns the directories watched for the configured patterns.
func (w *Watcher) Roots() []string {
	seen := make(map[string]bool)
	var roots []string
	for _, p := range w.options.Patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
		dir := filepath.FromSlash(base)
		if !seen[dir] {
			seen[dir] = true
			roots = append(roots, dir)
		}
	}
	return roots
}

// Start adds watches below every root and starts the event loop.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return errors.New("watcher already stopped")
	}
	if w.started {
		return errors.New("watcher already started")
	}

	for _, root := range w.Roots() {
		if err := w.addTree(root); err != nil {
			return err
		}
	}
	w.started = true

	w.logger.Info("watching doclet dumps", "roots", w.Roots(), "debounce", w.options.Debounce)

	go w.eventLoop()
	return nil
}

// addTree watches dir and its subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return errors.Wrapf(err, "failed to watch %s", dir)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && shouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			if path == dir {
				return errors.Wrapf(err, "failed to watch %s", dir)
			}
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	close(w.stopChan)
	w.mu.Unlock()

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.timerMu.Unlock()

	// Wait for a regeneration that already started.
	w.runMu.Lock()
	w.runMu.Unlock()

	err := w.watcher.Close()
	if started {
		<-w.done
	}
	w.logger.Info("watcher stopped")
	return err
}

func (w *Watcher) eventLoop() {
	defer close(w.done)
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !shouldIgnoreDir(path) {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	if !w.Matches(path) {
		return
	}

	w.logger.Debug("dump changed", "op", event.Op.String(), "file", path)

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.Trigger(path)
	}
}

// Matches reports whether path is an input of this watcher.
func (w *Watcher) Matches(path string) bool {
	path = filepath.Clean(path)
	for _, p := range w.options.Exclude {
		if ok, _ := doublestar.PathMatch(filepath.Clean(p), path); ok {
			return false
		}
	}
	for _, p := range w.options.Patterns {
		if ok, _ := doublestar.PathMatch(filepath.Clean(p), path); ok {
			return true
		}
	}
	return false
}

// Trigger schedules a regeneration after the debounce delay, recording
// paths as changed. Calls within the window restart it.
func (w *Watcher) Trigger(paths ...string) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.changed == nil {
		w.changed = make(map[string]bool)
	}
	for _, p := range paths {
		w.changed[filepath.Clean(p)] = true
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.options.Debounce, func() {
		w.timerMu.Lock()
		if w.timer == t {
			w.timer = nil
		}
		w.timerMu.Unlock()
		w.run()
	})
	w.timer = t
}

func (w *Watcher) run() {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	select {
	case <-w.stopChan:
		return
	default:
	}

	w.timerMu.Lock()
	changed := make([]string, 0, len(w.changed))
	for p := range w.changed {
		changed = append(changed, p)
	}
	w.changed = nil
	w.timerMu.Unlock()
	sort.Strings(changed)

	start := time.Now()
	err := w.regenerate(changed)

	w.statsMu.Lock()
	w.stats.Regenerations++
	if err != nil {
		w.stats.Failures++
		w.stats.LastError = err.Error()
	} else {
		w.stats.LastError = ""
	}
	w.statsMu.Unlock()

	if err != nil {
		w.logger.Error("regeneration failed", "error", err)
		return
	}
	w.logger.Info("regenerated declarations", "changed", len(changed), "duration", time.Since(start))
}

func shouldIgnoreDir(path string) bool {
	switch filepath.Base(path) {
	case "node_modules", ".git":
		return true
	}
	return false
}

// GetStats returns watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.statsMu.Lock()
	stats := w.stats
	w.statsMu.Unlock()

	w.timerMu.Lock()
	stats.Pending = w.timer != nil
	w.timerMu.Unlock()

	w.mu.Lock()
	stats.IsRunning = w.started && !w.stopped
	w.mu.Unlock()

	return stats
}
