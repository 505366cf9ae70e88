package service

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the document watcher.
type WatcherConfig struct {
	// Root is the workspace directory to watch.
	Root string

	// Include are doublestar patterns, relative to Root, selecting the
	// ontology documents that trigger recomputation.
	Include []string

	// Debounce is the quiescence window after the last change before a
	// document is recomputed.
	Debounce time.Duration

	// Logger for logging events.
	Logger *slog.Logger
}

// Watcher turns file change notifications into per-document recomputation
// triggers. Edits are debounced with a single pending timer per document
// URI, reset on every change; Flush fires immediately and cancels the
// pending timer so a save never races its own debounce.
type Watcher struct {
	config   WatcherConfig
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	onChange func(uri string)

	timerMu sync.Mutex
	timers  map[string]*time.Timer
}

// NewWatcher creates a watcher that calls onChange with a document URI
// whenever that document needs recomputing.
func NewWatcher(config WatcherConfig, onChange func(uri string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Debounce == 0 {
		config.Debounce = 300 * time.Millisecond
	}
	if len(config.Include) == 0 {
		config.Include = []string{"**/*.oml"}
	}

	return &Watcher{
		config:   config,
		watcher:  fsw,
		logger:   logger,
		onChange: onChange,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Start begins watching the workspace tree until the context is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.config.Root); err != nil {
		return fmt.Errorf("watch %s: %w", w.config.Root, err)
	}

	go w.loop(ctx)
	w.logger.Info("Watching documents",
		"root", w.config.Root,
		"include", strings.Join(w.config.Include, ","),
		"debounce", w.config.Debounce)
	return nil
}

// Close stops the watcher and cancels every pending timer.
func (w *Watcher) Close() error {
	w.timerMu.Lock()
	for uri, t := range w.timers {
		t.Stop()
		delete(w.timers, uri)
	}
	w.timerMu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err.Error())
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if event.Op&fsnotify.Create != 0 {
		// New directories join the watch set.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.watcher.Add(event.Name)
			return
		}
	}
	if !w.matches(event.Name) {
		return
	}
	w.Notify(fileURI(event.Name))
}

func (w *Watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.config.Include {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Notify schedules a debounced recomputation for the document. A pending
// timer for the same URI is reset rather than duplicated.
func (w *Watcher) Notify(uri string) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if t, ok := w.timers[uri]; ok {
		t.Reset(w.config.Debounce)
		return
	}
	w.timers[uri] = time.AfterFunc(w.config.Debounce, func() {
		w.timerMu.Lock()
		delete(w.timers, uri)
		w.timerMu.Unlock()
		w.onChange(uri)
	})
}

// Flush recomputes the document immediately, cancelling any pending
// debounce timer so the save-triggered request has no debounced twin.
func (w *Watcher) Flush(uri string) {
	w.timerMu.Lock()
	if t, ok := w.timers[uri]; ok {
		t.Stop()
		delete(w.timers, uri)
	}
	w.timerMu.Unlock()
	w.onChange(uri)
}

func fileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs)
}
