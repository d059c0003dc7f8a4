// Package watch polls source roots and reports changed Kotlin files. It backs
// "kobgen process --watch".
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Op is the kind of change seen for a file.
type Op int

const (
	Created Op = iota
	Modified
	Removed
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Change is one file that changed between two polls.
type Change struct {
	Path string
	Op   Op
}

// Config configures the watcher.
type Config struct {
	// Paths are the directories and files to watch.
	Paths []string

	// Extensions limits watched files by extension (default: .kt).
	Extensions []string

	// Ignore lists directory names that are never entered.
	Ignore []string

	// Interval is the delay between polls.
	Interval time.Duration
}

// DefaultIgnore contains the directory names skipped by default.
var DefaultIgnore = []string{
	".git",
	".gradle",
	".idea",
	".kobweb",
	"build",
	"out",
	"node_modules",
}

type stamp struct {
	mod  time.Time
	size int64
}

// Watcher reports batches of changed files. Changes seen in the same poll are
// delivered together, so one edit that touches several files triggers one
// callback.
type Watcher struct {
	config   Config
	onChange func([]Change)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	files   map[string]stamp
}

// New creates a watcher.
func New(config Config) *Watcher {
	if config.Interval <= 0 {
		config.Interval = 300 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	if len(config.Extensions) == 0 {
		config.Extensions = []string{".kt"}
	}
	return &Watcher{config: config}
}

// OnChange sets the callback for changes.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start polls until ctx is done or Stop is called. The first poll records the
// current state and reports nothing.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.files = w.snapshot()
	w.mu.Unlock()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.Poll()
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// Poll compares the files on disk with the previous poll and delivers any
// changes. It is called by Start on every tick.
func (w *Watcher) Poll() []Change {
	current := w.snapshot()

	w.mu.Lock()
	previous := w.files
	w.files = current
	callback := w.onChange
	w.mu.Unlock()

	if previous == nil {
		return nil
	}

	var changes []Change
	for path, now := range current {
		before, ok := previous[path]
		switch {
		case !ok:
			changes = append(changes, Change{Path: path, Op: Created})
		case !now.mod.Equal(before.mod) || now.size != before.size:
			changes = append(changes, Change{Path: path, Op: Modified})
		}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			changes = append(changes, Change{Path: path, Op: Removed})
		}
	}
	if len(changes) == 0 {
		return nil
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })

	if callback != nil {
		callback(changes)
	}
	return changes
}

func (w *Watcher) snapshot() map[string]stamp {
	files := make(map[string]stamp)
	for _, root := range w.config.Paths {
		filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if p != root && w.ignored(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if p != root && !w.watched(p) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			files[p] = stamp{mod: info.ModTime(), size: info.Size()}
			return nil
		})
	}
	return files
}

func (w *Watcher) ignored(name string) bool {
	for _, pattern := range w.config.Ignore {
		if name == pattern {
			return true
		}
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

func (w *Watcher) watched(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.config.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
