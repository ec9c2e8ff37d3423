package lpfs

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// FsChangeKind discriminates a batched filesystem change (spec.md §4.6).
type FsChangeKind int

const (
	FsDelete FsChangeKind = iota
	FsCreate
	FsModify
)

// FsChange is one entry in a debounced batch handed to
// project.Runtime.HandleFsChanges.
type FsChange struct {
	Path string
	Kind FsChangeKind
}

// DebounceWindow is the batching window spec.md §9 calls out: raw
// fsnotify events arriving within this window of each other are coalesced
// into one batch, keyed by path (last write wins per path).
const DebounceWindow = 500 * time.Millisecond

// Watcher wraps an fsnotify.Watcher, debouncing raw events into []FsChange
// batches delivered on Changes.
type Watcher struct {
	fs      *fsnotify.Watcher
	Changes chan []FsChange
	Errors  chan error
	done    chan struct{}
}

// NewWatcher starts watching root only (fsnotify watches are not
// recursive: callers add subdirectories via Add as nodes are discovered).
func NewWatcher(root string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(root); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{
		fs:      fw,
		Changes: make(chan []FsChange, 1),
		Errors:  make(chan error, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Add watches an additional directory, used when a node is created and its
// directory needs its own watch.
func (w *Watcher) Add(dir string) error { return w.fs.Add(dir) }

func (w *Watcher) run() {
	pending := map[string]FsChangeKind{}
	var timer *time.Timer
	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]FsChange, 0, len(pending))
		for p, k := range pending {
			batch = append(batch, FsChange{Path: p, Kind: k})
		}
		pending = map[string]FsChangeKind{}
		select {
		case w.Changes <- batch:
		case <-w.done:
		}
	}
	var timerC <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				flush()
				return
			}
			pending[ev.Name] = classify(ev.Op)
			if timer == nil {
				timer = time.NewTimer(DebounceWindow)
			} else {
				timer.Reset(DebounceWindow)
			}
			timerC = timer.C
		case <-timerC:
			flush()
			timerC = nil
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			case <-w.done:
				return
			}
		case <-w.done:
			flush()
			return
		}
	}
}

func classify(op fsnotify.Op) FsChangeKind {
	switch {
	case op&fsnotify.Remove != 0 || op&fsnotify.Rename != 0:
		return FsDelete
	case op&fsnotify.Create != 0:
		return FsCreate
	default:
		return FsModify
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}
