// Command lightplayerd loads a LightPlayer project directory, initializes
// its node graph, and drives it tick by tick, hot-reloading nodes as their
// files change on disk.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lightplayer/lightplayer/internal/lpfs"
	"github.com/lightplayer/lightplayer/internal/output"
	"github.com/lightplayer/lightplayer/internal/project"
)

// tickInterval is the daemon's fixed render cadence. spec.md names no
// required frame rate; 30Hz matches the lighting-fixture refresh rates the
// GpioStrip driver family targets.
const tickInterval = 33 * time.Millisecond

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: lightplayerd <project-dir>")
		os.Exit(1)
	}
	projectDir := os.Args[1]

	if err := run(projectDir, logger); err != nil {
		logger.Fatal("lightplayerd exited", "err", err)
	}
}

func run(projectDir string, logger *log.Logger) error {
	absRoot, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolving project dir: %w", err)
	}

	rootFs, err := lpfs.NewDirFs(absRoot)
	if err != nil {
		return fmt.Errorf("opening project dir: %w", err)
	}
	outputProvider := output.NewLogProvider(logger.With("component", "output"))

	rt, err := project.New(rootFs, outputProvider, logger.With("component", "project"))
	if err != nil {
		return fmt.Errorf("loading project: %w", err)
	}
	if err := rt.InitNodes(); err != nil {
		return fmt.Errorf("initializing nodes: %w", err)
	}
	logger.Info("project loaded", "uid", rt.Meta.UID, "name", rt.Meta.Name)
	defer func() {
		if err := rt.DestroyAllNodes(); err != nil {
			logger.Error("destroying nodes", "err", err)
		}
	}()

	watcher, err := newProjectWatcher(absRoot)
	if err != nil {
		return fmt.Errorf("starting filesystem watcher: %w", err)
	}
	defer watcher.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			logger.Info("shutting down")
			return nil

		case <-ticker.C:
			if err := rt.Tick(uint32(tickInterval.Milliseconds())); err != nil {
				logger.Error("tick failed", "err", err)
			}

		case batch := <-watcher.Changes:
			rel := relativizeBatch(absRoot, batch)
			for _, c := range rel {
				watchNewDir(watcher, absRoot, c)
			}
			if err := rt.HandleFsChanges(rel); err != nil {
				logger.Error("filesystem change handling failed", "err", err)
			}

		case err := <-watcher.Errors:
			logger.Error("filesystem watcher error", "err", err)
		}
	}
}

// newProjectWatcher starts a watcher rooted at root and adds every
// existing node directory under src/ so their contents are observed too —
// fsnotify watches are not recursive, unlike the project's own notion of a
// node's files.
func newProjectWatcher(root string) (*lpfs.Watcher, error) {
	w, err := lpfs.NewWatcher(root)
	if err != nil {
		return nil, err
	}
	srcDir := filepath.Join(root, "src")
	_ = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d == nil || !d.IsDir() {
			return nil
		}
		_ = w.Add(path)
		return nil
	})
	return w, nil
}

// watchNewDir adds a watch for a node directory created this batch, so its
// own contents (GLSL source, node.json) are observed going forward.
func watchNewDir(w *lpfs.Watcher, root string, c lpfs.FsChange) {
	if c.Kind != lpfs.FsCreate {
		return
	}
	full := filepath.Join(root, strings.TrimPrefix(c.Path, "/"))
	if info, err := os.Stat(full); err == nil && info.IsDir() {
		_ = w.Add(full)
	}
}

// relativizeBatch rewrites the watcher's absolute OS paths to
// project-relative, forward-slash paths, e.g.
// "<root>/src/foo.shader/node.json" -> "/src/foo.shader/node.json".
func relativizeBatch(root string, batch []lpfs.FsChange) []lpfs.FsChange {
	out := make([]lpfs.FsChange, 0, len(batch))
	for _, c := range batch {
		rel, err := filepath.Rel(root, c.Path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, "/") {
			rel = "/" + rel
		}
		out = append(out, lpfs.FsChange{Path: rel, Kind: c.Kind})
	}
	return out
}
