package project

import (
	"strings"

	"github.com/lightplayer/lightplayer/internal/lpfs"
	"github.com/lightplayer/lightplayer/internal/model"
)

// HandleFsChanges applies one debounced batch of filesystem changes in
// three ordered waves — delete, then create, then modify — so that a
// directory rename (which fsnotify reports as a delete plus a create) and
// a same-tick delete-then-recreate both resolve to the right end state
// regardless of the batch's internal ordering (spec.md §4.6). Paths in
// changes must already be relative to the project root, e.g.
// "/src/foo.shader/node.json" — callers translate the watcher's absolute
// OS paths before calling this.
func (r *Runtime) HandleFsChanges(changes []lpfs.FsChange) error {
	for _, c := range changes {
		if c.Kind == lpfs.FsDelete {
			r.handleDelete(c.Path)
		}
	}
	for _, c := range changes {
		if c.Kind == lpfs.FsCreate {
			r.handleCreate(c.Path)
		}
	}
	for _, c := range changes {
		if c.Kind == lpfs.FsModify {
			r.handleModify(c.Path)
		}
	}
	return nil
}

// splitNodePath splits a project-relative path into the owning node
// directory and the path relative to that directory ("" if path names the
// node directory itself).
func splitNodePath(p string) (dir model.LpPath, rel string, isDirItself bool) {
	trimmed := strings.TrimPrefix(p, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[0] != "src" {
		return "", "", false
	}
	dir = model.LpPath("/src/" + parts[1])
	if len(parts) == 2 {
		return dir, "", true
	}
	return dir, strings.Join(parts[2:], "/"), false
}

func (r *Runtime) handleDelete(path string) {
	dir, _, isDirItself := splitNodePath(path)
	if dir == "" || !isDirItself {
		return
	}
	h, ok := r.handleForPath(dir)
	if !ok {
		return
	}
	entry := r.nodes[h]
	if entry.Runtime != nil {
		entry.Runtime.Destroy(r.outputProvider)
	}
	delete(r.nodes, h)
	delete(r.handleByPath, dir)
}

func (r *Runtime) handleCreate(path string) {
	dir, _, isDirItself := splitNodePath(path)
	if dir == "" || !isDirItself {
		return
	}
	if _, exists := r.handleForPath(dir); exists {
		return
	}
	suffix, ok := model.SuffixOf(dir)
	if !ok {
		return
	}
	kind, ok := model.KindFromSuffix(suffix)
	if !ok {
		return
	}
	name := strings.TrimPrefix(string(dir), "/src/")
	d := discoveredNode{path: dir, name: name, kind: kind}

	handle := r.handles.Next()
	entry := &NodeEntry{Path: dir, Kind: kind, ConfigVer: r.frameID, StatusVer: r.frameID}
	cfg, err := loadNodeConfig(r.fs, d)
	if err != nil {
		entry.Status = model.InitErrorf(err.Error())
	} else {
		entry.Config = cfg
		entry.Status = model.Created()
	}
	r.nodes[handle] = entry
	r.handleByPath[dir] = handle

	if entry.Status.Kind == model.StatusCreated {
		r.initOne(handle)
	}
}

func (r *Runtime) handleModify(path string) {
	dir, rel, isDirItself := splitNodePath(path)
	if dir == "" || isDirItself {
		return
	}
	h, ok := r.handleForPath(dir)
	if !ok {
		return
	}
	entry := r.nodes[h]

	if rel == "node.json" {
		r.handleConfigModify(h, entry)
		return
	}
	r.handleSourceModify(entry, rel)
}

func (r *Runtime) handleConfigModify(handle model.NodeHandle, entry *NodeEntry) {
	name := strings.TrimPrefix(string(entry.Path), "/src/")
	cfg, err := loadNodeConfig(r.fs, discoveredNode{path: entry.Path, name: name, kind: entry.Kind})
	if err != nil {
		entry.Status = model.InitErrorf(err.Error())
		entry.StatusVer = r.frameID
		return
	}
	entry.Config = cfg
	entry.ConfigVer = r.frameID

	if entry.Runtime == nil {
		entry.Status = model.Created()
		entry.StatusVer = r.frameID
		r.initOne(handle)
		return
	}

	ictx, err := r.initCtxFor(entry.Path)
	if err != nil {
		entry.Status = model.InitErrorf(err.Error())
		entry.StatusVer = r.frameID
		return
	}
	if err := entry.Runtime.UpdateConfig(cfg, ictx); err != nil {
		entry.Status = model.Errorf(err.Error())
	} else if compErr := entry.Runtime.CompilationError(); compErr != "" {
		entry.Status = model.Errorf(compErr)
	} else {
		entry.Status = model.Ok()
	}
	entry.StatusVer = r.frameID
}

// handleSourceModify dispatches a non-node.json change (a shader's GLSL
// source, typically) to the owning runtime. A present compile error after
// the change becomes Error; its absence clears a prior Error back to Ok
// (spec.md §4.6).
func (r *Runtime) handleSourceModify(entry *NodeEntry, rel string) {
	if entry.Runtime == nil {
		return
	}
	ictx, err := r.initCtxFor(entry.Path)
	if err != nil {
		return
	}
	runErr := entry.Runtime.HandleFsChange(rel, ictx)
	switch {
	case runErr != nil:
		entry.Status = model.Errorf(runErr.Error())
	case entry.Runtime.CompilationError() != "":
		entry.Status = model.Errorf(entry.Runtime.CompilationError())
	case entry.Status.Kind == model.StatusError:
		entry.Status = model.Ok()
	}
	entry.StatusVer = r.frameID
}
