package project

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/lightplayer/lightplayer/internal/lpfs"
	"github.com/lightplayer/lightplayer/internal/model"
	"github.com/lightplayer/lightplayer/internal/nodes"
	"github.com/lightplayer/lightplayer/internal/output"
)

// sortedHandles returns every handle in m in ascending NodeHandle order —
// the graph's stable iteration order (spec.md §5 Ordering), standing in
// for the original's BTreeMap since Go's map iteration order is randomized.
func sortedHandles(m map[model.NodeHandle]*NodeEntry) []model.NodeHandle {
	handles := make([]model.NodeHandle, 0, len(m))
	for h := range m {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// NodeEntry is one row of the project graph (spec.md §3.3).
type NodeEntry struct {
	Path      model.LpPath
	Kind      model.NodeKind
	Config    model.NodeConfig
	ConfigVer model.FrameId
	Status    model.Status
	StatusVer model.FrameId
	Runtime   *nodes.Runtime // nil until Status.HasRuntime()
	StateVer  model.FrameId
}

// Runtime is the single owner of one loaded project's node graph, its
// filesystem view, and the shared output provider (spec.md §5: "the
// project runtime is single-threaded cooperative").
type Runtime struct {
	Meta           ProjectMeta
	fs             lpfs.LpFs
	outputProvider output.Provider
	logger         *log.Logger

	frameID   model.FrameId
	frameTime model.FrameTime

	handles      model.HandleAllocator
	nodes        map[model.NodeHandle]*NodeEntry
	handleByPath map[model.LpPath]model.NodeHandle
}

// New opens a project rooted at fs, loading (but not initializing) its
// node graph.
func New(fs lpfs.LpFs, outputProvider output.Provider, logger *log.Logger) (*Runtime, error) {
	meta, err := loadProjectMeta(fs)
	if err != nil {
		return nil, err
	}
	r := &Runtime{
		Meta:           meta,
		fs:             fs,
		outputProvider: outputProvider,
		logger:         logger,
		nodes:          map[model.NodeHandle]*NodeEntry{},
		handleByPath:   map[model.LpPath]model.NodeHandle{},
	}
	if err := r.LoadNodes(); err != nil {
		return nil, err
	}
	return r, nil
}

// FrameID and FrameTime report the runtime's current frame clock; the
// render context (renderCtx, schedule.go) exposes the same values to node
// runtimes through its own methods.
func (r *Runtime) FrameID() model.FrameId     { return r.frameID }
func (r *Runtime) FrameTime() model.FrameTime { return r.frameTime }

// LoadNodes discovers every node directory under src/ and creates a
// Created-status entry for each, without initializing any runtime
// (spec.md §3.3's "A node is Created when discovered by filesystem scan").
func (r *Runtime) LoadNodes() error {
	discovered, err := discoverNodes(r.fs)
	if err != nil {
		return err
	}
	for _, d := range discovered {
		cfg, err := loadNodeConfig(r.fs, d)
		handle := r.handles.Next()
		entry := &NodeEntry{
			Path:      d.path,
			Kind:      d.kind,
			ConfigVer: r.frameID,
			StatusVer: r.frameID,
		}
		if err != nil {
			entry.Status = model.InitErrorf(err.Error())
		} else {
			entry.Config = cfg
			entry.Status = model.Created()
		}
		r.nodes[handle] = entry
		r.handleByPath[d.path] = handle
	}
	return nil
}

func (r *Runtime) initCtxFor(path model.LpPath) (*nodes.InitContext, error) {
	sub, err := r.subFsFor(path)
	if err != nil {
		return nil, err
	}
	return &nodes.InitContext{
		Fs:       sub,
		NodePath: path,
		Resolver: r,
		Output:   r.outputProvider,
		Logger:   r.logger,
	}, nil
}

func (r *Runtime) subFsFor(path model.LpPath) (lpfs.LpFs, error) {
	rel := string(path)
	if len(rel) > 0 && rel[0] == '/' {
		rel = rel[1:]
	}
	sub, err := r.fs.Sub(rel)
	if err != nil {
		return nil, model.IoError(rel, err)
	}
	return sub, nil
}

// initOrder is the fixed dependency order spec.md §4.5 requires.
var initOrder = []model.NodeKind{model.KindTexture, model.KindShader, model.KindFixture, model.KindOutput}

// InitNodes initializes every Created node, kind by kind, in initOrder. A
// resolver/structural failure is recorded as InitError; a shader whose
// runtime initialized but whose GLSL failed to compile is recorded as
// Error, not InitError, per spec.md §4.5.
func (r *Runtime) InitNodes() error {
	for _, kind := range initOrder {
		for _, h := range sortedHandles(r.nodes) {
			e := r.nodes[h]
			if e.Kind == kind && e.Status.Kind == model.StatusCreated {
				r.initOne(h)
			}
		}
	}
	return nil
}

func (r *Runtime) initOne(handle model.NodeHandle) {
	entry := r.nodes[handle]
	ictx, err := r.initCtxFor(entry.Path)
	if err != nil {
		entry.Status = model.InitErrorf(err.Error())
		entry.StatusVer = r.frameID
		return
	}

	var rt *nodes.Runtime
	switch entry.Kind {
	case model.KindTexture:
		tr := nodes.NewTextureRuntime(*entry.Config.Texture)
		rt = &nodes.Runtime{Kind: model.KindTexture, Texture: tr}
	case model.KindShader:
		sr := nodes.NewShaderRuntime(*entry.Config.Shader)
		if err := sr.Init(ictx); err != nil {
			entry.Status = model.InitErrorf(err.Error())
			entry.StatusVer = r.frameID
			return
		}
		rt = &nodes.Runtime{Kind: model.KindShader, Shader: sr}
	case model.KindFixture:
		fr := nodes.NewFixtureRuntime(*entry.Config.Fixture)
		if err := fr.Init(ictx); err != nil {
			entry.Status = model.InitErrorf(err.Error())
			entry.StatusVer = r.frameID
			return
		}
		rt = &nodes.Runtime{Kind: model.KindFixture, Fixture: fr}
	case model.KindOutput:
		or := nodes.NewOutputRuntime(*entry.Config.Output)
		if err := or.Init(ictx); err != nil {
			entry.Status = model.InitErrorf(err.Error())
			entry.StatusVer = r.frameID
			return
		}
		rt = &nodes.Runtime{Kind: model.KindOutput, Output: or}
	}

	entry.Runtime = rt
	entry.StateVer = r.frameID
	if compErr := rt.CompilationError(); compErr != "" {
		entry.Status = model.Errorf(compErr)
	} else {
		entry.Status = model.Ok()
	}
	entry.StatusVer = r.frameID
}

// DestroyAllNodes destroys every node's runtime, releasing any resources
// it owns (spec.md §4.6). Call before discarding a Runtime.
func (r *Runtime) DestroyAllNodes() error {
	for _, e := range r.nodes {
		if e.Runtime == nil {
			continue
		}
		if err := e.Runtime.Destroy(r.outputProvider); err != nil {
			return err
		}
		e.Runtime = nil
	}
	return nil
}

func (r *Runtime) handleForPath(path model.LpPath) (model.NodeHandle, bool) {
	h, ok := r.handleByPath[path]
	return h, ok
}

// ResolveNode implements nodes.Resolver.
func (r *Runtime) ResolveNode(spec model.NodeSpecifier, referrerParent model.LpPath) (model.NodeHandle, model.NodeKind, error) {
	path := spec.Resolve(referrerParent)
	h, ok := r.handleForPath(path)
	if !ok {
		return 0, 0, model.NotFound(string(path))
	}
	return h, r.nodes[h].Kind, nil
}

func (r *Runtime) resolveKind(spec model.NodeSpecifier, referrerParent model.LpPath, want model.NodeKind) (model.NodeHandle, error) {
	h, kind, err := r.ResolveNode(spec, referrerParent)
	if err != nil {
		return 0, err
	}
	if kind != want {
		return 0, model.WrongNodeKind(string(spec), want, kind)
	}
	return h, nil
}

// ResolveTexture implements nodes.Resolver.
func (r *Runtime) ResolveTexture(spec model.NodeSpecifier, referrerParent model.LpPath) (model.NodeHandle, error) {
	return r.resolveKind(spec, referrerParent, model.KindTexture)
}

// ResolveOutput implements nodes.Resolver.
func (r *Runtime) ResolveOutput(spec model.NodeSpecifier, referrerParent model.LpPath) (model.NodeHandle, error) {
	return r.resolveKind(spec, referrerParent, model.KindOutput)
}

var _ nodes.Resolver = (*Runtime)(nil)
