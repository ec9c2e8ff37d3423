package project

import (
	"sort"
	"strings"

	"github.com/lightplayer/lightplayer/internal/model"
	"github.com/lightplayer/lightplayer/internal/nodes"
)

// renderCtx implements nodes.RenderContext for exactly one top-level Tick
// call, mirroring the original's per-call RenderContextImpl — a fresh
// instance is never reused across frames.
type renderCtx struct {
	r *Runtime
}

func (c *renderCtx) FrameID() model.FrameId     { return c.r.frameID }
func (c *renderCtx) FrameTime() model.FrameTime { return c.r.frameTime }

// GetTexture is ensure_texture_rendered (spec.md §4.5): if the texture's
// state_ver already covers the current frame, return its buffer directly;
// otherwise mark it covered *before* running any shader that targets it
// (this is what stops a shader that samples its own render target from
// recursing forever), then run every Ok-status shader targeting it in
// ascending render_order.
func (c *renderCtx) GetTexture(handle model.NodeHandle) (*nodes.Texture, error) {
	entry, ok := c.r.nodes[handle]
	if !ok {
		return nil, model.NotFound(handle.String())
	}
	if entry.Kind != model.KindTexture || entry.Runtime == nil {
		return nil, model.WrongNodeKind(handle.String(), model.KindTexture, entry.Kind)
	}
	tex := entry.Runtime.Texture.Tex

	if entry.StateVer >= c.r.frameID {
		return tex, nil
	}

	var shaderHandles []model.NodeHandle
	for h, e := range c.r.nodes {
		if e.Kind != model.KindShader || e.Runtime == nil {
			continue
		}
		if e.Status.Kind != model.StatusOk {
			continue
		}
		if e.Runtime.Shader.TargetsTexture(handle) {
			shaderHandles = append(shaderHandles, h)
		}
	}
	sort.Slice(shaderHandles, func(i, j int) bool {
		oi := c.r.nodes[shaderHandles[i]].Runtime.Shader.RenderOrder()
		oj := c.r.nodes[shaderHandles[j]].Runtime.Shader.RenderOrder()
		if oi != oj {
			return oi < oj
		}
		return shaderHandles[i] < shaderHandles[j]
	})

	// Mark before recursing: a shader sampling this very texture mid-render
	// must see it as already up to date for this frame.
	entry.StateVer = c.r.frameID

	for _, sh := range shaderHandles {
		se := c.r.nodes[sh]
		err := se.Runtime.Shader.Render(c)
		if err == nil {
			se.StateVer = c.r.frameID
			continue
		}
		if strings.Contains(err.Error(), "Shader execution failed") {
			se.Status = model.Errorf(err.Error())
			se.StatusVer = c.r.frameID
			continue
		}
		return nil, err
	}

	return tex, nil
}

// GetOutput returns a direct channel window and marks the output dirty for
// this frame's flush step (spec.md §4.5 step 3).
func (c *renderCtx) GetOutput(handle model.NodeHandle, universe, startCh, chCount uint32) ([]uint16, error) {
	entry, ok := c.r.nodes[handle]
	if !ok {
		return nil, model.NotFound(handle.String())
	}
	if entry.Kind != model.KindOutput || entry.Runtime == nil {
		return nil, model.WrongNodeKind(handle.String(), model.KindOutput, entry.Kind)
	}
	win, err := entry.Runtime.Output.Window(universe, startCh, chCount)
	if err != nil {
		return nil, err
	}
	entry.StateVer = c.r.frameID
	return win, nil
}

var _ nodes.RenderContext = (*renderCtx)(nil)

// Tick advances the frame clock, renders every Ok fixture (pulling
// textures lazily through GetTexture), then flushes every output touched
// this frame (spec.md §4.5).
func (r *Runtime) Tick(deltaMs uint32) error {
	r.frameID++
	r.frameTime = r.frameTime.Advance(deltaMs)
	ctx := &renderCtx{r: r}

	for _, h := range sortedHandles(r.nodes) {
		e := r.nodes[h]
		if e.Kind != model.KindFixture || e.Runtime == nil {
			continue
		}
		if e.Status.Kind != model.StatusOk {
			continue
		}
		if err := e.Runtime.Fixture.Render(ctx); err != nil {
			e.Status = model.Errorf(err.Error())
			e.StatusVer = r.frameID
			continue
		}
		e.StatusVer = r.frameID
	}

	for _, h := range sortedHandles(r.nodes) {
		e := r.nodes[h]
		if e.Kind != model.KindOutput || e.Runtime == nil {
			continue
		}
		if e.StateVer < r.frameID {
			continue
		}
		if err := e.Runtime.Output.Render(ctx); err != nil {
			return err
		}
	}
	return nil
}
