package nodes

import (
	"fmt"

	"github.com/lightplayer/lightplayer/internal/model"
)

// ctxSampler adapts the current RenderContext to exec.Sampler, servicing
// the `texture()` intrinsic's __lp_sample calls by dispatching through
// RenderContext.GetTexture — which is what actually triggers the lazy
// scheduler (spec.md §4.5) for whichever texture node the shader names.
// ctx is swapped in/out around each Render call rather than captured once
// at compile time, since a fresh render context is constructed per frame
// (and, in principle, could differ between nested render calls within one
// frame — mirrors the original's per-call RenderContextImpl).
type ctxSampler struct {
	ctx RenderContext
}

func newCtxSampler() *ctxSampler { return &ctxSampler{} }

func (s *ctxSampler) Sample(handle uint32, u, v float32, channel uint8) (float32, error) {
	if s.ctx == nil {
		return 0, fmt.Errorf("nodes: texture() sampled outside of a render call")
	}
	tex, err := s.ctx.GetTexture(model.NodeHandle(handle))
	if err != nil {
		return 0, err
	}
	return tex.SampleBilinear(u, v, channel), nil
}
