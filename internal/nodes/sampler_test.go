package nodes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/model"
)

// fakeRenderContext serves a fixed texture for every handle, used to test
// code that only needs RenderContext.GetTexture.
type fakeRenderContext struct {
	tex *Texture
	err error
}

func (f *fakeRenderContext) GetTexture(model.NodeHandle) (*Texture, error) { return f.tex, f.err }
func (f *fakeRenderContext) GetOutput(model.NodeHandle, uint32, uint32, uint32) ([]uint16, error) {
	return nil, nil
}
func (f *fakeRenderContext) FrameID() model.FrameId     { return 0 }
func (f *fakeRenderContext) FrameTime() model.FrameTime { return model.FrameTime{} }

func TestSamplerErrorsWhenNoRenderInProgress(t *testing.T) {
	s := newCtxSampler()
	_, err := s.Sample(0, 0.5, 0.5, 0)
	require.Error(t, err)
}

func TestSamplerDelegatesToCurrentRenderContext(t *testing.T) {
	tex := NewTexture(1, 1)
	tex.Pixels = []float32{0.25, 0, 0, 1}
	s := newCtxSampler()
	s.ctx = &fakeRenderContext{tex: tex}

	v, err := s.Sample(7, 0.5, 0.5, 0)
	require.NoError(t, err)
	require.InDelta(t, 0.25, v, 1e-4)
}
