package nodes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/model"
)

type fakeResolver struct {
	texture model.NodeHandle
	output  model.NodeHandle
}

func (f *fakeResolver) ResolveNode(model.NodeSpecifier, model.LpPath) (model.NodeHandle, model.NodeKind, error) {
	return 0, model.KindTexture, nil
}
func (f *fakeResolver) ResolveTexture(model.NodeSpecifier, model.LpPath) (model.NodeHandle, error) {
	return f.texture, nil
}
func (f *fakeResolver) ResolveOutput(model.NodeSpecifier, model.LpPath) (model.NodeHandle, error) {
	return f.output, nil
}

// fixtureRenderContext serves a fixed texture and a growable output window,
// enough to drive FixtureRuntime.Render end to end.
type fixtureRenderContext struct {
	tex *Texture
	win []uint16
}

func (c *fixtureRenderContext) GetTexture(model.NodeHandle) (*Texture, error) { return c.tex, nil }
func (c *fixtureRenderContext) GetOutput(_ model.NodeHandle, _, _, chCount uint32) ([]uint16, error) {
	if uint32(len(c.win)) < chCount {
		c.win = make([]uint16, chCount)
	}
	return c.win, nil
}
func (c *fixtureRenderContext) FrameID() model.FrameId     { return 0 }
func (c *fixtureRenderContext) FrameTime() model.FrameTime { return model.FrameTime{} }

func TestFixtureRuntimeInitResolvesOutputAndTexture(t *testing.T) {
	r := NewFixtureRuntime(model.FixtureConfig{OutputSpec: "../out.output", TextureSpec: "../tex.texture"})
	resolver := &fakeResolver{texture: 5, output: 9}
	require.NoError(t, r.Init(&InitContext{Resolver: resolver, NodePath: "/src/fix.fixture"}))
	require.Equal(t, model.NodeHandle(5), r.texture)
	require.Equal(t, model.NodeHandle(9), r.output)
}

func identityTransform() [4][4]float64 {
	var m [4][4]float64
	for i := 0; i < 4; i++ {
		m[i][i] = 1
	}
	return m
}

func TestFixtureRuntimeRenderWritesCorrectedRGBIntoOutputWindow(t *testing.T) {
	r := NewFixtureRuntime(model.FixtureConfig{
		OutputSpec:  "../out.output",
		TextureSpec: "../tex.texture",
		Mapping:     []model.MappingCell{{CenterX: 0.5, CenterY: 0.5, Radius: 0, Channel: 0}},
		Transform:   identityTransform(),
		ColorOrder:  "grb",
	})
	require.NoError(t, r.Init(&InitContext{Resolver: &fakeResolver{}, NodePath: "/src/fix.fixture"}))

	tex := NewTexture(2, 2)
	for i := range tex.Pixels {
		tex.Pixels[i] = 0
	}
	// set every texel's (r,g,b,a) so the sampled point reads back r=1,g=0,b=0
	for i := 0; i < 4; i++ {
		tex.Pixels[i*4+0] = 1
		tex.Pixels[i*4+3] = 1
	}

	ctx := &fixtureRenderContext{tex: tex}
	require.NoError(t, r.Render(ctx))

	require.Len(t, ctx.win, 3)
	// color_order "grb" swaps green and red into channel slots: slot0=g(0), slot1=r(1), slot2=b(0)
	require.EqualValues(t, 0, ctx.win[0])
	require.Greater(t, ctx.win[1], uint16(0))
	require.EqualValues(t, 0, ctx.win[2])
}

func TestColorOrderIndices(t *testing.T) {
	require.Equal(t, [3]int{0, 1, 2}, colorOrderIndices("rgb"))
	require.Equal(t, [3]int{2, 1, 0}, colorOrderIndices("bgr"))
	require.Equal(t, [3]int{0, 1, 2}, colorOrderIndices("unknown"))
}
