package nodes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/model"
	"github.com/lightplayer/lightplayer/internal/nodes"
)

func TestTextureSampleBilinearExactTexelCenters(t *testing.T) {
	tex := nodes.NewTexture(2, 2)
	// channel 0 (red): top-left=0, top-right=1, bottom-left=0, bottom-right=1
	set := func(x, y int, v float32) {
		idx := (y*2 + x) * 4
		tex.Pixels[idx] = v
	}
	set(0, 0, 0)
	set(1, 0, 1)
	set(0, 1, 0)
	set(1, 1, 1)

	require.InDelta(t, 0, tex.SampleBilinear(0.25, 0.25, 0), 1e-4)
	require.InDelta(t, 1, tex.SampleBilinear(0.75, 0.25, 0), 1e-4)
	require.InDelta(t, 0.5, tex.SampleBilinear(0.5, 0.25, 0), 1e-4)
}

func TestTextureRuntimeUpdateConfigResizesOnDimensionChange(t *testing.T) {
	rt := nodes.NewTextureRuntime(model.TextureConfig{Width: 4, Height: 4})
	require.EqualValues(t, 4, rt.Tex.Width)

	require.NoError(t, rt.UpdateConfig(model.NodeConfig{Texture: &model.TextureConfig{Width: 8, Height: 2}}))
	require.EqualValues(t, 8, rt.Tex.Width)
	require.EqualValues(t, 2, rt.Tex.Height)
}

func TestTextureToNRGBARoundTripsFullWhite(t *testing.T) {
	tex := nodes.NewTexture(1, 1)
	tex.Pixels = []float32{1, 1, 1, 1}
	img := tex.ToNRGBA()
	c := img.NRGBAAt(0, 0)
	require.EqualValues(t, 255, c.R)
	require.EqualValues(t, 255, c.G)
	require.EqualValues(t, 255, c.B)
	require.EqualValues(t, 255, c.A)
}
