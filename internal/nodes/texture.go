package nodes

import (
	"image"
	"image/color"

	"github.com/lightplayer/lightplayer/internal/model"
)

// Texture is a logical RGBA pixel buffer a shader renders into and a
// fixture (or another shader, via the `texture()` intrinsic) samples from
// (spec.md §3.3). Pixels is row-major, four float32 components per pixel
// in [0,1]-ish range (shaders are free to write outside that range; samplers
// clamp on read).
type Texture struct {
	Width, Height uint32
	Pixels        []float32
}

// NewTexture allocates a zeroed buffer sized width*height*4 float32s.
func NewTexture(width, height uint32) *Texture {
	return &Texture{Width: width, Height: height, Pixels: make([]float32, int(width)*int(height)*4)}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// at reads the raw float component at (x,y,channel), clamping coordinates
// to the texture edge (GL_CLAMP_TO_EDGE, the only addressing mode spec.md
// requires).
func (t *Texture) at(x, y int, channel uint8) float32 {
	if x < 0 {
		x = 0
	}
	if x >= int(t.Width) {
		x = int(t.Width) - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= int(t.Height) {
		y = int(t.Height) - 1
	}
	idx := (y*int(t.Width)+x)*4 + int(channel)
	if idx < 0 || idx >= len(t.Pixels) {
		return 0
	}
	return t.Pixels[idx]
}

// SampleBilinear reads channel at normalized [0,1] coordinates (u,v),
// interpolating between the four nearest texels — the addressing mode
// the GLSL `texture()` intrinsic uses (spec.md §4.3's texture sampling
// intrinsic; the exact filter isn't specified, bilinear is the
// conventional GLSL default).
func (t *Texture) SampleBilinear(u, v float32, channel uint8) float32 {
	if t.Width == 0 || t.Height == 0 {
		return 0
	}
	fx := clamp01(u)*float32(t.Width) - 0.5
	fy := clamp01(v)*float32(t.Height) - 0.5
	x0, y0 := int(fx), int(fy)
	if fx < 0 {
		x0--
	}
	if fy < 0 {
		y0--
	}
	tx, ty := fx-float32(x0), fy-float32(y0)
	c00 := t.at(x0, y0, channel)
	c10 := t.at(x0+1, y0, channel)
	c01 := t.at(x0, y0+1, channel)
	c11 := t.at(x0+1, y0+1, channel)
	top := c00 + (c10-c00)*tx
	bottom := c01 + (c11-c01)*tx
	return top + (bottom-top)*ty
}

// ToNRGBA renders the buffer into a standard-library image, used by
// FixtureRuntime's area-sampling (golang.org/x/image/draw scales this, not
// the raw float buffer, since draw.Scaler operates on image.Image).
func (t *Texture) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, int(t.Width), int(t.Height)))
	for y := 0; y < int(t.Height); y++ {
		for x := 0; x < int(t.Width); x++ {
			idx := (y*int(t.Width) + x) * 4
			img.SetNRGBA(x, y, color.NRGBA{
				R: to8(t.Pixels[idx]),
				G: to8(t.Pixels[idx+1]),
				B: to8(t.Pixels[idx+2]),
				A: to8(t.Pixels[idx+3]),
			})
		}
	}
	return img
}

func to8(v float32) uint8 {
	v = clamp01(v)
	return uint8(v*255 + 0.5)
}

// TextureRuntime owns a Texture's pixel buffer for its node's lifetime.
type TextureRuntime struct {
	Tex *Texture
}

// NewTextureRuntime allocates a runtime from a texture node's config.
func NewTextureRuntime(cfg model.TextureConfig) *TextureRuntime {
	return &TextureRuntime{Tex: NewTexture(cfg.Width, cfg.Height)}
}

// UpdateConfig resizes the buffer, discarding prior contents, when width
// or height change — a hot-reloaded texture node re-renders from scratch.
func (r *TextureRuntime) UpdateConfig(cfg model.NodeConfig) error {
	if cfg.Texture == nil {
		return nil
	}
	if cfg.Texture.Width != r.Tex.Width || cfg.Texture.Height != r.Tex.Height {
		r.Tex = NewTexture(cfg.Texture.Width, cfg.Texture.Height)
	}
	return nil
}
