package nodes

import (
	"image"
	"math"
	"strings"

	ximage "golang.org/x/image/draw"

	"github.com/lightplayer/lightplayer/internal/model"
)

// FixtureRuntime owns a mapping from texture-space points to output
// channels, an affine transform applied to those points, and per-channel
// color-order/gamma/brightness correction (spec.md §3.3).
type FixtureRuntime struct {
	outputSpec  model.NodeSpecifier
	textureSpec model.NodeSpecifier
	mapping     []model.MappingCell
	transform   [4][4]float64
	colorOrder  [3]int
	gamma       float64
	brightness  float64

	output  model.NodeHandle
	texture model.NodeHandle
}

// NewFixtureRuntime builds an uninitialized runtime from a fixture node's
// config.
func NewFixtureRuntime(cfg model.FixtureConfig) *FixtureRuntime {
	return &FixtureRuntime{
		outputSpec:  model.NodeSpecifier(cfg.OutputSpec),
		textureSpec: model.NodeSpecifier(cfg.TextureSpec),
		mapping:     append([]model.MappingCell(nil), cfg.Mapping...),
		transform:   cfg.Transform,
		colorOrder:  colorOrderIndices(cfg.ColorOrder),
		gamma:       cfg.Gamma,
		brightness:  cfg.Brightness,
	}
}

func (r *FixtureRuntime) Init(ictx *InitContext) error {
	// See ShaderRuntime.Init: relative specifiers resolve against the
	// node's own directory, since that directory is what holds node.json.
	self := ictx.NodePath
	out, err := ictx.Resolver.ResolveOutput(r.outputSpec, self)
	if err != nil {
		return err
	}
	tex, err := ictx.Resolver.ResolveTexture(r.textureSpec, self)
	if err != nil {
		return err
	}
	r.output = out
	r.texture = tex
	return nil
}

func (r *FixtureRuntime) UpdateConfig(cfg model.NodeConfig, ictx *InitContext) error {
	if cfg.Fixture == nil {
		return nil
	}
	r.outputSpec = model.NodeSpecifier(cfg.Fixture.OutputSpec)
	r.textureSpec = model.NodeSpecifier(cfg.Fixture.TextureSpec)
	r.mapping = append([]model.MappingCell(nil), cfg.Fixture.Mapping...)
	r.transform = cfg.Fixture.Transform
	r.colorOrder = colorOrderIndices(cfg.Fixture.ColorOrder)
	r.gamma = cfg.Fixture.Gamma
	r.brightness = cfg.Fixture.Brightness
	return r.Init(ictx)
}

// Render samples the target texture at every mapping cell (through the
// fixture's affine transform and a radius-aware area average) and writes
// the corrected, reordered channel triplets into the resolved output's
// channel window (spec.md §3.3, §4.5's "ctx.get_output" step).
func (r *FixtureRuntime) Render(ctx RenderContext) error {
	tex, err := ctx.GetTexture(r.texture)
	if err != nil {
		return err
	}
	if len(r.mapping) == 0 {
		return nil
	}

	maxChannel := uint32(0)
	for _, cell := range r.mapping {
		if cell.Channel > maxChannel {
			maxChannel = cell.Channel
		}
	}
	win, err := ctx.GetOutput(r.output, 0, 0, (maxChannel+1)*3)
	if err != nil {
		return err
	}

	img := tex.ToNRGBA()
	for _, cell := range r.mapping {
		tx, ty := applyTransform(r.transform, cell.CenterX, cell.CenterY)
		rr, gg, bb := r.sampleCell(img, tex, tx, ty, cell.Radius)
		rr = r.correct(rr)
		gg = r.correct(gg)
		bb = r.correct(bb)
		rgb := [3]float64{rr, gg, bb}
		base := cell.Channel * 3
		if int(base)+2 >= len(win) {
			continue
		}
		win[base] = to16(rgb[r.colorOrder[0]])
		win[base+1] = to16(rgb[r.colorOrder[1]])
		win[base+2] = to16(rgb[r.colorOrder[2]])
	}
	return nil
}

// sampleCell reads an area-averaged color around normalized (u,v) with the
// given normalized radius, using golang.org/x/image/draw's bilinear scaler
// to downsample a crop of the texture to a single pixel — an honest area
// filter rather than a hand-rolled box blur, matching what MappingCell's
// radius field calls for (a lamp covers more than one texel).
func (r *FixtureRuntime) sampleCell(img *image.NRGBA, tex *Texture, u, v, radius float64) (rr, gg, bb float64) {
	if radius <= 0 {
		c := img.NRGBAAt(clampInt(int(u*float64(tex.Width)), 0, int(tex.Width)-1), clampInt(int(v*float64(tex.Height)), 0, int(tex.Height)-1))
		return from8(c.R), from8(c.G), from8(c.B)
	}
	cx := u * float64(tex.Width)
	cy := v * float64(tex.Height)
	rad := radius * float64(tex.Width)
	x0 := clampInt(int(math.Floor(cx-rad)), 0, int(tex.Width)-1)
	x1 := clampInt(int(math.Ceil(cx+rad)), 0, int(tex.Width))
	y0 := clampInt(int(math.Floor(cy-rad)), 0, int(tex.Height)-1)
	y1 := clampInt(int(math.Ceil(cy+rad)), 0, int(tex.Height))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	src := img.SubImage(image.Rect(x0, y0, x1, y1))
	dst := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	ximage.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), ximage.Over, nil)
	c := dst.NRGBAAt(0, 0)
	return from8(c.R), from8(c.G), from8(c.B)
}

func (r *FixtureRuntime) correct(v float64) float64 {
	if r.gamma > 0 {
		v = math.Pow(v, r.gamma)
	}
	if r.brightness > 0 {
		v *= r.brightness
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v
}

func applyTransform(m [4][4]float64, x, y float64) (float64, float64) {
	vec := [4]float64{x, y, 0, 1}
	var out [4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i] += m[i][j] * vec[j]
		}
	}
	if out[3] != 0 && out[3] != 1 {
		return out[0] / out[3], out[1] / out[3]
	}
	return out[0], out[1]
}

func colorOrderIndices(order string) [3]int {
	switch strings.ToLower(order) {
	case "grb":
		return [3]int{1, 0, 2}
	case "bgr":
		return [3]int{2, 1, 0}
	case "brg":
		return [3]int{2, 0, 1}
	case "gbr":
		return [3]int{1, 2, 0}
	case "rbg":
		return [3]int{0, 2, 1}
	default:
		return [3]int{0, 1, 2} // rgb
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func from8(v uint8) float64 { return float64(v) / 255 }

func to16(v float64) uint16 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint16(v*65535 + 0.5)
}
