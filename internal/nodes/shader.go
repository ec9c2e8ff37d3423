package nodes

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lightplayer/lightplayer/internal/glsl/compiler"
	"github.com/lightplayer/lightplayer/internal/glsl/exec"
	"github.com/lightplayer/lightplayer/internal/glsl/rvexec"
	"github.com/lightplayer/lightplayer/internal/lpfs"
	"github.com/lightplayer/lightplayer/internal/model"
)

// ShaderRuntime owns a compiled GLSL executable and the handles it resolved
// its texture dependencies to (spec.md §3.3, §4.3-§4.5). It drives the
// emulator backend (rvexec), not the host backend, since the project
// runtime's determinism/portability requirements (spec.md §1's "deterministic
// behavior and cross-target portability") apply just as much to production
// rendering as to testing — an Open Question resolved in DESIGN.md.
type ShaderRuntime struct {
	glslPath    string
	targetSpec  model.NodeSpecifier
	inputSpecs  []string
	renderOrder int32

	target model.NodeHandle
	inputs []model.NodeHandle

	fs      lpfs.LpFs
	logger  *log.Logger
	sampler *ctxSampler
	exec    exec.GlslExecutable

	compileErr string
}

// NewShaderRuntime builds an uninitialized runtime from a shader node's
// config; Init resolves its texture dependencies and performs the first
// compile.
func NewShaderRuntime(cfg model.ShaderConfig) *ShaderRuntime {
	return &ShaderRuntime{
		glslPath:    cfg.GlslPath,
		targetSpec:  model.NodeSpecifier(cfg.TextureSpec),
		inputSpecs:  append([]string(nil), cfg.Inputs...),
		renderOrder: cfg.RenderOrder,
	}
}

// Init resolves the shader's target/input texture specifiers and performs
// the first GLSL compile. A resolver failure is a structural init error
// (spec.md §3.3's InitError); a GLSL compile failure is not — it is
// recorded in compileErr and surfaces as a node-level Error after a
// successful init, per spec.md §4.5.
func (r *ShaderRuntime) Init(ictx *InitContext) error {
	// A node's on-disk directory holds its own node.json, so relative
	// specifiers resolve against the node's own path, not its parent
	// (spec.md §6: "../foo.output" from "/src/fix.fixture/node.json"
	// means the directory containing that file, "/src/fix.fixture").
	self := ictx.NodePath
	target, err := ictx.Resolver.ResolveTexture(r.targetSpec, self)
	if err != nil {
		return err
	}
	r.target = target

	r.inputs = make([]model.NodeHandle, 0, len(r.inputSpecs))
	for _, spec := range r.inputSpecs {
		h, err := ictx.Resolver.ResolveTexture(model.NodeSpecifier(spec), self)
		if err != nil {
			return err
		}
		r.inputs = append(r.inputs, h)
	}

	r.fs = ictx.Fs
	r.logger = ictx.Logger
	r.sampler = newCtxSampler()
	r.recompile()
	return nil
}

// recompile reads the GLSL source and rebuilds the executable. It never
// returns an error directly — a failure is recorded in compileErr, per
// spec.md §4.6's "the recompilation returns Ok(()) either way".
func (r *ShaderRuntime) recompile() {
	src, err := r.fs.ReadFile(r.glslPath)
	if err != nil {
		r.compileErr = err.Error()
		return
	}
	build, err := compiler.Compile(r.glslPath, string(src))
	if err != nil {
		r.compileErr = err.Error()
		return
	}
	r.exec = rvexec.New(build.Object, build.Sigs, r.sampler, build.Source, build.Locs, r.logger)
	r.compileErr = ""
}

// CompilationError is the project runtime's inspector into this shader's
// own recompilation-error slot (spec.md §4.6).
func (r *ShaderRuntime) CompilationError() string { return r.compileErr }

// TargetsTexture reports whether this shader renders into handle, used by
// the lazy scheduler to collect candidates (spec.md §4.5 step 2).
func (r *ShaderRuntime) TargetsTexture(handle model.NodeHandle) bool { return r.target == handle }

// RenderOrder is the ascending sort key among shaders targeting the same
// texture (spec.md §4.5 step 2).
func (r *ShaderRuntime) RenderOrder() int32 { return r.renderOrder }

// Render evaluates `main` once per texel of the target texture, passing
// resolved input-texture handles (as leading int arguments), then the
// texel's normalized (u,v) and elapsed time in seconds. A failure anywhere
// is wrapped so its message contains "Shader execution failed", the
// substring the lazy scheduler matches to contain the error at the shader
// boundary (spec.md §4.5 step 4) instead of propagating it.
func (r *ShaderRuntime) Render(ctx RenderContext) error {
	if r.compileErr != "" {
		return fmt.Errorf("Shader execution failed: compilation error: %s", r.compileErr)
	}
	tex, err := ctx.GetTexture(r.target)
	if err != nil {
		return err
	}

	r.sampler.ctx = ctx
	defer func() { r.sampler.ctx = nil }()

	seconds := float32(ctx.FrameTime().TotalMs) / 1000
	base := make([]exec.Value, 0, len(r.inputs))
	for _, in := range r.inputs {
		base = append(base, exec.Int(int32(in)))
	}

	w, h := int(tex.Width), int(tex.Height)
	args := make([]exec.Value, len(base)+3)
	copy(args, base)
	for y := 0; y < h; y++ {
		v := (float32(y) + 0.5) / float32(h)
		for x := 0; x < w; x++ {
			u := (float32(x) + 0.5) / float32(w)
			args[len(base)] = exec.Float(u)
			args[len(base)+1] = exec.Float(v)
			args[len(base)+2] = exec.Float(seconds)
			color, err := r.exec.CallVec("main", args, 4)
			if err != nil {
				return fmt.Errorf("Shader execution failed: %w", err)
			}
			idx := (y*w + x) * 4
			copy(tex.Pixels[idx:idx+4], color)
		}
	}
	return nil
}

// UpdateConfig applies a reloaded node.json: target/inputs/render order may
// all change, which requires re-resolving against the (possibly
// unchanged) InitContext.
func (r *ShaderRuntime) UpdateConfig(cfg model.NodeConfig, ictx *InitContext) error {
	if cfg.Shader == nil {
		return nil
	}
	r.glslPath = cfg.Shader.GlslPath
	r.targetSpec = model.NodeSpecifier(cfg.Shader.TextureSpec)
	r.inputSpecs = append([]string(nil), cfg.Shader.Inputs...)
	r.renderOrder = cfg.Shader.RenderOrder
	return r.Init(ictx)
}

// HandleFsChange recompiles when the changed file is this shader's GLSL
// source (spec.md §4.6).
func (r *ShaderRuntime) HandleFsChange(relPath string, _ *InitContext) error {
	if relPath == r.glslPath {
		r.recompile()
	}
	return nil
}
