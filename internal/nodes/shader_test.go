package nodes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/lpfs"
	"github.com/lightplayer/lightplayer/internal/model"
	"github.com/lightplayer/lightplayer/internal/nodes"
)

type shaderTestResolver struct {
	texture model.NodeHandle
}

func (r *shaderTestResolver) ResolveNode(model.NodeSpecifier, model.LpPath) (model.NodeHandle, model.NodeKind, error) {
	return r.texture, model.KindTexture, nil
}
func (r *shaderTestResolver) ResolveTexture(model.NodeSpecifier, model.LpPath) (model.NodeHandle, error) {
	return r.texture, nil
}
func (r *shaderTestResolver) ResolveOutput(model.NodeSpecifier, model.LpPath) (model.NodeHandle, error) {
	return 0, nil
}

func newShaderInitContext(fs lpfs.LpFs) *nodes.InitContext {
	return &nodes.InitContext{
		Fs:       fs,
		NodePath: "/src/sh.shader",
		Resolver: &shaderTestResolver{texture: 3},
	}
}

func TestShaderRuntimeInitCompilesValidSource(t *testing.T) {
	fs := lpfs.NewMemFs()
	require.NoError(t, fs.WriteFile("main.glsl", []byte("vec4 main(float u, float v, float t) { return vec4(u, v, 0.0, 1.0); }")))

	r := nodes.NewShaderRuntime(model.ShaderConfig{GlslPath: "main.glsl", TextureSpec: "../tex.texture", RenderOrder: 2})
	require.NoError(t, r.Init(newShaderInitContext(fs)))
	require.Empty(t, r.CompilationError())
	require.True(t, r.TargetsTexture(3))
	require.EqualValues(t, 2, r.RenderOrder())
}

func TestShaderRuntimeInitRecordsCompileErrorWithoutFailingInit(t *testing.T) {
	fs := lpfs.NewMemFs()
	require.NoError(t, fs.WriteFile("main.glsl", []byte("this is not glsl")))

	r := nodes.NewShaderRuntime(model.ShaderConfig{GlslPath: "main.glsl", TextureSpec: "../tex.texture"})
	require.NoError(t, r.Init(newShaderInitContext(fs)))
	require.NotEmpty(t, r.CompilationError())
}

func TestShaderRuntimeHandleFsChangeRecompilesOnlyOwnSource(t *testing.T) {
	fs := lpfs.NewMemFs()
	require.NoError(t, fs.WriteFile("main.glsl", []byte("this is not glsl")))

	r := nodes.NewShaderRuntime(model.ShaderConfig{GlslPath: "main.glsl", TextureSpec: "../tex.texture"})
	ictx := newShaderInitContext(fs)
	require.NoError(t, r.Init(ictx))
	require.NotEmpty(t, r.CompilationError())

	require.NoError(t, fs.WriteFile("main.glsl", []byte("vec4 main(float u, float v, float t) { return vec4(u, v, 0.0, 1.0); }")))

	require.NoError(t, r.HandleFsChange("unrelated.txt", ictx))
	require.NotEmpty(t, r.CompilationError(), "a change to an unrelated file must not trigger a recompile")

	require.NoError(t, r.HandleFsChange("main.glsl", ictx))
	require.Empty(t, r.CompilationError())
}
