package project_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/lpfs"
	"github.com/lightplayer/lightplayer/internal/model"
	"github.com/lightplayer/lightplayer/internal/output"
	"github.com/lightplayer/lightplayer/internal/project"
)

// buildProject writes a minimal but complete project (one texture, one
// shader rendering into it, one GPIO output, one fixture sampling the
// texture into the output) to an in-memory filesystem.
func buildProject(t *testing.T) lpfs.LpFs {
	t.Helper()
	fs := lpfs.NewMemFs()

	require.NoError(t, fs.WriteFile("project.json", []byte(`{"uid":"p1","name":"test project"}`)))
	require.NoError(t, fs.WriteFile("src/tex.texture/node.json", []byte(`{"width":2,"height":2}`)))
	require.NoError(t, fs.WriteFile("src/sh.shader/node.json", []byte(`{"glsl_path":"main.glsl","texture_spec":"../tex.texture","render_order":0}`)))
	require.NoError(t, fs.WriteFile("src/sh.shader/main.glsl", []byte(`
vec4 main(float u, float v, float t) {
    return vec4(u, v, 0.0, 1.0);
}
`)))
	require.NoError(t, fs.WriteFile("src/out.output/node.json", []byte(`{"GpioStrip":{"pin":4}}`)))
	require.NoError(t, fs.WriteFile("src/fix.fixture/node.json", []byte(`{
  "output_spec": "../out.output",
  "texture_spec": "../tex.texture",
  "mapping": [{"center_x":0.25,"center_y":0.25,"radius":0,"channel":0}],
  "transform": [[1,0,0,0],[0,1,0,0],[0,0,1,0],[0,0,0,1]],
  "color_order": "rgb"
}`)))

	return fs
}

func newTestRuntime(t *testing.T) *project.Runtime {
	t.Helper()
	fs := buildProject(t)
	provider := output.NewLogProvider(nil)
	rt, err := project.New(fs, provider, nil)
	require.NoError(t, err)
	require.NoError(t, rt.InitNodes())
	return rt
}

func TestInitNodesBringsEveryNodeToOk(t *testing.T) {
	rt := newTestRuntime(t)
	resp := rt.GetChanges(0, model.ApiNodeSpecifier{Kind: model.SelectorAll})
	require.Len(t, resp.NodeHandles, 4)
	for _, detail := range resp.NodeDetails {
		require.Equal(t, model.StatusOk, detail.Status.Kind, "node %s: %s", detail.Path, detail.Status.Message)
	}
}

func TestTickRendersShaderAndFlushesFixture(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.Tick(16))
	require.NoError(t, rt.Tick(16))

	resp := rt.GetChanges(0, model.ApiNodeSpecifier{Kind: model.SelectorAll})
	for _, detail := range resp.NodeDetails {
		require.Equal(t, model.StatusOk, detail.Status.Kind, "node %s: %s", detail.Path, detail.Status.Message)
	}
}

// TestSyncDeltaOnlyReportsChangesSinceFrame exercises spec.md §3.4's delta
// contract: once no further ticks have touched a node, re-syncing at the
// current frame should report no changes at all for it, while an initial
// (since=0) sync always reports a StatusChanged for every node.
func TestSyncDeltaOnlyReportsChangesSinceFrame(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.Tick(16))

	initial := rt.GetChanges(0, model.ApiNodeSpecifier{Kind: model.SelectorNone})
	require.Len(t, initial.NodeChanges, len(initial.NodeHandles))

	current := rt.GetChanges(initial.CurrentFrame, model.ApiNodeSpecifier{Kind: model.SelectorNone})
	require.Empty(t, current.NodeChanges)
}

func TestRecompileErrorIsContainedAtShaderBoundary(t *testing.T) {
	fs := buildProject(t)
	require.NoError(t, fs.WriteFile("src/sh.shader/main.glsl", []byte(`this is not glsl`)))

	provider := output.NewLogProvider(nil)
	rt, err := project.New(fs, provider, nil)
	require.NoError(t, err)
	require.NoError(t, rt.InitNodes())

	require.NoError(t, rt.Tick(16))

	resp := rt.GetChanges(0, model.ApiNodeSpecifier{Kind: model.SelectorAll})
	var sawShaderError bool
	for _, d := range resp.NodeDetails {
		if d.Kind == model.KindShader {
			require.Equal(t, model.StatusError, d.Status.Kind)
			sawShaderError = true
		}
	}
	require.True(t, sawShaderError)
}
