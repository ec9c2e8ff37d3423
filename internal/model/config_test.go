package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/model"
)

func TestOutputConfigGpioStripRoundTrip(t *testing.T) {
	src := []byte(`{"GpioStrip":{"pin":4}}`)

	var cfg model.OutputConfig
	require.NoError(t, json.Unmarshal(src, &cfg))
	require.Equal(t, model.DriverGpioStrip, cfg.Driver)
	require.Equal(t, uint32(4), cfg.GpioPin)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.JSONEq(t, string(src), string(out))
}

func TestOutputConfigRejectsUnknownDriver(t *testing.T) {
	var cfg model.OutputConfig
	err := json.Unmarshal([]byte(`{"NeoPixelMatrix":{"pin":1}}`), &cfg)
	require.Error(t, err)
}

func TestShaderConfigInputsOptional(t *testing.T) {
	var cfg model.ShaderConfig
	require.NoError(t, json.Unmarshal([]byte(`{"glsl_path":"main.glsl","texture_spec":"/src/a.texture","render_order":1}`), &cfg))
	require.Empty(t, cfg.Inputs)

	require.NoError(t, json.Unmarshal([]byte(`{"glsl_path":"main.glsl","texture_spec":"/src/a.texture","render_order":1,"inputs":["/src/b.texture"]}`), &cfg))
	require.Equal(t, []string{"/src/b.texture"}, cfg.Inputs)
}

func TestNodeSpecifierResolve(t *testing.T) {
	require.Equal(t, model.LpPath("/src/foo.texture"), model.NodeSpecifier("/src/foo.texture").Resolve("/src/bar.shader"))
	require.Equal(t, model.LpPath("/src/foo.output"), model.NodeSpecifier("../foo.output").Resolve("/src/fix.fixture"))
}

func TestStatusHasRuntime(t *testing.T) {
	require.False(t, model.Created().HasRuntime())
	require.False(t, model.InitErrorf("boom").HasRuntime())
	require.True(t, model.Ok().HasRuntime())
	require.True(t, model.Warnf("careful").HasRuntime())
	require.True(t, model.Errorf("broken").HasRuntime())
}
