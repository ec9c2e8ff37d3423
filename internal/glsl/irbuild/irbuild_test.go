package irbuild_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/glsl/irbuild"
	"github.com/lightplayer/lightplayer/internal/glsl/parser"
	"github.com/lightplayer/lightplayer/internal/glsl/sema"
	"github.com/lightplayer/lightplayer/internal/glsl/token"
)

func build(t *testing.T, src string) *sema.Checked {
	t.Helper()
	toks, err := token.NewLexer(src).Tokenize()
	require.NoError(t, err)
	file, err := parser.New(toks).Parse()
	require.NoError(t, err)
	checked, err := sema.Check(file, src)
	require.NoError(t, err)
	return checked
}

func TestBuildScalarArith(t *testing.T) {
	checked := build(t, `
float main(float a, float b) {
    return a + b * 2.0;
}
`)
	f, err := irbuild.Build(checked, checked.File.Functions[0])
	require.NoError(t, err)
	require.Contains(t, f.String(), "Fmulq")
	require.Contains(t, f.String(), "Iadd")
}

func TestBuildVectorReturnStructReturn(t *testing.T) {
	checked := build(t, `
vec3 main(vec3 a, vec3 b) {
    return a + b;
}
`)
	f, err := irbuild.Build(checked, checked.File.Functions[0])
	require.NoError(t, err)
	require.NotEmpty(t, f.Signature.Params)
	require.Equal(t, 0, len(f.Signature.Returns))
	out := f.String()
	require.True(t, strings.Contains(out, "Store"))
}

func TestBuildIfElse(t *testing.T) {
	checked := build(t, `
float main(float x) {
    float y;
    if (x > 0.0) {
        y = x;
    } else {
        y = -x;
    }
    return y;
}
`)
	f, err := irbuild.Build(checked, checked.File.Functions[0])
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(f.Blocks), 4)
}

func TestBuildForLoop(t *testing.T) {
	checked := build(t, `
float main() {
    float sum = 0.0;
    for (int i = 0; i < 10; i = i + 1) {
        sum = sum + 1.0;
    }
    return sum;
}
`)
	f, err := irbuild.Build(checked, checked.File.Functions[0])
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(f.Blocks), 4)
}

func TestBuildTextureSample(t *testing.T) {
	checked := build(t, `
vec4 main(vec2 uv) {
    return texture(0, uv);
}
`)
	f, err := irbuild.Build(checked, checked.File.Functions[0])
	require.NoError(t, err)
	require.Contains(t, f.String(), "Sample")
}
