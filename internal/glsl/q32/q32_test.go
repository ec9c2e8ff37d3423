package q32_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/glsl/irbuild"
	"github.com/lightplayer/lightplayer/internal/glsl/parser"
	"github.com/lightplayer/lightplayer/internal/glsl/q32"
	"github.com/lightplayer/lightplayer/internal/glsl/ssa"
	"github.com/lightplayer/lightplayer/internal/glsl/sema"
	"github.com/lightplayer/lightplayer/internal/glsl/token"
)

func buildFunc(t *testing.T, src string) *ssa.Function {
	t.Helper()
	toks, err := token.NewLexer(src).Tokenize()
	require.NoError(t, err)
	file, err := parser.New(toks).Parse()
	require.NoError(t, err)
	checked, err := sema.Check(file, src)
	require.NoError(t, err)
	f, err := irbuild.Build(checked, checked.File.Functions[0])
	require.NoError(t, err)
	return f
}

func TestTransformRewritesFloatMultiply(t *testing.T) {
	f := buildFunc(t, `
float main(float a, float b) {
    return a * b;
}
`)
	require.Contains(t, f.String(), "Fmulq")
	q32.Transform(f)
	out := f.String()
	require.False(t, strings.Contains(out, "Fmulq"))
	require.True(t, strings.Contains(out, "__lp_q32_mul"))
}

func TestTransformRewritesSqrtAndClamp(t *testing.T) {
	f := buildFunc(t, `
float main(float x) {
    return clamp(sqrt(x), 0.0, 1.0);
}
`)
	q32.Transform(f)
	out := f.String()
	require.True(t, strings.Contains(out, "__lp_q32_sqrt"))
	require.True(t, strings.Contains(out, "__lp_q32_clamp"))
}

func TestTransformRewritesSample(t *testing.T) {
	f := buildFunc(t, `
vec4 main(vec2 uv) {
    return texture(0, uv);
}
`)
	q32.Transform(f)
	require.True(t, strings.Contains(f.String(), "__lp_sample"))
}
