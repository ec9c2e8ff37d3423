package sema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/glsl/parser"
	"github.com/lightplayer/lightplayer/internal/glsl/sema"
	"github.com/lightplayer/lightplayer/internal/glsl/token"
)

func checkSource(t *testing.T, src string) (*sema.Checked, error) {
	t.Helper()
	toks, err := token.NewLexer(src).Tokenize()
	require.NoError(t, err)
	file, err := parser.New(toks).Parse()
	require.NoError(t, err)
	return sema.Check(file, src)
}

func TestCheckSimpleShader(t *testing.T) {
	src := `
vec4 main(vec2 uv, float t) {
    float r = sin(uv.x * 6.28 + t);
    float g = cos(uv.y * 6.28 + t);
    return vec4(r, g, 0.5, 1.0);
}
`
	checked, err := checkSource(t, src)
	require.NoError(t, err)
	sig, ok := checked.Sigs["main"]
	require.True(t, ok)
	require.Equal(t, "vec4", sig.Ret.String())
}

func TestCheckRejectsTypeMismatch(t *testing.T) {
	src := `
float main() {
    bool b = true;
    float x = b;
    return x;
}
`
	_, err := checkSource(t, src)
	require.Error(t, err)
}

func TestCheckRejectsConstAssign(t *testing.T) {
	src := `
float main() {
    const float c = 1.0;
    c = 2.0;
    return c;
}
`
	_, err := checkSource(t, src)
	require.Error(t, err)
}

func TestCheckRejectsUndeclaredIdent(t *testing.T) {
	src := `
float main() {
    return missing;
}
`
	_, err := checkSource(t, src)
	require.Error(t, err)
}

func TestCheckSwizzleAndVectorArith(t *testing.T) {
	src := `
vec3 main(vec3 a, vec3 b) {
    vec3 c = a.xyz + b * 2.0;
    return c.xyz;
}
`
	checked, err := checkSource(t, src)
	require.NoError(t, err)
	require.Equal(t, "vec3", checked.Sigs["main"].Ret.String())
}

func TestCheckTextureIntrinsic(t *testing.T) {
	src := `
vec4 main(vec2 uv) {
    return texture(0, uv);
}
`
	_, err := checkSource(t, src)
	require.NoError(t, err)
}

func TestCheckElementwiseClamp(t *testing.T) {
	src := `
vec3 main(vec3 v) {
    return clamp(v, 0.0, 1.0);
}
`
	_, err := checkSource(t, src)
	require.NoError(t, err)
}

func TestCheckForLoop(t *testing.T) {
	src := `
float main() {
    float sum = 0.0;
    for (int i = 0; i < 10; i = i + 1) {
        sum = sum + 1.0;
    }
    return sum;
}
`
	_, err := checkSource(t, src)
	require.NoError(t, err)
}

func TestCheckBreakOutsideLoop(t *testing.T) {
	src := `
void main() {
    break;
}
`
	_, err := checkSource(t, src)
	require.Error(t, err)
}
