package lpfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lightplayer/internal/lpfs"
)

func TestMemFsReadWriteDelete(t *testing.T) {
	fs := lpfs.NewMemFs()
	require.NoError(t, fs.WriteFile("a.txt", []byte("hello")))

	data, err := fs.ReadFile("a.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	require.NoError(t, fs.DeleteFile("a.txt"))
	_, err = fs.ReadFile("a.txt")
	require.Error(t, err)
}

func TestMemFsRejectsEscape(t *testing.T) {
	fs := lpfs.NewMemFs()
	require.Error(t, fs.WriteFile("../escape.txt", []byte("x")))
	require.Error(t, fs.WriteFile("/abs.txt", []byte("x")))
}

func TestMemFsListDirNonRecursiveGroupsByTopLevel(t *testing.T) {
	fs := lpfs.NewMemFs()
	require.NoError(t, fs.WriteFile("src/a.texture/node.json", []byte("{}")))
	require.NoError(t, fs.WriteFile("src/b.shader/node.json", []byte("{}")))
	require.NoError(t, fs.WriteFile("src/b.shader/main.glsl", []byte("x")))
	require.NoError(t, fs.WriteFile("project.json", []byte("{}")))

	entries, err := fs.ListDir("src", false)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.True(t, e.IsDir)
	}
}

func TestMemFsSubChroots(t *testing.T) {
	fs := lpfs.NewMemFs()
	require.NoError(t, fs.WriteFile("src/a.texture/node.json", []byte(`{"width":1}`)))

	sub, err := fs.Sub("src/a.texture")
	require.NoError(t, err)

	data, err := sub.ReadFile("node.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"width":1}`, string(data))

	_, err = sub.ReadFile("../b.texture/node.json")
	require.Error(t, err)
}

func TestMemFsDeleteDirectoryRemovesContents(t *testing.T) {
	fs := lpfs.NewMemFs()
	require.NoError(t, fs.WriteFile("src/a.texture/node.json", []byte("{}")))
	require.NoError(t, fs.DeleteFile("src/a.texture"))

	_, err := fs.ReadFile("src/a.texture/node.json")
	require.Error(t, err)
}
