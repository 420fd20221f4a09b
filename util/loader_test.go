package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFilesystemCreateTemp(t *testing.T) {
	fsys := OSFilesystem{TempDir: t.TempDir()}

	a, err := fsys.CreateTemp("image_", ".png", []byte("abc"))
	require.NoError(t, err)
	b, err := fsys.CreateTemp("image_", ".png", []byte("abc"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "temp names must be unique")
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.True(t, strings.HasPrefix(filepath.Base(a), "image_"))

	data, err := fsys.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	require.NoError(t, fsys.Remove(a))
	require.NoError(t, fsys.Remove(b))
	_, err = os.Stat(a)
	assert.True(t, os.IsNotExist(err))
}

func TestOSFilesystemWriteAndMkdir(t *testing.T) {
	fsys := OSFilesystem{}
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, fsys.MkdirAll(dir))
	path := filepath.Join(dir, "out.png")
	require.NoError(t, fsys.WriteFile(path, []byte{1, 2, 3}))

	info, err := fsys.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())
	assert.True(t, info.Mode().IsRegular())
}

func TestIsWithin(t *testing.T) {
	wd := filepath.FromSlash("/work/dir")
	tests := []struct {
		path string
		want bool
	}{
		{path: "out.png", want: true},
		{path: "thumbs/out.png", want: true},
		{path: "../out.png", want: false},
		{path: "thumbs/../../out.png", want: false},
		{path: "..foo/out.png", want: true},
		{path: "/work/dir/out.png", want: true},
		{path: "/work/dir", want: true},
		{path: "/work/dirty/out.png", want: false},
		{path: "/tmp/out.png", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWithin(wd, filepath.FromSlash(tt.path)))
		})
	}
}
