package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestWriteTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	WriteTree(t, fs, map[string][]byte{
		"/a/b/c.txt": []byte("abc"),
		"/d.txt":     {},
	})

	data, err := afero.ReadFile(fs, "/a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	info, err := fs.Stat("/a/b")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	exists, err := afero.Exists(fs, "/d.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateTempTree(t *testing.T) {
	dir := CreateTempTree(t, map[string][]byte{
		"top.txt":        []byte("top"),
		"nested/low.txt": []byte("low"),
	})

	data, err := os.ReadFile(filepath.Join(dir, "nested", "low.txt"))
	require.NoError(t, err)
	assert.Equal(t, "low", string(data))
	assert.FileExists(t, filepath.Join(dir, "top.txt"))
}

func TestEncode(t *testing.T) {
	assert.Equal(t, []byte{'c', 'a', 'f', 0xE9}, Encode(t, charmap.ISO8859_1, "café"))
	assert.Equal(t, []byte{0, 'h', 0, 'i'}, Encode(t, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), "hi"))
}

func TestWaitForFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	info, err := os.Stat(path)
	require.NoError(t, err)
	before := info.ModTime()

	go func() {
		time.Sleep(20 * time.Millisecond)
		later := before.Add(time.Second)
		_ = os.Chtimes(path, later, later)
	}()

	WaitForFileChange(t, path, before, 2*time.Second)
}
