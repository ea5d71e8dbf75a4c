// Package testutils holds fixture helpers shared by the package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
)

// WriteTree writes files into fs, creating parent directories as needed.
func WriteTree(t *testing.T, fs afero.Fs, files map[string][]byte) {
	t.Helper()

	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, content, 0o644))
	}
}

// CreateTempTree writes files, keyed by slash separated relative paths, into a
// fresh temporary directory and returns that directory.
func CreateTempTree(t *testing.T, files map[string][]byte) string {
	t.Helper()

	dir := t.TempDir()
	rooted := make(map[string][]byte, len(files))
	for rel, content := range files {
		rooted[filepath.Join(dir, filepath.FromSlash(rel))] = content
	}
	WriteTree(t, afero.NewOsFs(), rooted)

	return dir
}

// Encode returns text as encoded by enc.
func Encode(t *testing.T, enc encoding.Encoding, text string) []byte {
	t.Helper()

	data, err := enc.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	return data
}

// WaitForFileChange waits for a file to be modified past originalModTime.
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	t.Helper()

	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}
