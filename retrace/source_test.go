package retrace

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

const sourceContent = "com.example.Foo -> a:\n    void bar() -> b\n"

func writeGzip(t *testing.T, path string, content string) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	writer := gzip.NewWriter(file)
	_, err = writer.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
}

func writeXz(t *testing.T, path string, content string) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	writer, err := xz.NewWriter(file)
	require.NoError(t, err)
	_, err = writer.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
}

func readAll(t *testing.T, path string) string {
	t.Helper()

	reader, err := Open(path)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	return string(content)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "mapping.txt")
	require.NoError(t, os.WriteFile(plain, []byte(sourceContent), 0o644))
	gz := filepath.Join(dir, "mapping.txt.gz")
	writeGzip(t, gz, sourceContent)
	xzPath := filepath.Join(dir, "mapping.txt.xz")
	writeXz(t, xzPath, sourceContent)

	for _, path := range []string{plain, gz, xzPath} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			assert.Equal(t, sourceContent, readAll(t, path))
		})
	}
}

func TestOpenLoadMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.txt.gz")
	writeGzip(t, path, sourceContent)

	reader, err := Open(path)
	require.NoError(t, err)
	defer reader.Close()

	mapping, err := LoadMapping(reader)
	require.NoError(t, err)
	assert.Equal(t, "com.example.Foo", mapping.OriginalClassName("a"))
	assert.Equal(t, MappingStats{Classes: 1, Methods: 1}, mapping.Stats())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't open")
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestOpenCorruptFile(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"mapping.txt.gz", "mapping.txt.xz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte("not compressed at all"), 0o644))

			_, err := Open(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "can't decompress")
		})
	}
}
