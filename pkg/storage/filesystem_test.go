package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	name, err := store.Save("2019/abc.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "2019/abc.pdf", name)
	assert.True(t, store.Exists("2019/abc.pdf"))
	assert.False(t, store.Exists("2019/other.pdf"))

	rc, err := store.Open("2019/abc.pdf")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	_, err = os.Stat(filepath.Join(dir, "2019", "abc.pdf.part"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageStaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(filepath.Join(dir, "inner"))
	require.NoError(t, err)

	_, err = store.Save("../../escape.pdf", []byte("x"))
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "inner", "escape.pdf"))
	assert.NoError(t, statErr)

	_, err = store.Save("", []byte("x"))
	assert.Error(t, err)
}
