//go:build unix

package gphoto

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fly-io/camctl/pkg/native"
	"github.com/fly-io/camctl/pkg/native/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFDs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("no /proc/self/fd on this system")
	}
	return len(entries)
}

func TestCreateFileMediaFresh(t *testing.T) {
	drv := simulated.New(simulated.DefaultConfig())
	path := filepath.Join(t.TempDir(), "IMG_0001.JPG")

	m, err := CreateFileMedia(drv, path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Path())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
	assert.Zero(t, info.Mode().Perm()&^0o644, "mode is at most 0644")

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Zero(t, drv.LiveFiles())
}

func TestCreateFileMediaExisting(t *testing.T) {
	drv := simulated.New(simulated.DefaultConfig())
	path := filepath.Join(t.TempDir(), "keep.jpg")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o600))

	m, err := CreateFileMedia(drv, path)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, FileExists))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
	assert.Zero(t, drv.LiveFiles())
}

func TestCreateFileMediaBadPath(t *testing.T) {
	drv := simulated.New(simulated.DefaultConfig())

	_, err := CreateFileMedia(drv, "bad\x00name.jpg")
	assert.True(t, errors.Is(err, InvalidInput))

	_, err = CreateFileMedia(drv, "")
	assert.True(t, errors.Is(err, InvalidInput))

	_, err = CreateFileMedia(drv, filepath.Join(t.TempDir(), "missing", "x.jpg"))
	assert.True(t, errors.Is(err, OSFailure))
}

func TestCreateFileMediaWrapFailure(t *testing.T) {
	drv := simulated.New(simulated.DefaultConfig())
	dir := t.TempDir()
	before := openFDs(t)

	for i := 0; i < 8; i++ {
		drv.FailNext(simulated.OpFileNewFromFD, native.ErrorNoMemory)
		path := filepath.Join(dir, "fail.jpg")
		_, err := CreateFileMedia(drv, path)
		require.True(t, errors.Is(err, ResourceExhausted))

		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "failed create leaves no file behind")
	}

	assert.Equal(t, before, openFDs(t), "descriptors leaked")
	assert.Zero(t, drv.LiveFiles())
}

func TestFileMediaClosesDescriptor(t *testing.T) {
	drv := simulated.New(simulated.DefaultConfig())
	dir := t.TempDir()
	before := openFDs(t)

	m, err := CreateFileMedia(drv, filepath.Join(dir, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, before+1, openFDs(t), "only the native side holds a descriptor")

	require.NoError(t, m.Close())
	assert.Equal(t, before, openFDs(t))
}

func TestMemoryMedia(t *testing.T) {
	drv := simulated.New(simulated.DefaultConfig())

	m, err := NewMemoryMedia(drv)
	require.NoError(t, err)
	data, err := m.Data()
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, m.Close())
	_, err = m.Data()
	assert.True(t, errors.Is(err, InvalidInput))
	assert.Zero(t, drv.LiveFiles())
}

func TestMemoryMediaAllocationFailure(t *testing.T) {
	drv := simulated.New(simulated.DefaultConfig())
	drv.FailNext(simulated.OpFileNew, native.ErrorNoMemory)

	m, err := NewMemoryMedia(drv)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, ResourceExhausted))
}
