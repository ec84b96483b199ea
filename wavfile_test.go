package tracks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phroun/tracks/wav"
)

func TestSaveWAV_OpenWAV(t *testing.T) {
	lib := newTestLibrary(t)
	s := newFilledTrack(t, lib, "s", 10, 20, 30)
	d := newFilledTrack(t, lib, "d", 1, 2)
	require.NoError(t, d.Insert(1, s, 0, 3))

	path := filepath.Join(t.TempDir(), "d.wav")
	require.NoError(t, d.SaveWAV(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(wav.HeaderSize+2*5), info.Size())

	loaded, err := lib.OpenWAV("loaded", path)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 10, 20, 30, 2}, readAll(t, loaded))
	assert.Len(t, loaded.Segments(), 1)
}

func TestOpenWAV_Errors(t *testing.T) {
	lib := newTestLibrary(t)
	dir := t.TempDir()

	_, err := lib.OpenWAV("x", filepath.Join(dir, "missing.wav"))
	require.Error(t, err)
	_, ok := lib.Track("x")
	assert.False(t, ok)

	path := filepath.Join(dir, "ok.wav")
	require.NoError(t, wav.WriteFile(path, []int16{1, 2, 3}))

	_, err = lib.NewTrack("taken")
	require.NoError(t, err)
	_, err = lib.OpenWAV("taken", path)
	assert.ErrorIs(t, err, ErrTrackExists)
}

func TestOpenWAV_Budget(t *testing.T) {
	lib, err := Init(LibraryOptions{SampleBudget: 2})
	require.NoError(t, err)
	defer lib.Close()

	path := filepath.Join(t.TempDir(), "big.wav")
	require.NoError(t, wav.WriteFile(path, []int16{1, 2, 3}))

	_, err = lib.OpenWAV("big", path)
	require.ErrorIs(t, err, ErrOutOfMemory)
	_, ok := lib.Track("big")
	assert.False(t, ok)
	assert.Zero(t, lib.OwnedSamples())
}
