package tracks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentify(t *testing.T) {
	lib := newTestLibrary(t)
	ad := newFilledTrack(t, lib, "ad", 1, 2, 3)
	target := newFilledTrack(t, lib, "target", 0, 0, 1, 2, 3, 0, 1, 2, 3)

	got, err := Identify(target, ad)
	require.NoError(t, err)
	assert.Equal(t, "2,4\n6,8", got)
}

func TestIdentify_Self(t *testing.T) {
	lib := newTestLibrary(t)

	tests := []struct {
		name    string
		samples []int16
		want    string
	}{
		{"single", []int16{5}, "0,0"},
		{"mixed", []int16{3, -7, 12, 0, 4}, "0,4"},
		{"silence", []int16{0, 0, 0}, "0,2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newFilledTrack(t, lib, tt.name, tt.samples...)
			got, err := Identify(tr, tr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentify_NoMatch(t *testing.T) {
	lib := newTestLibrary(t)
	ad := newFilledTrack(t, lib, "ad", 100, -100)
	target := newFilledTrack(t, lib, "target", -100, 100, 5, 5)
	long := newFilledTrack(t, lib, "long", 1, 2, 3, 4, 5)
	empty := newFilledTrack(t, lib, "empty")

	for _, pair := range [][2]*Track{{target, ad}, {ad, long}, {empty, ad}, {target, empty}} {
		got, err := Identify(pair[0], pair[1])
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestIdentify_MatchesAreDisjoint(t *testing.T) {
	lib := newTestLibrary(t)
	ad := newFilledTrack(t, lib, "ad", 1, 1)
	target := newFilledTrack(t, lib, "target", 1, 1, 1, 1, 1)

	matches, err := FindMatches(target, ad, IdentifyOptions{})
	require.NoError(t, err)
	assert.Equal(t, []Match{{Start: 0, End: 1}, {Start: 2, End: 3}}, matches)
}

func TestIdentify_ThroughViews(t *testing.T) {
	lib := newTestLibrary(t)
	source := newFilledTrack(t, lib, "source", 9, 4, -4, 9)
	ad := newFilledTrack(t, lib, "ad")
	require.NoError(t, ad.Insert(0, source, 1, 2))

	target := newFilledTrack(t, lib, "target", 0, 0, 0, 0)
	require.NoError(t, target.Insert(3, ad, 0, 2))

	got, err := Identify(target, ad)
	require.NoError(t, err)
	assert.Equal(t, "3,4", got)
}

func TestFindMatches_ThresholdRatio(t *testing.T) {
	lib := newTestLibrary(t)
	ad := newFilledTrack(t, lib, "ad", 10, 10)
	target := newFilledTrack(t, lib, "target", 10, 5, 0, 0)

	// C = 150 against R = 200
	matches, err := FindMatches(target, ad, IdentifyOptions{})
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = FindMatches(target, ad, IdentifyOptions{ThresholdRatio: 0.75})
	require.NoError(t, err)
	assert.Equal(t, []Match{{Start: 0, End: 1}}, matches)
}

func TestCorrelation(t *testing.T) {
	assert.InDelta(t, 14.0, AutoCorrelation([]int16{1, 2, 3}), 1e-9)
	assert.InDelta(t, 8.0, CrossCorrelation([]int16{0, 1, 2}, []int16{1, 2, 3}), 1e-9)
	assert.InDelta(t, 2.0, CrossCorrelation([]int16{1, 1}, []int16{1, 1, 1}), 1e-9)

	// No int16 overflow on large products
	assert.InDelta(t, 2*32767.0*32767.0, AutoCorrelation([]int16{32767, -32767}), 1e-3)
}

func TestFormatMatches(t *testing.T) {
	assert.Empty(t, FormatMatches(nil))
	assert.Equal(t, "0,2", FormatMatches([]Match{{0, 2}}))
	assert.Equal(t, "0,2\n10,12", FormatMatches([]Match{{0, 2}, {10, 12}}))
}

func TestIdentify_ClosedTrack(t *testing.T) {
	lib := newTestLibrary(t)
	ad := newFilledTrack(t, lib, "ad", 1)
	target := newFilledTrack(t, lib, "target", 1)
	require.NoError(t, ad.Close())

	_, err := Identify(target, ad)
	assert.ErrorIs(t, err, ErrClosed)
}
