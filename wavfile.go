package tracks

import (
	"fmt"

	"github.com/phroun/tracks/wav"
)

// OpenWAV creates a track named name holding the samples of a WAV file.
// The header is skipped without being checked, as wav.ReadFile does.
func (lib *Library) OpenWAV(name, path string) (*Track, error) {
	samples, err := wav.ReadFile(path)
	if err != nil {
		return nil, err
	}

	t, err := lib.NewTrack(name)
	if err != nil {
		return nil, err
	}

	if err := t.Write(samples, 0); err != nil {
		t.teardown()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	lib.logger.Debug("track loaded", "track", t.id, "path", path, "samples", len(samples))
	return t, nil
}

// SaveWAV writes the track's samples to path as a 16-bit mono WAV file.
func (t *Track) SaveWAV(path string) error {
	samples, err := t.Read(0, t.length)
	if err != nil {
		return err
	}
	if err := wav.WriteFile(path, samples); err != nil {
		return err
	}

	t.lib.logger.Debug("track saved", "track", t.id, "path", path, "samples", len(samples))
	return nil
}
