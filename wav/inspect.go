package wav

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

var (
	// ErrInvalidFile is returned when a file is not a RIFF/WAVE container.
	ErrInvalidFile = errors.New("not a valid wav file")

	// ErrUnsupportedFormat is returned by DecodeStrict for anything other
	// than 16-bit mono PCM.
	ErrUnsupportedFormat = errors.New("unsupported wav format")
)

// Format describes the fmt chunk of a WAV file.
type Format struct {
	AudioFormat   int
	Channels      int
	SampleRate    int
	BitsPerSample int
	Duration      time.Duration
}

// Mono16 reports whether the format can be loaded into a track without conversion.
func (f Format) Mono16() bool {
	return f.AudioFormat == FormatPCM && f.Channels == 1 && f.BitsPerSample == 16
}

// String renders the format for display.
func (f Format) String() string {
	return fmt.Sprintf("format=%d channels=%d rate=%dHz bits=%d duration=%s",
		f.AudioFormat, f.Channels, f.SampleRate, f.BitsPerSample, f.Duration)
}

// Inspect parses the header of path without reading the samples.
func Inspect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	decoder := gowav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return Format{}, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}

	format := Format{
		AudioFormat:   int(decoder.WavAudioFormat),
		Channels:      int(decoder.NumChans),
		SampleRate:    int(decoder.SampleRate),
		BitsPerSample: int(decoder.BitDepth),
	}

	duration, err := decoder.Duration()
	if err == nil {
		format.Duration = duration
	}
	return format, nil
}

// DecodeStrict reads path through a full RIFF parser and returns its samples.
// Unlike ReadFile it honours the chunk layout and rejects anything but
// 16-bit mono PCM.
func DecodeStrict(path string) ([]int16, Format, error) {
	format, err := Inspect(path)
	if err != nil {
		return nil, Format{}, err
	}
	if !format.Mono16() {
		return nil, format, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, format, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	decoder := gowav.NewDecoder(f)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, format, fmt.Errorf("decode wav: %w", err)
	}

	return intBufferSamples(buf), format, nil
}

// intBufferSamples narrows a decoded 16-bit buffer to track samples.
func intBufferSamples(buf *audio.IntBuffer) []int16 {
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples
}
