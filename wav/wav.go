// Package wav reads and writes the 16-bit mono PCM WAV files used by tracks.
//
// Load and Save follow the fixed 44-byte header layout and never report
// errors; ReadFile, WriteFile, Inspect and DecodeStrict are the checked
// variants used by the tools.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WAV format constants.
const (
	// HeaderSize is the size of the canonical WAV header in bytes.
	HeaderSize = 44

	// FormatPCM is the audio format code for uncompressed PCM.
	FormatPCM = 1
)

// Output format written by Save and WriteFile.
const (
	SampleRate    = 8000
	Channels      = 1
	BitsPerSample = 16
	BlockAlign    = Channels * BitsPerSample / 8
	ByteRate      = SampleRate * BlockAlign
)

// Header returns the canonical 44-byte header for n samples.
func Header(n int) []byte {
	dataSize := uint32(n * BlockAlign)
	header := make([]byte, HeaderSize)

	// RIFF header
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")

	// fmt subchunk
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], FormatPCM)
	binary.LittleEndian.PutUint16(header[22:24], Channels)
	binary.LittleEndian.PutUint32(header[24:28], SampleRate)
	binary.LittleEndian.PutUint32(header[28:32], ByteRate)
	binary.LittleEndian.PutUint16(header[32:34], BlockAlign)
	binary.LittleEndian.PutUint16(header[34:36], BitsPerSample)

	// data subchunk
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	return header
}

// Encode writes a complete WAV file holding samples to w.
func Encode(w io.Writer, samples []int16) error {
	if _, err := w.Write(Header(len(samples))); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	data := make([]byte, len(samples)*BlockAlign)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(s))
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	return nil
}

// Decode returns the samples following the first HeaderSize bytes of data.
// The header is not inspected. A trailing odd byte is ignored.
func Decode(data []byte) []int16 {
	if len(data) <= HeaderSize {
		return nil
	}

	body := data[HeaderSize:]
	samples := make([]int16, len(body)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(body[2*i:]))
	}
	return samples
}

// ReadFile reads path and decodes its samples with Decode.
func ReadFile(path string) ([]int16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wav: %w", err)
	}
	return Decode(data), nil
}

// WriteFile encodes samples to path. The file is written to a temporary
// sibling first and renamed into place, so a failed write leaves no file.
func WriteFile(path string, samples []int16) error {
	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(samples)*BlockAlign)
	if err := Encode(&buf, samples); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".wav-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write wav: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close wav: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename wav: %w", err)
	}
	return nil
}

// Load copies the samples of fname into dest and returns how many were
// copied. It copies nothing if the file cannot be read.
func Load(fname string, dest []int16) int {
	samples, err := ReadFile(fname)
	if err != nil {
		return 0
	}
	return copy(dest, samples)
}

// Save writes src to fname. Failures leave no file behind and are not reported.
func Save(fname string, src []int16) {
	_ = WriteFile(fname, src)
}
