// Package wire implements the fixed audio format expected by the device:
// RIFF/WAVE container, PCM 16-bit signed little-endian, 8000 Hz, mono.
// Every payload returned to a client passes through this package.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Device contract. These never vary; the client has no format negotiation.
const (
	SampleRate    = 8000
	NumChannels   = 1
	BitsPerSample = 16

	// HeaderSize is the size of the canonical 44-byte PCM WAV header.
	HeaderSize = 44
)

// Header is the canonical RIFF/WAVE header for PCM audio.
type Header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // bytes of sample data
}

func newHeader(dataSize uint32) Header {
	return Header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   NumChannels,
		SampleRate:    SampleRate,
		ByteRate:      SampleRate * NumChannels * BitsPerSample / 8,
		BlockAlign:    NumChannels * BitsPerSample / 8,
		BitsPerSample: BitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// Encode wraps PCM16 mono samples at the wire sample rate into a WAV payload.
func Encode(samples []int16) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio samples")
	}

	dataSize := uint32(len(samples) * 2)
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, newHeader(dataSize)); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode extracts the PCM16 samples and sample rate from a WAV payload
// produced by Encode or an equivalent encoder.
func Decode(data []byte) ([]int16, int, error) {
	if len(data) < HeaderSize {
		return nil, 0, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", HeaderSize, len(data))
	}

	buf := bytes.NewReader(data)
	var h Header
	if err := binary.Read(buf, binary.LittleEndian, &h); err != nil {
		return nil, 0, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if string(h.ChunkID[:]) != "RIFF" {
		return nil, 0, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(h.Format[:]) != "WAVE" {
		return nil, 0, fmt.Errorf("invalid WAV file: missing WAVE format")
	}
	if h.AudioFormat != 1 {
		return nil, 0, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", h.AudioFormat)
	}
	if h.BitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", h.BitsPerSample)
	}
	if h.NumChannels != 1 {
		return nil, 0, fmt.Errorf("unsupported channel count: %d (only mono is supported)", h.NumChannels)
	}

	numSamples := int(h.Subchunk2Size) / 2
	if numSamples < 0 || numSamples > (len(data)-HeaderSize)/2 {
		numSamples = (len(data) - HeaderSize) / 2
	}
	samples := make([]int16, numSamples)
	if numSamples > 0 {
		if err := binary.Read(buf, binary.LittleEndian, samples); err != nil {
			return nil, 0, fmt.Errorf("failed to read audio samples: %w", err)
		}
	}
	return samples, int(h.SampleRate), nil
}

// Validate checks that data is a structurally valid PCM WAV payload without
// decoding the sample data.
func Validate(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("WAV data too short: need at least %d bytes, got %d", HeaderSize, len(data))
	}
	if string(data[0:4]) != "RIFF" {
		return fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(data[8:12]) != "WAVE" {
		return fmt.Errorf("invalid WAV file: missing WAVE format")
	}
	if string(data[12:16]) != "fmt " {
		return fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	if string(data[36:40]) != "data" {
		return fmt.Errorf("invalid WAV file: missing data chunk")
	}
	return nil
}

// Info describes a WAV payload's header fields.
type Info struct {
	SampleRate    uint32  `json:"sample_rate"`
	Channels      uint16  `json:"channels"`
	BitsPerSample uint16  `json:"bits_per_sample"`
	Duration      float64 `json:"duration_seconds"`
	DataSize      uint32  `json:"data_size_bytes"`
}

// ParseInfo extracts header metadata from a WAV payload.
func ParseInfo(data []byte) (*Info, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	sr := binary.LittleEndian.Uint32(data[24:28])
	ch := binary.LittleEndian.Uint16(data[22:24])
	bits := binary.LittleEndian.Uint16(data[34:36])
	dataSize := binary.LittleEndian.Uint32(data[40:44])

	dur := 0.0
	if sr > 0 && ch > 0 && bits > 0 {
		bytesPerSec := float64(sr) * float64(ch) * float64(bits) / 8
		dur = float64(dataSize) / bytesPerSec
	}
	return &Info{
		SampleRate:    sr,
		Channels:      ch,
		BitsPerSample: bits,
		Duration:      dur,
		DataSize:      dataSize,
	}, nil
}

// Duration returns the playback length of a WAV payload in seconds.
func Duration(data []byte) (float64, error) {
	info, err := ParseInfo(data)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

// Silence produces a wire-format payload of all-zero samples. Used as the
// first fallback when synthesis or transcoding fails.
func Silence(seconds float64) ([]byte, error) {
	n := int(seconds * SampleRate)
	if n <= 0 {
		return nil, fmt.Errorf("silence duration too short: %.3fs", seconds)
	}
	return Encode(make([]int16, n))
}

// Minimal returns a statically built header-only WAV with zero data samples.
// It is the last resort of the fallback chain: the device expects a
// WAV-shaped payload on every request and has no error-display channel.
func Minimal() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	_ = binary.Write(buf, binary.LittleEndian, newHeader(0))
	return buf.Bytes()
}
