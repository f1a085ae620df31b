// Package transcode normalizes synthesizer output of arbitrary codec into
// the fixed wire format. Supported inputs: WAV (PCM), MP3, Ogg Vorbis and
// Ogg Opus; everything else fails with ErrUnsupported.
package transcode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/hraban/opus"
	"github.com/jfreymuth/oggvorbis"

	"github.com/esp-voice-lab/internal/wire"
)

// ErrUnsupported indicates the input container could not be identified.
var ErrUnsupported = errors.New("unsupported audio format")

// ToWire converts raw synthesizer audio of a sniffed codec into a wire-format
// payload. Lossy sample-rate reduction is acceptable; the output always
// matches the device contract exactly.
func ToWire(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio input")
	}

	mono, rate, err := decode(data)
	if err != nil {
		return nil, err
	}
	if len(mono) == 0 {
		return nil, fmt.Errorf("decoded audio contains no samples")
	}
	if rate != wire.SampleRate {
		mono = resampleLinear(mono, rate, wire.SampleRate)
	}
	out, err := wire.Encode(float32ToInt16(mono))
	if err != nil {
		return nil, fmt.Errorf("encode wire audio: %w", err)
	}
	return out, nil
}

// decode sniffs the container magic and returns mono float32 samples plus
// the source sample rate.
func decode(data []byte) ([]float32, int, error) {
	magic := data
	if len(magic) > 4 {
		magic = magic[:4]
	}
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return decodeWAV(data)
	case bytes.HasPrefix(data, []byte("OggS")):
		// Ogg carries either Vorbis or Opus; try Vorbis first like the
		// container sniffers in the wild do, then fall back to Opus.
		if s, rate, err := decodeOggVorbis(data); err == nil {
			return s, rate, nil
		}
		return decodeOggOpus(data)
	case bytes.HasPrefix(data, []byte("ID3")), len(data) > 1 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return decodeMP3(data)
	default:
		return nil, 0, fmt.Errorf("%w: magic %q", ErrUnsupported, magic)
	}
}

func decodeWAV(data []byte) ([]float32, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav")
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil || pb == nil || pb.Data == nil {
		if err == nil {
			err = fmt.Errorf("empty wav")
		}
		return nil, 0, err
	}

	bd := int(dec.BitDepth)
	if bd == 0 {
		bd = 16
	}
	x := intSliceToFloat32(pb.Data, bd)

	ch := 1
	rate := 44100
	if pb.Format != nil {
		if pb.Format.NumChannels > 0 {
			ch = pb.Format.NumChannels
		}
		if pb.Format.SampleRate > 0 {
			rate = pb.Format.SampleRate
		}
	}
	if ch > 1 {
		x = downmixInterleaved(x, ch)
	}
	return x, rate, nil
}

func decodeMP3(data []byte) ([]float32, int, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, 0, err
	}
	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(bytes.NewReader(raw.Bytes()), binary.LittleEndian, &ints); err != nil {
		return nil, 0, err
	}
	x := int16SliceToFloat32(ints)
	// go-mp3 always emits interleaved stereo.
	x = downmixInterleaved(x, 2)

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	return x, rate, nil
}

func decodeOggVorbis(data []byte) ([]float32, int, error) {
	pcm, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("invalid ogg/vorbis stream")
	}
	x := pcm
	if format.Channels > 1 {
		x = downmixInterleaved(pcm, format.Channels)
	}
	return x, format.SampleRate, nil
}

func decodeOggOpus(data []byte) ([]float32, int, error) {
	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("cannot decode ogg as opus: %w", err)
	}
	defer stream.Close()

	// libopusfile always decodes at 48 kHz; speech TTS streams are mono.
	var out []float32
	buf := make([]float32, 16384)
	for {
		n, err := stream.ReadFloat32(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("opus stream read: %w", err)
		}
		if n == 0 {
			break
		}
		out = append(out, buf[:n]...)
	}
	if len(out) == 0 {
		return nil, 0, fmt.Errorf("empty opus stream")
	}
	return out, 48000, nil
}
