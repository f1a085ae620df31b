package transcode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/esp-voice-lab/internal/wire"
)

// buildTestWAV writes a PCM16 WAV at an arbitrary rate and channel count,
// so the transcoder's resample/downmix paths can be exercised.
func buildTestWAV(t *testing.T, samples []int16, sampleRate, channels int) []byte {
	t.Helper()
	dataLen := uint32(len(samples) * 2)
	byteRate := uint32(sampleRate * channels * 2)
	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, byteRate)
	binary.Write(buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataLen)
	binary.Write(buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

func TestToWireResamplesWAVToDeviceFormat(t *testing.T) {
	// One second of a quiet ramp at 16 kHz mono.
	in := make([]int16, 16000)
	for i := range in {
		in[i] = int16(i % 1000)
	}
	src := buildTestWAV(t, in, 16000, 1)

	out, err := ToWire(src)
	if err != nil {
		t.Fatalf("ToWire: %v", err)
	}
	if err := wire.Validate(out); err != nil {
		t.Fatalf("output not wire-valid: %v", err)
	}
	info, err := wire.ParseInfo(out)
	if err != nil {
		t.Fatalf("ParseInfo: %v", err)
	}
	if info.SampleRate != wire.SampleRate || info.Channels != wire.NumChannels || info.BitsPerSample != wire.BitsPerSample {
		t.Fatalf("format mismatch: got rate=%d ch=%d bits=%d", info.SampleRate, info.Channels, info.BitsPerSample)
	}
	if math.Abs(info.Duration-1.0) > 0.05 {
		t.Fatalf("duration mismatch: want~1.0 got=%f", info.Duration)
	}
}

func TestToWireDownmixesStereo(t *testing.T) {
	// 0.5 s of interleaved stereo at 8 kHz: left=1000, right=-1000.
	in := make([]int16, 8000)
	for i := 0; i < len(in); i += 2 {
		in[i] = 1000
		in[i+1] = -1000
	}
	src := buildTestWAV(t, in, 8000, 2)

	out, err := ToWire(src)
	if err != nil {
		t.Fatalf("ToWire: %v", err)
	}
	samples, rate, err := wire.Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rate != wire.SampleRate {
		t.Fatalf("rate mismatch: got=%d", rate)
	}
	if len(samples) != 4000 {
		t.Fatalf("frame count mismatch: want=4000 got=%d", len(samples))
	}
	// Averaged channels cancel to ~0.
	for i, s := range samples {
		if s < -5 || s > 5 {
			t.Fatalf("sample %d not downmixed to ~0: %d", i, s)
		}
	}
}

func TestToWireUpsamplesLowRateSource(t *testing.T) {
	in := make([]int16, 4000) // 1 s at 4 kHz
	src := buildTestWAV(t, in, 4000, 1)
	out, err := ToWire(src)
	if err != nil {
		t.Fatalf("ToWire: %v", err)
	}
	dur, err := wire.Duration(out)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if math.Abs(dur-1.0) > 0.05 {
		t.Fatalf("duration mismatch: want~1.0 got=%f", dur)
	}
}

func TestToWireRejectsGarbage(t *testing.T) {
	_, err := ToWire([]byte("definitely not audio data at all"))
	if err == nil {
		t.Fatal("expected error for garbage input")
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got: %v", err)
	}
}

func TestToWireRejectsEmptyInput(t *testing.T) {
	if _, err := ToWire(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestResampleLinearHalvesSampleCount(t *testing.T) {
	in := make([]float32, 16000)
	out := resampleLinear(in, 16000, 8000)
	if len(out) != 8000 {
		t.Fatalf("resampled length: want=8000 got=%d", len(out))
	}
}

func TestResampleLinearNoopOnSameRate(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := resampleLinear(in, 8000, 8000)
	if len(out) != len(in) {
		t.Fatalf("length changed on same-rate resample: %d", len(out))
	}
}

func TestDownmixInterleavedAverages(t *testing.T) {
	in := []float32{1, 0, 0, 1}
	out := downmixInterleaved(in, 2)
	if len(out) != 2 {
		t.Fatalf("frame count: want=2 got=%d", len(out))
	}
	for i, v := range out {
		if math.Abs(float64(v)-0.5) > 1e-6 {
			t.Fatalf("frame %d: want=0.5 got=%f", i, v)
		}
	}
}

func TestFloat32ToInt16Clamps(t *testing.T) {
	out := float32ToInt16([]float32{2.0, -2.0, 0})
	if out[0] != 32767 || out[1] != -32767 || out[2] != 0 {
		t.Fatalf("clamp mismatch: %v", out)
	}
}
