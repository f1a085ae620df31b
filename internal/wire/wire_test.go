package wire

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768}
	data, err := Encode(samples)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := Validate(data); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	got, rate, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rate != SampleRate {
		t.Fatalf("sample rate mismatch: want=%d got=%d", SampleRate, rate)
	}
	if len(got) != len(samples) {
		t.Fatalf("sample count mismatch: want=%d got=%d", len(samples), len(got))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("sample %d mismatch: want=%d got=%d", i, samples[i], got[i])
		}
	}
}

func TestEncodeEmptyFails(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Fatal("expected error encoding empty samples")
	}
}

func TestHeaderFieldsMatchDeviceContract(t *testing.T) {
	data, err := Encode(make([]int16, 100))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	info, err := ParseInfo(data)
	if err != nil {
		t.Fatalf("ParseInfo: %v", err)
	}
	if info.SampleRate != SampleRate {
		t.Fatalf("SampleRate: want=%d got=%d", SampleRate, info.SampleRate)
	}
	if info.Channels != NumChannels {
		t.Fatalf("Channels: want=%d got=%d", NumChannels, info.Channels)
	}
	if info.BitsPerSample != BitsPerSample {
		t.Fatalf("BitsPerSample: want=%d got=%d", BitsPerSample, info.BitsPerSample)
	}
	if info.DataSize != 200 {
		t.Fatalf("DataSize: want=200 got=%d", info.DataSize)
	}
}

func TestSilenceDurationAndContent(t *testing.T) {
	data, err := Silence(1)
	if err != nil {
		t.Fatalf("Silence: %v", err)
	}
	dur, err := Duration(data)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if math.Abs(dur-1.0) > 0.01 {
		t.Fatalf("duration mismatch: want=1.0 got=%f", dur)
	}
	samples, _, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i, s := range samples {
		if s != 0 {
			t.Fatalf("sample %d not silent: %d", i, s)
		}
	}
}

func TestSilenceZeroDurationFails(t *testing.T) {
	if _, err := Silence(0); err == nil {
		t.Fatal("expected error for zero-duration silence")
	}
}

func TestMinimalIsValidHeaderOnlyPayload(t *testing.T) {
	data := Minimal()
	if len(data) != HeaderSize {
		t.Fatalf("minimal payload size: want=%d got=%d", HeaderSize, len(data))
	}
	if err := Validate(data); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if sr := binary.LittleEndian.Uint32(data[24:28]); sr != SampleRate {
		t.Fatalf("minimal sample rate: want=%d got=%d", SampleRate, sr)
	}
	if ds := binary.LittleEndian.Uint32(data[40:44]); ds != 0 {
		t.Fatalf("minimal data size: want=0 got=%d", ds)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("short"),
		make([]byte, HeaderSize), // zeroed, no RIFF magic
	}
	for i, c := range cases {
		if err := Validate(c); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
