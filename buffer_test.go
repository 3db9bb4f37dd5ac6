package pedalhost_test

import (
	"math"
	"testing"

	"github.com/tvuorela/pedalhost"
)

func TestWavFloat32RoundTrip(t *testing.T) {
	buffer := pedalhost.AudioBuffer{0, 0.25, -0.5, 1, -1}
	data, err := buffer.Wav(48000, false)
	if err != nil {
		t.Fatalf("Wav failed: %v", err)
	}
	decoded, rate, err := pedalhost.ReadWav(data)
	if err != nil {
		t.Fatalf("ReadWav failed: %v", err)
	}
	if rate != 48000 {
		t.Errorf("sample rate should be 48000, got %d", rate)
	}
	if len(decoded) != len(buffer) {
		t.Fatalf("length should be %d, got %d", len(buffer), len(decoded))
	}
	for i := range buffer {
		if decoded[i] != buffer[i] {
			t.Errorf("sample %d should be %v, got %v", i, buffer[i], decoded[i])
		}
	}
}

func TestWavPcm16RoundTrip(t *testing.T) {
	buffer := pedalhost.AudioBuffer{0, 0.5, -0.5}
	data, err := buffer.Wav(44100, true)
	if err != nil {
		t.Fatalf("Wav failed: %v", err)
	}
	decoded, rate, err := pedalhost.ReadWav(data)
	if err != nil {
		t.Fatalf("ReadWav failed: %v", err)
	}
	if rate != 44100 {
		t.Errorf("sample rate should be 44100, got %d", rate)
	}
	for i := range buffer {
		if math.Abs(float64(decoded[i]-buffer[i])) > 1.0/math.MaxInt16 {
			t.Errorf("sample %d should be close to %v, got %v", i, buffer[i], decoded[i])
		}
	}
}

func TestReadWavRejectsGarbage(t *testing.T) {
	if _, _, err := pedalhost.ReadWav([]byte("RIFFxxxxJUNK")); err == nil {
		t.Errorf("non-wave data should be rejected")
	}
	if _, _, err := pedalhost.ReadWav(nil); err == nil {
		t.Errorf("empty data should be rejected")
	}
}

func TestBufferSourceReadsOnceThenSilence(t *testing.T) {
	src := pedalhost.AudioBuffer{1, 2, 3}.Source()
	out := make([]float32, 5)
	n, err := src.ReadAudio(out)
	if err != nil {
		t.Fatalf("ReadAudio failed: %v", err)
	}
	if n != 3 {
		t.Errorf("should read 3 samples, got %d", n)
	}
	want := []float32{1, 2, 3, 0, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d should be %v, got %v", i, want[i], out[i])
		}
	}
	n, _ = src.ReadAudio(out)
	if n != 0 {
		t.Errorf("exhausted source should read 0 samples, got %d", n)
	}
}
