package malgo

import (
	"encoding/binary"
	"math"
	"testing"
)

func frames(samples ...float32) []byte {
	data := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}

func TestReadAudioDrainsCapturedFrames(t *testing.T) {
	in := &Input{buf: make([]float32, 0, maxBuffered)}
	in.onFrames(nil, frames(1, 2, 3), 3)
	out := make([]float32, 5)
	n, err := in.ReadAudio(out)
	if err != nil {
		t.Fatalf("ReadAudio failed: %v", err)
	}
	if n != 3 {
		t.Errorf("should report 3 captured samples, got %d", n)
	}
	want := []float32{1, 2, 3, 0, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d should be %v, got %v", i, want[i], out[i])
		}
	}
	// the backlog is gone; the next read is all silence
	n, _ = in.ReadAudio(out)
	if n != 0 {
		t.Errorf("drained input should report 0 samples, got %d", n)
	}
	if out[0] != 0 {
		t.Errorf("drained input should zero the buffer, got %v", out[0])
	}
}

func TestCaptureBacklogIsBounded(t *testing.T) {
	in := &Input{buf: make([]float32, 0, maxBuffered)}
	chunk := make([]float32, 1024)
	for i := range chunk {
		chunk[i] = 1
	}
	data := frames(chunk...)
	for i := 0; i < maxBuffered/1024+4; i++ {
		in.onFrames(nil, data, 1024)
	}
	in.mu.Lock()
	backlog := len(in.buf)
	in.mu.Unlock()
	if backlog > maxBuffered {
		t.Errorf("backlog should be capped at %d, got %d", maxBuffered, backlog)
	}
}
