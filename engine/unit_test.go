package engine_test

import (
	"testing"

	"github.com/tvuorela/pedalhost"
	"github.com/tvuorela/pedalhost/engine"
)

const (
	sampleRate = 48000
	blockSize  = 512
)

func newTestPedal(t *testing.T, kind string) pedalhost.Pedal {
	t.Helper()
	p, err := pedalhost.NewPedal(kind)
	if err != nil {
		t.Fatalf("NewPedal(%q) failed: %v", kind, err)
	}
	return p
}

func ones(n int) pedalhost.AudioBuffer {
	buf := make(pedalhost.AudioBuffer, n)
	for i := range buf {
		buf[i] = 1
	}
	return buf
}

func TestGainUnitProcesses(t *testing.T) {
	p := newTestPedal(t, "gain")
	p.Parameters["volume"] = 2
	u, err := engine.NewUnit(p, sampleRate, blockSize)
	if err != nil {
		t.Fatalf("NewUnit failed: %v", err)
	}
	buf := ones(blockSize)
	u.Process(buf)
	for i, v := range buf {
		if v != 2 {
			t.Fatalf("sample %d = %v, want 2", i, v)
		}
	}
}

func TestSetParameterBoundsAndEffect(t *testing.T) {
	u, err := engine.NewUnit(newTestPedal(t, "gain"), sampleRate, blockSize)
	if err != nil {
		t.Fatalf("NewUnit failed: %v", err)
	}
	if err := u.SetParameter("volume", 4); err == nil {
		t.Errorf("out-of-range volume should be rejected")
	}
	if got, _ := u.Parameter("volume"); got != 1 {
		t.Errorf("rejected write changed volume to %v", got)
	}
	if err := u.SetParameter("nosuch", 1); err == nil {
		t.Errorf("unknown parameter should be rejected")
	}
	if err := u.SetParameter("volume", 0.5); err != nil {
		t.Fatalf("SetParameter failed: %v", err)
	}
	buf := ones(4)
	u.Process(buf)
	if buf[0] != 0.5 {
		t.Errorf("next Process should see the new value, got %v", buf[0])
	}
}

func TestCompressorReducesLoudSignal(t *testing.T) {
	p := newTestPedal(t, "compressor")
	p.Parameters["threshold"] = -20
	p.Parameters["ratio"] = 10
	u, err := engine.NewUnit(p, sampleRate, blockSize)
	if err != nil {
		t.Fatalf("NewUnit failed: %v", err)
	}
	// full scale input sits far above the threshold; once the envelope has
	// settled the gain reduction must be substantial
	buf := ones(sampleRate / 2)
	u.Process(buf)
	last := buf[len(buf)-1]
	if last >= 0.5 {
		t.Errorf("compressed full-scale signal should be well below input, got %v", last)
	}
	if last <= 0 {
		t.Errorf("compression should attenuate, not mute, got %v", last)
	}
}

func TestCompressorLeavesQuietSignal(t *testing.T) {
	p := newTestPedal(t, "compressor")
	p.Parameters["threshold"] = -6
	u, err := engine.NewUnit(p, sampleRate, blockSize)
	if err != nil {
		t.Fatalf("NewUnit failed: %v", err)
	}
	buf := make(pedalhost.AudioBuffer, sampleRate/2)
	for i := range buf {
		buf[i] = 0.1 // -20 dBFS, below the threshold
	}
	u.Process(buf)
	last := buf[len(buf)-1]
	if last < 0.099 || last > 0.101 {
		t.Errorf("signal below the threshold should pass unchanged, got %v", last)
	}
}

func TestReverbProducesTail(t *testing.T) {
	p := newTestPedal(t, "reverb")
	p.Parameters["mix"] = 1
	u, err := engine.NewUnit(p, sampleRate, blockSize)
	if err != nil {
		t.Fatalf("NewUnit failed: %v", err)
	}
	// an impulse followed by silence must keep ringing
	buf := make(pedalhost.AudioBuffer, sampleRate/2)
	buf[0] = 1
	u.Process(buf)
	var tail float32
	for _, v := range buf[sampleRate/10:] {
		if v < 0 {
			v = -v
		}
		if v > tail {
			tail = v
		}
	}
	if tail == 0 {
		t.Errorf("reverb tail should keep ringing after the impulse")
	}
}

func TestVibratoDelaysSignal(t *testing.T) {
	p := newTestPedal(t, "vibrato")
	u, err := engine.NewUnit(p, sampleRate, blockSize)
	if err != nil {
		t.Fatalf("NewUnit failed: %v", err)
	}
	// a step input comes out delayed by the swept line, so the very first
	// output samples read silence from the line
	buf := ones(blockSize)
	u.Process(buf)
	if buf[0] == 1 {
		t.Errorf("vibrato output should be the delayed signal, not the dry input")
	}
	nonzero := false
	for _, v := range buf {
		if v != 0 {
			nonzero = true
			break
		}
	}
	if !nonzero {
		t.Errorf("vibrato should pass the delayed signal through")
	}
}

func TestFailedModelLoadIsPassthrough(t *testing.T) {
	p := newTestPedal(t, "nam")
	p.Options = map[string]string{"path": "/nonexistent/model.json"}
	u, err := engine.NewUnit(p, sampleRate, blockSize)
	if err != nil {
		t.Fatalf("NewUnit should succeed for a failed load, got %v", err)
	}
	if !u.Failed() {
		t.Fatalf("unit should be flagged as failed")
	}
	if u.LoadError() == nil {
		t.Fatalf("failed unit should carry its load error")
	}
	buf := ones(blockSize)
	buf[3] = 0.25
	u.Process(buf)
	if buf[0] != 1 || buf[3] != 0.25 {
		t.Errorf("pass-through unit modified its input: %v %v", buf[0], buf[3])
	}
}

func TestUnknownKindRejected(t *testing.T) {
	p := pedalhost.Pedal{Kind: "flanger9000", Parameters: map[string]float32{}}
	if _, err := engine.NewUnit(p, sampleRate, blockSize); err == nil {
		t.Errorf("unknown pedal kind should be rejected")
	}
}

func TestUnitModelRoundTrip(t *testing.T) {
	p := newTestPedal(t, "overdrive")
	p.Parameters["drive"] = 42
	u, err := engine.NewUnit(p, sampleRate, blockSize)
	if err != nil {
		t.Fatalf("NewUnit failed: %v", err)
	}
	if err := u.SetParameter("level", 1.5); err != nil {
		t.Fatalf("SetParameter failed: %v", err)
	}
	m := u.Model()
	if m.Kind != "overdrive" || m.Parameters["drive"] != 42 || m.Parameters["level"] != 1.5 {
		t.Errorf("model does not reflect live state: %+v", m)
	}
}
