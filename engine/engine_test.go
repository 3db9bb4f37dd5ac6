package engine_test

import (
	"testing"

	"github.com/tvuorela/pedalhost"
	"github.com/tvuorela/pedalhost/engine"
)

func TestMasterGainApplied(t *testing.T) {
	coord, eng, _ := newTestRig(t)
	if _, err := coord.AddPedalboard(pedalhost.Pedalboard{Name: "empty"}); err != nil {
		t.Fatalf("AddPedalboard failed: %v", err)
	}
	if err := coord.Play(0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := coord.SetMaster(0.5); err != nil {
		t.Fatalf("SetMaster failed: %v", err)
	}
	out := make(pedalhost.AudioBuffer, blockSize)
	eng.Process(out)
	for i, v := range out {
		if v != 0.5 {
			t.Fatalf("sample %d = %v, want 0.5", i, v)
		}
	}
}

func TestMetronomeClicksOnBeatBoundaries(t *testing.T) {
	coord, eng, _ := newTestRig(t)
	if err := coord.SetMetronome(true, 120); err != nil {
		t.Fatalf("SetMetronome failed: %v", err)
	}
	// 120 BPM at 48 kHz puts a beat every 24000 samples
	out := make(pedalhost.AudioBuffer, sampleRate)
	eng.Process(out)
	if out[1] == 0 {
		t.Errorf("expected a click at the first beat")
	}
	if out[24001] == 0 {
		t.Errorf("expected a click at the second beat")
	}
	for _, pos := range []int{4000, 20000, 30000} {
		if out[pos] != 0 {
			t.Errorf("expected silence between beats at sample %d, got %v", pos, out[pos])
		}
	}
	if err := coord.SetMetronome(true, 10); err == nil {
		t.Errorf("bpm below range should be rejected")
	}
}

func TestBackupTrackPlaysAndEnds(t *testing.T) {
	coord, eng, broker := newTestRig(t)
	track := make(pedalhost.AudioBuffer, blockSize+blockSize/2)
	for i := range track {
		track[i] = 0.25
	}
	coord.SetBackupTrack(track)
	if err := coord.SetBackupPlaying(true); err != nil {
		t.Fatalf("SetBackupPlaying failed: %v", err)
	}
	out := make(pedalhost.AudioBuffer, blockSize)
	eng.Process(out)
	if out[0] != 0.25 {
		t.Fatalf("backup track should be audible, got %v", out[0])
	}
	eng.Process(out)
	if out[0] != 0.25 || out[blockSize-1] != 0 {
		t.Errorf("track should end mid-buffer, got %v and %v", out[0], out[blockSize-1])
	}
	select {
	case msg := <-broker.ToControl:
		if !msg.BackupDone {
			t.Errorf("expected a backup done message, got %+v", msg)
		}
	default:
		t.Errorf("expected a backup done message")
	}
}

func TestBackupPlayWithoutTrackRejected(t *testing.T) {
	coord, _, _ := newTestRig(t)
	if err := coord.SetBackupPlaying(true); err == nil {
		t.Errorf("backup playback without a loaded track should be rejected")
	}
	if err := coord.SeekBackup(100); err == nil {
		t.Errorf("seek without a loaded track should be rejected")
	}
}

func TestTuningCapturesInputAndSilencesOutput(t *testing.T) {
	coord, eng, broker := newTestRig(t)
	coord.SetTuner(true)
	if mode := coord.Snapshot().Mode(); mode != engine.Tuning {
		t.Fatalf("mode = %v, want tuning", mode)
	}
	out := make(pedalhost.AudioBuffer, blockSize)
	eng.Process(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("tuning output should be silent, sample %d = %v", i, v)
		}
	}
	select {
	case msg := <-broker.ToControl:
		if msg.TunerFrame == nil {
			t.Fatalf("expected a tuner frame, got %+v", msg)
		}
		if len(*msg.TunerFrame) != blockSize || (*msg.TunerFrame)[0] != 1 {
			t.Errorf("tuner frame should carry the raw input")
		}
		broker.PutAudioBuffer(msg.TunerFrame)
	default:
		t.Errorf("expected a tuner frame message")
	}
}

func TestSamplePosAdvances(t *testing.T) {
	_, eng, _ := newTestRig(t)
	out := make(pedalhost.AudioBuffer, 3*blockSize)
	eng.Process(out)
	if got := eng.SamplePos(); got != 3*blockSize {
		t.Errorf("SamplePos = %d, want %d", got, 3*blockSize)
	}
}
