package dsp_test

import (
	"math"
	"testing"

	"github.com/tvuorela/pedalhost/dsp"
)

const sampleRate = 48000

func sine(freq float32, n int) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = float32(math.Sin(2 * math.Pi * float64(freq) * float64(i) / sampleRate))
	}
	return buf
}

func rms(buf []float32) float64 {
	var sum float64
	for _, v := range buf {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func TestLowPassAttenuatesHighFrequencies(t *testing.T) {
	low := sine(100, sampleRate)
	high := sine(10000, sampleRate)
	f := dsp.LowPass(1000, sampleRate, 0.707)
	f.ProcessBuffer(low)
	f.Reset()
	f.ProcessBuffer(high)
	// skip the transient at the start
	lowRms, highRms := rms(low[4800:]), rms(high[4800:])
	if lowRms < 0.6 {
		t.Errorf("passband attenuated too much, rms %v", lowRms)
	}
	if highRms > 0.1*lowRms {
		t.Errorf("stopband not attenuated, rms %v vs %v", highRms, lowRms)
	}
}

func TestHighPassAttenuatesLowFrequencies(t *testing.T) {
	low := sine(50, sampleRate)
	high := sine(5000, sampleRate)
	f := dsp.HighPass(1000, sampleRate, 0.707)
	f.ProcessBuffer(low)
	f.Reset()
	f.ProcessBuffer(high)
	if lowRms, highRms := rms(low[4800:]), rms(high[4800:]); lowRms > 0.1*highRms {
		t.Errorf("stopband not attenuated, rms %v vs %v", lowRms, highRms)
	}
}

func TestPeakingEQBoostsAtCenter(t *testing.T) {
	center := sine(800, sampleRate)
	f := dsp.PeakingEQ(800, sampleRate, 1.0, 12)
	f.ProcessBuffer(center)
	if got := rms(center[4800:]); got < 1.5*0.707 {
		t.Errorf("center frequency not boosted, rms %v", got)
	}
	cut := sine(800, sampleRate)
	f = dsp.PeakingEQ(800, sampleRate, 1.0, -12)
	f.ProcessBuffer(cut)
	if got := rms(cut[4800:]); got > 0.5*0.707 {
		t.Errorf("center frequency not cut, rms %v", got)
	}
}

func TestDelayLine(t *testing.T) {
	d := dsp.NewDelayLine(16)
	for i := 0; i < 16; i++ {
		d.Write(float32(i))
	}
	if got := d.Read(0); got != 15 {
		t.Errorf("Read(0) = %v, want 15", got)
	}
	if got := d.Read(1); got != 14 {
		t.Errorf("Read(1) = %v, want 14", got)
	}
	if got := d.Read(15); got != 0 {
		t.Errorf("Read(15) = %v, want 0", got)
	}
	if got := d.ReadFrac(1.5); got != 13.5 {
		t.Errorf("ReadFrac(1.5) = %v, want 13.5", got)
	}
}

func TestOscillatorFrequency(t *testing.T) {
	osc := dsp.NewOscillator(dsp.Sine, 440, sampleRate)
	// count zero crossings over one second; a 440 Hz sine has 880
	var crossings int
	prev := osc.Next()
	for i := 1; i < sampleRate; i++ {
		v := osc.Next()
		if (prev < 0) != (v < 0) {
			crossings++
		}
		prev = v
	}
	if crossings < 878 || crossings > 882 {
		t.Errorf("zero crossings = %d, want about 880", crossings)
	}
}
