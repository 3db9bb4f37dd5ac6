package dsp

import "math"

// Shape selects the waveform of an Oscillator.
type Shape int

const (
	Sine Shape = iota
	Square
	Triangle
	Sawtooth
)

// Oscillator is a phase accumulating low frequency oscillator, used for
// modulation (chorus, tremolo) and for synthesizing the metronome click.
type Oscillator struct {
	Shape      Shape
	Frequency  float32
	sampleRate float32
	phase      float32
}

func NewOscillator(shape Shape, frequency, sampleRate float32) Oscillator {
	return Oscillator{Shape: shape, Frequency: frequency, sampleRate: sampleRate}
}

// Next produces the next sample in -1..1 and advances the phase.
func (o *Oscillator) Next() float32 {
	var value float32
	switch o.Shape {
	case Sine:
		value = float32(math.Sin(float64(o.phase) * 2 * math.Pi))
	case Square:
		if o.phase < 0.5 {
			value = 1
		} else {
			value = -1
		}
	case Triangle:
		value = 4*abs32(o.phase-0.5) - 1
	case Sawtooth:
		value = 2*o.phase - 1
	}
	o.phase += o.Frequency / o.sampleRate
	if o.phase > 1 {
		o.phase -= 1
	}
	return value
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
