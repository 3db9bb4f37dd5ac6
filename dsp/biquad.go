// Package dsp contains the numeric building blocks of the built-in pedals:
// biquad filters, oscillators, delay lines and the YIN pitch detector. All
// processing methods are allocation free and safe to call from the real-time
// callback.
package dsp

import "math"

// Biquad is a direct form I second-order IIR filter. Coefficients follow the
// Audio EQ Cookbook; the a0 term is normalized away by the constructors.
type Biquad struct {
	b0, b1, b2 float32
	a1, a2     float32
	x1, x2     float32
	y1, y2     float32
}

func biquadCommon(freq, sampleRate, q float32) (w0, alpha float32) {
	w0 = 2 * math.Pi * freq / sampleRate
	alpha = sin32(w0) / (2 * q)
	return
}

func sin32(x float32) float32 { return float32(math.Sin(float64(x))) }
func cos32(x float32) float32 { return float32(math.Cos(float64(x))) }

func newBiquad(a0, a1, a2, b0, b1, b2 float32) Biquad {
	return Biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

// LowPass returns a lowpass biquad with cutoff freq and resonance q.
func LowPass(freq, sampleRate, q float32) Biquad {
	w0, alpha := biquadCommon(freq, sampleRate, q)
	cw := cos32(w0)
	return newBiquad(1+alpha, -2*cw, 1-alpha, (1-cw)/2, 1-cw, (1-cw)/2)
}

// HighPass returns a highpass biquad with cutoff freq and resonance q.
func HighPass(freq, sampleRate, q float32) Biquad {
	w0, alpha := biquadCommon(freq, sampleRate, q)
	cw := cos32(w0)
	return newBiquad(1+alpha, -2*cw, 1-alpha, (1+cw)/2, -(1 + cw), (1+cw)/2)
}

// BandPass returns a bandpass biquad centered on freq, with constant 0 dB
// peak gain.
func BandPass(freq, sampleRate, q float32) Biquad {
	w0, alpha := biquadCommon(freq, sampleRate, q)
	cw := cos32(w0)
	return newBiquad(1+alpha, -2*cw, 1-alpha, alpha, 0, -alpha)
}

// PeakingEQ returns a peaking equalizer biquad with the given gain in dB.
func PeakingEQ(freq, sampleRate, q, gainDB float32) Biquad {
	w0, alpha := biquadCommon(freq, sampleRate, q)
	cw := cos32(w0)
	a := float32(math.Pow(10, float64(gainDB)/40))
	return newBiquad(1+alpha/a, -2*cw, 1-alpha/a, 1+alpha*a, -2*cw, 1-alpha*a)
}

// LowShelf returns a low shelf biquad with shelf slope s and gain in dB.
func LowShelf(freq, sampleRate, s, gainDB float32) Biquad {
	a := float32(math.Pow(10, float64(gainDB)/40))
	w0, alpha := biquadCommon(freq, sampleRate, qFromShelfSlope(s, a))
	cw := cos32(w0)
	sq := 2 * float32(math.Sqrt(float64(a))) * alpha
	return newBiquad(
		(a+1)+(a-1)*cw+sq,
		-2*((a-1)+(a+1)*cw),
		(a+1)+(a-1)*cw-sq,
		a*((a+1)-(a-1)*cw+sq),
		2*a*((a-1)-(a+1)*cw),
		a*((a+1)-(a-1)*cw-sq))
}

// HighShelf returns a high shelf biquad with shelf slope s and gain in dB.
func HighShelf(freq, sampleRate, s, gainDB float32) Biquad {
	a := float32(math.Pow(10, float64(gainDB)/40))
	w0, alpha := biquadCommon(freq, sampleRate, qFromShelfSlope(s, a))
	cw := cos32(w0)
	sq := 2 * float32(math.Sqrt(float64(a))) * alpha
	return newBiquad(
		(a+1)-(a-1)*cw+sq,
		2*((a-1)-(a+1)*cw),
		(a+1)-(a-1)*cw-sq,
		a*((a+1)+(a-1)*cw+sq),
		-2*a*((a-1)+(a+1)*cw),
		a*((a+1)+(a-1)*cw-sq))
}

func qFromShelfSlope(s, a float32) float32 {
	return 1 / float32(math.Sqrt(float64((a+1/a)*(1/s-1)+2)))
}

// Process filters one sample.
func (f *Biquad) Process(x float32) float32 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// ProcessBuffer filters a buffer in place.
func (f *Biquad) ProcessBuffer(buffer []float32) {
	for i, x := range buffer {
		buffer[i] = f.Process(x)
	}
}

// Reset clears the filter state, keeping the coefficients.
func (f *Biquad) Reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}
