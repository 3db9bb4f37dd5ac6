package dsp

import "github.com/viterin/vek/vek32"

// Yin estimates the fundamental frequency of a signal using the YIN
// algorithm (difference function + cumulative mean normalized difference +
// parabolic interpolation). It accumulates samples fed to it until it has a
// full analysis frame, then produces an estimate. Designed to run in the
// control domain; the real-time side only hands buffers over.
type Yin struct {
	threshold  float32
	tauMin     int
	tauMax     int
	sampleRate int

	frame []float32 // accumulating analysis frame, 2*tauMax samples
	have  int
	diff  []float32
	cmndf []float32
}

// NewYin creates a detector for frequencies between freqMin and freqMax Hz.
// threshold is the cmndf aperiodicity threshold, typically 0.1..0.2.
func NewYin(threshold float32, freqMin, freqMax, sampleRate int) *Yin {
	tauMax := sampleRate / freqMin
	tauMin := sampleRate / freqMax
	return &Yin{
		threshold:  threshold,
		tauMin:     tauMin,
		tauMax:     tauMax,
		sampleRate: sampleRate,
		frame:      make([]float32, 2*tauMax),
		diff:       make([]float32, tauMax),
		cmndf:      make([]float32, tauMax),
	}
}

// FrameLength returns the number of samples needed for one estimate.
func (y *Yin) FrameLength() int { return len(y.frame) }

// ProcessBuffer consumes input samples. When a full frame has accumulated, it
// returns the detected frequency in Hz with ok = true; otherwise ok = false.
// A frame with no periodicity below the threshold also reports ok = false.
func (y *Yin) ProcessBuffer(buffer []float32) (freq float32, ok bool) {
	for len(buffer) > 0 {
		n := copy(y.frame[y.have:], buffer)
		y.have += n
		buffer = buffer[n:]
		if y.have == len(y.frame) {
			y.have = 0
			if f, found := y.estimate(); found {
				freq, ok = f, true
			}
		}
	}
	return freq, ok
}

func (y *Yin) estimate() (float32, bool) {
	y.differenceFunction()
	y.cumulativeMeanNormalized()
	tau := y.absoluteThreshold()
	if tau < 0 {
		return 0, false
	}
	better := y.parabolicInterpolation(tau)
	return float32(y.sampleRate) / better, true
}

// differenceFunction computes d(tau) over the analysis window through the
// expansion sum((x[j]-x[j+tau])^2) = e0 + e(tau) - 2*dot(x, x shifted by
// tau), so the inner loops become vector dot products.
func (y *Yin) differenceFunction() {
	w := len(y.frame) - y.tauMax
	head := y.frame[:w]
	e0 := vek32.Dot(head, head)
	for tau := 1; tau < y.tauMax; tau++ {
		lag := y.frame[tau : tau+w]
		d := e0 + vek32.Dot(lag, lag) - 2*vek32.Dot(head, lag)
		if d < 0 {
			d = 0 // rounding in the expansion
		}
		y.diff[tau] = d
	}
	y.diff[0] = 0
}

func (y *Yin) cumulativeMeanNormalized() {
	y.cmndf[0] = 1
	var runningSum float32
	for tau := 1; tau < y.tauMax; tau++ {
		runningSum += y.diff[tau]
		if runningSum == 0 {
			y.cmndf[tau] = 1
		} else {
			y.cmndf[tau] = y.diff[tau] * float32(tau) / runningSum
		}
	}
}

// absoluteThreshold returns the first tau in [tauMin, tauMax) whose cmndf
// dips below the threshold, refined to the local minimum, or -1 if none.
func (y *Yin) absoluteThreshold() int {
	for tau := y.tauMin; tau < y.tauMax; tau++ {
		if y.cmndf[tau] < y.threshold {
			for tau+1 < y.tauMax && y.cmndf[tau+1] < y.cmndf[tau] {
				tau++
			}
			return tau
		}
	}
	return -1
}

func (y *Yin) parabolicInterpolation(tau int) float32 {
	if tau <= 0 || tau >= y.tauMax-1 {
		return float32(tau)
	}
	s0, s1, s2 := y.cmndf[tau-1], y.cmndf[tau], y.cmndf[tau+1]
	denom := 2 * (2*s1 - s2 - s0)
	if denom == 0 {
		return float32(tau)
	}
	return float32(tau) + (s2-s0)/denom
}
