package engine

import (
	"github.com/tvuorela/pedalhost/dsp"
)

// TunerAnalyzer accumulates tuner frames from the render engine and runs
// pitch detection once a full analysis window is available. It lives in the
// control domain; the render side only ships raw input frames through the
// broker.
type TunerAnalyzer struct {
	yin   *dsp.Yin
	frame []float32
}

// Guitar range with some headroom in both directions: low B of a 7-string
// down to the high frets of the first string.
const (
	tunerFreqMin   = 50
	tunerFreqMax   = 1000
	tunerThreshold = 0.15
)

func NewTunerAnalyzer(sampleRate int) *TunerAnalyzer {
	yin := dsp.NewYin(tunerThreshold, tunerFreqMin, tunerFreqMax, sampleRate)
	return &TunerAnalyzer{
		yin:   yin,
		frame: make([]float32, 0, yin.FrameLength()),
	}
}

// Feed appends one captured frame. When enough input has accumulated it runs
// the detector and reports the detected frequency; ok is false while filling
// up or when no periodicity was found.
func (t *TunerAnalyzer) Feed(buffer []float32) (freq float32, ok bool) {
	t.frame = append(t.frame, buffer...)
	if len(t.frame) < t.yin.FrameLength() {
		return 0, false
	}
	freq, ok = t.yin.ProcessBuffer(t.frame[:t.yin.FrameLength()])
	t.frame = t.frame[:0]
	return freq, ok
}

// Reset drops any partially accumulated input, for when tuning is switched
// off and later on again.
func (t *TunerAnalyzer) Reset() { t.frame = t.frame[:0] }
