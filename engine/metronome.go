package engine

import (
	"math"

	"github.com/tvuorela/pedalhost"
)

// Metronome mixes a short click onto beat boundaries. Beats are derived from
// the running sample counter, never from wall clock time, so the click cannot
// drift against the audio stream. The click itself is synthesized once at
// construction; the mix pass is just table lookups.
type Metronome struct {
	click      []float32
	sampleRate int
}

const (
	clickFrequency = 1500 // Hz
	clickLength    = 0.02 // seconds
	clickLevel     = 0.5
)

func NewMetronome(sampleRate int) *Metronome {
	n := int(clickLength * float64(sampleRate))
	click := make([]float32, n)
	for i := range click {
		t := float64(i) / float64(sampleRate)
		envelope := 1 - float64(i)/float64(n)
		click[i] = float32(clickLevel * envelope * math.Sin(2*math.Pi*clickFrequency*t))
	}
	return &Metronome{click: click, sampleRate: sampleRate}
}

// Mix adds the click to the buffer. samplePos is the absolute position of the
// buffer's first sample. Real-time safe.
func (m *Metronome) Mix(buffer pedalhost.AudioBuffer, samplePos int64, bpm int) {
	if bpm <= 0 {
		return
	}
	period := int64(m.sampleRate) * 60 / int64(bpm)
	for i := range buffer {
		offset := (samplePos + int64(i)) % period
		if offset < int64(len(m.click)) {
			buffer[i] += m.click[offset]
		}
	}
}
