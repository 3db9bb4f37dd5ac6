package engine

import (
	"math"

	"github.com/viterin/vek/vek32"

	"github.com/tvuorela/pedalhost/dsp"
)

// The built-in kernels. Each resolves its parameter indices once at
// construction and reads the atomic cells during processing; updateParams
// recomputes derived state (filter coefficients, LFO rates) only when a
// parameter actually changed.

type gainKernel struct {
	volume int
}

func newGainKernel(u *Unit) *gainKernel {
	return &gainKernel{volume: u.index["volume"]}
}

func (k *gainKernel) updateParams(*Unit) {}

func (k *gainKernel) process(u *Unit, buffer []float32) {
	vek32.MulNumber_Inplace(buffer, u.param(k.volume))
}

type overdriveKernel struct {
	drive, level, tone int
	sampleRate         int
	lastTone           float32
	lp                 dsp.Biquad
}

func newOverdriveKernel(u *Unit, sampleRate int) *overdriveKernel {
	return &overdriveKernel{
		drive:      u.index["drive"],
		level:      u.index["level"],
		tone:       u.index["tone"],
		sampleRate: sampleRate,
		lastTone:   -1,
	}
}

func (k *overdriveKernel) updateParams(u *Unit) {
	if tone := u.param(k.tone); tone != k.lastTone {
		k.lp = dsp.LowPass(tone, float32(k.sampleRate), 0.707)
		k.lastTone = tone
	}
}

func (k *overdriveKernel) process(u *Unit, buffer []float32) {
	drive := u.param(k.drive)
	level := u.param(k.level)
	for i, x := range buffer {
		shaped := float32(math.Tanh(float64(x * drive)))
		buffer[i] = k.lp.Process(shaped) * level
	}
}

type fuzzKernel struct {
	gain, level, drywet int
}

func newFuzzKernel(u *Unit) *fuzzKernel {
	return &fuzzKernel{gain: u.index["gain"], level: u.index["level"], drywet: u.index["drywet"]}
}

func (k *fuzzKernel) updateParams(*Unit) {}

func (k *fuzzKernel) process(u *Unit, buffer []float32) {
	gain := u.param(k.gain)
	level := u.param(k.level)
	wet := u.param(k.drywet)
	for i, x := range buffer {
		driven := x * gain
		// asymmetric exponential clipper
		var shaped float32
		if driven >= 0 {
			shaped = 1 - float32(math.Exp(float64(-driven)))
		} else {
			shaped = -1 + float32(math.Exp(float64(driven)))
		}
		buffer[i] = (shaped*wet + x*(1-wet)) * level
	}
}

type distortionKernel struct {
	drive, level int
}

func newDistortionKernel(u *Unit) *distortionKernel {
	return &distortionKernel{drive: u.index["drive"], level: u.index["level"]}
}

func (k *distortionKernel) updateParams(*Unit) {}

func (k *distortionKernel) process(u *Unit, buffer []float32) {
	drive := u.param(k.drive)
	level := u.param(k.level)
	for i, x := range buffer {
		y := x * drive
		if y > 1 {
			y = 1
		} else if y < -1 {
			y = -1
		}
		buffer[i] = y * level
	}
}

const maxDelaySeconds = 2

type delayKernel struct {
	time, feedback, mix int
	sampleRate          int
	line                *dsp.DelayLine
}

func newDelayKernel(u *Unit, sampleRate int) *delayKernel {
	return &delayKernel{
		time:       u.index["time"],
		feedback:   u.index["feedback"],
		mix:        u.index["mix"],
		sampleRate: sampleRate,
		line:       dsp.NewDelayLine(maxDelaySeconds * sampleRate),
	}
}

func (k *delayKernel) updateParams(*Unit) {}

func (k *delayKernel) process(u *Unit, buffer []float32) {
	delaySamples := u.param(k.time) / 1000 * float32(k.sampleRate)
	feedback := u.param(k.feedback)
	mix := u.param(k.mix)
	for i, dry := range buffer {
		wet := k.line.ReadFrac(delaySamples)
		k.line.Write(dry + wet*feedback)
		buffer[i] = dry*(1-mix) + wet*mix
	}
}

type chorusKernel struct {
	rate, depth, mix int
	sampleRate       int
	line             *dsp.DelayLine
	lfo              dsp.Oscillator
}

// chorus sweeps a short delay between 5 and 25 ms
const (
	chorusBaseDelayMs  = 5
	chorusSweepDelayMs = 20
)

func newChorusKernel(u *Unit, sampleRate int) *chorusKernel {
	return &chorusKernel{
		rate:       u.index["rate"],
		depth:      u.index["depth"],
		mix:        u.index["mix"],
		sampleRate: sampleRate,
		line:       dsp.NewDelayLine((chorusBaseDelayMs + chorusSweepDelayMs + 1) * sampleRate / 1000),
		lfo:        dsp.NewOscillator(dsp.Sine, 0.8, float32(sampleRate)),
	}
}

func (k *chorusKernel) updateParams(u *Unit) {
	k.lfo.Frequency = u.param(k.rate)
}

func (k *chorusKernel) process(u *Unit, buffer []float32) {
	depth := u.param(k.depth)
	mix := u.param(k.mix)
	base := float32(chorusBaseDelayMs) / 1000 * float32(k.sampleRate)
	sweep := float32(chorusSweepDelayMs) / 1000 * float32(k.sampleRate)
	for i, dry := range buffer {
		mod := (k.lfo.Next() + 1) / 2 // 0..1
		wet := k.line.ReadFrac(base + sweep*mod*depth)
		k.line.Write(dry)
		buffer[i] = dry*(1-mix) + wet*mix
	}
}

type tremoloKernel struct {
	rate, depth int
	lfo         dsp.Oscillator
}

func newTremoloKernel(u *Unit, sampleRate int) *tremoloKernel {
	return &tremoloKernel{
		rate:  u.index["rate"],
		depth: u.index["depth"],
		lfo:   dsp.NewOscillator(dsp.Sine, 5, float32(sampleRate)),
	}
}

func (k *tremoloKernel) updateParams(u *Unit) {
	k.lfo.Frequency = u.param(k.rate)
}

func (k *tremoloKernel) process(u *Unit, buffer []float32) {
	depth := u.param(k.depth)
	for i, x := range buffer {
		mod := (k.lfo.Next() + 1) / 2 // 0..1
		buffer[i] = x * (1 - depth*mod)
	}
}

type vibratoKernel struct {
	rate, depth int
	sampleRate  int
	line        *dsp.DelayLine
	lfo         dsp.Oscillator
}

const vibratoMaxDelayMs = 15

func newVibratoKernel(u *Unit, sampleRate int) *vibratoKernel {
	return &vibratoKernel{
		rate:       u.index["rate"],
		depth:      u.index["depth"],
		sampleRate: sampleRate,
		line:       dsp.NewDelayLine((vibratoMaxDelayMs + 1) * sampleRate / 1000),
		lfo:        dsp.NewOscillator(dsp.Sine, 5, float32(sampleRate)),
	}
}

func (k *vibratoKernel) updateParams(u *Unit) {
	k.lfo.Frequency = u.param(k.rate)
}

func (k *vibratoKernel) process(u *Unit, buffer []float32) {
	depthSamples := u.param(k.depth) / 1000 * float32(k.sampleRate)
	for i, x := range buffer {
		k.line.Write(x)
		mod := (k.lfo.Next() + 1) / 2 // 0..1
		buffer[i] = k.line.ReadFrac(depthSamples * mod)
	}
}

type compressorKernel struct {
	threshold, ratio, attack, release, level int
	sampleRate                               int
	envelope                                 float32
}

func newCompressorKernel(u *Unit, sampleRate int) *compressorKernel {
	return &compressorKernel{
		threshold:  u.index["threshold"],
		ratio:      u.index["ratio"],
		attack:     u.index["attack"],
		release:    u.index["release"],
		level:      u.index["level"],
		sampleRate: sampleRate,
	}
}

func (k *compressorKernel) updateParams(*Unit) {}

func (k *compressorKernel) process(u *Unit, buffer []float32) {
	threshold := u.param(k.threshold)
	ratio := u.param(k.ratio)
	level := u.param(k.level)
	attackAlpha := 1 - float32(math.Exp(-1/(float64(u.param(k.attack))/1000*float64(k.sampleRate))))
	releaseAlpha := 1 - float32(math.Exp(-1/(float64(u.param(k.release))/1000*float64(k.sampleRate))))
	for i, x := range buffer {
		in := x
		if in < 0 {
			in = -in
		}
		if in > k.envelope {
			k.envelope += attackAlpha * (in - k.envelope)
		} else {
			k.envelope += releaseAlpha * (in - k.envelope)
		}
		gain := float32(1)
		if k.envelope > 0 {
			envDb := 20 * float32(math.Log10(float64(k.envelope)))
			if envDb > threshold {
				// gain reduction above the threshold, softened by the ratio
				reductionDb := (envDb - threshold) * (1/ratio - 1)
				gain = float32(math.Pow(10, float64(reductionDb)/20))
			}
		}
		buffer[i] = x * gain * level
	}
}

// Freeverb-style mono reverb: parallel feedback combs with a one-pole damper
// in the loop, feeding serial allpasses. Tunings are the classic lengths at
// 44.1 kHz, scaled to the running sample rate.

var (
	reverbCombTuning    = [4]int{1116, 1188, 1277, 1356}
	reverbAllpassTuning = [2]int{556, 441}
)

const (
	reverbInputScale = 0.03
	reverbScaleRoom  = 0.28
	reverbOffsetRoom = 0.7
	reverbScaleDamp  = 0.4
)

type reverbComb struct {
	line  *dsp.DelayLine
	delay int
	store float32
}

func (c *reverbComb) process(x, feedback, damp float32) float32 {
	out := c.line.Read(c.delay - 1)
	c.store = out*(1-damp) + c.store*damp
	c.line.Write(x + c.store*feedback)
	return out
}

type reverbAllpass struct {
	line  *dsp.DelayLine
	delay int
}

func (a *reverbAllpass) process(x float32) float32 {
	out := a.line.Read(a.delay - 1)
	a.line.Write(x + out*0.5)
	return out - x
}

type reverbKernel struct {
	roomsize, damping, mix int
	combs                  [4]reverbComb
	allpasses              [2]reverbAllpass
}

func newReverbKernel(u *Unit, sampleRate int) *reverbKernel {
	k := &reverbKernel{
		roomsize: u.index["roomsize"],
		damping:  u.index["damping"],
		mix:      u.index["mix"],
	}
	for i, tuning := range reverbCombTuning {
		delay := tuning * sampleRate / 44100
		k.combs[i] = reverbComb{line: dsp.NewDelayLine(delay), delay: delay}
	}
	for i, tuning := range reverbAllpassTuning {
		delay := tuning * sampleRate / 44100
		k.allpasses[i] = reverbAllpass{line: dsp.NewDelayLine(delay), delay: delay}
	}
	return k
}

func (k *reverbKernel) updateParams(*Unit) {}

func (k *reverbKernel) process(u *Unit, buffer []float32) {
	feedback := reverbOffsetRoom + u.param(k.roomsize)*reverbScaleRoom
	damp := u.param(k.damping) * reverbScaleDamp
	mix := u.param(k.mix)
	for i, dry := range buffer {
		in := dry * reverbInputScale
		var wet float32
		for c := range k.combs {
			wet += k.combs[c].process(in, feedback, damp)
		}
		for a := range k.allpasses {
			wet = k.allpasses[a].process(wet)
		}
		buffer[i] = dry*(1-mix) + wet*mix
	}
}

type noiseGateKernel struct {
	threshold, release int
	sampleRate         int
	envelope           float32
	gateGain           float32
}

func newNoiseGateKernel(u *Unit, sampleRate int) *noiseGateKernel {
	return &noiseGateKernel{
		threshold:  u.index["threshold"],
		release:    u.index["release"],
		sampleRate: sampleRate,
		gateGain:   1,
	}
}

func (k *noiseGateKernel) updateParams(*Unit) {}

func (k *noiseGateKernel) process(u *Unit, buffer []float32) {
	threshold := u.param(k.threshold)
	releaseMs := u.param(k.release)
	// 10 ms envelope follower; release rate closes the gate over releaseMs
	followAlpha := 1 - float32(math.Exp(-1/(0.010*float64(k.sampleRate))))
	releaseStep := float32(1) / (releaseMs / 1000 * float32(k.sampleRate))
	for i, x := range buffer {
		level := x
		if level < 0 {
			level = -level
		}
		k.envelope += followAlpha * (level - k.envelope)
		if k.envelope >= threshold {
			k.gateGain = 1
		} else if k.gateGain > 0 {
			k.gateGain -= releaseStep
			if k.gateGain < 0 {
				k.gateGain = 0
			}
		}
		buffer[i] = x * k.gateGain
	}
}

var eq7Frequencies = [7]float32{100, 200, 400, 800, 1600, 3200, 6400}

type eq7Kernel struct {
	bandIdx    [7]int
	sampleRate int
	lastGain   [7]float32
	bands      [7]dsp.Biquad
}

func newEq7Kernel(u *Unit, sampleRate int) *eq7Kernel {
	k := &eq7Kernel{sampleRate: sampleRate}
	for i, name := range []string{"100", "200", "400", "800", "1600", "3200", "6400"} {
		k.bandIdx[i] = u.index[name]
		k.lastGain[i] = float32(math.NaN())
	}
	return k
}

func (k *eq7Kernel) updateParams(u *Unit) {
	for i := range k.bands {
		gain := u.param(k.bandIdx[i])
		if gain != k.lastGain[i] {
			k.bands[i] = dsp.PeakingEQ(eq7Frequencies[i], float32(k.sampleRate), 1.0, gain)
			k.lastGain[i] = gain
		}
	}
}

func (k *eq7Kernel) process(_ *Unit, buffer []float32) {
	for i := range k.bands {
		k.bands[i].ProcessBuffer(buffer)
	}
}
