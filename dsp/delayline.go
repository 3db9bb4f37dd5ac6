package dsp

// DelayLine is a fixed-capacity circular buffer of samples. Capacity is
// allocated up front so the processing path never grows it.
type DelayLine struct {
	buffer []float32
	pos    int
}

func NewDelayLine(capacity int) *DelayLine {
	return &DelayLine{buffer: make([]float32, capacity)}
}

// Write pushes one sample into the line.
func (d *DelayLine) Write(sample float32) {
	d.buffer[d.pos] = sample
	d.pos++
	if d.pos >= len(d.buffer) {
		d.pos = 0
	}
}

// Read returns the sample written delay steps ago. delay is silently limited
// to the line capacity; delay 0 returns the most recently written sample.
func (d *DelayLine) Read(delay int) float32 {
	if delay >= len(d.buffer) {
		delay = len(d.buffer) - 1
	}
	i := d.pos - 1 - delay
	if i < 0 {
		i += len(d.buffer)
	}
	return d.buffer[i]
}

// ReadFrac reads with linear interpolation between adjacent samples, for
// smoothly modulated delays.
func (d *DelayLine) ReadFrac(delay float32) float32 {
	i := int(delay)
	frac := delay - float32(i)
	a := d.Read(i)
	b := d.Read(i + 1)
	return a + (b-a)*frac
}

// Capacity returns the maximum delay in samples.
func (d *DelayLine) Capacity() int { return len(d.buffer) }
