package pedalhost

// The audio input boundary is a small interface so the engine can be driven
// by a real device, a file, or a test double. All buffers are mono float32
// frames. Output goes the other way around: the device (see the oto package)
// pulls rendered audio from the engine.

type AudioSource interface {
	// ReadAudio fills the buffer with input samples. It must be safe to call
	// from the real-time callback: no blocking, no allocation. If fewer
	// samples than len(buffer) are available, the rest must be zeroed and n
	// still reports what was filled with real input.
	ReadAudio(buffer []float32) (n int, err error)
	Close() error
}

// SilentSource is an AudioSource producing endless silence, used when no
// input device is configured.
type SilentSource struct{}

func (SilentSource) ReadAudio(buffer []float32) (int, error) {
	for i := range buffer {
		buffer[i] = 0
	}
	return len(buffer), nil
}

func (SilentSource) Close() error { return nil }
