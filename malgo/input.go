// Package malgo captures live audio input through the miniaudio library and
// exposes it as an AudioSource for the render engine. Capture runs on
// miniaudio's own device thread; samples cross over to the render thread
// through a small buffer guarded by a mutex held only for a copy.
package malgo

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// maxBuffered bounds the capture backlog. When the render side stalls, the
// oldest samples are dropped so latency cannot grow without limit.
const maxBuffered = 1 << 15

type Input struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu  sync.Mutex
	buf []float32
}

// NewInput opens the default capture device, mono float32 at the given
// sample rate, and starts capturing immediately.
func NewInput(sampleRate, blockSize int) (*Input, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize miniaudio: %w", err)
	}
	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = 1
	config.SampleRate = uint32(sampleRate)
	config.PeriodSizeInFrames = uint32(blockSize)
	in := &Input{ctx: ctx, buf: make([]float32, 0, maxBuffered)}
	device, err := malgo.InitDevice(ctx.Context, config, malgo.DeviceCallbacks{Data: in.onFrames})
	if err != nil {
		in.closeContext()
		return nil, fmt.Errorf("could not open capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		in.closeContext()
		return nil, fmt.Errorf("could not start capture device: %w", err)
	}
	in.device = device
	return in, nil
}

func (in *Input) onFrames(_, data []byte, frames uint32) {
	in.mu.Lock()
	for i := uint32(0); i < frames; i++ {
		v := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		in.buf = append(in.buf, v)
	}
	if len(in.buf) > maxBuffered {
		in.buf = append(in.buf[:0], in.buf[len(in.buf)-maxBuffered:]...)
	}
	in.mu.Unlock()
}

// ReadAudio drains captured samples into out. It never waits for the device:
// when capture has not delivered enough yet the rest of the block is zeroed,
// which surfaces as a moment of silence rather than a callback stall.
func (in *Input) ReadAudio(out []float32) (int, error) {
	in.mu.Lock()
	n := copy(out, in.buf)
	in.buf = append(in.buf[:0], in.buf[n:]...)
	in.mu.Unlock()
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	return n, nil
}

func (in *Input) Close() error {
	in.device.Uninit()
	return in.closeContext()
}

func (in *Input) closeContext() error {
	err := in.ctx.Uninit()
	in.ctx.Free()
	return err
}
