// Package oto connects the render engine to the audio hardware through
// github.com/ebitengine/oto/v3. Oto pulls samples by calling Read on its own
// real-time goroutine; Read renders directly through the engine, so the
// engine's callback rules apply to everything reachable from it.
package oto

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/tvuorela/pedalhost"
	"github.com/tvuorela/pedalhost/engine"
)

type (
	Context struct {
		ctx        *oto.Context
		sampleRate int
	}

	Output struct {
		player    *oto.Player
		sampleBuf pedalhost.AudioBuffer
		mutex     sync.Mutex // setup/control only, never taken in Read
		engine    *engine.Engine
	}
)

// NewContext opens the audio device. Blocks until the hardware is ready.
func NewContext(sampleRate int) (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx, sampleRate: sampleRate}, nil
}

// Play starts pulling audio from the engine and returns the running output.
func (c *Context) Play(e *engine.Engine) *Output {
	o := &Output{engine: e, sampleBuf: make(pedalhost.AudioBuffer, 4096)}
	o.player = c.ctx.NewPlayer(o)
	o.player.Play()
	return o
}

// Read renders the next chunk through the engine and serializes it as
// float32 LE. Called by oto on the real-time goroutine.
func (o *Output) Read(p []byte) (int, error) {
	numSamples := len(p) / 4
	// should not happen after the initial allocation
	if len(o.sampleBuf) < numSamples {
		o.sampleBuf = make(pedalhost.AudioBuffer, numSamples)
	}
	samples := o.sampleBuf[:numSamples]
	o.engine.Process(samples)
	Float32BufferToLE(samples, p)
	return numSamples * 4, nil
}

func (o *Output) Close() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	if err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
