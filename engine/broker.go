package engine

import (
	"sync"
	"time"

	"github.com/tvuorela/pedalhost"
)

type (
	// Broker carries messages from the real-time side to the control side.
	// Sends from the audio callback always go through TrySend so a slow or
	// absent receiver can never stall rendering; dropped messages are fine,
	// the next callback produces fresh ones. The buffer pool lets the
	// callback hand out audio (tuner frames) without allocating.
	//
	// CloseEngine has a capacity of 1, so requesting closure never blocks;
	// if it is already full the engine is already shutting down. FinishedEngine
	// is closed (never sent to) when the engine goroutine has cleaned up.
	Broker struct {
		ToControl chan MsgToControl

		CloseEngine    chan struct{}
		FinishedEngine chan struct{}

		bufferPool sync.Pool
	}

	// MsgToControl is a message from the render engine. Frequent payloads are
	// plain fields to avoid boxing allocations in the callback.
	MsgToControl struct {
		// TunerFrame is input audio captured while tuning, to be analyzed and
		// returned to the pool by the receiver.
		TunerFrame *pedalhost.AudioBuffer

		// Overruns is the cumulative count of callbacks that missed their
		// deadline. Sent whenever the count changes.
		Overruns    int64
		HasOverruns bool

		// BackupDone signals the backup track reached its end.
		BackupDone bool
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToControl:      make(chan MsgToControl, 1024),
		CloseEngine:    make(chan struct{}, 1),
		FinishedEngine: make(chan struct{}),
		bufferPool:     sync.Pool{New: func() any { return &pedalhost.AudioBuffer{} }},
	}
}

// GetAudioBuffer returns an empty buffer from the pool. Return it with
// PutAudioBuffer once processed.
func (b *Broker) GetAudioBuffer() *pedalhost.AudioBuffer {
	return b.bufferPool.Get().(*pedalhost.AudioBuffer)
}

// PutAudioBuffer resets a buffer's length (keeping capacity) and returns it
// to the pool.
func (b *Broker) PutAudioBuffer(buf *pedalhost.AudioBuffer) {
	if len(*buf) > 0 {
		*buf = (*buf)[:0]
	}
	b.bufferPool.Put(buf)
}

// TrySend sends v to c if there is room. Guaranteed non-blocking; returns
// false if the value was dropped.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive receives from c, giving up after t. ok is false on timeout
// or a closed channel.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
