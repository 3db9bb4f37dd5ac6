package engine

import (
	"sync/atomic"
	"time"

	"github.com/viterin/vek/vek32"

	"github.com/tvuorela/pedalhost"
)

// Engine is the render side of pedalhost. Process is the audio callback
// body: it runs on the real-time thread and must never block, allocate or
// perform I/O. Everything it needs (snapshot, input scratch, click table,
// pooled tuner buffers) is either preallocated here or published through the
// coordinator.
type Engine struct {
	coord     *Coordinator
	broker    *Broker
	input     pedalhost.AudioSource
	metronome *Metronome

	sampleRate int
	blockSize  int
	deadline   time.Duration

	samplePos  int64
	overruns   atomic.Int64
	backupDone bool
}

func NewEngine(coord *Coordinator, broker *Broker, input pedalhost.AudioSource, sampleRate, blockSize int) *Engine {
	return &Engine{
		coord:      coord,
		broker:     broker,
		input:      input,
		metronome:  NewMetronome(sampleRate),
		sampleRate: sampleRate,
		blockSize:  blockSize,
		deadline:   time.Duration(blockSize) * time.Second / time.Duration(sampleRate),
	}
}

// SamplePos returns the number of samples rendered since start.
func (e *Engine) SamplePos() int64 { return atomic.LoadInt64(&e.samplePos) }

// Overruns returns the number of callbacks that missed their deadline.
func (e *Engine) Overruns() int64 { return e.overruns.Load() }

// Process renders into out. Longer buffers are rendered in chunks of at most
// the configured block size, so kernel scratch buffers never overflow. This
// is the hot path; see the package comment for what is forbidden here.
func (e *Engine) Process(out pedalhost.AudioBuffer) {
	for len(out) > 0 {
		n := e.blockSize
		if n > len(out) {
			n = len(out)
		}
		e.processBlock(out[:n])
		out = out[n:]
	}
}

func (e *Engine) processBlock(buffer pedalhost.AudioBuffer) {
	start := time.Now()
	snap := e.coord.Snapshot()
	e.input.ReadAudio(buffer)
	switch snap.Mode() {
	case Playing:
		snap.ActiveBoard().Process(buffer)
	case Tuning:
		e.captureTunerFrame(buffer)
		zero(buffer)
	default:
		zero(buffer)
	}
	if snap.Mix.MetronomeOn {
		e.metronome.Mix(buffer, e.samplePos, snap.Mix.MetronomeBPM)
	}
	if snap.Mix.BackupPlaying && snap.Backup != nil {
		if snap.Backup.Mix(buffer) {
			e.backupDone = false
		} else if !e.backupDone {
			e.backupDone = true
			TrySend(e.broker.ToControl, MsgToControl{BackupDone: true})
		}
	}
	vek32.MulNumber_Inplace(buffer, snap.Mix.Master)
	atomic.AddInt64(&e.samplePos, int64(len(buffer)))

	// A missed deadline is counted, never surfaced as an error: recovery has
	// to be silent to keep the stream going.
	if time.Since(start) > e.deadline {
		n := e.overruns.Add(1)
		TrySend(e.broker.ToControl, MsgToControl{Overruns: n, HasOverruns: true})
	}
}

// captureTunerFrame hands a copy of the input block to the control side for
// pitch detection. Buffers come from the broker pool and the send is
// non-blocking, so a slow analyzer only costs dropped frames.
func (e *Engine) captureTunerFrame(buffer pedalhost.AudioBuffer) {
	frame := e.broker.GetAudioBuffer()
	*frame = append(*frame, buffer...)
	if !TrySend(e.broker.ToControl, MsgToControl{TunerFrame: frame}) {
		e.broker.PutAudioBuffer(frame)
	}
}

func zero(buffer pedalhost.AudioBuffer) {
	for i := range buffer {
		buffer[i] = 0
	}
}
