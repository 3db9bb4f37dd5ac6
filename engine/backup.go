package engine

import (
	"sync/atomic"

	"github.com/tvuorela/pedalhost"
)

// BackupTrack is a fully pre-decoded audio file mixed into the output during
// playback. Decoding happens in the control domain before the track is
// published; the render side only reads samples and advances the playhead.
// The playhead is atomic so the control side can report or rewind the
// position while audio runs.
type BackupTrack struct {
	samples pedalhost.AudioBuffer
	pos     atomic.Int64
}

func NewBackupTrack(samples pedalhost.AudioBuffer) *BackupTrack {
	return &BackupTrack{samples: samples}
}

// Mix adds the next block of the track to the buffer and advances the
// playhead. Returns false once the track has ended. Real-time safe.
func (t *BackupTrack) Mix(buffer pedalhost.AudioBuffer) bool {
	pos := t.pos.Load()
	if pos >= int64(len(t.samples)) {
		return false
	}
	n := copyMix(buffer, t.samples[pos:])
	t.pos.Store(pos + int64(n))
	return pos+int64(n) < int64(len(t.samples))
}

func copyMix(dst, src pedalhost.AudioBuffer) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
	return n
}

// Rewind moves the playhead back to the start of the track.
func (t *BackupTrack) Rewind() { t.pos.Store(0) }

// Seek moves the playhead, clamping to the track bounds.
func (t *BackupTrack) Seek(pos int64) {
	if pos < 0 {
		pos = 0
	}
	if pos > int64(len(t.samples)) {
		pos = int64(len(t.samples))
	}
	t.pos.Store(pos)
}

// Position returns the playhead in samples.
func (t *BackupTrack) Position() int64 { return t.pos.Load() }

// Length returns the track length in samples.
func (t *BackupTrack) Length() int64 { return int64(len(t.samples)) }
