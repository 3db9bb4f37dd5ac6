package oto

import (
	"encoding/binary"
	"math"
)

// Float32BufferToLE serializes samples as little-endian float32 into dst,
// which must hold at least 4*len(samples) bytes. No allocation; runs on the
// audio goroutine.
func Float32BufferToLE(samples []float32, dst []byte) {
	for i, v := range samples {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
	}
}
