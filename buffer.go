package pedalhost

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// AudioBuffer is a mono buffer of float32 samples.
type AudioBuffer []float32

// Wav converts the buffer into a mono .wav file. If pcm16 = true, the samples
// are converted to 16-bit signed PCM; otherwise the file stores IEEE float32.
func (buffer AudioBuffer) Wav(sampleRate int, pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	wavHeader(len(buffer), sampleRate, pcm16, buf)
	err := buffer.rawToBuffer(pcm16, buf)
	if err != nil {
		return nil, fmt.Errorf("Wav failed: %v", err)
	}
	return buf.Bytes(), nil
}

// Raw converts the buffer into raw samples, without any header.
func (buffer AudioBuffer) Raw(pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	err := buffer.rawToBuffer(pcm16, buf)
	if err != nil {
		return nil, fmt.Errorf("Raw failed: %v", err)
	}
	return buf.Bytes(), nil
}

// Source returns an AudioSource that reads through the buffer once and then
// produces silence.
func (buffer AudioBuffer) Source() AudioSource {
	return &bufferSource{buffer: buffer}
}

type bufferSource struct {
	buffer AudioBuffer
	pos    int
}

func (s *bufferSource) ReadAudio(out []float32) (int, error) {
	n := copy(out, s.buffer[s.pos:])
	s.pos += n
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	return n, nil
}

func (s *bufferSource) Close() error { return nil }

func (buffer AudioBuffer) rawToBuffer(pcm16 bool, buf *bytes.Buffer) error {
	var err error
	if pcm16 {
		int16data := make([]int16, len(buffer))
		for i, v := range buffer {
			int16data[i] = int16(clamp(int(v*math.MaxInt16), math.MinInt16, math.MaxInt16))
		}
		err = binary.Write(buf, binary.LittleEndian, int16data)
	} else {
		err = binary.Write(buf, binary.LittleEndian, []float32(buffer))
	}
	if err != nil {
		return fmt.Errorf("could not binary write data to binary buffer: %v", err)
	}
	return nil
}

// wavHeader writes a wave header for either float32 or int16 mono .wav file
// into the bytes.Buffer. Refer to:
// http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
func wavHeader(bufferLength, sampleRate int, pcm16 bool, buf *bytes.Buffer) {
	numChannels := 1
	var bytesPerSample, chunkSize, fmtChunkSize, waveFormat int
	var factChunk bool
	if pcm16 {
		bytesPerSample = 2
		chunkSize = 36 + bytesPerSample*bufferLength
		fmtChunkSize = 16
		waveFormat = 1 // PCM
		factChunk = false
	} else {
		bytesPerSample = 4
		chunkSize = 50 + bytesPerSample*bufferLength
		fmtChunkSize = 18
		waveFormat = 3 // IEEE float
		factChunk = true
	}
	buf.Write([]byte("RIFF"))
	binary.Write(buf, binary.LittleEndian, uint32(chunkSize))
	buf.Write([]byte("WAVE"))
	buf.Write([]byte("fmt "))
	binary.Write(buf, binary.LittleEndian, uint32(fmtChunkSize))
	binary.Write(buf, binary.LittleEndian, uint16(waveFormat))
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*numChannels*bytesPerSample)) // avgBytesPerSec
	binary.Write(buf, binary.LittleEndian, uint16(numChannels*bytesPerSample))            // blockAlign
	binary.Write(buf, binary.LittleEndian, uint16(8*bytesPerSample))                      // bits per sample
	if fmtChunkSize > 16 {
		binary.Write(buf, binary.LittleEndian, uint16(0)) // size of extension
	}
	if factChunk {
		buf.Write([]byte("fact"))
		binary.Write(buf, binary.LittleEndian, uint32(4))            // fact chunk size
		binary.Write(buf, binary.LittleEndian, uint32(bufferLength)) // sample length
	}
	buf.Write([]byte("data"))
	binary.Write(buf, binary.LittleEndian, uint32(bytesPerSample*bufferLength))
}

// ReadWav parses a .wav file, averaging multi-channel audio down to mono.
// Supports 8/16/24/32 bit PCM and 32 bit IEEE float. Used for backup tracks
// and the offline processor; resampling is not performed, the file sample
// rate is returned for the caller to check.
func ReadWav(data []byte) (buffer AudioBuffer, sampleRate int, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a RIFF/WAVE file")
	}
	var numChannels, bitsPerSample, waveFormat int
	var sampleData []byte
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := data[pos+8:]
		if size > len(body) {
			size = len(body)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, errors.New("malformed fmt chunk")
			}
			waveFormat = int(binary.LittleEndian.Uint16(body[0:2]))
			numChannels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
		case "data":
			sampleData = body[:size]
		}
		pos += 8 + size
		if size%2 == 1 {
			pos++ // chunks are word aligned
		}
	}
	if sampleData == nil || numChannels == 0 {
		return nil, 0, errors.New("missing fmt or data chunk")
	}
	bytesPerSample := bitsPerSample / 8
	if bytesPerSample == 0 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d", bitsPerSample)
	}
	frames := len(sampleData) / (bytesPerSample * numChannels)
	buffer = make(AudioBuffer, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < numChannels; c++ {
			b := sampleData[(i*numChannels+c)*bytesPerSample:]
			var v float32
			switch {
			case waveFormat == 3 && bitsPerSample == 32:
				v = math.Float32frombits(binary.LittleEndian.Uint32(b))
			case waveFormat == 1 && bitsPerSample == 8:
				v = (float32(b[0]) - 128) / 128
			case waveFormat == 1 && bitsPerSample == 16:
				v = float32(int16(binary.LittleEndian.Uint16(b))) / math.MaxInt16
			case waveFormat == 1 && bitsPerSample == 24:
				u := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
				v = float32(int32(u<<8)>>8) / (1 << 23)
			case waveFormat == 1 && bitsPerSample == 32:
				v = float32(int32(binary.LittleEndian.Uint32(b))) / math.MaxInt32
			default:
				return nil, 0, fmt.Errorf("unsupported wav format %d with %d bits per sample", waveFormat, bitsPerSample)
			}
			sum += v
		}
		buffer[i] = sum / float32(numChannels)
	}
	return buffer, sampleRate, nil
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
