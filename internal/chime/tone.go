package chime

import (
	"fmt"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeSeeker is an in-memory io.WriteSeeker for WAV encoding.
type writeSeeker struct {
	buf []byte
	pos int
}

func (ws *writeSeeker) Write(p []byte) (int, error) {
	end := ws.pos + len(p)
	if end > len(ws.buf) {
		ws.buf = append(ws.buf, make([]byte, end-len(ws.buf))...)
	}
	copy(ws.buf[ws.pos:], p)
	ws.pos = end
	return len(p), nil
}

func (ws *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case 0:
		newPos = int(offset)
	case 1:
		newPos = ws.pos + int(offset)
	case 2:
		newPos = len(ws.buf) + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if newPos < 0 || newPos > len(ws.buf) {
		return 0, fmt.Errorf("seek position %d out of bounds [0, %d]", newPos, len(ws.buf))
	}
	ws.pos = newPos
	return int64(ws.pos), nil
}

const toneSampleRate = 44100

// generateTone synthesizes a single-frequency sine wave with a raised-cosine
// envelope (fade in/out, avoiding a click at the edges), at the given
// frequency and duration.
func generateTone(hz float64, durationMs int) []int16 {
	n := toneSampleRate * durationMs / 1000
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(toneSampleRate)
		progress := float64(i) / float64(n)
		envelope := math.Sin(math.Pi * progress)
		v := math.Sin(2*math.Pi*hz*t) * envelope * 16000
		samples[i] = int16(v)
	}
	return samples
}

// encodeWAV encodes mono int16 PCM samples to WAV format in memory.
func encodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	ws := &writeSeeker{}

	intBuf := &audio.IntBuffer{
		Data: make([]int, len(samples)),
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		intBuf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(ws, sampleRate, 16, 1, 1)
	if err := enc.Write(intBuf); err != nil {
		return nil, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav encoder: %w", err)
	}

	return ws.buf, nil
}

// buildChime synthesizes a chime tone as WAV-encoded bytes, ready to hand
// to a beep decoder. hz == 0 silences the chime (returns nil, playing
// nothing).
func buildChime(hz float64, durationMs int) []byte {
	if hz <= 0 || durationMs <= 0 {
		return nil
	}
	samples := generateTone(hz, durationMs)
	data, err := encodeWAV(samples, toneSampleRate)
	if err != nil {
		return nil
	}
	return data
}
