// Package chime plays short synthesized tones for tap, hold, and
// caps-word feedback as the keymap engine resolves keys, driven by the
// host simulator rather than the engine itself (audible feedback is a
// host concern, not part of the core's HID output).
package chime

import (
	"bytes"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

// Player manages synthesized chime playback.
type Player struct {
	tapData      []byte
	holdData     []byte
	capsWordData []byte
	enabled      bool
	logger       *log.Logger
	initOnce     sync.Once
	initErr      error
}

// New creates a Player, synthesizing its three chimes up front from the
// given frequencies (Hz) and duration. A zero frequency silences that
// chime. If enabled is false, every Play* call is a no-op.
func New(tapHz, holdHz, capsWordHz float64, durationMs int, enabled bool, logger *log.Logger) *Player {
	return &Player{
		tapData:      buildChime(tapHz, durationMs),
		holdData:     buildChime(holdHz, durationMs),
		capsWordData: buildChime(capsWordHz, durationMs),
		enabled:      enabled,
		logger:       logger,
	}
}

func (p *Player) initSpeaker(format beep.Format) {
	p.initOnce.Do(func() {
		p.initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
}

func (p *Player) play(data []byte) {
	if !p.enabled || len(data) == 0 {
		return
	}

	go func() {
		reader := bytes.NewReader(data)
		streamer, format, err := wav.Decode(reader)
		if err != nil {
			if p.logger != nil {
				p.logger.Printf("chime: wav decode error: %v", err)
			}
			return
		}
		defer streamer.Close()

		p.initSpeaker(format)
		if p.initErr != nil {
			if p.logger != nil {
				p.logger.Printf("chime: speaker init error: %v", p.initErr)
			}
			return
		}

		done := make(chan struct{})
		speaker.Play(beep.Seq(streamer, beep.Callback(func() {
			close(done)
		})))
		<-done
	}()
}

// PlayTap plays the tap-resolution chime (non-blocking).
func (p *Player) PlayTap() {
	p.play(p.tapData)
}

// PlayHold plays the hold-resolution chime (non-blocking).
func (p *Player) PlayHold() {
	p.play(p.holdData)
}

// PlayCapsWord plays the caps-word-toggled chime (non-blocking).
func (p *Player) PlayCapsWord() {
	p.play(p.capsWordData)
}
