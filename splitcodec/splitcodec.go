// Package splitcodec implements the 4-byte wire frame used to carry a
// single Press or Release event between the two halves of a split
// keyboard.
package splitcodec

import (
	"errors"
	"fmt"

	"github.com/rgoulter/smart-keymap-go/input"
)

// FrameSize is the fixed wire frame length.
const FrameSize = 4

const (
	tagPress   byte = 0x01
	tagRelease byte = 0x02
)

// ErrUnsupportedEvent is returned by Encode for any input.Event kind this
// wire format can't carry: virtual key events have no keymap index, and
// transporting them would require the receiving half to already share
// the sending half's resolved key-output mapping, which split halves
// don't.
var ErrUnsupportedEvent = errors.New("splitcodec: virtual key events are not transportable")

// ErrInvalidFrame is returned by Decode when the frame's tag or trailing
// byte don't match the wire format.
type ErrInvalidFrame struct {
	Frame [FrameSize]byte
}

func (e ErrInvalidFrame) Error() string {
	return fmt.Sprintf("splitcodec: invalid frame % x", e.Frame)
}

// Encode packs ev into a 4-byte frame: tag, little-endian keymap index,
// and a trailing zero byte.
func Encode(ev input.Event) ([FrameSize]byte, error) {
	var tag byte
	switch ev.Kind {
	case input.Press:
		tag = tagPress
	case input.Release:
		tag = tagRelease
	default:
		return [FrameSize]byte{}, ErrUnsupportedEvent
	}
	var frame [FrameSize]byte
	frame[0] = tag
	frame[1] = byte(ev.KeymapIndex)
	frame[2] = byte(ev.KeymapIndex >> 8)
	frame[3] = 0
	return frame, nil
}

// Decode unpacks a 4-byte frame into an input.Event. It fails unless
// byte 0 is a valid tag and byte 3 is 0.
func Decode(frame [FrameSize]byte) (input.Event, error) {
	if frame[3] != 0 {
		return input.Event{}, ErrInvalidFrame{Frame: frame}
	}
	keymapIndex := uint16(frame[1]) | uint16(frame[2])<<8
	switch frame[0] {
	case tagPress:
		return input.NewPress(keymapIndex), nil
	case tagRelease:
		return input.NewRelease(keymapIndex), nil
	default:
		return input.Event{}, ErrInvalidFrame{Frame: frame}
	}
}
