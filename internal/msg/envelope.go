package msg

import (
	"fmt"

	"github.com/marmos91/cephmsgr/internal/frame"
)

// Envelope is the generic "Message" tag payload: a header segment plus
// up to three optional data segments (front, middle, back), carried as
// a single msgr2 frame with up to four segments total. Typed
// application payloads (Ping, MonSubscribe, and friends) live inside
// the header/front segments; this type only concerns itself with the
// segment split, not their contents.
type Envelope struct {
	Header []byte
	Front  []byte
	Middle []byte
	Back   []byte
}

// ToFrame packs the envelope into a Tag=Message frame, omitting
// trailing empty segments exactly as the original does (a message with
// only a header becomes a single-segment frame).
func (e Envelope) ToFrame() (frame.Frame, error) {
	segments := [][]byte{e.Header}
	if len(e.Back) > 0 {
		segments = append(segments, e.Front, e.Middle, e.Back)
	} else if len(e.Middle) > 0 {
		segments = append(segments, e.Front, e.Middle)
	} else if len(e.Front) > 0 {
		segments = append(segments, e.Front)
	}
	return frame.NewFrame(frame.TagMessage, segments...)
}

// DecodeEnvelope splits a Tag=Message frame's segments back into header
// plus up to three data segments.
func DecodeEnvelope(f frame.Frame) (Envelope, error) {
	if f.Tag != frame.TagMessage {
		return Envelope{}, fmt.Errorf("msg: expected Message tag, got %v", f.Tag)
	}
	if len(f.Segments) == 0 {
		return Envelope{}, fmt.Errorf("msg: message frame has no header segment")
	}
	e := Envelope{Header: f.Segments[0]}
	if len(f.Segments) > 1 {
		e.Front = f.Segments[1]
	}
	if len(f.Segments) > 2 {
		e.Middle = f.Segments[2]
	}
	if len(f.Segments) > 3 {
		e.Back = f.Segments[3]
	}
	return e, nil
}

// PushDataSegment appends segment into the first unused slot among
// front/middle/back, reporting whether there was room.
func (e *Envelope) PushDataSegment(segment []byte) bool {
	switch {
	case e.Front == nil:
		e.Front = segment
	case e.Middle == nil:
		e.Middle = segment
	case e.Back == nil:
		e.Back = segment
	default:
		return false
	}
	return true
}
