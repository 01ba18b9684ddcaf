package httpapi

import (
	"github.com/vmihailenco/msgpack/v5"

	"lineview/internal/influx"
)

// timelineSlot is the wire form of one timeline slot: a two-element array of
// epoch seconds and color-or-nil, matching what the frontend decodes
type timelineSlot struct {
	timestamp int64
	color     *uint8
}

var _ msgpack.CustomEncoder = timelineSlot{}

func (s timelineSlot) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeInt(s.timestamp); err != nil {
		return err
	}
	if s.color == nil {
		return enc.EncodeNil()
	}
	return enc.EncodeUint(uint64(*s.color))
}

func wireTimeline(slots []influx.TimelineSlot) []timelineSlot {
	out := make([]timelineSlot, len(slots))
	for i, s := range slots {
		out[i] = timelineSlot{timestamp: s.Start.Unix(), color: s.Color}
	}
	return out
}
