package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Decode converts a wire message into an event at the given sample offset.
// A note on with zero velocity decodes as a note off. Messages the
// oscillator has no use for report false.
func Decode(msg gomidi.Message, offset int32) (Event, bool) {
	var ch, key, vel, ctrl, val uint8
	var rel int16
	var abs uint16

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return NoteOnEvent{BaseEvent{ch, offset}, key, vel}, true
	case msg.GetNoteOff(&ch, &key, &vel):
		return NoteOffEvent{BaseEvent{ch, offset}, key, vel}, true
	case msg.GetNoteOn(&ch, &key, &vel):
		// velocity zero
		return NoteOffEvent{BaseEvent{ch, offset}, key, 0}, true
	case msg.GetControlChange(&ch, &ctrl, &val):
		return ControlChangeEvent{BaseEvent{ch, offset}, ctrl, val}, true
	case msg.GetPitchBend(&ch, &rel, &abs):
		return PitchBendEvent{BaseEvent{ch, offset}, rel}, true
	}
	return nil, false
}
