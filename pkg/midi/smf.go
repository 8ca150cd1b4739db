package midi

import (
	"fmt"
	"io"
	"math"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ReadSMF reads a Standard MIDI File and returns its playable channel
// events with offsets in samples at sampleRate, ordered by time. Tracks are
// merged; tempo changes are honoured.
func ReadSMF(r io.Reader, sampleRate float64) ([]Event, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("midi: invalid sample rate %v", sampleRate)
	}

	var events []Event
	var overflow bool
	rd := smf.ReadTracksFrom(r).Do(func(te smf.TrackEvent) {
		if !te.Message.IsPlayable() {
			return
		}
		pos := math.Round(float64(te.AbsMicroSeconds) * sampleRate / 1e6)
		if pos > math.MaxInt32 {
			overflow = true
			return
		}
		if e, ok := Decode(gomidi.Message(te.Message), int32(pos)); ok {
			events = append(events, e)
		}
	})
	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("midi: reading smf: %w", err)
	}
	if overflow {
		return nil, fmt.Errorf("midi: sequence longer than %d samples", math.MaxInt32)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].SampleOffset() < events[j].SampleOffset()
	})
	return events, nil
}
