package codec

/*

	Standard MIDI File reading and writing on top of gomidi's smf package.
	Only metric time (ticks per quarter note) is supported. Messages the
	engine has no variant for are dropped on read, their delta carried
	into the next kept event so timing survives. Time left over at the
	end of a track is kept as a MetaOther event, which Encode folds back
	into the end of track.

*/

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	Mt "github.com/maroda/midiassign/types"
)

var ErrUnsupportedFormat = errors.New("unsupported MIDI format")

// DefaultTicksPerBeat is used when writing a document without a resolution
const DefaultTicksPerBeat = 480

// Decode reads a Standard MIDI File
func Decode(r io.Reader) (*Mt.Document, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("%w: time format %v", ErrUnsupportedFormat, s.TimeFormat)
	}

	doc := &Mt.Document{
		Header: Mt.Header{
			Format:       s.Format(),
			NumTracks:    len(s.Tracks),
			TicksPerBeat: uint16(ticks),
		},
		Tracks: make([]Mt.Track, 0, len(s.Tracks)),
	}

	for i, track := range s.Tracks {
		doc.Tracks = append(doc.Tracks, decodeTrack(i, track))
	}
	doc.Header.Duration = Duration(doc)
	return doc, nil
}

// DecodeBytes reads a Standard MIDI File held in memory
func DecodeBytes(data []byte) (*Mt.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedFormat)
	}
	return Decode(bytes.NewReader(data))
}

func decodeTrack(index int, track smf.Track) Mt.Track {
	out := Mt.Track{Index: index}
	var carry uint32

	for _, ev := range track {
		delta := carry + ev.Delta
		e, ok := decodeMessage(delta, ev.Message)
		if !ok {
			carry = delta
			continue
		}
		carry = 0

		if m, isMeta := e.(Mt.MetaEvent); isMeta && m.Kind == Mt.MetaTrackName && out.Name == "" {
			out.Name = m.Text
		}
		out.Events = append(out.Events, e)
	}

	// trailing silence before end of track
	if carry > 0 {
		out.Events = append(out.Events, Mt.MetaEvent{Delta: carry, Kind: Mt.MetaOther})
	}
	return out
}

func decodeMessage(delta uint32, msg smf.Message) (Mt.Event, bool) {
	var ch, key, vel, cc, val, prog, pressure uint8
	var rel int16
	var abs uint16
	var text string
	var bpm float64

	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		return Mt.NoteEvent{Delta: delta, Kind: Mt.NoteOn, Channel: ch, Note: key, Velocity: vel}, true
	case msg.GetNoteOff(&ch, &key, &vel):
		return Mt.NoteEvent{Delta: delta, Kind: Mt.NoteOff, Channel: ch, Note: key, Velocity: vel}, true
	case msg.GetPolyAfterTouch(&ch, &key, &pressure):
		return Mt.NoteEvent{Delta: delta, Kind: Mt.KeyPressure, Channel: ch, Note: key, Velocity: pressure}, true
	case msg.GetControlChange(&ch, &cc, &val):
		return Mt.ControllerEvent{Delta: delta, Channel: ch, Controller: cc, Value: val}, true
	case msg.GetProgramChange(&ch, &prog):
		return Mt.ProgramEvent{Delta: delta, Channel: ch, Program: prog}, true
	case msg.GetPitchBend(&ch, &rel, &abs):
		return Mt.PitchBendEvent{Delta: delta, Channel: ch, Value: rel}, true
	case msg.GetAfterTouch(&ch, &pressure):
		return Mt.ChannelPressureEvent{Delta: delta, Channel: ch, Pressure: pressure}, true
	case msg.GetMetaTrackName(&text):
		return Mt.MetaEvent{Delta: delta, Kind: Mt.MetaTrackName, Text: text}, true
	case msg.GetMetaTempo(&bpm):
		return Mt.MetaEvent{Delta: delta, Kind: Mt.MetaTempo, BPM: bpm}, true
	case msg.GetMetaText(&text):
		return Mt.MetaEvent{Delta: delta, Kind: Mt.MetaText, Text: text}, true
	}
	return nil, false
}

// Encode writes a document as a Standard MIDI File
func Encode(w io.Writer, doc *Mt.Document) error {
	if doc == nil {
		return errors.New("cannot encode a nil document")
	}

	s := smf.New()
	tpb := doc.Header.TicksPerBeat
	if tpb == 0 {
		tpb = DefaultTicksPerBeat
	}
	s.TimeFormat = smf.MetricTicks(tpb)

	for _, t := range doc.Tracks {
		var track smf.Track
		var carry uint32

		if t.Name != "" && !hasTrackName(t) {
			track.Add(0, smf.MetaTrackSequenceName(t.Name))
		}
		for _, ev := range t.Events {
			msg := encodeEvent(ev)
			if msg == nil {
				carry += ev.DeltaTicks()
				continue
			}
			track.Add(carry+ev.DeltaTicks(), msg)
			carry = 0
		}
		track.Close(carry)

		if err := s.Add(track); err != nil {
			return fmt.Errorf("cannot add track %d: %w", t.Index, err)
		}
	}

	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write MIDI file: %w", err)
	}
	return nil
}

// EncodeBytes writes a document into memory
func EncodeBytes(doc *Mt.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func hasTrackName(t Mt.Track) bool {
	for _, ev := range t.Events {
		if m, ok := ev.(Mt.MetaEvent); ok && m.Kind == Mt.MetaTrackName {
			return true
		}
	}
	return false
}

func encodeEvent(ev Mt.Event) []byte {
	switch e := ev.(type) {
	case Mt.NoteEvent:
		switch e.Kind {
		case Mt.NoteOn:
			return midi.NoteOn(e.Channel, e.Note, e.Velocity)
		case Mt.NoteOff:
			return midi.NoteOffVelocity(e.Channel, e.Note, e.Velocity)
		case Mt.KeyPressure:
			return midi.PolyAfterTouch(e.Channel, e.Note, e.Velocity)
		}
	case Mt.ControllerEvent:
		return midi.ControlChange(e.Channel, e.Controller, e.Value)
	case Mt.ProgramEvent:
		return midi.ProgramChange(e.Channel, e.Program)
	case Mt.PitchBendEvent:
		return midi.Pitchbend(e.Channel, e.Value)
	case Mt.ChannelPressureEvent:
		return midi.AfterTouch(e.Channel, e.Pressure)
	case Mt.MetaEvent:
		switch e.Kind {
		case Mt.MetaTrackName:
			return smf.MetaTrackSequenceName(e.Text)
		case Mt.MetaTempo:
			return smf.MetaTempo(e.BPM)
		case Mt.MetaText:
			return smf.MetaText(e.Text)
		}
	}
	return nil
}
