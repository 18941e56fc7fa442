package codec

import (
	"encoding/json"
	"fmt"

	Mt "github.com/maroda/midiassign/types"
)

// Wire event types
const (
	TypeNoteOn          = "noteOn"
	TypeNoteOff         = "noteOff"
	TypeKeyPressure     = "keyPressure"
	TypeController      = "controller"
	TypeProgramChange   = "programChange"
	TypePitchBend       = "pitchBend"
	TypeChannelPressure = "channelAftertouch"
	TypeTrackName       = "trackName"
	TypeSetTempo        = "setTempo"
	TypeText            = "text"
	TypeUnknown         = "unknown"
)

type WireDocument struct {
	Header WireHeader  `json:"header"`
	Tracks []WireTrack `json:"tracks"`
}

type WireHeader struct {
	Format       uint16  `json:"format"`
	NumTracks    int     `json:"numTracks"`
	TicksPerBeat uint16  `json:"ticksPerBeat"`
	Duration     float64 `json:"duration,omitempty"`
}

type WireTrack struct {
	Index  int         `json:"index"`
	Name   string      `json:"name"`
	Events []WireEvent `json:"events"`
}

// WireEvent is the flat JSON event, discriminated by Type.
// Optional fields are pointers so a zero value survives the round trip.
type WireEvent struct {
	DeltaTime  uint32  `json:"deltaTime"`
	Type       string  `json:"type"`
	Channel    *uint8  `json:"channel,omitempty"`
	Note       *uint8  `json:"note,omitempty"`
	Velocity   *uint8  `json:"velocity,omitempty"`
	Controller *uint8  `json:"controller,omitempty"`
	Value      *int    `json:"value,omitempty"`
	Program    *uint8  `json:"program,omitempty"`
	Pressure   *uint8  `json:"pressure,omitempty"`
	Text       string  `json:"text,omitempty"`
	BPM        float64 `json:"bpm,omitempty"`
}

// MarshalJSON renders a document in its wire form
func MarshalJSON(doc *Mt.Document) ([]byte, error) {
	return json.Marshal(ToWire(doc))
}

// UnmarshalJSON parses the wire form
func UnmarshalJSON(data []byte) (*Mt.Document, error) {
	var w WireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return FromWire(w), nil
}

func ToWire(doc *Mt.Document) WireDocument {
	if doc == nil {
		return WireDocument{Tracks: []WireTrack{}}
	}

	w := WireDocument{
		Header: WireHeader{
			Format:       doc.Header.Format,
			NumTracks:    len(doc.Tracks),
			TicksPerBeat: doc.Header.TicksPerBeat,
			Duration:     doc.Header.Duration,
		},
		Tracks: make([]WireTrack, 0, len(doc.Tracks)),
	}
	for _, t := range doc.Tracks {
		wt := WireTrack{Index: t.Index, Name: t.Name, Events: make([]WireEvent, 0, len(t.Events))}
		for _, ev := range t.Events {
			wt.Events = append(wt.Events, toWireEvent(ev))
		}
		w.Tracks = append(w.Tracks, wt)
	}
	return w
}

func toWireEvent(ev Mt.Event) WireEvent {
	w := WireEvent{DeltaTime: ev.DeltaTicks(), Type: TypeUnknown}

	switch e := ev.(type) {
	case Mt.NoteEvent:
		w.Channel, w.Note = u8(e.Channel), u8(e.Note)
		switch e.Kind {
		case Mt.NoteOn:
			w.Type, w.Velocity = TypeNoteOn, u8(e.Velocity)
		case Mt.NoteOff:
			w.Type, w.Velocity = TypeNoteOff, u8(e.Velocity)
		case Mt.KeyPressure:
			w.Type, w.Pressure = TypeKeyPressure, u8(e.Velocity)
		}
	case Mt.ControllerEvent:
		v := int(e.Value)
		w.Type, w.Channel, w.Controller, w.Value = TypeController, u8(e.Channel), u8(e.Controller), &v
	case Mt.ProgramEvent:
		w.Type, w.Channel, w.Program = TypeProgramChange, u8(e.Channel), u8(e.Program)
	case Mt.PitchBendEvent:
		v := int(e.Value)
		w.Type, w.Channel, w.Value = TypePitchBend, u8(e.Channel), &v
	case Mt.ChannelPressureEvent:
		w.Type, w.Channel, w.Pressure = TypeChannelPressure, u8(e.Channel), u8(e.Pressure)
	case Mt.MetaEvent:
		switch e.Kind {
		case Mt.MetaTrackName:
			w.Type, w.Text = TypeTrackName, e.Text
		case Mt.MetaTempo:
			w.Type, w.BPM = TypeSetTempo, e.BPM
		case Mt.MetaText:
			w.Type, w.Text = TypeText, e.Text
		}
	}
	return w
}

// FromWire builds a document. An event lacking a field its type needs, or
// of a type the engine does not know, becomes an opaque meta event so its
// timing is kept.
func FromWire(w WireDocument) *Mt.Document {
	doc := &Mt.Document{
		Header: Mt.Header{
			Format:       w.Header.Format,
			NumTracks:    len(w.Tracks),
			TicksPerBeat: w.Header.TicksPerBeat,
			Duration:     w.Header.Duration,
		},
		Tracks: make([]Mt.Track, 0, len(w.Tracks)),
	}

	for _, wt := range w.Tracks {
		t := Mt.Track{Index: wt.Index, Name: wt.Name, Events: make([]Mt.Event, 0, len(wt.Events))}
		for _, we := range wt.Events {
			ev := fromWireEvent(we)
			if m, ok := ev.(Mt.MetaEvent); ok && m.Kind == Mt.MetaTrackName && t.Name == "" {
				t.Name = m.Text
			}
			t.Events = append(t.Events, ev)
		}
		doc.Tracks = append(doc.Tracks, t)
	}

	if doc.Header.Duration == 0 {
		doc.Header.Duration = Duration(doc)
	}
	return doc
}

func fromWireEvent(w WireEvent) Mt.Event {
	d := w.DeltaTime
	opaque := Mt.MetaEvent{Delta: d, Kind: Mt.MetaOther, Text: w.Type}

	switch w.Type {
	case TypeNoteOn, TypeNoteOff:
		if w.Channel == nil || w.Note == nil {
			return opaque
		}
		kind := Mt.NoteOn
		if w.Type == TypeNoteOff {
			kind = Mt.NoteOff
		}
		return Mt.NoteEvent{Delta: d, Kind: kind, Channel: *w.Channel & 0x0f, Note: *w.Note & 0x7f, Velocity: deref(w.Velocity) & 0x7f}
	case TypeKeyPressure:
		if w.Channel == nil || w.Note == nil {
			return opaque
		}
		return Mt.NoteEvent{Delta: d, Kind: Mt.KeyPressure, Channel: *w.Channel & 0x0f, Note: *w.Note & 0x7f, Velocity: deref(w.Pressure) & 0x7f}
	case TypeController:
		if w.Channel == nil || w.Controller == nil {
			return opaque
		}
		return Mt.ControllerEvent{Delta: d, Channel: *w.Channel & 0x0f, Controller: *w.Controller & 0x7f, Value: uint8(derefInt(w.Value) & 0x7f)}
	case TypeProgramChange:
		if w.Channel == nil || w.Program == nil {
			return opaque
		}
		return Mt.ProgramEvent{Delta: d, Channel: *w.Channel & 0x0f, Program: *w.Program & 0x7f}
	case TypePitchBend:
		if w.Channel == nil {
			return opaque
		}
		return Mt.PitchBendEvent{Delta: d, Channel: *w.Channel & 0x0f, Value: int16(derefInt(w.Value))}
	case TypeChannelPressure:
		if w.Channel == nil {
			return opaque
		}
		return Mt.ChannelPressureEvent{Delta: d, Channel: *w.Channel & 0x0f, Pressure: deref(w.Pressure) & 0x7f}
	case TypeTrackName:
		return Mt.MetaEvent{Delta: d, Kind: Mt.MetaTrackName, Text: w.Text}
	case TypeSetTempo:
		return Mt.MetaEvent{Delta: d, Kind: Mt.MetaTempo, BPM: w.BPM}
	case TypeText:
		return Mt.MetaEvent{Delta: d, Kind: Mt.MetaText, Text: w.Text}
	}
	return opaque
}

func u8(v uint8) *uint8 { return &v }

func deref(p *uint8) uint8 {
	if p == nil {
		return 0
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
