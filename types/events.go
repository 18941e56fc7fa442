package types

/*

	MidiDocument and its tagged event variants.
	Channel-less events (meta) do not implement ChannelEvent,
	so the absence of a channel is carried by the type.

*/

// Header describes the whole document.
// Duration is in seconds and may be zero when unknown.
type Header struct {
	Format       uint16
	NumTracks    int
	TicksPerBeat uint16
	Duration     float64
}

type Track struct {
	Index  int
	Name   string
	Events []Event
}

// Document is a parsed MIDI file, treated as read-only by every stage
type Document struct {
	Header Header
	Tracks []Track
}

// Event is anything placed on a track, Delta is in ticks since the previous event
type Event interface {
	DeltaTicks() uint32
}

// ChannelEvent is an Event addressed to one of the 16 MIDI channels
type ChannelEvent interface {
	Event
	EventChannel() uint8
}

// NoteKind distinguishes the note-carrying messages
type NoteKind uint8

const (
	NoteOn NoteKind = iota
	NoteOff
	KeyPressure // polyphonic aftertouch, Velocity holds the pressure
)

type NoteEvent struct {
	Delta    uint32
	Kind     NoteKind
	Channel  uint8
	Note     uint8
	Velocity uint8
}

type ControllerEvent struct {
	Delta      uint32
	Channel    uint8
	Controller uint8
	Value      uint8
}

type ProgramEvent struct {
	Delta   uint32
	Channel uint8
	Program uint8
}

// PitchBendEvent Value is relative to center, -8192..8191
type PitchBendEvent struct {
	Delta   uint32
	Channel uint8
	Value   int16
}

type ChannelPressureEvent struct {
	Delta    uint32
	Channel  uint8
	Pressure uint8
}

// MetaKind distinguishes the non-channel events that are kept
type MetaKind uint8

const (
	MetaTrackName MetaKind = iota
	MetaTempo
	MetaText
	MetaOther
)

type MetaEvent struct {
	Delta uint32
	Kind  MetaKind
	Text  string
	BPM   float64 // MetaTempo only
}

func (e NoteEvent) DeltaTicks() uint32            { return e.Delta }
func (e ControllerEvent) DeltaTicks() uint32      { return e.Delta }
func (e ProgramEvent) DeltaTicks() uint32         { return e.Delta }
func (e PitchBendEvent) DeltaTicks() uint32       { return e.Delta }
func (e ChannelPressureEvent) DeltaTicks() uint32 { return e.Delta }
func (e MetaEvent) DeltaTicks() uint32            { return e.Delta }

func (e NoteEvent) EventChannel() uint8            { return e.Channel }
func (e ControllerEvent) EventChannel() uint8      { return e.Channel }
func (e ProgramEvent) EventChannel() uint8         { return e.Channel }
func (e PitchBendEvent) EventChannel() uint8       { return e.Channel }
func (e ChannelPressureEvent) EventChannel() uint8 { return e.Channel }

// Sounding reports a note-on with a non-zero velocity
func (e NoteEvent) Sounding() bool { return e.Kind == NoteOn && e.Velocity > 0 }

// Releases reports a note-off, or a note-on with zero velocity
func (e NoteEvent) Releases() bool {
	return e.Kind == NoteOff || (e.Kind == NoteOn && e.Velocity == 0)
}
