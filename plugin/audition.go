package plugin

import (
	"errors"
	"time"

	Mg "github.com/maroda/midiassign/gm"
	Mt "github.com/maroda/midiassign/types"
)

var ErrMIDIDisabled = errors.New("MIDI support not compiled in this build")

const (
	DefaultVelocity   = 100
	DefaultNoteLength = 300 * time.Millisecond
)

// AuditionNotes are the lowest and highest notes a channel will play
// once its assignment is applied
func AuditionNotes(a Mt.Assignment) []uint8 {
	shift := 0
	if a.Transposition != nil {
		shift = a.Transposition.Semitones
	}

	land := func(note int) uint8 {
		n := Mg.ClampNote(note + shift)
		if to, ok := a.NoteRemapping[n]; ok {
			n = Mg.ClampNote(to)
		}
		return uint8(n)
	}

	low, high := land(a.Channel.NoteRange.Min), land(a.Channel.NoteRange.Max)
	if low == high {
		return []uint8{low}
	}
	return []uint8{low, high}
}
