package transpose

/*

	The transposer applies per-channel octave shifts and note remapping
	to a document. The input is never modified: tracks without a change
	are shared with the input, changed tracks get a fresh event slice.

*/

import (
	"slices"

	Mg "github.com/maroda/midiassign/gm"
	Mt "github.com/maroda/midiassign/types"
)

// TransposeChannels shifts every note-type event on a listed channel by its
// semitones, then swaps the shifted note through the channel's remapping.
// Only note-on and note-off changes are counted.
func TransposeChannels(doc *Mt.Document, plan map[int]Mt.ChannelTransposition) (*Mt.Document, Mt.TransposeStats) {
	if doc == nil {
		return nil, Mt.TransposeStats{}
	}

	out := &Mt.Document{Header: doc.Header, Tracks: doc.Tracks}
	stats := Mt.TransposeStats{TotalNotes: CountNotes(doc)}
	if len(plan) == 0 {
		return out, stats
	}

	var tracks []Mt.Track
	for ti, track := range doc.Tracks {
		var events []Mt.Event

		for ei, ev := range track.Events {
			ne, ok := ev.(Mt.NoteEvent)
			if !ok {
				continue
			}
			t, ok := plan[int(ne.Channel)]
			if !ok {
				continue
			}

			note, shifted, remapped := apply(int(ne.Note), t)
			if note == int(ne.Note) {
				continue
			}

			if ne.Kind != Mt.KeyPressure {
				if shifted {
					stats.NotesChanged++
				}
				if remapped {
					stats.NotesRemapped++
				}
			}

			if events == nil {
				events = slices.Clone(track.Events)
			}
			ne.Note = uint8(note)
			events[ei] = ne
		}

		if events == nil {
			continue
		}
		if tracks == nil {
			tracks = slices.Clone(doc.Tracks)
		}
		tracks[ti].Events = events
	}

	if tracks != nil {
		out.Tracks = tracks
	}
	return out, stats
}

// apply returns the new note and which of the two steps moved it
func apply(note int, t Mt.ChannelTransposition) (int, bool, bool) {
	var shifted, remapped bool

	if t.Semitones != 0 {
		moved := Mg.ClampNote(note + t.Semitones)
		shifted = moved != note
		note = moved
	}

	if to, ok := t.NoteRemapping[note]; ok {
		to = Mg.ClampNote(to)
		remapped = to != note
		note = to
	}
	return note, shifted, remapped
}

// TransposeChannel shifts a single channel
func TransposeChannel(doc *Mt.Document, channel, semitones int) (*Mt.Document, Mt.TransposeStats) {
	return TransposeChannels(doc, map[int]Mt.ChannelTransposition{
		channel: {Semitones: semitones},
	})
}

// RemapNotes swaps notes on a single channel, typically for a drum kit
func RemapNotes(doc *Mt.Document, channel int, mapping map[int]int) (*Mt.Document, Mt.TransposeStats) {
	return TransposeChannels(doc, map[int]Mt.ChannelTransposition{
		channel: {NoteRemapping: mapping},
	})
}

// CountNotes counts sounding note-on events across all tracks
func CountNotes(doc *Mt.Document) int {
	if doc == nil {
		return 0
	}
	count := 0
	for _, track := range doc.Tracks {
		for _, ev := range track.Events {
			if ne, ok := ev.(Mt.NoteEvent); ok && ne.Sounding() {
				count++
			}
		}
	}
	return count
}

// FromAssignments turns chosen assignments into the plan applied to a document
func FromAssignments(assignments map[int]Mt.Assignment) map[int]Mt.ChannelTransposition {
	plan := make(map[int]Mt.ChannelTransposition, len(assignments))
	for ch, a := range assignments {
		t := Mt.ChannelTransposition{NoteRemapping: a.NoteRemapping}
		if a.Transposition != nil {
			t.Semitones = a.Transposition.Semitones
		}
		if t.Semitones == 0 && len(t.NoteRemapping) == 0 {
			continue
		}
		plan[ch] = t
	}
	return plan
}
