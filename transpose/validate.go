package transpose

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	Mt "github.com/maroda/midiassign/types"
)

// MaxSemitones is four octaves either way
const MaxSemitones = 48

// Strategy names the only adaptation strategy in use
const Strategy = "octave_preserving"

var (
	ErrTranspositionTooLarge = errors.New("transposition too large")
	ErrChannelNotFound       = errors.New("channel not found")
	ErrInvalidChannel        = errors.New("invalid channel")
)

// ValidateTransposition rejects shifts beyond four octaves and channels
// the document never uses
func ValidateTransposition(doc *Mt.Document, channel, semitones int) error {
	if channel < 0 || channel > 15 {
		return fmt.Errorf("%w: %d is outside 0-15", ErrInvalidChannel, channel)
	}
	if semitones > MaxSemitones || semitones < -MaxSemitones {
		return fmt.Errorf("%w: %d semitones (max ±48 semitones / 4 octaves)", ErrTranspositionTooLarge, semitones)
	}
	if !hasChannel(doc, channel) {
		return fmt.Errorf("%w: Channel %d not found in MIDI file", ErrChannelNotFound, channel)
	}
	return nil
}

// ValidateAll checks every entry of a plan in channel order, joining failures
func ValidateAll(doc *Mt.Document, plan map[int]Mt.ChannelTransposition) error {
	channels := make([]int, 0, len(plan))
	for ch := range plan {
		channels = append(channels, ch)
	}
	sort.Ints(channels)

	var errs []error
	for _, ch := range channels {
		if err := ValidateTransposition(doc, ch, plan[ch].Semitones); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func hasChannel(doc *Mt.Document, channel int) bool {
	if doc == nil {
		return false
	}
	for _, track := range doc.Tracks {
		for _, ev := range track.Events {
			if ce, ok := ev.(Mt.ChannelEvent); ok && int(ce.EventChannel()) == channel {
				return true
			}
		}
	}
	return false
}

// BuildMetadata records how a set of assignments was applied
func BuildMetadata(assignments map[int]Mt.Assignment, stats Mt.TransposeStats, now time.Time) Mt.AdaptationMetadata {
	records := make(map[int]Mt.TranspositionRecord, len(assignments))
	for ch, a := range assignments {
		rec := Mt.TranspositionRecord{
			NoteRemapping: a.NoteRemapping,
			Reason:        "Auto-assigned",
		}
		if a.Transposition != nil {
			rec.Semitones = a.Transposition.Semitones
			rec.Octaves = a.Transposition.Octaves
		}
		if len(a.Info) > 0 {
			rec.Reason = strings.Join(a.Info, "; ")
		}
		records[ch] = rec
	}

	return Mt.AdaptationMetadata{
		CreatedAt:      now.UTC(),
		Strategy:       Strategy,
		Transpositions: records,
		NotesChanged:   stats.NotesChanged,
		NotesRemapped:  stats.NotesRemapped,
		TotalNotes:     stats.TotalNotes,
	}
}
