package matcher

import (
	"errors"
	"fmt"

	Mg "github.com/maroda/midiassign/gm"
	Mt "github.com/maroda/midiassign/types"
)

var ErrMalformedCapability = errors.New("malformed instrument capability")

// Check rejects a capability the scorer cannot reason about
func Check(c Mt.InstrumentCapability) error {
	malformed := func(format string, a ...any) error {
		return fmt.Errorf("%w: instrument %s/%s: %s", ErrMalformedCapability, c.DeviceID, c.ID, fmt.Sprintf(format, a...))
	}

	switch c.NoteSelectionMode {
	case "", Mt.ModeRange, Mt.ModeContinuous, Mt.ModeDiscrete:
	default:
		return malformed("unknown note_selection_mode %q", c.NoteSelectionMode)
	}

	if c.GMProgram != nil && !Mg.InRange(*c.GMProgram, 0, 127) {
		return malformed("gm_program %d out of range", *c.GMProgram)
	}

	if (c.NoteRangeMin == nil) != (c.NoteRangeMax == nil) {
		return malformed("note range needs both note_range_min and note_range_max")
	}
	if c.NoteRangeMin != nil {
		lo, hi := *c.NoteRangeMin, *c.NoteRangeMax
		if !Mg.InRange(lo, 0, 127) || !Mg.InRange(hi, 0, 127) {
			return malformed("note range %d-%d out of range", lo, hi)
		}
		if lo > hi {
			return malformed("note_range_min %d greater than note_range_max %d", lo, hi)
		}
	}

	for _, n := range c.SelectedNotes {
		if !Mg.InRange(n, 0, 127) {
			return malformed("selected note %d out of range", n)
		}
	}

	if c.Polyphony < 0 {
		return malformed("negative polyphony %d", c.Polyphony)
	}
	return nil
}

// IsDiscrete reports an explicit note list instrument
func IsDiscrete(c Mt.InstrumentCapability) bool {
	return c.NoteSelectionMode == Mt.ModeDiscrete
}

// InstrumentType infers a category from the GM program, falling back to
// the midpoint of the declared range (below note 48 is bass).
// It is independent from the channel category estimate.
func InstrumentType(c Mt.InstrumentCapability) Mt.Category {
	if c.GMProgram != nil {
		p := *c.GMProgram
		switch {
		case Mg.InRange(p, 112, 119):
			return Mt.Percussive
		case Mg.InRange(p, 32, 39):
			return Mt.Bass
		case Mg.InRange(p, 0, 7), Mg.InRange(p, 40, 55):
			return Mt.Harmony
		}
		if lowRange(c) {
			return Mt.Bass
		}
		return Mt.Melody
	}

	if IsDiscrete(c) {
		return Mt.Percussive
	}
	if c.NoteRangeMin == nil || c.NoteRangeMax == nil {
		return Mt.Unknown
	}
	if lowRange(c) {
		return Mt.Bass
	}
	return Mt.Melody
}

func lowRange(c Mt.InstrumentCapability) bool {
	if c.NoteRangeMin == nil || c.NoteRangeMax == nil {
		return false
	}
	return float64(*c.NoteRangeMin+*c.NoteRangeMax)/2 < 48
}

func isDrumInstrument(c Mt.InstrumentCapability) bool {
	return InstrumentType(c) == Mt.Percussive || IsDiscrete(c)
}

// Summary is the part of a capability echoed back in suggestions
func Summary(c Mt.InstrumentCapability) Mt.InstrumentSummary {
	name := c.Name
	if name == "" {
		name = c.CustomName
	}
	if name == "" {
		name = "Unknown"
	}
	return Mt.InstrumentSummary{
		ID:                c.ID,
		DeviceID:          c.DeviceID,
		Name:              name,
		CustomName:        c.CustomName,
		GMProgram:         c.GMProgram,
		NoteRangeMin:      c.NoteRangeMin,
		NoteRangeMax:      c.NoteRangeMax,
		NoteSelectionMode: c.NoteSelectionMode,
		Polyphony:         polyphonyOf(c),
		SyncDelay:         c.SyncDelay,
	}
}
