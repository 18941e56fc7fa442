package validate

import (
	"strings"

	Mt "github.com/maroda/midiassign/types"
)

// Kind is the instrument kind chosen when filling in a capability
type Kind string

const (
	Keyboard   Kind = "keyboard"
	Piano      Kind = "piano"
	Drums      Kind = "drums"
	Percussion Kind = "percussion"
	Bass       Kind = "bass"
	Synth      Kind = "synth"
	Other      Kind = "other"
)

// Defaults are suggested values for the missing parts of a capability
type Defaults struct {
	GMProgram         int              `json:"gm_program"`
	NoteRangeMin      int              `json:"note_range_min"`
	NoteRangeMax      int              `json:"note_range_max"`
	Polyphony         int              `json:"polyphony"`
	NoteSelectionMode Mt.SelectionMode `json:"note_selection_mode"`
	SelectedNotes     []int            `json:"selected_notes,omitempty"`
	SupportedCCs      []int            `json:"supported_ccs"`
}

// SuggestedDefaults returns typical values for a kind.
// Unknown kinds get a generic middle-register instrument.
func SuggestedDefaults(kind Kind) Defaults {
	switch Kind(strings.ToLower(string(kind))) {
	case Keyboard, Piano:
		return Defaults{
			GMProgram: 0, NoteRangeMin: 21, NoteRangeMax: 108, Polyphony: 64,
			NoteSelectionMode: Mt.ModeContinuous,
			SupportedCCs:      []int{1, 7, 10, 11, 64, 71, 91, 93},
		}
	case Drums, Percussion:
		return Defaults{
			GMProgram: 0, NoteRangeMin: 35, NoteRangeMax: 81, Polyphony: 16,
			NoteSelectionMode: Mt.ModeDiscrete,
			SelectedNotes:     []int{36, 38, 42, 44, 46, 48, 50, 51},
			SupportedCCs:      []int{7, 10},
		}
	case Bass:
		return Defaults{
			GMProgram: 33, NoteRangeMin: 28, NoteRangeMax: 60, Polyphony: 4,
			NoteSelectionMode: Mt.ModeContinuous,
			SupportedCCs:      []int{1, 7, 10, 11},
		}
	case Synth:
		return Defaults{
			GMProgram: 81, NoteRangeMin: 0, NoteRangeMax: 127, Polyphony: 8,
			NoteSelectionMode: Mt.ModeContinuous,
			SupportedCCs:      []int{1, 7, 10, 11, 71, 72, 73, 74},
		}
	}
	return Defaults{
		GMProgram: 0, NoteRangeMin: 48, NoteRangeMax: 84, Polyphony: 16,
		NoteSelectionMode: Mt.ModeContinuous,
		SupportedCCs:      []int{7, 10, 11},
	}
}

// Fill copies defaults into the unset fields of a capability.
// Fields already set are left alone.
func Fill(c Mt.InstrumentCapability, d Defaults) Mt.InstrumentCapability {
	if c.GMProgram == nil {
		c.GMProgram = intp(d.GMProgram)
	}
	if c.NoteRangeMin == nil {
		c.NoteRangeMin = intp(d.NoteRangeMin)
	}
	if c.NoteRangeMax == nil {
		c.NoteRangeMax = intp(d.NoteRangeMax)
	}
	if c.Polyphony == 0 {
		c.Polyphony = d.Polyphony
	}
	if c.NoteSelectionMode == "" {
		c.NoteSelectionMode = d.NoteSelectionMode
	}
	if len(c.SelectedNotes) == 0 && c.NoteSelectionMode == Mt.ModeDiscrete {
		c.SelectedNotes = append([]int(nil), d.SelectedNotes...)
	}
	if len(c.SupportedCCs) == 0 {
		c.SupportedCCs = append([]int(nil), d.SupportedCCs...)
	}
	return c
}

func intp(v int) *int { return &v }
