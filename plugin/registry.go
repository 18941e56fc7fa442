package plugin

import (
	"fmt"
	"slices"

	Mt "github.com/maroda/midiassign/types"
)

// PresetDevice is the device id given to preset instruments
const PresetDevice = "preset"

// DrumKit is a drum machine's pad layout as MIDI notes:
// kick, snare, closed hat, open hat, low/mid/high tom, crash, ride,
// clap, rim, cowbell, clave, maracas, low conga, high conga
type DrumKit struct {
	Name  string
	Notes [16]int
}

// Kits is a global map of drum machine presets
var Kits = map[string]DrumKit{
	"gm": {
		Name:  "General MIDI",
		Notes: [16]int{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 64, 63},
	},
	"rd8": {
		// snare sits on 40
		Name:  "Behringer RD-8",
		Notes: [16]int{36, 40, 42, 46, 45, 48, 50, 49, 51, 39, 37, 56, 75, 70, 64, 63},
	},
	"tr8s": {
		Name:  "Roland TR-8S",
		Notes: [16]int{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 62, 63},
	},
	"er1": {
		// only the first ten pads are wired on the ER-1
		Name:  "Korg ER-1",
		Notes: [16]int{36, 38, 42, 46, 40, 41, 43, 49, 45, 39, 37, 56, 75, 70, 64, 63},
	},
}

// PresetNames returns the kit names in a stable order
func PresetNames() []string {
	names := make([]string, 0, len(Kits))
	for name := range Kits {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PresetLookup builds a discrete instrument from a kit
func PresetLookup(name string) (Mt.InstrumentCapability, error) {
	kit, ok := Kits[name]
	if !ok {
		return Mt.InstrumentCapability{}, fmt.Errorf("%w: unknown preset: %s", ErrNotFound, name)
	}

	notes := kit.Notes[:]
	if name == "er1" {
		notes = kit.Notes[:10]
	}
	selected := slices.Clone(notes)
	slices.Sort(selected)
	selected = slices.Compact(selected)

	// kits carry no GM program
	low, high := selected[0], selected[len(selected)-1]
	return Mt.InstrumentCapability{
		DeviceID:          PresetDevice,
		ID:                name,
		Name:              kit.Name,
		NoteRangeMin:      &low,
		NoteRangeMax:      &high,
		NoteSelectionMode: Mt.ModeDiscrete,
		SelectedNotes:     selected,
		SupportedCCs:      []int{7, 10},
		Polyphony:         16,
	}, nil
}
