package validate_test

import (
	"testing"

	Mt "github.com/maroda/midiassign/types"
	Mv "github.com/maroda/midiassign/validate"
)

func TestInstrument(t *testing.T) {
	t.Run("A fully described instrument is valid and complete", func(t *testing.T) {
		r := Mv.Instrument(makeComplete())

		assertBool(t, r.Valid, true)
		assertBool(t, r.Complete, true)
		assertInt(t, len(r.Missing), 0)
		assertInt(t, len(r.Recommended), 0)
	})

	t.Run("Reports every missing required field in order", func(t *testing.T) {
		r := Mv.Instrument(Mt.InstrumentCapability{DeviceID: "usb-1", ID: "bare", SupportedCCs: []int{7}})

		assertBool(t, r.Valid, false)
		got := fieldNames(r.Missing)
		want := []string{"gm_program", "note_range_min", "note_range_max", "polyphony", "note_selection_mode"}
		assertStrings(t, got, want)
		assertString(t, r.Missing[0].Label, "General MIDI Program")
	})

	t.Run("A discrete instrument needs its notes", func(t *testing.T) {
		c := makeComplete()
		c.NoteSelectionMode = Mt.ModeDiscrete
		c.SelectedNotes = nil
		r := Mv.Instrument(c)

		assertBool(t, r.Valid, false)
		assertInt(t, len(r.Missing), 1)
		assertString(t, r.Missing[0].Field, "selected_notes")
		assertBool(t, r.Missing[0].Conditional, true)
	})

	t.Run("Missing CCs are only a recommendation", func(t *testing.T) {
		c := makeComplete()
		c.SupportedCCs = nil
		r := Mv.Instrument(c)

		assertBool(t, r.Valid, true)
		assertBool(t, r.Complete, false)
		assertString(t, r.Recommended[0].Field, "supported_ccs")
	})

	t.Run("Out of range values are invalid by their JSON name", func(t *testing.T) {
		c := makeComplete()
		bad := 130
		c.NoteRangeMax = &bad
		c.DeviceID = ""
		r := Mv.Instrument(c)

		assertBool(t, r.Valid, false)
		assertString(t, r.Invalid["note_range_max"], "max")
		assertString(t, r.Invalid["device_id"], "required")
	})
}

func TestInstruments(t *testing.T) {
	c := makeComplete()
	noCCs := makeComplete()
	noCCs.SupportedCCs = nil
	bare := Mt.InstrumentCapability{DeviceID: "usb-1", ID: "bare"}

	s := Mv.Instruments([]Mt.InstrumentCapability{c, noCCs, bare})

	assertInt(t, s.TotalCount, 3)
	assertInt(t, s.ValidCount, 2)
	assertInt(t, s.CompleteCount, 1)
	assertInt(t, len(s.Incomplete), 2)
	assertBool(t, s.AllValid, false)

	empty := Mv.Instruments(nil)
	assertBool(t, empty.AllValid, true)
	assertInt(t, empty.TotalCount, 0)
}

func TestSuggestedDefaults(t *testing.T) {
	tests := []struct {
		kind     Mv.Kind
		program  int
		low      int
		high     int
		poly     int
		discrete bool
	}{
		{Mv.Piano, 0, 21, 108, 64, false},
		{Mv.Keyboard, 0, 21, 108, 64, false},
		{Mv.Drums, 0, 35, 81, 16, true},
		{"Percussion", 0, 35, 81, 16, true},
		{Mv.Bass, 33, 28, 60, 4, false},
		{Mv.Synth, 81, 0, 127, 8, false},
		{"theremin", 0, 48, 84, 16, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			d := Mv.SuggestedDefaults(tt.kind)
			assertInt(t, d.GMProgram, tt.program)
			assertInt(t, d.NoteRangeMin, tt.low)
			assertInt(t, d.NoteRangeMax, tt.high)
			assertInt(t, d.Polyphony, tt.poly)
			assertBool(t, d.NoteSelectionMode == Mt.ModeDiscrete, tt.discrete)
		})
	}
}

func TestFill(t *testing.T) {
	t.Run("Fills only what is missing", func(t *testing.T) {
		low := 40
		c := Mt.InstrumentCapability{DeviceID: "usb-1", ID: "bass", NoteRangeMin: &low}
		got := Mv.Fill(c, Mv.SuggestedDefaults(Mv.Bass))

		assertInt(t, *got.NoteRangeMin, 40)
		assertInt(t, *got.NoteRangeMax, 60)
		assertInt(t, *got.GMProgram, 33)
		assertInt(t, got.Polyphony, 4)
		assertBool(t, Mv.Instrument(got).Complete, true)
	})

	t.Run("A filled drum kit is complete", func(t *testing.T) {
		c := Mt.InstrumentCapability{DeviceID: "usb-1", ID: "kit"}
		got := Mv.Fill(c, Mv.SuggestedDefaults(Mv.Drums))

		assertInt(t, len(got.SelectedNotes), 8)
		assertBool(t, Mv.Instrument(got).Complete, true)
	})
}

func makeComplete() Mt.InstrumentCapability {
	program, low, high := 0, 21, 108
	return Mt.InstrumentCapability{
		DeviceID:          "usb-1",
		ID:                "piano",
		Name:              "Stage Piano",
		GMProgram:         &program,
		NoteRangeMin:      &low,
		NoteRangeMax:      &high,
		NoteSelectionMode: Mt.ModeRange,
		SupportedCCs:      []int{7, 64},
		Polyphony:         64,
	}
}

func fieldNames(fields []Mv.Field) []string {
	var out []string
	for _, f := range fields {
		out = append(out, f.Field)
	}
	return out
}

// Helpers //

func assertBool(t *testing.T, got, want bool) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %t, want %t", got, want)
	}
}

func assertInt(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertString(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func assertStrings(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		assertString(t, got[i], want[i])
	}
}
