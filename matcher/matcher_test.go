package matcher_test

import (
	"errors"
	"strings"
	"testing"

	Ma "github.com/maroda/midiassign/analyze"
	Mm "github.com/maroda/midiassign/matcher"
	Mt "github.com/maroda/midiassign/types"
)

func TestCalculateCompatibility_Scenarios(t *testing.T) {
	t.Run("Drum channel against a discrete kit covering every note", func(t *testing.T) {
		events := []Mt.Event{Mt.ProgramEvent{Channel: 9, Program: 0}}
		events = append(events, sequence(9, 36, 38, 42, 49)...)
		doc := &Mt.Document{Tracks: []Mt.Track{{Events: events}}}

		kit := Mt.InstrumentCapability{
			DeviceID:          "dev-1",
			ID:                "kit",
			GMProgram:         intp(0),
			NoteSelectionMode: Mt.ModeDiscrete,
			SelectedNotes:     []int{36, 38, 42, 46, 49},
		}

		got, err := Mm.CalculateCompatibility(Ma.AnalyzeChannel(doc, 9), kit)
		assertError(t, err, nil)
		assertBool(t, got.Compatible, true)
		assertInt(t, got.Score, 90)
		if got.Score < 85 {
			t.Errorf("expected a score of at least 85, got %d", got.Score)
		}
		if len(got.NoteRemapping) != 0 {
			t.Errorf("expected no remapping, got %v", got.NoteRemapping)
		}
		assertInfoContains(t, got.Info, "100% of notes supported")
		assertInfoContains(t, got.Info, "MIDI channel 10 (drums) match")
	})

	t.Run("Wide melodic range inside a full keyboard needs no shift", func(t *testing.T) {
		doc := &Mt.Document{Tracks: []Mt.Track{{Events: sequence(0, 40, 52, 64, 76)}}}
		keyboard := Mt.InstrumentCapability{
			DeviceID:     "dev-2",
			ID:           "keys",
			NoteRangeMin: intp(21),
			NoteRangeMax: intp(108),
		}

		got, err := Mm.CalculateCompatibility(Ma.AnalyzeChannel(doc, 0), keyboard)
		assertError(t, err, nil)
		if got.Transposition == nil {
			t.Fatal("expected a transposition")
		}
		assertInt(t, got.Transposition.Octaves, 0)
		assertInt(t, got.Transposition.Semitones, 0)
		assertInfoContains(t, got.Info, "Perfect note range fit")
	})

	t.Run("Exact program match names the program", func(t *testing.T) {
		doc := &Mt.Document{Tracks: []Mt.Track{{Events: []Mt.Event{
			Mt.ProgramEvent{Channel: 0, Program: 0},
			Mt.NoteEvent{Kind: Mt.NoteOn, Channel: 0, Note: 60, Velocity: 90},
			Mt.NoteEvent{Kind: Mt.NoteOn, Channel: 0, Note: 64, Velocity: 90},
			Mt.NoteEvent{Kind: Mt.NoteOn, Channel: 0, Note: 67, Velocity: 90},
			Mt.NoteEvent{Delta: 480, Kind: Mt.NoteOff, Channel: 0, Note: 60},
			Mt.NoteEvent{Kind: Mt.NoteOff, Channel: 0, Note: 64},
			Mt.NoteEvent{Kind: Mt.NoteOff, Channel: 0, Note: 67},
		}}}}
		piano := Mt.InstrumentCapability{DeviceID: "dev-3", ID: "piano", GMProgram: intp(0)}

		got, err := Mm.CalculateCompatibility(Ma.AnalyzeChannel(doc, 0), piano)
		assertError(t, err, nil)
		assertInfoContains(t, got.Info, "Perfect program match: Acoustic Grand Piano (0)")
		// program 30, any range 25, polyphony 15, no CCs 15, harmony to harmony 10
		assertInt(t, got.Score, 95)
	})
}

func TestCalculateCompatibility_Program(t *testing.T) {
	analysis := melodic(0, 60, 72)

	t.Run("Same family scores twenty", func(t *testing.T) {
		analysis.PrimaryProgram = intp(1)
		got, err := Mm.CalculateCompatibility(analysis, Mt.InstrumentCapability{GMProgram: intp(4)})
		assertError(t, err, nil)
		assertInfoContains(t, got.Info, "Same GM category: piano")
	})

	t.Run("Missing program scores nothing", func(t *testing.T) {
		analysis.PrimaryProgram = nil
		withProgram, _ := Mm.CalculateCompatibility(analysis, Mt.InstrumentCapability{GMProgram: intp(80)})
		without, _ := Mm.CalculateCompatibility(analysis, Mt.InstrumentCapability{GMProgram: nil, NoteRangeMin: intp(0), NoteRangeMax: intp(127)})
		// both earn no program points, the rest differs only by type
		if withProgram.Score-without.Score != 0 {
			t.Errorf("expected equal scores, got %d and %d", withProgram.Score, without.Score)
		}
	})
}

func TestCalculateCompatibility_Range(t *testing.T) {
	t.Run("Unconstrained instruments always score the full note term", func(t *testing.T) {
		for _, r := range []Mt.NoteRange{{Min: 0, Max: 127}, {Min: 20, Max: 30}, {Min: 100, Max: 120}} {
			got, err := Mm.CalculateCompatibility(melodic(3, r.Min, r.Max), Mt.InstrumentCapability{})
			assertError(t, err, nil)
			assertBool(t, got.Compatible, true)
			assertInfoContains(t, got.Info, "Instrument accepts all note ranges")
		}
	})

	t.Run("Rejects a channel wider than the instrument", func(t *testing.T) {
		got, err := Mm.CalculateCompatibility(melodic(0, 30, 90), rangeInstrument(40, 80))
		assertError(t, err, nil)
		assertBool(t, got.Compatible, false)
		assertIssueContains(t, got.Issues, "Note span too wide (60 vs 40 semitones)")
	})

	t.Run("Shifts down two octaves and pays for it", func(t *testing.T) {
		got, err := Mm.CalculateCompatibility(melodic(0, 60, 72), rangeInstrument(24, 48))
		assertError(t, err, nil)
		assertBool(t, got.Compatible, true)
		assertInt(t, got.Transposition.Semitones, -24)
		assertInfoContains(t, got.Info, "Transposition: 2 octave(s) down")
	})

	t.Run("Reports incompatible when no octave fits", func(t *testing.T) {
		got, err := Mm.CalculateCompatibility(melodic(0, 60, 71), rangeInstrument(65, 77))
		assertError(t, err, nil)
		assertBool(t, got.Compatible, false)
		if got.Transposition != nil {
			t.Errorf("expected no transposition, got %+v", got.Transposition)
		}
		assertIssueContains(t, got.Issues, "No octave shift fits")
	})
}

func TestOctaveShift(t *testing.T) {
	t.Run("Prefers no shift when the range already fits", func(t *testing.T) {
		got, ok := Mm.OctaveShift(Mt.NoteRange{Min: 40, Max: 76}, Mt.NoteRange{Min: 21, Max: 108})
		assertBool(t, ok, true)
		assertInt(t, got.Octaves, 0)
	})

	t.Run("Moves up toward a high instrument", func(t *testing.T) {
		got, ok := Mm.OctaveShift(Mt.NoteRange{Min: 60, Max: 72}, Mt.NoteRange{Min: 84, Max: 96})
		assertBool(t, ok, true)
		assertInt(t, got.Octaves, 2)
		assertInt(t, got.Semitones, 24)
	})

	t.Run("Every shift found is whole octaves and fits", func(t *testing.T) {
		for lo := 0; lo <= 120; lo += 7 {
			for width := 0; width <= 40; width += 5 {
				channel := Mt.NoteRange{Min: lo, Max: min(127, lo+width)}
				for ilo := 0; ilo <= 100; ilo += 13 {
					inst := Mt.NoteRange{Min: ilo, Max: min(127, ilo+27)}
					got, ok := Mm.OctaveShift(channel, inst)
					if !ok {
						continue
					}
					if got.Semitones%12 != 0 || got.Semitones != got.Octaves*12 {
						t.Fatalf("shift %+v is not whole octaves", got)
					}
					if channel.Min+got.Semitones < inst.Min || channel.Max+got.Semitones > inst.Max {
						t.Fatalf("shift %+v does not fit %v into %v", got, channel, inst)
					}
				}
			}
		}
	})
}

func TestCalculateCompatibility_Discrete(t *testing.T) {
	analysis := Mt.ChannelAnalysis{
		Channel:       9,
		NoteRange:     Mt.NoteRange{Min: 36, Max: 40},
		NoteHistogram: map[int]int{36: 4, 37: 1, 40: 2},
		Polyphony:     Mt.Polyphony{Max: 1, Avg: 1},
		EstimatedType: Mt.Drums,
	}

	t.Run("Remaps unsupported notes to the nearest, earliest on a tie", func(t *testing.T) {
		kit := Mt.InstrumentCapability{NoteSelectionMode: Mt.ModeDiscrete, SelectedNotes: []int{36, 38, 42}}
		got, err := Mm.CalculateCompatibility(analysis, kit)
		assertError(t, err, nil)
		assertBool(t, got.Compatible, true)
		assertInt(t, got.NoteRemapping[37], 36)
		assertInt(t, got.NoteRemapping[40], 38)
		if _, ok := got.NoteRemapping[36]; ok {
			t.Errorf("supported note should not be remapped")
		}
		assertInfoContains(t, got.Info, "33% of notes supported")
	})

	t.Run("An empty note list is incompatible", func(t *testing.T) {
		kit := Mt.InstrumentCapability{NoteSelectionMode: Mt.ModeDiscrete}
		got, err := Mm.CalculateCompatibility(analysis, kit)
		assertError(t, err, nil)
		assertBool(t, got.Compatible, false)
	})

	t.Run("No supported note is incompatible", func(t *testing.T) {
		kit := Mt.InstrumentCapability{NoteSelectionMode: Mt.ModeDiscrete, SelectedNotes: []int{80, 81}}
		got, err := Mm.CalculateCompatibility(analysis, kit)
		assertError(t, err, nil)
		assertBool(t, got.Compatible, false)
		assertIssueContains(t, got.Issues, "No channel notes are supported")
	})
}

func TestCalculateCompatibility_PolyphonyAndCCs(t *testing.T) {
	t.Run("Warns about insufficient polyphony", func(t *testing.T) {
		analysis := melodic(0, 60, 72)
		analysis.Polyphony = Mt.Polyphony{Max: 10, Avg: 6}
		got, err := Mm.CalculateCompatibility(analysis, Mt.InstrumentCapability{Polyphony: 8})
		assertError(t, err, nil)
		assertIssueContains(t, got.Issues, "Insufficient polyphony (8 available, 10 needed)")
	})

	t.Run("Defaults polyphony to sixteen", func(t *testing.T) {
		got, err := Mm.CalculateCompatibility(melodic(0, 60, 72), Mt.InstrumentCapability{})
		assertError(t, err, nil)
		assertInfoContains(t, got.Info, "Excellent polyphony (16 available, 1 needed)")
	})

	t.Run("Partial CC support is informational above half", func(t *testing.T) {
		analysis := melodic(0, 60, 72)
		analysis.UsedCCs = []int{1, 7, 64}
		got, err := Mm.CalculateCompatibility(analysis, Mt.InstrumentCapability{SupportedCCs: []int{7, 64}})
		assertError(t, err, nil)
		assertIssueContains(t, got.Issues, "Some CCs not supported: 1")
		// any range 25, polyphony 15, CCs 10, unknown type 0
		assertInt(t, got.Score, 50)
	})

	t.Run("Poor CC support is a warning", func(t *testing.T) {
		analysis := melodic(0, 60, 72)
		analysis.UsedCCs = []int{1, 7, 64}
		got, err := Mm.CalculateCompatibility(analysis, Mt.InstrumentCapability{SupportedCCs: []int{7}})
		assertError(t, err, nil)
		assertIssueContains(t, got.Issues, "Many CCs not supported: 1, 64")
		if got.Issues[0].Severity != Mt.SeverityWarning {
			t.Errorf("expected a warning, got %q", got.Issues[0].Severity)
		}
	})
}

func TestCalculateCompatibility_Malformed(t *testing.T) {
	tests := []struct {
		name string
		cap  Mt.InstrumentCapability
	}{
		{"only a minimum", Mt.InstrumentCapability{NoteRangeMin: intp(10)}},
		{"inverted range", rangeInstrument(80, 40)},
		{"range out of bounds", rangeInstrument(0, 140)},
		{"program out of bounds", Mt.InstrumentCapability{GMProgram: intp(128)}},
		{"unknown mode", Mt.InstrumentCapability{NoteSelectionMode: "chaos"}},
		{"selected note out of bounds", Mt.InstrumentCapability{NoteSelectionMode: Mt.ModeDiscrete, SelectedNotes: []int{200}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Mm.CalculateCompatibility(melodic(0, 60, 72), tt.cap)
			assertError(t, err, Mm.ErrMalformedCapability)
		})
	}
}

func TestCalculateCompatibility_Bounds(t *testing.T) {
	caps := []Mt.InstrumentCapability{
		{},
		{GMProgram: intp(0), NoteRangeMin: intp(0), NoteRangeMax: intp(127), Polyphony: 64},
		{GMProgram: intp(118), NoteSelectionMode: Mt.ModeDiscrete, SelectedNotes: []int{36, 38}},
		{GMProgram: intp(33), NoteRangeMin: intp(28), NoteRangeMax: intp(60), Polyphony: 1, SupportedCCs: []int{1}},
	}
	for ch := 0; ch < 16; ch++ {
		for _, c := range caps {
			a := melodic(ch, 30+ch, 50+ch)
			a.PrimaryProgram = intp(ch * 8)
			a.UsedCCs = []int{1, 2, 3}
			if ch == 9 {
				a.EstimatedType = Mt.Drums
			}
			got, err := Mm.CalculateCompatibility(a, c)
			assertError(t, err, nil)
			if got.Score < 0 || got.Score > 100 {
				t.Fatalf("score %d out of bounds", got.Score)
			}
		}
	}
}

func TestInstrumentType(t *testing.T) {
	tests := []struct {
		name string
		cap  Mt.InstrumentCapability
		want Mt.Category
	}{
		{"percussive program", Mt.InstrumentCapability{GMProgram: intp(115)}, Mt.Percussive},
		{"bass program", Mt.InstrumentCapability{GMProgram: intp(34)}, Mt.Bass},
		{"piano program", Mt.InstrumentCapability{GMProgram: intp(2)}, Mt.Harmony},
		{"ensemble program", Mt.InstrumentCapability{GMProgram: intp(52)}, Mt.Harmony},
		{"lead program", Mt.InstrumentCapability{GMProgram: intp(81)}, Mt.Melody},
		{"lead program with a low range", Mt.InstrumentCapability{GMProgram: intp(81), NoteRangeMin: intp(24), NoteRangeMax: intp(60)}, Mt.Bass},
		{"no program but low range", rangeInstrument(28, 55), Mt.Bass},
		{"no program but high range", rangeInstrument(48, 96), Mt.Melody},
		{"no program and discrete", Mt.InstrumentCapability{NoteSelectionMode: Mt.ModeDiscrete}, Mt.Percussive},
		{"nothing declared", Mt.InstrumentCapability{}, Mt.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mm.InstrumentType(tt.cap)
			if got != tt.want {
				t.Errorf("did not get correct type, got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	for score, want := range map[int]string{95: "excellent", 80: "good", 60: "acceptable", 45: "poor", 10: "insufficient"} {
		if got := Mm.Classify(score); got != want {
			t.Errorf("Classify(%d) = %q, want %q", score, got, want)
		}
	}
}

func TestSummary(t *testing.T) {
	t.Run("Falls back to custom name and default polyphony", func(t *testing.T) {
		got := Mm.Summary(Mt.InstrumentCapability{ID: "a", DeviceID: "d", CustomName: "Moog"})
		if got.Name != "Moog" || got.Polyphony != Mt.DefaultPolyphony {
			t.Errorf("unexpected summary %+v", got)
		}
	})
}

// Helpers //

func intp(v int) *int { return &v }

func rangeInstrument(lo, hi int) Mt.InstrumentCapability {
	return Mt.InstrumentCapability{NoteRangeMin: intp(lo), NoteRangeMax: intp(hi)}
}

func melodic(ch, lo, hi int) Mt.ChannelAnalysis {
	return Mt.ChannelAnalysis{
		Channel:       ch,
		NoteRange:     Mt.NoteRange{Min: lo, Max: hi},
		NoteHistogram: map[int]int{lo: 1, hi: 1},
		Polyphony:     Mt.Polyphony{Max: 1, Avg: 1},
		UsedCCs:       []int{},
		EstimatedType: Mt.Melody,
	}
}

func sequence(ch uint8, notes ...uint8) []Mt.Event {
	var events []Mt.Event
	for _, n := range notes {
		events = append(events,
			Mt.NoteEvent{Kind: Mt.NoteOn, Channel: ch, Note: n, Velocity: 100},
			Mt.NoteEvent{Delta: 120, Kind: Mt.NoteOff, Channel: ch, Note: n},
		)
	}
	return events
}

func assertError(t testing.TB, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("got error %q want %q", got, want)
	}
}

func assertInt(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertBool(t *testing.T, got, want bool) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %t, want %t", got, want)
	}
}

func assertInfoContains(t *testing.T, info []string, want string) {
	t.Helper()
	for _, line := range info {
		if strings.Contains(line, want) {
			return
		}
	}
	t.Errorf("Did not find %q in info %v", want, info)
}

func assertIssueContains(t *testing.T, issues []Mt.Issue, want string) {
	t.Helper()
	for _, issue := range issues {
		if strings.Contains(issue.Message, want) {
			return
		}
	}
	t.Errorf("Did not find %q in issues %v", want, issues)
}
