package assign_test

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	As "github.com/maroda/midiassign/assign"
	Mx "github.com/maroda/midiassign/transpose"
	Mt "github.com/maroda/midiassign/types"
)

func TestGenerateSuggestions_SoftFailures(t *testing.T) {
	t.Run("Reports missing instruments", func(t *testing.T) {
		got := As.GenerateSuggestions(band(), nil, As.DefaultOptions())
		assertBool(t, got.Success, false)
		assertString(t, got.Reason, As.ReasonNoInstruments)
		if got.Suggestions == nil || got.AutoSelection == nil || got.ChannelAnalyses == nil {
			t.Errorf("expected empty, non-nil collections")
		}
	})

	t.Run("Reports missing instruments when every one is malformed", func(t *testing.T) {
		broken := piano()
		broken.NoteRangeMin = nil
		got := As.GenerateSuggestions(band(), []Mt.InstrumentCapability{broken}, As.DefaultOptions())
		assertBool(t, got.Success, false)
		assertString(t, got.Reason, As.ReasonNoInstruments)
		assertInt(t, got.Stats.SkippedInstruments, 1)
		assertInt(t, len(got.AutoSelection), 0)
	})

	t.Run("Reports a document without notes", func(t *testing.T) {
		doc := &Mt.Document{Tracks: []Mt.Track{{Events: []Mt.Event{Mt.MetaEvent{Kind: Mt.MetaTempo, BPM: 120}}}}}
		got := As.GenerateSuggestions(doc, []Mt.InstrumentCapability{piano()}, As.DefaultOptions())
		assertBool(t, got.Success, false)
		assertString(t, got.Reason, As.ReasonNoChannels)
	})

	t.Run("A channel with nothing above the minimum stays unassigned", func(t *testing.T) {
		opts := As.DefaultOptions()
		opts.MinScore = 101
		got := As.GenerateSuggestions(band(), []Mt.InstrumentCapability{piano()}, opts)
		assertBool(t, got.Success, true)
		assertInt(t, len(got.AutoSelection), 0)
		assertInt(t, got.ConfidenceScore, 0)
		assertInt(t, len(got.Suggestions[0]), 0)
	})
}

func TestGenerateSuggestions_Band(t *testing.T) {
	instruments := []Mt.InstrumentCapability{piano(), kit()}
	got := As.GenerateSuggestions(band(), instruments, As.DefaultOptions())

	t.Run("Gives the drums to the kit and the chords to the piano", func(t *testing.T) {
		assertBool(t, got.Success, true)
		assertString(t, got.AutoSelection[9].InstrumentID, "kit")
		assertString(t, got.AutoSelection[0].InstrumentID, "piano")
		assertInt(t, got.AutoSelection[9].Score, 60)
		assertInt(t, got.AutoSelection[0].Score, 95)
		assertInt(t, got.ConfidenceScore, 78)
	})

	t.Run("Ranks suggestions best first", func(t *testing.T) {
		for ch, list := range got.Suggestions {
			for i := 1; i < len(list); i++ {
				if list[i].Compatibility.Score > list[i-1].Compatibility.Score {
					t.Errorf("channel %d suggestions out of order", ch)
				}
			}
		}
	})

	t.Run("Only assigns instruments from the channel's own suggestions", func(t *testing.T) {
		for ch, a := range got.AutoSelection {
			if !slices.ContainsFunc(got.ChannelAnalyses, func(c Mt.ChannelAnalysis) bool { return c.Channel == ch }) {
				t.Errorf("channel %d assigned but not analyzed", ch)
			}
			if !slices.ContainsFunc(got.Suggestions[ch], func(s Mt.Suggestion) bool { return s.Instrument.ID == a.InstrumentID }) {
				t.Errorf("channel %d assigned %s outside its suggestions", ch, a.InstrumentID)
			}
		}
	})

	t.Run("Keeps a snapshot of the analysis", func(t *testing.T) {
		assertString(t, string(got.AutoSelection[9].Channel.EstimatedType), string(Mt.Drums))
		assertInt(t, got.AutoSelection[0].Channel.NoteRange.Min, 60)
	})

	t.Run("Counts channels and instruments", func(t *testing.T) {
		assertInt(t, got.Stats.ChannelCount, 2)
		assertInt(t, got.Stats.InstrumentCount, 2)
		assertInt(t, got.Stats.AssignedChannels, 2)
	})
}

func TestGenerateSuggestions_Selection(t *testing.T) {
	t.Run("The strongest channel picks first", func(t *testing.T) {
		doc := makeTestDocument(append(chord(0, 0), line(1, 60, 64, 67, 72)...)...)
		open := Mt.InstrumentCapability{DeviceID: "dev", ID: "open", Name: "Open"}
		got := As.GenerateSuggestions(doc, []Mt.InstrumentCapability{piano(), open}, As.DefaultOptions())

		assertString(t, got.AutoSelection[0].InstrumentID, "piano")
		assertString(t, got.AutoSelection[1].InstrumentID, "open")
		assertInt(t, got.AutoSelection[1].Score, 55)
		assertInt(t, got.ConfidenceScore, 75)
	})

	t.Run("Reuses an instrument rather than leaving a channel empty", func(t *testing.T) {
		doc := makeTestDocument(append(line(2, 60, 62), line(3, 70, 72)...)...)
		open := Mt.InstrumentCapability{DeviceID: "dev", ID: "open"}
		got := As.GenerateSuggestions(doc, []Mt.InstrumentCapability{open}, As.DefaultOptions())

		assertInt(t, len(got.AutoSelection), 2)
		assertString(t, got.AutoSelection[2].InstrumentID, "open")
		assertString(t, got.AutoSelection[3].InstrumentID, "open")
	})

	t.Run("Keeps only the top N", func(t *testing.T) {
		var instruments []Mt.InstrumentCapability
		for _, id := range []string{"a", "b", "c", "d"} {
			instruments = append(instruments, Mt.InstrumentCapability{DeviceID: "dev", ID: id})
		}
		opts := As.DefaultOptions()
		opts.TopN = 2
		got := As.GenerateSuggestions(makeTestDocument(line(4, 60)...), instruments, opts)

		assertInt(t, len(got.Suggestions[4]), 2)
		// equal scores keep catalog order
		assertString(t, got.Suggestions[4][0].Instrument.ID, "a")
	})

	t.Run("Skips malformed instruments", func(t *testing.T) {
		broken := Mt.InstrumentCapability{DeviceID: "dev", ID: "broken", NoteRangeMin: intp(80), NoteRangeMax: intp(20)}
		got := As.GenerateSuggestions(band(), []Mt.InstrumentCapability{broken, piano()}, As.DefaultOptions())

		assertBool(t, got.Success, true)
		assertInt(t, got.Stats.SkippedInstruments, 1)
		for _, list := range got.Suggestions {
			for _, s := range list {
				if s.Instrument.ID == "broken" {
					t.Errorf("malformed instrument was suggested")
				}
			}
		}
	})
}

func TestGenerateSuggestions_DrumRemap(t *testing.T) {
	doc := makeTestDocument(line(9, 35, 38, 42, 49)...)
	small := Mt.InstrumentCapability{
		DeviceID:          "dev",
		ID:                "small",
		NoteSelectionMode: Mt.ModeDiscrete,
		SelectedNotes:     []int{36, 40, 42},
	}

	t.Run("Nearest notes by default", func(t *testing.T) {
		got := As.GenerateSuggestions(doc, []Mt.InstrumentCapability{small}, As.DefaultOptions())
		remap := got.AutoSelection[9].NoteRemapping
		assertInt(t, remap[35], 36)
		assertInt(t, remap[38], 36)
		assertInt(t, remap[49], 42)
	})

	t.Run("Drum roles with the drum mapper", func(t *testing.T) {
		opts := As.DefaultOptions()
		opts.DrumRemap = true
		got := As.GenerateSuggestions(doc, []Mt.InstrumentCapability{small}, opts)

		a := got.AutoSelection[9]
		assertInt(t, a.NoteRemapping[35], 36)
		assertInt(t, a.NoteRemapping[38], 40)
		assertInt(t, a.NoteRemapping[49], 42)
		if _, ok := a.NoteRemapping[42]; ok {
			t.Errorf("exact notes should not be remapped")
		}
		assertInfoContains(t, a.Info, "Drum mapping quality: 92/100")
	})
}

func TestConfidence(t *testing.T) {
	assertInt(t, As.Confidence(nil), 0)
	assertInt(t, As.Confidence(map[int]Mt.Assignment{0: {Score: 90}, 1: {Score: 85}}), 88)
}

func TestCalculateCompatibility(t *testing.T) {
	got, err := As.CalculateCompatibility(band(), 0, piano())
	assertError(t, err, nil)
	assertInt(t, got.Score, 95)

	analysis := As.AnalyzeChannel(band(), 9)
	assertInt(t, analysis.TypeConfidence, 100)
}

func TestApply(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	t.Run("Applies the chosen transpositions", func(t *testing.T) {
		doc := band()
		assignments := map[int]Mt.Assignment{
			0: {InstrumentID: "piano", Transposition: &Mt.Transposition{Semitones: -12, Octaves: -1}},
			9: {InstrumentID: "kit", NoteRemapping: map[int]int{36: 35}},
		}

		got, err := As.Apply(doc, assignments, now)
		assertError(t, err, nil)
		assertInt(t, got.Stats.NotesChanged, 6)
		assertInt(t, got.Stats.NotesRemapped, 2)
		assertString(t, got.Metadata.Strategy, Mx.Strategy)
		if !got.Metadata.CreatedAt.Equal(now) {
			t.Errorf("did not get creation time, got %v", got.Metadata.CreatedAt)
		}
		if first := doc.Tracks[0].Events[1].(Mt.NoteEvent); first.Note != 60 {
			t.Errorf("input document was modified")
		}
	})

	t.Run("Rejects a shift beyond four octaves", func(t *testing.T) {
		assignments := map[int]Mt.Assignment{
			0: {Transposition: &Mt.Transposition{Semitones: 60, Octaves: 5}},
		}
		_, err := As.Apply(band(), assignments, now)
		assertError(t, err, Mx.ErrTranspositionTooLarge)
	})

	t.Run("Rejects a channel missing from the document", func(t *testing.T) {
		assignments := map[int]Mt.Assignment{
			5: {Transposition: &Mt.Transposition{Semitones: 12, Octaves: 1}},
		}
		_, err := As.Apply(band(), assignments, now)
		assertError(t, err, Mx.ErrChannelNotFound)
	})
}

// Helpers //

func intp(v int) *int { return &v }

func piano() Mt.InstrumentCapability {
	return Mt.InstrumentCapability{
		DeviceID:     "dev-piano",
		ID:           "piano",
		Name:         "Stage Piano",
		GMProgram:    intp(0),
		NoteRangeMin: intp(21),
		NoteRangeMax: intp(108),
	}
}

func kit() Mt.InstrumentCapability {
	return Mt.InstrumentCapability{
		DeviceID:          "dev-kit",
		ID:                "kit",
		Name:              "Drum Machine",
		NoteSelectionMode: Mt.ModeDiscrete,
		SelectedNotes:     []int{36, 38, 42, 46, 49},
	}
}

// band is a piano chord on channel 0 and a beat on channel 9
func band() *Mt.Document {
	return makeTestDocument(append(chord(0, 0), line(9, 36, 38, 42)...)...)
}

func makeTestDocument(events ...Mt.Event) *Mt.Document {
	return &Mt.Document{
		Header: Mt.Header{Format: 0, NumTracks: 1, TicksPerBeat: 480},
		Tracks: []Mt.Track{{Index: 0, Events: events}},
	}
}

func chord(ch, program uint8) []Mt.Event {
	return []Mt.Event{
		Mt.ProgramEvent{Channel: ch, Program: program},
		Mt.NoteEvent{Kind: Mt.NoteOn, Channel: ch, Note: 60, Velocity: 90},
		Mt.NoteEvent{Kind: Mt.NoteOn, Channel: ch, Note: 64, Velocity: 90},
		Mt.NoteEvent{Kind: Mt.NoteOn, Channel: ch, Note: 67, Velocity: 90},
		Mt.NoteEvent{Delta: 480, Kind: Mt.NoteOff, Channel: ch, Note: 60},
		Mt.NoteEvent{Kind: Mt.NoteOff, Channel: ch, Note: 64},
		Mt.NoteEvent{Kind: Mt.NoteOff, Channel: ch, Note: 67},
	}
}

func line(ch uint8, notes ...uint8) []Mt.Event {
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

func assertString(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("got %q, want %q", got, want)
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
