package drums_test

import (
	"testing"

	Mdr "github.com/maroda/midiassign/drums"
	Mt "github.com/maroda/midiassign/types"
)

func TestGenerateMapping_EssentialKit(t *testing.T) {
	midi := Mdr.ClassifyNotes([]int{35, 38, 42, 49})
	kit := []int{36, 40, 42}

	t.Run("Maps the essentials and shares the missing crash", func(t *testing.T) {
		got := Mdr.GenerateMapping(midi, kit, Mdr.DefaultOptions())

		assertMapped(t, got.Mapping, 35, 36)
		assertMapped(t, got.Mapping, 38, 40)
		assertMapped(t, got.Mapping, 42, 42)
		assertMapped(t, got.Mapping, 49, 42)
		assertInt(t, got.Quality.Essential, 90)
		assertInt(t, got.Quality.Score, 92)
		assertInt(t, len(got.Omissions), 0)
		if got.Quality.Coverage != 1 {
			t.Errorf("did not get full coverage, got %f", got.Quality.Coverage)
		}
	})

	t.Run("Omits the crash when sharing is off", func(t *testing.T) {
		opts := Mdr.DefaultOptions()
		opts.AllowSharing = false
		got := Mdr.GenerateMapping(midi, kit, opts)

		if _, ok := got.Mapping[49]; ok {
			t.Errorf("crash should not be mapped, got %d", got.Mapping[49])
		}
		assertInt(t, len(got.Omissions), 1)
		assertInt(t, got.Omissions[0].Note, 49)
		assertString(t, got.Omissions[0].Name, "Crash Cymbal 1")
		assertInt(t, got.Quality.Essential, 75)
		assertInt(t, got.Quality.Score, 84)
	})

	t.Run("Records the kick consolidation", func(t *testing.T) {
		got := Mdr.GenerateMapping(midi, kit, Mdr.DefaultOptions())
		assertSubstitution(t, got.Substitutions, 35, 36, "kick consolidation")
	})
}

func TestGenerateMapping_FullKit(t *testing.T) {
	gm := []int{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 64, 63}
	midi := Mdr.ClassifyNotes([]int{36, 38, 42, 46, 49, 51, 45, 39})

	got := Mdr.GenerateMapping(midi, gm, Mdr.DefaultOptions())

	for _, n := range []int{36, 38, 42, 46, 49, 51, 39} {
		assertMapped(t, got.Mapping, n, n)
	}
	// toms fill from the lowest free tom
	assertMapped(t, got.Mapping, 45, 41)
	assertInt(t, got.Quality.Essential, 100)
	assertInt(t, got.Quality.Important, 100)
	assertInt(t, got.Quality.Optional, 100)
	assertInt(t, got.Quality.Score, 99)
}

func TestGenerateMapping_Important(t *testing.T) {
	t.Run("Groups toms when the kit has fewer", func(t *testing.T) {
		midi := Mdr.ClassifyNotes([]int{41, 43, 45, 47, 48, 50})
		got := Mdr.GenerateMapping(midi, []int{36, 48, 45}, Mdr.DefaultOptions())

		for _, n := range []int{41, 43, 45} {
			assertMapped(t, got.Mapping, n, 45)
		}
		for _, n := range []int{47, 48, 50} {
			assertMapped(t, got.Mapping, n, 48)
		}
	})

	t.Run("Falls back to latin percussion without toms", func(t *testing.T) {
		midi := Mdr.ClassifyNotes([]int{45, 50})
		got := Mdr.GenerateMapping(midi, []int{36, 60, 62}, Mdr.DefaultOptions())

		assertMapped(t, got.Mapping, 45, 60)
		assertMapped(t, got.Mapping, 50, 62)
		assertSubstitution(t, got.Substitutions, 45, 60, "tom to latin percussion")
	})

	t.Run("Open hi-hat shares the closed one", func(t *testing.T) {
		midi := Mdr.ClassifyNotes([]int{42, 46})
		got := Mdr.GenerateMapping(midi, []int{42}, Mdr.DefaultOptions())

		assertMapped(t, got.Mapping, 46, 42)
		assertSubstitution(t, got.Substitutions, 46, 42, "open hi-hat shares closed hi-hat")
	})

	t.Run("Ride shares the crash", func(t *testing.T) {
		midi := Mdr.ClassifyNotes([]int{49, 51})
		got := Mdr.GenerateMapping(midi, []int{49}, Mdr.DefaultOptions())

		assertMapped(t, got.Mapping, 51, 49)
	})
}

func TestGenerateMapping_Fallbacks(t *testing.T) {
	t.Run("Kick falls back to a low tom", func(t *testing.T) {
		midi := Mdr.ClassifyNotes([]int{36})
		got := Mdr.GenerateMapping(midi, []int{38, 43}, Mdr.DefaultOptions())

		assertMapped(t, got.Mapping, 36, 43)
		assertSubstitution(t, got.Substitutions, 36, 43, "kick to low tom")
		assertInt(t, got.Quality.Essential, 60)
	})

	t.Run("Latin notes go to the nearest latin pad", func(t *testing.T) {
		midi := Mdr.ClassifyNotes([]int{60, 64})
		got := Mdr.GenerateMapping(midi, []int{36, 62, 63}, Mdr.DefaultOptions())

		assertMapped(t, got.Mapping, 60, 62)
		assertMapped(t, got.Mapping, 64, 63)
	})

	t.Run("Hand clap follows the snare", func(t *testing.T) {
		midi := Mdr.ClassifyNotes([]int{38, 39})
		got := Mdr.GenerateMapping(midi, []int{38}, Mdr.DefaultOptions())

		assertMapped(t, got.Mapping, 39, 38)
	})

	t.Run("An open hi-hat alone leaves the tambourine pad free", func(t *testing.T) {
		midi := Mdr.ClassifyNotes([]int{46, 54})
		got := Mdr.GenerateMapping(midi, []int{36, 54}, Mdr.DefaultOptions())

		assertMapped(t, got.Mapping, 54, 54)
		for _, sub := range got.Substitutions {
			if sub.From == 54 {
				t.Errorf("tambourine should keep its own pad, got %+v", sub)
			}
		}
	})

	t.Run("A closed hi-hat still takes the fallback pad", func(t *testing.T) {
		midi := Mdr.ClassifyNotes([]int{42})
		got := Mdr.GenerateMapping(midi, []int{36, 54}, Mdr.DefaultOptions())

		assertMapped(t, got.Mapping, 42, 54)
		assertSubstitution(t, got.Substitutions, 42, 54, "hi-hat to Tambourine")
	})

	t.Run("Remaining notes use the preference table", func(t *testing.T) {
		midi := Mdr.ClassifyNotes([]int{75})
		got := Mdr.GenerateMapping(midi, []int{36, 76}, Mdr.DefaultOptions())

		assertMapped(t, got.Mapping, 75, 76)
		assertSubstitution(t, got.Substitutions, 75, 76, "table substitution")
	})

	t.Run("Without substitution everything missing is omitted by priority", func(t *testing.T) {
		opts := Mdr.Options{AllowOmission: true}
		midi := Mdr.ClassifyNotes([]int{49, 35, 35})
		got := Mdr.GenerateMapping(midi, []int{41}, opts)

		assertInt(t, len(got.Mapping), 0)
		assertInt(t, len(got.Omissions), 2)
		assertInt(t, got.Omissions[0].Note, 35)
		assertInt(t, got.Omissions[0].Count, 2)
		assertInt(t, got.Omissions[1].Note, 49)
	})
}

func TestQuality(t *testing.T) {
	t.Run("An empty part keeps every role", func(t *testing.T) {
		got := Mdr.GenerateMapping(Mdr.Classify(nil), []int{36}, Mdr.DefaultOptions())
		assertInt(t, got.Quality.Score, 95)
		assertInt(t, got.Quality.Total, 0)
	})

	t.Run("Scores stay between 0 and 100", func(t *testing.T) {
		kits := [][]int{{}, {36}, {60, 61, 62}, {36, 38, 42, 46, 49, 51}, {81}}
		parts := [][]int{{35, 36, 37, 38, 40}, {41, 43, 45, 47, 48, 50, 60, 75}, {42, 44, 46, 49, 51, 53, 55, 57, 59}, {80, 81, 27, 87}}
		for _, kit := range kits {
			for _, part := range parts {
				for _, opts := range []Mdr.Options{Mdr.DefaultOptions(), {}, {AllowOmission: true}} {
					got := Mdr.GenerateMapping(Mdr.ClassifyNotes(part), kit, opts)
					if got.Quality.Score < 0 || got.Quality.Score > 100 {
						t.Fatalf("quality %d out of range for kit %v part %v", got.Quality.Score, kit, part)
					}
				}
			}
		}
	})
}

func TestClassify(t *testing.T) {
	got := Mdr.Classify(map[int]int{36: 4, 38: 4, 42: 8, 20: 3, 90: 1})

	t.Run("Drops notes outside the drum window", func(t *testing.T) {
		assertInt(t, len(got.Used), 3)
		assertInt(t, got.Usage[20], 0)
	})

	t.Run("Orders by count then note", func(t *testing.T) {
		assertInt(t, got.Used[0].Note, 42)
		assertInt(t, got.Used[1].Note, 36)
		assertInt(t, got.Used[2].Note, 38)
	})

	t.Run("Groups the notes", func(t *testing.T) {
		assertInt(t, len(got.Groups[Mdr.Kicks]), 1)
		assertInt(t, len(got.Groups[Mdr.Toms]), 0)
	})
}

func TestAnalyzeInstrument(t *testing.T) {
	kit := Mdr.AnalyzeInstrument([]int{50, 36, 41, 45, 42})
	got := kit.Groups[Mdr.Toms]
	if len(got) != 3 || got[0] != 41 || got[1] != 45 || got[2] != 50 {
		t.Errorf("did not get sorted toms, got %v", got)
	}
	if !kit.Has(42) || kit.Has(38) {
		t.Errorf("unexpected membership for %v", kit.Notes)
	}
}

func TestReport(t *testing.T) {
	opts := Mdr.DefaultOptions()
	opts.AllowSharing = false
	got := Mdr.Report(Mdr.GenerateMapping(Mdr.ClassifyNotes([]int{35, 38, 42, 49}), []int{36, 40, 42}, opts))

	assertInt(t, got.Summary.TotalMapped, 3)
	assertInt(t, got.Summary.QualityScore, 84)
	assertString(t, got.Details.Exact[0], "Closed Hi-Hat (42)")
	assertString(t, got.Details.Substituted[0], "Acoustic Bass Drum (35) → Bass Drum 1 (36)")
	assertString(t, got.Details.Omitted[0], "Crash Cymbal 1 (49) - used 1 times")
}

func TestPriority(t *testing.T) {
	assertInt(t, Mdr.Priority(36), 100)
	assertInt(t, Mdr.Priority(81), 5)
	assertInt(t, Mdr.Priority(20), 0)
	if s := Mdr.Substitutes(38); len(s) != 5 || s[0] != 40 {
		t.Errorf("did not get snare substitutes, got %v", s)
	}
}

// Helpers //

func assertMapped(t *testing.T, mapping map[int]int, from, want int) {
	t.Helper()
	got, ok := mapping[from]
	if !ok {
		t.Errorf("note %d not mapped, want %d", from, want)
		return
	}
	if got != want {
		t.Errorf("note %d mapped to %d, want %d", from, got, want)
	}
}

func assertSubstitution(t *testing.T, subs []Mt.Substitution, from, to int, reason string) {
	t.Helper()
	for _, s := range subs {
		if s.From == from && s.To == to && s.Reason == reason {
			return
		}
	}
	t.Errorf("Did not find substitution %d to %d (%s) in %v", from, to, reason, subs)
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
