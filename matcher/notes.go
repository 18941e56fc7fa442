package matcher

import (
	"fmt"
	"sort"

	Mt "github.com/maroda/midiassign/types"
)

type noteResult struct {
	part
	compatible    bool
	transposition *Mt.Transposition
	remapping     map[int]int
}

func incompatible(msg string) noteResult {
	return noteResult{part: part{issue: &Mt.Issue{Severity: Mt.SeverityError, Message: msg}}}
}

func scoreNotes(a Mt.ChannelAnalysis, c Mt.InstrumentCapability) noteResult {
	if IsDiscrete(c) {
		return scoreDiscrete(a, c.SelectedNotes)
	}

	if c.NoteRangeMin == nil || c.NoteRangeMax == nil {
		return noteResult{
			part:       part{score: NotePoints, info: "Instrument accepts all note ranges"},
			compatible: true,
		}
	}

	instrument := Mt.NoteRange{Min: *c.NoteRangeMin, Max: *c.NoteRangeMax}
	span := a.NoteRange.Max - a.NoteRange.Min
	instSpan := instrument.Max - instrument.Min
	if span > instSpan {
		return incompatible(fmt.Sprintf("Note span too wide (%d vs %d semitones)", span, instSpan))
	}

	shift, ok := OctaveShift(a.NoteRange, instrument)
	if !ok {
		return incompatible("No octave shift fits all notes in instrument range")
	}

	result := noteResult{compatible: true, transposition: &shift}
	if shift.Octaves == 0 {
		result.score = NotePoints
		result.info = "Perfect note range fit (no transposition)"
		return result
	}

	octaves, direction := shift.Octaves, "up"
	if octaves < 0 {
		octaves, direction = -octaves, "down"
	}
	result.score = max(0, NotePoints-octaves*octavePenalty)
	result.info = fmt.Sprintf("Transposition: %d octave(s) %s", octaves, direction)
	return result
}

// OctaveShift finds a whole-octave shift placing the channel range inside
// the instrument range. No shift is preferred when it already fits, then the
// shift between the two midpoints rounded to an octave, then one octave
// below and above it.
func OctaveShift(channel, instrument Mt.NoteRange) (Mt.Transposition, bool) {
	fits := func(octaves int) bool {
		s := octaves * 12
		return channel.Min+s >= instrument.Min && channel.Max+s <= instrument.Max
	}

	channelCenter := float64(channel.Min+channel.Max) / 2
	instCenter := float64(instrument.Min+instrument.Max) / 2
	naive := round((instCenter - channelCenter) / 12)

	// when 0 fits the rounded midpoint shift fits too, so 0 never widens the search
	for _, octaves := range []int{0, naive, naive - 1, naive + 1} {
		if fits(octaves) {
			return Mt.Transposition{Semitones: octaves * 12, Octaves: octaves}, true
		}
	}
	return Mt.Transposition{}, false
}

// scoreDiscrete checks the distinct notes a channel actually plays
// against an explicit note list, remapping the rest to their nearest note.
func scoreDiscrete(a Mt.ChannelAnalysis, selected []int) noteResult {
	if len(selected) == 0 {
		return incompatible("Discrete mode but no selected notes defined")
	}

	playable := make(map[int]bool, len(selected))
	for _, n := range selected {
		playable[n] = true
	}

	played := distinctNotes(a)
	remapping := make(map[int]int)
	supported := 0
	for _, n := range played {
		if playable[n] {
			supported++
			continue
		}
		remapping[n] = ClosestNote(n, selected)
	}

	if supported == 0 {
		return incompatible("No channel notes are supported by instrument")
	}

	ratio := float64(supported) / float64(len(played))
	result := noteResult{
		part: part{
			score: round(NotePoints * ratio),
			info:  fmt.Sprintf("%d%% of notes supported", round(ratio*100)),
		},
		compatible: true,
	}
	if len(remapping) > 0 {
		result.remapping = remapping
	}
	return result
}

// distinctNotes is the histogram keys, or the whole range without a histogram
func distinctNotes(a Mt.ChannelAnalysis) []int {
	notes := make([]int, 0, len(a.NoteHistogram))
	for n, c := range a.NoteHistogram {
		if c > 0 {
			notes = append(notes, n)
		}
	}
	if len(notes) == 0 {
		for n := a.NoteRange.Min; n <= a.NoteRange.Max; n++ {
			notes = append(notes, n)
		}
	}
	sort.Ints(notes)
	return notes
}

// ClosestNote returns the nearest candidate, the earliest one on a tie.
// Candidates must not be empty.
func ClosestNote(target int, candidates []int) int {
	best := candidates[0]
	bestDist := abs(target - best)
	for _, n := range candidates[1:] {
		if d := abs(target - n); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
