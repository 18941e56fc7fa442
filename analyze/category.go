package analyze

import (
	"math"
	"strings"

	Mt "github.com/maroda/midiassign/types"
)

// Weights of each evidence source in the category estimate
const (
	programWeight   = 40.0
	rangeWeight     = 25.0
	polyphonyWeight = 20.0
	densityWeight   = 15.0
	trackNameWeight = 30.0
)

// Thresholds used by the category estimate
const (
	lowNote       = 48.0
	highNote      = 72.0
	highDensity   = 6.0
	wideSpan      = 36
	narrowSpan    = 12
	highPolyphony = 5.0
)

// trackKeywords maps lower-case track name fragments to a category.
// Order matters: "bass drum" must hit drums before bass.
var trackKeywords = []struct {
	word     string
	category Mt.Category
}{
	{"drum", Mt.Drums},
	{"kit", Mt.Drums},
	{"beat", Mt.Drums},
	{"perc", Mt.Percussive},
	{"conga", Mt.Percussive},
	{"shaker", Mt.Percussive},
	{"mallet", Mt.Percussive},
	{"bass", Mt.Bass},
	{"piano", Mt.Harmony},
	{"keys", Mt.Harmony},
	{"organ", Mt.Harmony},
	{"pad", Mt.Harmony},
	{"chord", Mt.Harmony},
	{"string", Mt.Harmony},
	{"choir", Mt.Harmony},
	{"lead", Mt.Melody},
	{"melody", Mt.Melody},
	{"vocal", Mt.Melody},
	{"solo", Mt.Melody},
	{"flute", Mt.Melody},
	{"sax", Mt.Melody},
	{"trumpet", Mt.Melody},
}

// estimateCategory fills EstimatedType, TypeConfidence and TypeScores.
// Channel 9 is always drums.
func estimateCategory(a *Mt.ChannelAnalysis) {
	scores := map[Mt.Category]float64{
		Mt.Drums: 0, Mt.Percussive: 0, Mt.Bass: 0, Mt.Melody: 0, Mt.Harmony: 0,
	}

	if a.Channel == Mt.DrumChannel {
		scores[Mt.Drums] = 100
		a.EstimatedType = Mt.Drums
		a.TypeConfidence = 100
		a.TypeScores = scores
		return
	}

	if a.PrimaryProgram != nil {
		scoreProgram(scores, *a.PrimaryProgram)
	}
	scoreRange(scores, AverageNote(a.NoteHistogram), a.NoteRange.Max-a.NoteRange.Min)
	scorePolyphony(scores, a.Polyphony)
	scoreDensity(scores, a.Density, a.NoteRange.Max-a.NoteRange.Min)
	scoreTrackNames(scores, a.TrackNames)

	sum := 0.0
	for c, s := range scores {
		if s < 0 {
			scores[c] = 0
			continue
		}
		sum += s
	}

	a.TypeScores = scores
	if sum == 0 {
		a.EstimatedType = Mt.Melody
		a.TypeConfidence = 50
		return
	}

	winner := Mt.Categories[0]
	for _, c := range Mt.Categories[1:] {
		if scores[c] > scores[winner] {
			winner = c
		}
	}

	a.EstimatedType = winner
	a.TypeConfidence = int(math.Round(scores[winner] / sum * 100))
}

// scoreProgram reads the GM family of the primary program
func scoreProgram(scores map[Mt.Category]float64, program int) {
	switch {
	case program <= 7: // piano
		scores[Mt.Harmony] += programWeight
	case program <= 15: // chromatic percussion
		scores[Mt.Percussive] += programWeight / 2
		scores[Mt.Melody] += programWeight / 2
	case program <= 23: // organ
		scores[Mt.Harmony] += programWeight
	case program <= 31: // guitar
		scores[Mt.Melody] += programWeight / 2
		scores[Mt.Harmony] += programWeight / 2
	case program <= 39: // bass
		scores[Mt.Bass] += programWeight
	case program <= 55: // strings, ensemble
		scores[Mt.Harmony] += programWeight * 0.75
		scores[Mt.Melody] += programWeight * 0.25
	case program <= 79: // brass, reed, pipe
		scores[Mt.Melody] += programWeight
	case program <= 87: // synth lead
		scores[Mt.Melody] += programWeight
	case program <= 95: // synth pad
		scores[Mt.Harmony] += programWeight
	case program <= 111: // effects, ethnic
		scores[Mt.Melody] += programWeight / 4
	case program <= 119: // percussive
		scores[Mt.Percussive] += programWeight
		scores[Mt.Drums] += programWeight / 2
	}
}

func scoreRange(scores map[Mt.Category]float64, avg float64, span int) {
	switch {
	case avg < lowNote:
		scores[Mt.Bass] += rangeWeight
		scores[Mt.Melody] -= rangeWeight * 0.4
	case avg >= highNote:
		scores[Mt.Melody] += rangeWeight * 0.6
	}

	switch {
	case span >= wideSpan:
		scores[Mt.Harmony] += rangeWeight
		scores[Mt.Bass] -= rangeWeight * 0.4
	case span <= narrowSpan:
		scores[Mt.Drums] += rangeWeight * 0.4
		scores[Mt.Percussive] += rangeWeight * 0.4
	}
}

// scorePolyphony: monophonic leans melody/bass, dense chords lean harmony,
// many short simultaneous hits lean drums
func scorePolyphony(scores map[Mt.Category]float64, p Mt.Polyphony) {
	switch {
	case p.Max <= 1:
		scores[Mt.Melody] += polyphonyWeight
		scores[Mt.Bass] += polyphonyWeight / 2
		scores[Mt.Harmony] -= polyphonyWeight
	case p.Avg >= highPolyphony:
		scores[Mt.Harmony] += polyphonyWeight
	case float64(p.Max) >= highPolyphony && p.Avg < 2:
		scores[Mt.Drums] += polyphonyWeight
	case p.Avg >= 2:
		scores[Mt.Harmony] += polyphonyWeight / 2
	}
}

func scoreDensity(scores map[Mt.Category]float64, density float64, span int) {
	if density > highDensity && span < 24 {
		scores[Mt.Drums] += densityWeight
		scores[Mt.Percussive] += densityWeight / 3
	}
}

func scoreTrackNames(scores map[Mt.Category]float64, names []string) {
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, kw := range trackKeywords {
			if strings.Contains(lower, kw.word) {
				scores[kw.category] += trackNameWeight
				break
			}
		}
	}
}
