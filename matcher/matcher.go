package matcher

/*

	The Matcher scores one channel analysis against one instrument.
	Every sub-score is capped and the total is clamped to 0-100.
	Pure and deterministic: no I/O, no shared state.

*/

import (
	"fmt"
	"math"
	"strings"

	Mg "github.com/maroda/midiassign/gm"
	Mt "github.com/maroda/midiassign/types"
)

// Sub-score ceilings
const (
	ProgramPoints   = 30
	NotePoints      = 25
	PolyPoints      = 15
	CCPoints        = 15
	TypePoints      = 10
	DrumBonusPoints = 5

	sameFamilyPoints  = 20
	octavePenalty     = 3
	adjacentTypePoint = 5
)

// part is one independent sub-score with its messages
type part struct {
	score int
	issue *Mt.Issue
	info  string
}

// adjacent lists the category pairs that earn partial type credit
var adjacent = map[Mt.Category][]Mt.Category{
	Mt.Melody:  {Mt.Harmony, Mt.Bass},
	Mt.Harmony: {Mt.Melody},
	Mt.Bass:    {Mt.Melody},
}

// CalculateCompatibility adds the program, note, polyphony, controller,
// type and drum-channel terms. It only fails on a malformed capability.
func CalculateCompatibility(a Mt.ChannelAnalysis, c Mt.InstrumentCapability) (Mt.CompatibilityScore, error) {
	if err := Check(c); err != nil {
		return Mt.CompatibilityScore{}, err
	}

	result := Mt.CompatibilityScore{
		Issues: []Mt.Issue{},
		Info:   []string{},
	}
	total := 0
	collect := func(p part) {
		total += p.score
		if p.issue != nil {
			result.Issues = append(result.Issues, *p.issue)
		}
		if p.info != "" {
			result.Info = append(result.Info, p.info)
		}
	}

	collect(scoreProgram(a.PrimaryProgram, c.GMProgram))

	notes := scoreNotes(a, c)
	collect(notes.part)
	result.Compatible = notes.compatible
	result.Transposition = notes.transposition
	result.NoteRemapping = notes.remapping

	collect(scorePolyphony(a.Polyphony.Max, polyphonyOf(c)))
	collect(scoreCCs(a.UsedCCs, c.SupportedCCs))
	collect(scoreType(a.EstimatedType, InstrumentType(c)))

	if a.Channel == Mt.DrumChannel && isDrumInstrument(c) {
		collect(part{score: DrumBonusPoints, info: "MIDI channel 10 (drums) match"})
	}

	result.Score = Mg.Clamp(total, 0, 100)
	return result, nil
}

func scoreProgram(channel, instrument *int) part {
	if channel == nil || instrument == nil {
		return part{}
	}

	if *channel == *instrument {
		return part{
			score: ProgramPoints,
			info:  fmt.Sprintf("Perfect program match: %s (%d)", Mg.ProgramName(*channel), *channel),
		}
	}

	family := ProgramCategory(*channel)
	if family != "" && family == ProgramCategory(*instrument) {
		return part{score: sameFamilyPoints, info: fmt.Sprintf("Same GM category: %s", family)}
	}

	return part{}
}

func scorePolyphony(needed, available int) part {
	margin := available - needed
	detail := fmt.Sprintf("(%d available, %d needed)", available, needed)

	switch {
	case margin >= 8:
		return part{score: PolyPoints, info: "Excellent polyphony " + detail}
	case margin >= 4:
		return part{score: 10, info: "Good polyphony " + detail}
	case margin >= 0:
		return part{score: 5, info: "Sufficient polyphony " + detail}
	default:
		return part{issue: &Mt.Issue{Severity: Mt.SeverityWarning, Message: "Insufficient polyphony " + detail}}
	}
}

// scoreCCs treats an empty instrument list as "accepts all"
func scoreCCs(used, supported []int) part {
	if len(used) == 0 {
		return part{score: CCPoints, info: "No CCs used by channel"}
	}
	if len(supported) == 0 {
		return part{score: CCPoints, info: "Instrument supports all CCs"}
	}

	accepted := make(map[int]bool, len(supported))
	for _, cc := range supported {
		accepted[cc] = true
	}

	var missing []string
	for _, cc := range used {
		if !accepted[cc] {
			missing = append(missing, fmt.Sprint(cc))
		}
	}

	ratio := float64(len(used)-len(missing)) / float64(len(used))
	score := round(CCPoints * ratio)

	switch {
	case len(missing) == 0:
		return part{score: score, info: fmt.Sprintf("All %d CCs supported", len(used))}
	case ratio >= 0.5:
		return part{score: score, issue: &Mt.Issue{
			Severity: Mt.SeverityInfo,
			Message:  "Some CCs not supported: " + strings.Join(missing, ", "),
		}}
	default:
		return part{score: score, issue: &Mt.Issue{
			Severity: Mt.SeverityWarning,
			Message:  "Many CCs not supported: " + strings.Join(missing, ", "),
		}}
	}
}

func scoreType(channel, instrument Mt.Category) part {
	if channel == instrument {
		return part{score: TypePoints, info: fmt.Sprintf("Instrument type match: %s", channel)}
	}
	for _, ok := range adjacent[channel] {
		if ok == instrument {
			return part{score: adjacentTypePoint}
		}
	}
	return part{}
}

// ProgramCategory is the GM family name of a program
func ProgramCategory(program int) string {
	return Mg.Family(program)
}

// Classify names a compatibility score band
func Classify(score int) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 75:
		return "good"
	case score >= 60:
		return "acceptable"
	case score >= 40:
		return "poor"
	default:
		return "insufficient"
	}
}

func polyphonyOf(c Mt.InstrumentCapability) int {
	if c.Polyphony <= 0 {
		return Mt.DefaultPolyphony
	}
	return c.Polyphony
}

// round matches half-up rounding of positive and negative halves alike
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
