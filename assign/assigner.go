package assign

/*

	The assigner ranks every instrument for every active channel, keeps
	the best few per channel, then hands out instruments greedily: the
	drum channel first, then channels with the strongest best match.
	It is a heuristic, not an optimal matching.

*/

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	Ma "github.com/maroda/midiassign/analyze"
	Mdr "github.com/maroda/midiassign/drums"
	Mm "github.com/maroda/midiassign/matcher"
	Mt "github.com/maroda/midiassign/types"
)

// Soft failure reasons
const (
	ReasonNoInstruments = "No instruments available"
	ReasonNoChannels    = "No active channels found"
)

type Options struct {
	TopN     int
	MinScore int

	// DrumRemap replaces the nearest-note remapping of the drum channel
	// with the drum mapper's result
	DrumRemap   bool
	DrumOptions Mdr.Options
}

func DefaultOptions() Options {
	return Options{
		TopN:        5,
		MinScore:    30,
		DrumOptions: Mdr.DefaultOptions(),
	}
}

type candidate struct {
	capability Mt.InstrumentCapability
	suggestion Mt.Suggestion
}

// GenerateSuggestions scores every instrument against every active channel
// and picks one instrument per channel. Missing instruments or channels are
// reported in the result, never as an error.
func GenerateSuggestions(doc *Mt.Document, instruments []Mt.InstrumentCapability, opts Options) Mt.SuggestionResult {
	result := Mt.SuggestionResult{
		Suggestions:     map[int][]Mt.Suggestion{},
		AutoSelection:   map[int]Mt.Assignment{},
		ChannelAnalyses: []Mt.ChannelAnalysis{},
	}

	if len(instruments) == 0 {
		slog.Warn("no instruments available for auto-assignment")
		result.Reason = ReasonNoInstruments
		return result
	}

	analyses := Ma.AnalyzeAll(doc)
	if len(analyses) == 0 {
		slog.Warn("no active channels found in document")
		result.Reason = ReasonNoChannels
		return result
	}

	usable := make([]Mt.InstrumentCapability, 0, len(instruments))
	for _, c := range instruments {
		if err := Mm.Check(c); err != nil {
			slog.Warn("skipping instrument", slog.Any("error", err))
			result.Stats.SkippedInstruments++
			continue
		}
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		slog.Warn("no usable instruments for auto-assignment",
			slog.Int("skipped", result.Stats.SkippedInstruments))
		result.Reason = ReasonNoInstruments
		result.Stats.InstrumentCount = len(instruments)
		return result
	}

	slog.Info("generating suggestions",
		slog.Int("channels", len(analyses)),
		slog.Int("instruments", len(usable)))

	for _, a := range analyses {
		result.Suggestions[a.Channel] = rank(a, usable, opts)
	}

	result.Success = true
	result.ChannelAnalyses = analyses
	result.AutoSelection = SelectBestAssignments(result.Suggestions, analyses)
	result.ConfidenceScore = Confidence(result.AutoSelection)
	result.Stats.ChannelCount = len(analyses)
	result.Stats.InstrumentCount = len(instruments)
	result.Stats.AssignedChannels = len(result.AutoSelection)
	return result
}

// rank keeps the top scoring instruments at or above the minimum score,
// best first, ties in catalog order
func rank(a Mt.ChannelAnalysis, instruments []Mt.InstrumentCapability, opts Options) []Mt.Suggestion {
	var candidates []candidate
	for _, c := range instruments {
		score, err := Mm.CalculateCompatibility(a, c)
		if err != nil {
			continue
		}
		if opts.DrumRemap {
			score = remapDrums(a, c, score, opts.DrumOptions)
		}
		if score.Score < opts.MinScore {
			continue
		}
		candidates = append(candidates, candidate{
			capability: c,
			suggestion: Mt.Suggestion{Instrument: Mm.Summary(c), Compatibility: score},
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].suggestion.Compatibility.Score > candidates[j].suggestion.Compatibility.Score
	})

	n := min(len(candidates), max(opts.TopN, 0))
	out := make([]Mt.Suggestion, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, c.suggestion)
	}
	return out
}

// remapDrums swaps in the drum mapper for a discrete kit on the drum channel
func remapDrums(a Mt.ChannelAnalysis, c Mt.InstrumentCapability, score Mt.CompatibilityScore, opts Mdr.Options) Mt.CompatibilityScore {
	if a.Channel != Mt.DrumChannel || !Mm.IsDiscrete(c) || len(c.SelectedNotes) == 0 {
		return score
	}

	mapped := Mdr.MapChannel(a, c.SelectedNotes, opts)
	remapping := make(map[int]int)
	for from, to := range mapped.Mapping {
		if from != to {
			remapping[from] = to
		}
	}

	score.NoteRemapping = nil
	if len(remapping) > 0 {
		score.NoteRemapping = remapping
	}
	score.Info = append(score.Info, fmt.Sprintf("Drum mapping quality: %d/100", mapped.Quality.Score))
	for _, o := range mapped.Omissions {
		score.Issues = append(score.Issues, Mt.Issue{
			Severity: Mt.SeverityWarning,
			Message:  fmt.Sprintf("Drum note omitted: %s (%d)", o.Name, o.Note),
		})
	}
	return score
}

// SelectBestAssignments gives each channel its best unused instrument.
// The drum channel goes first, then channels by best score, highest first.
// A channel whose candidates are all taken reuses its top candidate.
func SelectBestAssignments(suggestions map[int][]Mt.Suggestion, analyses []Mt.ChannelAnalysis) map[int]Mt.Assignment {
	byChannel := make(map[int]Mt.ChannelAnalysis, len(analyses))
	for _, a := range analyses {
		byChannel[a.Channel] = a
	}

	channels := make([]int, 0, len(suggestions))
	for ch := range suggestions {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool {
		ci, cj := channels[i], channels[j]
		if (ci == Mt.DrumChannel) != (cj == Mt.DrumChannel) {
			return ci == Mt.DrumChannel
		}
		bi, bj := bestScore(suggestions[ci]), bestScore(suggestions[cj])
		if bi != bj {
			return bi > bj
		}
		return ci < cj
	})

	type key struct{ device, id string }
	used := make(map[key]bool)
	assignments := make(map[int]Mt.Assignment)

	for _, ch := range channels {
		options := suggestions[ch]
		if len(options) == 0 {
			slog.Debug("no compatible instrument for channel", slog.Int("channel", ch))
			continue
		}

		selected := -1
		for i, o := range options {
			k := key{o.Instrument.DeviceID, o.Instrument.ID}
			if !used[k] {
				selected = i
				used[k] = true
				break
			}
		}
		if selected < 0 {
			selected = 0
			slog.Info("reusing instrument, all candidates already assigned",
				slog.Int("channel", ch),
				slog.String("instrument", options[0].Instrument.ID))
		}

		assignments[ch] = newAssignment(options[selected], byChannel[ch])
	}
	return assignments
}

func bestScore(options []Mt.Suggestion) int {
	if len(options) == 0 {
		return 0
	}
	return options[0].Compatibility.Score
}

func newAssignment(s Mt.Suggestion, a Mt.ChannelAnalysis) Mt.Assignment {
	return Mt.Assignment{
		DeviceID:       s.Instrument.DeviceID,
		InstrumentID:   s.Instrument.ID,
		InstrumentName: s.Instrument.Name,
		CustomName:     s.Instrument.CustomName,
		Score:          s.Compatibility.Score,
		Transposition:  s.Compatibility.Transposition,
		NoteRemapping:  s.Compatibility.NoteRemapping,
		Issues:         s.Compatibility.Issues,
		Info:           s.Compatibility.Info,
		Channel: Mt.AnalysisSnapshot{
			NoteRange:      a.NoteRange,
			Polyphony:      a.Polyphony,
			EstimatedType:  a.EstimatedType,
			PrimaryProgram: a.PrimaryProgram,
		},
	}
}

// Confidence is the rounded mean of the assigned scores, 0 when empty
func Confidence(assignments map[int]Mt.Assignment) int {
	if len(assignments) == 0 {
		return 0
	}
	sum := 0
	for _, a := range assignments {
		sum += a.Score
	}
	return int(math.Floor(float64(sum)/float64(len(assignments)) + 0.5))
}

// AnalyzeChannel analyzes a single channel
func AnalyzeChannel(doc *Mt.Document, channel int) Mt.ChannelAnalysis {
	return Ma.AnalyzeChannel(doc, channel)
}

// CalculateCompatibility scores one instrument against one channel of a document
func CalculateCompatibility(doc *Mt.Document, channel int, c Mt.InstrumentCapability) (Mt.CompatibilityScore, error) {
	return Mm.CalculateCompatibility(Ma.AnalyzeChannel(doc, channel), c)
}
