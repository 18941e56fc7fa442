package drums

import (
	"fmt"
	"math"
	"sort"

	Mg "github.com/maroda/midiassign/gm"
	Mt "github.com/maroda/midiassign/types"
)

// Quality weights, summing to 100
const (
	essentialWeight = 40.0
	importantWeight = 30.0
	optionalWeight  = 15.0
	coverageWeight  = 10.0
	exactWeight     = 5.0
)

// Quality scores how well a mapping keeps the musical role of each note
func Quality(midi Classified, r Mt.DrumMappingResult) Mt.MappingQuality {
	q := Mt.MappingQuality{
		Essential:     essentialScore(midi, r.Mapping),
		Important:     importantScore(midi, r.Mapping),
		Optional:      optionalScore(midi, r.Mapping),
		Mapped:        len(r.Mapping),
		Total:         len(midi.Used),
		Substitutions: len(r.Substitutions),
		Omissions:     len(r.Omissions),
	}

	q.Coverage = 1
	if q.Total > 0 {
		q.Coverage = float64(q.Mapped) / float64(q.Total)
	}

	exact := 0
	for from, to := range r.Mapping {
		if from == to {
			exact++
		}
	}
	if q.Mapped > 0 {
		q.ExactMatch = float64(exact) / float64(q.Mapped)
	}

	score := float64(q.Essential)/100*essentialWeight +
		float64(q.Important)/100*importantWeight +
		float64(q.Optional)/100*optionalWeight +
		q.Coverage*coverageWeight +
		q.ExactMatch*exactWeight
	q.Score = round(score)
	return q
}

// roleScore gives full points when some note of the group still lands in
// the group, partial points when it only lands somewhere.
func roleScore(notes []int, g Group, mapping map[int]int, full, partial int) int {
	anyMapped := false
	for _, n := range notes {
		to, ok := mapping[n]
		if !ok {
			continue
		}
		if GroupOf(to) == g {
			return full
		}
		anyMapped = true
	}
	if anyMapped {
		return partial
	}
	return 0
}

func mappedShare(notes []int, mapping map[int]int, points int) int {
	n := 0
	for _, note := range notes {
		if _, ok := mapping[note]; ok {
			n++
		}
	}
	return round(float64(points) * float64(n) / float64(len(notes)))
}

func percent(score, total int) int {
	if total == 0 {
		return 100
	}
	return round(float64(score) / float64(total) * 100)
}

func essentialScore(midi Classified, mapping map[int]int) int {
	score, total := 0, 0
	for _, g := range []Group{Kicks, Snares, HiHats, Crashes} {
		if notes := midi.Groups[g]; len(notes) > 0 {
			total += 25
			score += roleScore(notes, g, mapping, 25, 15)
		}
	}
	return percent(score, total)
}

func importantScore(midi Classified, mapping map[int]int) int {
	score, total := 0, 0

	if midi.Has(46) {
		total += 30
		if to, ok := mapping[46]; ok {
			if to == 46 {
				score += 30
			} else {
				score += 20
			}
		}
	}

	if toms := midi.Groups[Toms]; len(toms) > 0 {
		total += 40
		score += mappedShare(toms, mapping, 40)
	}

	if rides := midi.Groups[Rides]; len(rides) > 0 {
		total += 30
		score += roleScore(rides, Rides, mapping, 30, 20)
	}

	return percent(score, total)
}

func optionalScore(midi Classified, mapping map[int]int) int {
	score, total := 0, 0
	for _, g := range []Group{Latin, Misc} {
		if notes := midi.Groups[g]; len(notes) > 0 {
			total += 50
			score += mappedShare(notes, mapping, 50)
		}
	}
	return percent(score, total)
}

// ReportSummary counts the outcome of a mapping
type ReportSummary struct {
	TotalMapped   int `json:"totalMapped"`
	Substitutions int `json:"substitutions"`
	Omissions     int `json:"omissions"`
	QualityScore  int `json:"qualityScore"`
}

// ReportDetails are display lines, ordered by source note
type ReportDetails struct {
	Exact       []string `json:"exactMappings"`
	Substituted []string `json:"substitutionMappings"`
	Omitted     []string `json:"omittedNotes"`
}

type MappingReport struct {
	Summary ReportSummary `json:"summary"`
	Details ReportDetails `json:"details"`
}

// Report renders a mapping result for people
func Report(r Mt.DrumMappingResult) MappingReport {
	rep := MappingReport{
		Summary: ReportSummary{
			TotalMapped:   len(r.Mapping),
			Substitutions: len(r.Substitutions),
			Omissions:     len(r.Omissions),
			QualityScore:  r.Quality.Score,
		},
		Details: ReportDetails{
			Exact:       []string{},
			Substituted: []string{},
			Omitted:     []string{},
		},
	}

	sources := make([]int, 0, len(r.Mapping))
	for from := range r.Mapping {
		sources = append(sources, from)
	}
	sort.Ints(sources)

	for _, from := range sources {
		to := r.Mapping[from]
		if from == to {
			rep.Details.Exact = append(rep.Details.Exact, fmt.Sprintf("%s (%d)", Mg.DrumName(from), from))
			continue
		}
		rep.Details.Substituted = append(rep.Details.Substituted,
			fmt.Sprintf("%s (%d) → %s (%d)", Mg.DrumName(from), from, Mg.DrumName(to), to))
	}

	for _, o := range r.Omissions {
		rep.Details.Omitted = append(rep.Details.Omitted, fmt.Sprintf("%s (%d) - used %d times", o.Name, o.Note, o.Count))
	}
	return rep
}

func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
