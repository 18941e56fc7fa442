package drums

/*

	The drum mapper moves the notes of a GM drum part onto the pads an
	instrument actually has. It works in four passes of falling priority:
	essential (kick, snare, closed hat, crash), important (open hat,
	toms, ride), optional (latin, misc), then whatever is left.

	Pads taken by a pass are marked used so later passes look elsewhere,
	unless sharing is allowed.

*/

import (
	"log/slog"
	"slices"
	"sort"

	Mg "github.com/maroda/midiassign/gm"
	Mm "github.com/maroda/midiassign/matcher"
	Mt "github.com/maroda/midiassign/types"
)

// Options tune how far the mapper may stray from the original notes
type Options struct {
	AllowSubstitution  bool `json:"allowSubstitution"`
	AllowSharing       bool `json:"allowSharing"`
	AllowOmission      bool `json:"allowOmission"`
	PreserveEssentials bool `json:"preserveEssentials"`
}

// DefaultOptions allow everything
func DefaultOptions() Options {
	return Options{
		AllowSubstitution:  true,
		AllowSharing:       true,
		AllowOmission:      true,
		PreserveEssentials: true,
	}
}

type mapper struct {
	midi Classified
	kit  Kit
	opts Options

	mapping   map[int]int
	used      map[int]bool
	subs      []Mt.Substitution
	omissions []Mt.Omission
}

// GenerateMapping maps the classified drum notes onto instrumentNotes
func GenerateMapping(midi Classified, instrumentNotes []int, opts Options) Mt.DrumMappingResult {
	m := &mapper{
		midi:      midi,
		kit:       AnalyzeInstrument(instrumentNotes),
		opts:      opts,
		mapping:   make(map[int]int),
		used:      make(map[int]bool),
		subs:      []Mt.Substitution{},
		omissions: []Mt.Omission{},
	}

	m.essential()
	m.important()
	m.optional()
	m.remaining()

	result := Mt.DrumMappingResult{
		Mapping:       m.mapping,
		Substitutions: m.subs,
		Omissions:     m.omissions,
	}
	result.Quality = Quality(midi, result)

	slog.Debug("drum mapping complete",
		slog.Int("mapped", result.Quality.Mapped),
		slog.Int("total", result.Quality.Total),
		slog.Int("quality", result.Quality.Score))

	return result
}

// MapChannel classifies a channel histogram and maps it in one step
func MapChannel(a Mt.ChannelAnalysis, instrumentNotes []int, opts Options) Mt.DrumMappingResult {
	return GenerateMapping(Classify(a.NoteHistogram), instrumentNotes, opts)
}

func (m *mapper) assign(from, to int, reason string) {
	m.mapping[from] = to
	if from != to && reason != "" {
		m.subs = append(m.subs, Mt.Substitution{From: from, To: to, Reason: reason})
	}
}

func (m *mapper) mapped(note int) (int, bool) {
	to, ok := m.mapping[note]
	return to, ok
}

// fallbacks gates the hand-picked stand-ins for missing essential pads
func (m *mapper) fallbacks() bool {
	return m.opts.AllowSubstitution || m.opts.PreserveEssentials
}

// firstFree returns the first kit note among candidates, in kit order
func (m *mapper) firstFree(candidates ...int) (int, bool) {
	for _, n := range m.kit.Notes {
		if slices.Contains(candidates, n) && !m.used[n] {
			return n, true
		}
	}
	return 0, false
}

func (m *mapper) essential() {
	groups := m.midi.Groups

	if len(groups[Kicks]) > 0 {
		reason := "kick consolidation"
		target, ok := m.kit.first(36, 35)
		if !ok && m.fallbacks() {
			target, ok = m.firstFree(41, 43, 45)
			reason = "kick to low tom"
		}
		if ok {
			for _, kick := range groups[Kicks] {
				m.assign(kick, target, reason)
			}
			m.used[target] = true
		}
	}

	if len(groups[Snares]) > 0 {
		reason := "snare substitution"
		target, ok := m.kit.first(38, 40, 37)
		if !ok && m.fallbacks() {
			target, ok = m.kit.first(39)
			reason = "snare to hand clap"
		}
		if ok {
			for _, snare := range []int{38, 40} {
				if m.midi.Has(snare) {
					m.assign(snare, target, reason)
				}
			}
			if m.midi.Has(37) {
				if m.kit.Has(37) && !m.used[37] {
					m.assign(37, 37, "")
					m.used[37] = true
				} else {
					m.assign(37, target, "rim to snare")
				}
			}
			m.used[target] = true
		}
	}

	if len(groups[HiHats]) > 0 {
		reason := "hi-hat substitution"
		target, ok := m.kit.first(42, 44)
		if !ok && m.fallbacks() {
			target, ok = m.firstFree(54, 70, 75)
			reason = "hi-hat to " + Mg.DrumName(target)
		}
		if ok {
			// an open hat alone waits for the important pass
			taken := false
			for _, hat := range []int{42, 44} {
				if m.midi.Has(hat) {
					m.assign(hat, target, reason)
					taken = true
				}
			}
			if taken {
				m.used[target] = true
			}
		}
	}

	if len(groups[Crashes]) > 0 {
		reason := "crash substitution"
		target, ok := m.kit.first(49, 57)
		if !ok && m.fallbacks() {
			target, ok = m.firstFree(51, 55, 52)
			reason = "crash to " + Mg.DrumName(target)
		}
		if ok {
			for _, crash := range groups[Crashes] {
				m.assign(crash, target, reason)
			}
			m.used[target] = true
		}
	}
}

func (m *mapper) important() {
	groups := m.midi.Groups

	if m.midi.Has(46) {
		if _, done := m.mapped(46); !done {
			if m.kit.Has(46) && !m.used[46] {
				m.assign(46, 46, "")
				m.used[46] = true
			} else if closed, ok := m.mapped(42); ok && m.opts.AllowSharing {
				m.assign(46, closed, "open hi-hat shares closed hi-hat")
			}
		}
	}

	if midiToms := sortedCopy(groups[Toms]); len(midiToms) > 0 {
		var free []int
		for _, t := range m.kit.Groups[Toms] {
			if !m.used[t] {
				free = append(free, t)
			}
		}

		switch {
		case len(free) >= len(midiToms):
			for i, tom := range midiToms {
				m.assign(tom, free[i], "tom substitution")
				m.used[free[i]] = true
			}
		case len(free) > 0:
			size := (len(midiToms) + len(free) - 1) / len(free)
			for i, tom := range midiToms {
				m.assign(tom, free[min(i/size, len(free)-1)], "tom grouping")
			}
			for _, t := range free {
				m.used[t] = true
			}
		case m.opts.AllowSubstitution:
			var latin []int
			for _, l := range m.kit.Groups[Latin] {
				if !m.used[l] {
					latin = append(latin, l)
				}
			}
			if len(latin) > 0 {
				for i, tom := range midiToms {
					m.assign(tom, latin[min(i, len(latin)-1)], "tom to latin percussion")
				}
			}
		}
	}

	if len(groups[Rides]) > 0 {
		reason := "ride substitution"
		target, ok := m.firstFreeOrdered(51, 59, 53)
		if !ok && m.opts.AllowSharing {
			target, ok = m.mapped(49)
			reason = "ride shares crash"
		}
		if ok {
			for _, ride := range groups[Rides] {
				m.assign(ride, target, reason)
			}
			m.used[target] = true
		}
	}
}

// firstFreeOrdered returns the first unused kit note, in candidate order
func (m *mapper) firstFreeOrdered(candidates ...int) (int, bool) {
	for _, c := range candidates {
		if m.kit.Has(c) && !m.used[c] {
			return c, true
		}
	}
	return 0, false
}

func (m *mapper) optional() {
	groups := m.midi.Groups

	if len(groups[Latin]) > 0 && m.opts.AllowSubstitution {
		var free []int
		for _, l := range m.kit.Groups[Latin] {
			if !m.used[l] {
				free = append(free, l)
			}
		}

		if len(free) > 0 {
			for _, note := range groups[Latin] {
				m.assign(note, Mm.ClosestNote(note, free), "latin substitution")
			}
			for _, l := range free {
				m.used[l] = true
			}
		} else {
			var toms []int
			for _, t := range m.kit.Groups[Toms] {
				if !m.used[t] {
					toms = append(toms, t)
				}
			}
			if len(toms) > 0 {
				for _, note := range groups[Latin] {
					m.assign(note, Mm.ClosestNote(note, toms), "latin to tom")
				}
			}
		}
	}

	for _, note := range groups[Misc] {
		if _, done := m.mapped(note); done {
			continue
		}

		switch note {
		case 39:
			if m.kit.Has(39) && !m.used[39] {
				m.assign(39, 39, "")
				m.used[39] = true
				continue
			}
			for _, snare := range []int{37, 38, 40} {
				if to, ok := m.mapped(snare); ok {
					m.assign(39, to, "clap to snare")
					break
				}
			}
		case 54, 70:
			if to, ok := m.firstFree(54, 70); ok {
				m.assign(note, to, "shaker substitution")
				continue
			}
			for _, hat := range []int{42, 46} {
				if to, ok := m.mapped(hat); ok {
					m.assign(note, to, "shaker to hi-hat")
					break
				}
			}
		case 56:
			if m.kit.Has(56) && !m.used[56] {
				m.assign(56, 56, "")
				m.used[56] = true
			}
		}
	}
}

func (m *mapper) remaining() {
	pending := slices.Clone(m.midi.Used)
	sort.SliceStable(pending, func(i, j int) bool {
		pi, pj := Priority(pending[i].Note), Priority(pending[j].Note)
		if pi != pj {
			return pi > pj
		}
		if pending[i].Count != pending[j].Count {
			return pending[i].Count > pending[j].Count
		}
		return pending[i].Note < pending[j].Note
	})

	for _, nc := range pending {
		if _, done := m.mapped(nc.Note); done {
			continue
		}
		if m.opts.AllowSubstitution && m.substitute(nc.Note) {
			continue
		}
		if m.opts.AllowSubstitution && m.opts.AllowSharing && len(m.kit.Notes) > 0 {
			m.assign(nc.Note, Mm.ClosestNote(nc.Note, m.kit.Notes), "note sharing")
			continue
		}
		if m.opts.AllowOmission {
			m.omissions = append(m.omissions, Mt.Omission{
				Note:  nc.Note,
				Count: nc.Count,
				Name:  Mg.DrumName(nc.Note),
			})
		}
	}
}

// substitute tries the preference table, then the nearest free pad
func (m *mapper) substitute(note int) bool {
	for _, s := range Substitutes(note) {
		if m.kit.Has(s) && !m.used[s] {
			m.assign(note, s, "table substitution")
			m.used[s] = true
			return true
		}
	}

	var free []int
	for _, n := range m.kit.Notes {
		if !m.used[n] {
			free = append(free, n)
		}
	}
	if len(free) == 0 {
		return false
	}

	to := Mm.ClosestNote(note, free)
	m.assign(note, to, "closest match")
	m.used[to] = true
	return true
}

func sortedCopy(notes []int) []int {
	out := slices.Clone(notes)
	slices.Sort(out)
	return out
}
