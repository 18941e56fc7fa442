package analyze

/*

	The Analyzer extracts musical features from each MIDI channel.
	It holds no state, every call works on its own input snapshot.

*/

import (
	"log/slog"
	"sort"

	Mt "github.com/maroda/midiassign/types"
)

// timed is a channel event with its absolute position
type timed struct {
	ticks uint64
	event Mt.ChannelEvent
}

// ActiveChannels lists channels with at least one note-on/off, ascending
func ActiveChannels(doc *Mt.Document) []int {
	if doc == nil {
		return []int{}
	}

	var seen [16]bool
	for _, track := range doc.Tracks {
		for _, ev := range track.Events {
			if ne, ok := ev.(Mt.NoteEvent); ok && ne.Kind != Mt.KeyPressure && ne.Channel < 16 {
				seen[ne.Channel] = true
			}
		}
	}

	channels := make([]int, 0, 16)
	for ch, ok := range seen {
		if ok {
			channels = append(channels, ch)
		}
	}
	return channels
}

// AnalyzeAll returns one analysis per active channel in ascending order
func AnalyzeAll(doc *Mt.Document) []Mt.ChannelAnalysis {
	channels := ActiveChannels(doc)
	analyses := make([]Mt.ChannelAnalysis, 0, len(channels))
	for _, ch := range channels {
		analyses = append(analyses, AnalyzeChannel(doc, ch))
	}

	slog.Debug("Channels analyzed", slog.Int("count", len(analyses)))
	return analyses
}

// AnalyzeChannel extracts the features of a single channel.
// A channel without notes still gets an analysis, with the default range.
func AnalyzeChannel(doc *Mt.Document, channel int) Mt.ChannelAnalysis {
	events := channelEvents(doc, channel)

	var notes []Mt.NoteEvent
	for _, te := range events {
		if ne, ok := te.event.(Mt.NoteEvent); ok && ne.Kind != Mt.KeyPressure {
			notes = append(notes, ne)
		}
	}

	histogram := noteHistogram(notes)
	total := 0
	for _, c := range histogram {
		total += c
	}

	programs := extractPrograms(events)
	analysis := Mt.ChannelAnalysis{
		Channel:        channel,
		NoteRange:      noteRange(notes),
		NoteHistogram:  histogram,
		TotalNotes:     total,
		Polyphony:      polyphony(notes),
		UsedCCs:        usedCCs(events),
		UsesPitchBend:  hasPitchBend(events),
		Programs:       programs,
		PrimaryProgram: primaryProgram(programs),
		TrackNames:     trackNames(doc, channel),
		Density:        density(total, doc),
	}

	estimateCategory(&analysis)
	return analysis
}

// channelEvents gathers the events of one channel ordered by absolute time.
// Events at the same tick keep their track order.
func channelEvents(doc *Mt.Document, channel int) []timed {
	var events []timed
	if doc == nil {
		return events
	}

	for _, track := range doc.Tracks {
		var ticks uint64
		for _, ev := range track.Events {
			ticks += uint64(ev.DeltaTicks())
			ce, ok := ev.(Mt.ChannelEvent)
			if !ok || int(ce.EventChannel()) != channel {
				continue
			}
			events = append(events, timed{ticks: ticks, event: ce})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ticks < events[j].ticks
	})
	return events
}

// noteRange uses sounding note-ons only, {60,60} if there are none
func noteRange(notes []Mt.NoteEvent) Mt.NoteRange {
	lo, hi := 127, 0
	for _, n := range notes {
		if !n.Sounding() {
			continue
		}
		lo = min(lo, int(n.Note))
		hi = max(hi, int(n.Note))
	}
	if lo > hi {
		return Mt.NoteRange{Min: 60, Max: 60}
	}
	return Mt.NoteRange{Min: lo, Max: hi}
}

func noteHistogram(notes []Mt.NoteEvent) map[int]int {
	histogram := make(map[int]int)
	for _, n := range notes {
		if n.Sounding() {
			histogram[int(n.Note)]++
		}
	}
	return histogram
}

// polyphony simulates the set of sounding notes across the stream.
// The average is sampled after every note event that leaves a note sounding.
func polyphony(notes []Mt.NoteEvent) Mt.Polyphony {
	active := make(map[uint8]struct{})
	maxPoly, sum, samples := 0, 0, 0

	for _, n := range notes {
		switch {
		case n.Sounding():
			active[n.Note] = struct{}{}
		case n.Releases():
			delete(active, n.Note)
		}

		if current := len(active); current > 0 {
			maxPoly = max(maxPoly, current)
			sum += current
			samples++
		}
	}

	if samples == 0 {
		return Mt.Polyphony{Max: maxPoly}
	}
	return Mt.Polyphony{Max: maxPoly, Avg: float64(sum) / float64(samples)}
}

func usedCCs(events []timed) []int {
	var seen [128]bool
	for _, te := range events {
		if cc, ok := te.event.(Mt.ControllerEvent); ok && cc.Controller < 128 {
			seen[cc.Controller] = true
		}
	}

	ccs := []int{}
	for n, ok := range seen {
		if ok {
			ccs = append(ccs, n)
		}
	}
	return ccs
}

func hasPitchBend(events []timed) bool {
	for _, te := range events {
		if _, ok := te.event.(Mt.PitchBendEvent); ok {
			return true
		}
	}
	return false
}

func extractPrograms(events []timed) []int {
	programs := []int{}
	for _, te := range events {
		if pc, ok := te.event.(Mt.ProgramEvent); ok {
			programs = append(programs, int(pc.Program))
		}
	}
	return programs
}

// primaryProgram is the most frequent program, ties go to the first seen
func primaryProgram(programs []int) *int {
	if len(programs) == 0 {
		return nil
	}

	counts := make(map[int]int)
	for _, p := range programs {
		counts[p]++
	}

	best := programs[0]
	for _, p := range programs {
		if counts[p] > counts[best] {
			best = p
		}
	}
	return &best
}

// trackNames lists the names of tracks carrying any event of the channel
func trackNames(doc *Mt.Document, channel int) []string {
	names := []string{}
	if doc == nil {
		return names
	}

	for _, track := range doc.Tracks {
		name := track.Name
		carries := false
		for _, ev := range track.Events {
			if ce, ok := ev.(Mt.ChannelEvent); ok && int(ce.EventChannel()) == channel {
				carries = true
			}
			if me, ok := ev.(Mt.MetaEvent); ok && me.Kind == Mt.MetaTrackName && name == "" {
				name = me.Text
			}
		}
		if carries && name != "" {
			names = append(names, name)
		}
	}
	return names
}

func density(total int, doc *Mt.Document) float64 {
	if doc == nil || doc.Header.Duration <= 0 {
		return 0
	}
	return float64(total) / doc.Header.Duration
}

// AverageNote is the count-weighted mean pitch, 60 when empty
func AverageNote(histogram map[int]int) float64 {
	weighted, count := 0, 0
	for note, c := range histogram {
		weighted += note * c
		count += c
	}
	if count == 0 {
		return 60
	}
	return float64(weighted) / float64(count)
}
