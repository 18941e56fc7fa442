package codec

import (
	"sort"

	Mt "github.com/maroda/midiassign/types"
)

// DefaultBPM applies until the first tempo event
const DefaultBPM = 120.0

type tempoChange struct {
	tick uint64
	bpm  float64
}

// Duration is the length in seconds of the longest track, following every
// tempo change in the document
func Duration(doc *Mt.Document) float64 {
	if doc == nil || doc.Header.TicksPerBeat == 0 {
		return 0
	}

	var changes []tempoChange
	var end uint64
	for _, track := range doc.Tracks {
		var tick uint64
		for _, ev := range track.Events {
			tick += uint64(ev.DeltaTicks())
			if m, ok := ev.(Mt.MetaEvent); ok && m.Kind == Mt.MetaTempo && m.BPM > 0 {
				changes = append(changes, tempoChange{tick: tick, bpm: m.BPM})
			}
		}
		end = max(end, tick)
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].tick < changes[j].tick })

	ppq := float64(doc.Header.TicksPerBeat)
	seconds := 0.0
	last, bpm := uint64(0), DefaultBPM
	for _, c := range changes {
		if c.tick >= end {
			break
		}
		seconds += float64(c.tick-last) / ppq * 60 / bpm
		last, bpm = c.tick, c.bpm
	}
	seconds += float64(end-last) / ppq * 60 / bpm
	return seconds
}
