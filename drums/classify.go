package drums

import (
	"slices"
	"sort"
)

// Drum notes outside this window are ignored
const (
	lowestDrum  = 27
	highestDrum = 87
)

// NoteCount is one used drum note and how often it sounds
type NoteCount struct {
	Note  int `json:"note"`
	Count int `json:"count"`
}

// Classified is the drum usage of one channel
type Classified struct {
	Usage  map[int]int     `json:"usage"`
	Used   []NoteCount     `json:"usedNotes"`
	Groups map[Group][]int `json:"categories"`
}

// Has reports whether a note is played
func (c Classified) Has(note int) bool {
	return c.Usage[note] > 0
}

// Classify counts drum notes from a note histogram and groups them.
// Used is ordered by count, most frequent first, then by note.
func Classify(histogram map[int]int) Classified {
	c := Classified{
		Usage:  make(map[int]int),
		Groups: make(map[Group][]int, len(Groups)),
	}

	for note, count := range histogram {
		if note < lowestDrum || note > highestDrum || count <= 0 {
			continue
		}
		c.Usage[note] = count
		c.Used = append(c.Used, NoteCount{Note: note, Count: count})
	}

	sort.Slice(c.Used, func(i, j int) bool {
		if c.Used[i].Count != c.Used[j].Count {
			return c.Used[i].Count > c.Used[j].Count
		}
		return c.Used[i].Note < c.Used[j].Note
	})

	for _, g := range Groups {
		c.Groups[g] = []int{}
	}
	for _, nc := range c.Used {
		if g := GroupOf(nc.Note); g != "" {
			c.Groups[g] = append(c.Groups[g], nc.Note)
		}
	}
	return c
}

// ClassifyNotes builds a classification from a plain note list, one hit each
func ClassifyNotes(notes []int) Classified {
	histogram := make(map[int]int, len(notes))
	for _, n := range notes {
		histogram[n]++
	}
	return Classify(histogram)
}

// Kit summarizes which drum groups an instrument can play
type Kit struct {
	Notes  []int           `json:"notes"`
	Groups map[Group][]int `json:"groups"`
}

// AnalyzeInstrument sorts the instrument notes into groups, keeping the
// instrument's own order except for toms which are ascending.
func AnalyzeInstrument(notes []int) Kit {
	k := Kit{
		Notes:  notes,
		Groups: make(map[Group][]int, len(Groups)),
	}
	for _, g := range Groups {
		k.Groups[g] = []int{}
	}
	for _, n := range notes {
		if g := GroupOf(n); g != "" {
			k.Groups[g] = append(k.Groups[g], n)
		}
	}
	slices.Sort(k.Groups[Toms])
	return k
}

// Has reports whether the kit can play a note
func (k Kit) Has(note int) bool {
	return slices.Contains(k.Notes, note)
}

// first returns the first kit note among candidates, in candidate order
func (k Kit) first(candidates ...int) (int, bool) {
	for _, c := range candidates {
		if k.Has(c) {
			return c, true
		}
	}
	return 0, false
}
