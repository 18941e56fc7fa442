package drums

// Group is one functional family of GM drum notes
type Group string

const (
	Kicks   Group = "kicks"
	Snares  Group = "snares"
	HiHats  Group = "hiHats"
	Toms    Group = "toms"
	Crashes Group = "crashes"
	Rides   Group = "rides"
	Latin   Group = "latin"
	Misc    Group = "misc"
)

// Groups in classification order
var Groups = []Group{Kicks, Snares, HiHats, Toms, Crashes, Rides, Latin, Misc}

var groupNotes = map[Group][]int{
	Kicks:   {35, 36},
	Snares:  {37, 38, 40},
	HiHats:  {42, 44, 46},
	Toms:    {41, 43, 45, 47, 48, 50},
	Crashes: {49, 55, 57},
	Rides:   {51, 53, 59},
	Latin:   {60, 61, 62, 63, 64, 65, 66, 67, 68},
	Misc:    {39, 52, 54, 56, 58, 69, 70, 71, 72, 73, 74, 75, 76, 77, 78, 79, 80, 81},
}

// noteGroup is the reverse of groupNotes
var noteGroup = func() map[int]Group {
	m := make(map[int]Group)
	for g, notes := range groupNotes {
		for _, n := range notes {
			m[n] = g
		}
	}
	return m
}()

// GroupOf returns the group of a drum note, "" outside the GM key map
func GroupOf(note int) Group {
	return noteGroup[note]
}

// substitutes lists preferred replacements, best first
var substitutes = map[int][]int{
	35: {36, 41, 43, 64},
	36: {35, 41, 43, 64},

	38: {40, 37, 39, 54, 70},
	40: {38, 37, 39, 54, 70},
	37: {38, 40, 39, 54},

	42: {44, 46, 54, 70, 53, 75},
	44: {42, 46, 54, 70, 75},
	46: {42, 44, 54, 70},

	41: {43, 45, 64, 62},
	43: {41, 45, 47, 64},
	45: {43, 47, 41, 62},
	47: {45, 48, 43, 62},
	48: {47, 50, 45, 60},
	50: {48, 47, 45, 60},

	49: {57, 55, 52, 46, 51},
	57: {49, 55, 52, 46, 51},
	55: {49, 57, 52, 46},

	51: {59, 53, 42, 49},
	59: {51, 53, 42, 49},
	53: {51, 59, 42},

	39: {37, 38, 40, 54},
	54: {70, 42, 46, 39},
	70: {54, 42, 46, 75},
	56: {53, 75, 76},
	75: {76, 77, 70, 54},

	60: {61, 48, 50, 62},
	61: {60, 47, 48, 62},
	62: {63, 64, 60, 61},
	63: {62, 64, 60, 61},
	64: {62, 63, 41, 43},
	65: {66, 48, 50, 62},
	66: {65, 47, 48, 64},
	67: {68, 76, 77},
	68: {67, 76, 77},
}

// Substitutes returns the preference list for a note, nil when it has none
func Substitutes(note int) []int {
	return substitutes[note]
}

// priorities run from 100 (kick, snare) down to 5 (auxiliary percussion)
var priorities = map[int]int{
	35: 100, 36: 100, 38: 100, 40: 100,
	42: 90,
	49: 70,

	46: 60,
	41: 50, 45: 50, 48: 50, 50: 50,
	51: 40,

	43: 30, 47: 30,
	37: 25, 44: 25,
	39: 20, 57: 20, 55: 20, 59: 20,
	53: 15, 52: 15, 54: 15, 56: 15,
	70: 10,
	60: 10, 61: 10, 62: 10, 63: 10, 64: 10, 65: 10, 66: 10, 67: 10, 68: 10,

	69: 5, 71: 5, 72: 5, 73: 5, 74: 5, 75: 5, 76: 5, 77: 5, 78: 5, 79: 5, 80: 5, 81: 5,
}

// Priority returns the static weight of a note, 0 when it has none
func Priority(note int) int {
	return priorities[note]
}
