package types

/*

	These are the "immutable" core types of midiassign,
	provided for cross-package use (e.g. Plugins) and testing.

	There are no functions defined here beyond event accessors.
	Constructors and behaviour are housed in their own packages.
	Values produced by one stage are never mutated by a later stage,
	a stage that needs a different value makes a copy.

*/

import "time"

// Category is the estimated role of a channel or an instrument
type Category string

const (
	Drums      Category = "drums"
	Percussive Category = "percussive"
	Bass       Category = "bass"
	Melody     Category = "melody"
	Harmony    Category = "harmony"
	Unknown    Category = "unknown"
)

// Categories is the fixed scoring order, also used to break ties
var Categories = []Category{Drums, Percussive, Bass, Melody, Harmony}

// SelectionMode says how an instrument picks its notes
type SelectionMode string

const (
	ModeRange      SelectionMode = "range"
	ModeContinuous SelectionMode = "continuous" // accepted alias of ModeRange
	ModeDiscrete   SelectionMode = "discrete"
)

// DefaultPolyphony is used when an instrument does not declare one
const DefaultPolyphony = 16

// DrumChannel is MIDI channel 10, zero-indexed
const DrumChannel = 9

// InstrumentCapability is what an instrument declares it can play.
// Nil pointers mean the value was not supplied.
type InstrumentCapability struct {
	DeviceID          string        `json:"device_id" validate:"required"`
	ID                string        `json:"id" validate:"required"`
	Name              string        `json:"name"`
	CustomName        string        `json:"custom_name,omitempty"`
	GMProgram         *int          `json:"gm_program,omitempty" validate:"omitempty,min=0,max=127"`
	NoteRangeMin      *int          `json:"note_range_min,omitempty" validate:"omitempty,min=0,max=127"`
	NoteRangeMax      *int          `json:"note_range_max,omitempty" validate:"omitempty,min=0,max=127"`
	NoteSelectionMode SelectionMode `json:"note_selection_mode,omitempty" validate:"omitempty,oneof=range continuous discrete"`
	SelectedNotes     []int         `json:"selected_notes,omitempty" validate:"omitempty,dive,min=0,max=127"`
	SupportedCCs      []int         `json:"supported_ccs,omitempty" validate:"omitempty,dive,min=0,max=127"`
	Polyphony         int           `json:"polyphony,omitempty" validate:"omitempty,min=1,max=256"`
	SyncDelay         int           `json:"sync_delay,omitempty" validate:"omitempty,min=0"`
}

// InstrumentSummary is the part of a capability echoed back in suggestions
type InstrumentSummary struct {
	ID                string        `json:"id"`
	DeviceID          string        `json:"device_id"`
	Name              string        `json:"name"`
	CustomName        string        `json:"custom_name,omitempty"`
	GMProgram         *int          `json:"gm_program,omitempty"`
	NoteRangeMin      *int          `json:"note_range_min,omitempty"`
	NoteRangeMax      *int          `json:"note_range_max,omitempty"`
	NoteSelectionMode SelectionMode `json:"note_selection_mode,omitempty"`
	Polyphony         int           `json:"polyphony"`
	SyncDelay         int           `json:"sync_delay"`
}

// NoteRange is an inclusive span of MIDI notes
type NoteRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Polyphony is the concurrent note count of a channel
type Polyphony struct {
	Max int     `json:"max"`
	Avg float64 `json:"avg"`
}

// ChannelAnalysis holds the features extracted from one channel
type ChannelAnalysis struct {
	Channel        int                  `json:"channel"`
	NoteRange      NoteRange            `json:"noteRange"`
	NoteHistogram  map[int]int          `json:"noteDistribution"`
	TotalNotes     int                  `json:"totalNotes"`
	Polyphony      Polyphony            `json:"polyphony"`
	UsedCCs        []int                `json:"usedCCs"`
	UsesPitchBend  bool                 `json:"usesPitchBend"`
	Programs       []int                `json:"programs"`
	PrimaryProgram *int                 `json:"primaryProgram"`
	TrackNames     []string             `json:"trackNames"`
	Density        float64              `json:"density"` // notes per second
	EstimatedType  Category             `json:"estimatedType"`
	TypeConfidence int                  `json:"typeConfidence"`
	TypeScores     map[Category]float64 `json:"typeScores"`
}

// Severity of a compatibility Issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

type Issue struct {
	Severity Severity `json:"type"`
	Message  string   `json:"message"`
}

// Transposition is always a whole number of octaves
type Transposition struct {
	Semitones int `json:"semitones"`
	Octaves   int `json:"octaves"`
}

// CompatibilityScore is the result of matching one channel against one instrument
type CompatibilityScore struct {
	Score         int            `json:"score"`
	Compatible    bool           `json:"compatible"`
	Transposition *Transposition `json:"transposition"`
	NoteRemapping map[int]int    `json:"noteRemapping"`
	Issues        []Issue        `json:"issues"`
	Info          []string       `json:"info"`
}

// Substitution records a drum note played by a different instrument note
type Substitution struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Reason string `json:"type"`
}

// Omission records a used drum note left without a target
type Omission struct {
	Note  int    `json:"note"`
	Count int    `json:"count"`
	Name  string `json:"name"`
}

// MappingQuality scores a drum mapping from 0 to 100.
// Coverage and ExactMatch are ratios between 0 and 1.
type MappingQuality struct {
	Score         int     `json:"score"`
	Essential     int     `json:"essentialScore"`
	Important     int     `json:"importantScore"`
	Optional      int     `json:"optionalScore"`
	Coverage      float64 `json:"coverageRatio"`
	ExactMatch    float64 `json:"accuracyRatio"`
	Mapped        int     `json:"mappedCount"`
	Total         int     `json:"totalCount"`
	Substitutions int     `json:"substitutionCount"`
	Omissions     int     `json:"omissionCount"`
}

type DrumMappingResult struct {
	Mapping       map[int]int    `json:"mapping"`
	Substitutions []Substitution `json:"substitutions"`
	Omissions     []Omission     `json:"omissions"`
	Quality       MappingQuality `json:"quality"`
}

// AnalysisSnapshot is the part of a ChannelAnalysis kept with an Assignment
type AnalysisSnapshot struct {
	NoteRange      NoteRange `json:"noteRange"`
	Polyphony      Polyphony `json:"polyphony"`
	EstimatedType  Category  `json:"estimatedType"`
	PrimaryProgram *int      `json:"primaryProgram"`
}

// Assignment is the instrument chosen for one channel
type Assignment struct {
	DeviceID       string           `json:"deviceId"`
	InstrumentID   string           `json:"instrumentId"`
	InstrumentName string           `json:"instrumentName"`
	CustomName     string           `json:"customName,omitempty"`
	Score          int              `json:"score"`
	Transposition  *Transposition   `json:"transposition"`
	NoteRemapping  map[int]int      `json:"noteRemapping"`
	Issues         []Issue          `json:"issues"`
	Info           []string         `json:"info"`
	Channel        AnalysisSnapshot `json:"channelAnalysis"`
}

// AssignmentSet is the conflict-resolved selection across channels
type AssignmentSet struct {
	Assignments map[int]Assignment `json:"assignments"`
	Confidence  int                `json:"confidence"`
}

type Suggestion struct {
	Instrument    InstrumentSummary  `json:"instrument"`
	Compatibility CompatibilityScore `json:"compatibility"`
}

type SuggestionStats struct {
	ChannelCount       int `json:"channelCount"`
	InstrumentCount    int `json:"instrumentCount"`
	AssignedChannels   int `json:"assignedChannels"`
	SkippedInstruments int `json:"skippedInstruments"`
}

// SuggestionResult carries a soft failure in Success and Reason
type SuggestionResult struct {
	Success         bool                 `json:"success"`
	Reason          string               `json:"error,omitempty"`
	Suggestions     map[int][]Suggestion `json:"suggestions"`
	AutoSelection   map[int]Assignment   `json:"autoSelection"`
	ChannelAnalyses []ChannelAnalysis    `json:"channelAnalyses"`
	ConfidenceScore int                  `json:"confidenceScore"`
	Stats           SuggestionStats      `json:"stats"`
}

// ChannelTransposition is what gets applied to one channel
type ChannelTransposition struct {
	Semitones     int         `json:"semitones"`
	NoteRemapping map[int]int `json:"noteRemapping,omitempty"`
}

type TransposeStats struct {
	NotesChanged  int `json:"notesChanged"`
	NotesRemapped int `json:"notesRemapped"`
	TotalNotes    int `json:"totalNotes"`
}

// TranspositionRecord is the persisted form of one channel's change
type TranspositionRecord struct {
	Semitones     int         `json:"semitones"`
	Octaves       int         `json:"octaves"`
	NoteRemapping map[int]int `json:"noteRemapping"`
	Reason        string      `json:"reason"`
}

// AdaptationMetadata describes how an adapted document was produced
type AdaptationMetadata struct {
	ID             string                      `json:"id,omitempty"`
	DocumentID     string                      `json:"documentId,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
	Strategy       string                      `json:"strategy"`
	Transpositions map[int]TranspositionRecord `json:"transpositions"`
	NotesChanged   int                         `json:"notes_changed"`
	NotesRemapped  int                         `json:"notes_remapped"`
	TotalNotes     int                         `json:"total_notes"`
}
