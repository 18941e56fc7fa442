package validate

/*

	Completeness report for instrument capabilities.

	Bounds are checked by the struct tags on InstrumentCapability through
	go-playground/validator. Completeness is a separate question: a
	capability may be well formed but missing what auto-assignment
	needs to score it well.

*/

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	Mt "github.com/maroda/midiassign/types"
)

// Field describes one capability that should be filled in
type Field struct {
	Field       string `json:"field"`
	Label       string `json:"label"`
	Input       string `json:"type"`
	Required    bool   `json:"required"`
	Conditional bool   `json:"conditional,omitempty"`
}

// Report is the validation result of one instrument
type Report struct {
	DeviceID    string            `json:"device_id"`
	ID          string            `json:"id"`
	Valid       bool              `json:"isValid"`
	Complete    bool              `json:"isComplete"`
	Missing     []Field           `json:"missing"`
	Recommended []Field           `json:"recommended"`
	Invalid     map[string]string `json:"invalid,omitempty"` // field -> failed rule
}

// Summary is the validation result of a catalog
type Summary struct {
	Results       []Report `json:"results"`
	Incomplete    []Report `json:"incomplete"`
	AllValid      bool     `json:"allValid"`
	ValidCount    int      `json:"validCount"`
	CompleteCount int      `json:"completeCount"`
	TotalCount    int      `json:"totalCount"`
}

var labels = map[string]Field{
	"gm_program":          {Label: "General MIDI Program", Input: "number"},
	"note_range_min":      {Label: "Lowest Note", Input: "note"},
	"note_range_max":      {Label: "Highest Note", Input: "note"},
	"polyphony":           {Label: "Maximum Polyphony", Input: "number"},
	"note_selection_mode": {Label: "Play Mode", Input: "select"},
	"supported_ccs":       {Label: "Supported Control Changes", Input: "array"},
	"selected_notes":      {Label: "Playable Notes (Discrete Mode)", Input: "note-array"},
}

func field(name string, required, conditional bool) Field {
	f := labels[name]
	f.Field = name
	f.Required = required
	f.Conditional = conditional
	return f
}

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator is shared with the HTTP layer for request bodies.
// Field errors are reported by their JSON names.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// FieldErrors flattens validator errors into field -> rule
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		out[e.Field()] = e.Tag()
	}
	return out
}

// Instrument reports what a capability is missing for auto-assignment
func Instrument(c Mt.InstrumentCapability) Report {
	r := Report{
		DeviceID:    c.DeviceID,
		ID:          c.ID,
		Missing:     []Field{},
		Recommended: []Field{},
	}

	if c.GMProgram == nil {
		r.Missing = append(r.Missing, field("gm_program", true, false))
	}
	if c.NoteRangeMin == nil {
		r.Missing = append(r.Missing, field("note_range_min", true, false))
	}
	if c.NoteRangeMax == nil {
		r.Missing = append(r.Missing, field("note_range_max", true, false))
	}
	if c.Polyphony == 0 {
		r.Missing = append(r.Missing, field("polyphony", true, false))
	}
	if c.NoteSelectionMode == "" {
		r.Missing = append(r.Missing, field("note_selection_mode", true, false))
	}
	if c.NoteSelectionMode == Mt.ModeDiscrete && len(c.SelectedNotes) == 0 {
		r.Missing = append(r.Missing, field("selected_notes", true, true))
	}

	if len(c.SupportedCCs) == 0 {
		r.Recommended = append(r.Recommended, field("supported_ccs", false, false))
	}

	if err := Validator().Struct(c); err != nil {
		r.Invalid = FieldErrors(err)
	}

	r.Valid = len(r.Missing) == 0 && len(r.Invalid) == 0
	r.Complete = r.Valid && len(r.Recommended) == 0
	return r
}

// Instruments reports on a whole catalog
func Instruments(caps []Mt.InstrumentCapability) Summary {
	s := Summary{
		Results:    make([]Report, 0, len(caps)),
		Incomplete: []Report{},
		AllValid:   true,
		TotalCount: len(caps),
	}

	for _, c := range caps {
		r := Instrument(c)
		s.Results = append(s.Results, r)

		if r.Valid {
			s.ValidCount++
		} else {
			s.AllValid = false
		}
		if r.Complete {
			s.CompleteCount++
		} else {
			s.Incomplete = append(s.Incomplete, r)
		}
	}
	return s
}
