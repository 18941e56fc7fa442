package assign

import (
	"fmt"
	"time"

	Mx "github.com/maroda/midiassign/transpose"
	Mt "github.com/maroda/midiassign/types"
)

// Adaptation is an adapted document with the record of how it was made
type Adaptation struct {
	Document *Mt.Document
	Stats    Mt.TransposeStats
	Metadata Mt.AdaptationMetadata
}

// Apply validates and applies the transpositions carried by assignments.
// The input document is left untouched.
func Apply(doc *Mt.Document, assignments map[int]Mt.Assignment, now time.Time) (Adaptation, error) {
	plan := Mx.FromAssignments(assignments)
	if err := Mx.ValidateAll(doc, plan); err != nil {
		return Adaptation{}, fmt.Errorf("cannot apply assignments: %w", err)
	}

	adapted, stats := Mx.TransposeChannels(doc, plan)
	return Adaptation{
		Document: adapted,
		Stats:    stats,
		Metadata: Mx.BuildMetadata(assignments, stats, now),
	}, nil
}
