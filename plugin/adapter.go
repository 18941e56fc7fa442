package plugin

/*

	The Adapter sits aside /midiassign/
	Contains core interfaces for Plugin

	The engine packages never import these. The server wires
	a Store, a Cache and an Auditioner around them.

*/

import (
	"time"

	Mt "github.com/maroda/midiassign/types"
)

// StoredDocument is an uploaded or adapted MIDI document at rest
type StoredDocument struct {
	ID        string
	Name      string
	ParentID  string // set on adapted documents
	CreatedAt time.Time
	Document  *Mt.Document
}

// Store keeps the instrument catalog, documents and adaptation records.
// Lookups of a missing record return ErrNotFound.
type Store interface {
	PutInstrument(c Mt.InstrumentCapability) error
	PutInstruments(caps []Mt.InstrumentCapability) error
	GetInstrument(deviceID, id string) (Mt.InstrumentCapability, error)
	DeleteInstrument(deviceID, id string) error
	ListInstruments() ([]Mt.InstrumentCapability, error) // Ordered by device then id

	PutDocument(doc StoredDocument) (string, error) // Assigns the id if empty
	GetDocument(id string) (StoredDocument, error)

	PutAdaptation(meta Mt.AdaptationMetadata) (string, error)
	ListAdaptations(documentID string) ([]Mt.AdaptationMetadata, error) // Oldest first

	Close() error
	Type() string
}

// Cache holds channel analyses per document
type Cache interface {
	GetAnalyses(documentID string) ([]Mt.ChannelAnalysis, bool)
	SetAnalyses(documentID string, analyses []Mt.ChannelAnalysis) bool
	Invalidate(documentID string)
	Close()
}

// Auditioner plays short notes on a MIDI output so a user can hear
// where an assignment will land
type Auditioner interface {
	Audition(channel uint8, notes []uint8) error
	Flush() error // All notes off
	Close() error
	Type() string
}
