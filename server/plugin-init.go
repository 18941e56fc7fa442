package midiassign

import (
	"errors"
	"log/slog"

	As "github.com/maroda/midiassign/assign"
	Mo "github.com/maroda/midiassign/obvy"
	Mp "github.com/maroda/midiassign/plugin"
)

// InitStore opens the configured store and imports the catalog file, if any
func InitStore(c *Config) (Mp.Store, error) {
	var (
		store *Mp.BadgerStore
		err   error
	)
	if c.Storage.InMemory {
		store, err = Mp.NewMemoryStore()
	} else {
		store, err = Mp.NewBadgerStore(c.Storage.Path)
	}
	if err != nil {
		slog.Error("Failed to open store", slog.Any("error", err))
		return nil, err
	}

	if c.Catalog.File == "" {
		return store, nil
	}

	catalog, err := LoadCatalogFileName(c.Catalog.File)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := store.PutInstruments(catalog); err != nil {
		store.Close()
		return nil, err
	}
	slog.Info("Catalog imported",
		slog.String("file", c.Catalog.File),
		slog.Int("instruments", len(catalog)))

	return store, nil
}

// InitAudition opens the MIDI output, nil when the port is below zero.
// A build without MIDI runs with audition off.
func InitAudition(c MIDIConfig) (Mp.Auditioner, error) {
	if c.Port < 0 {
		slog.Info("MIDI audition disabled")
		return nil, nil
	}

	output, err := Mp.NewMIDIOutput(c.Port, uint8(c.Velocity), c.NoteLength)
	if errors.Is(err, Mp.ErrMIDIDisabled) {
		slog.Warn("MIDI support not compiled in this build")
		return nil, nil
	}
	if err != nil {
		slog.Error("Failed to create adapter",
			slog.Int("port", c.Port),
			slog.Any("error", err))
		return nil, err
	}

	slog.Info("MIDI Adapter Enabled", slog.Int("port", c.Port))
	return output, nil
}

// NewServiceFromConfig wires every plugin the config asks for
func NewServiceFromConfig(c *Config) (*Service, func(), error) {
	store, err := InitStore(c)
	if err != nil {
		return nil, nil, err
	}

	cache, err := Mp.NewAnalysisCache(c.Cache.MaxEntries, c.Cache.TTL)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	audition, err := InitAudition(c.MIDI)
	if err != nil {
		cache.Close()
		store.Close()
		return nil, nil, err
	}

	opts := As.DefaultOptions()
	opts.TopN = c.Assign.TopN
	opts.MinScore = c.Assign.MinScore
	opts.DrumRemap = c.Assign.DrumRemap

	svc := NewService(store, cache, audition, Mo.NewStatsInternal(), opts)

	cleanup := func() {
		if audition != nil {
			audition.Flush()
			audition.Close()
		}
		cache.Close()
		if err := store.Close(); err != nil {
			slog.Error("Failed to close store", slog.Any("error", err))
		}
	}

	return svc, cleanup, nil
}
