package midiassign

/*

	Service is the glue between the engine packages and the plugins.
	Every command of the HTTP and WebSocket surfaces lands here, so
	both transports behave the same.

*/

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	Ma "github.com/maroda/midiassign/analyze"
	As "github.com/maroda/midiassign/assign"
	Mc "github.com/maroda/midiassign/codec"
	Mdr "github.com/maroda/midiassign/drums"
	Mo "github.com/maroda/midiassign/obvy"
	Mp "github.com/maroda/midiassign/plugin"
	Mx "github.com/maroda/midiassign/transpose"
	Mt "github.com/maroda/midiassign/types"
	Mv "github.com/maroda/midiassign/validate"
)

var (
	ErrBadRequest       = errors.New("bad request")
	ErrAuditionDisabled = errors.New("audition output is not configured")
)

type Service struct {
	Store    Mp.Store
	Cache    Mp.Cache      // optional
	Audition Mp.Auditioner // optional
	Stats    *Mo.StatsInternal
	Options  As.Options
	Now      func() time.Time
}

func NewService(store Mp.Store, cache Mp.Cache, audition Mp.Auditioner, stats *Mo.StatsInternal, opts As.Options) *Service {
	if stats == nil {
		stats = Mo.NewStatsInternal()
	}
	return &Service{
		Store:    store,
		Cache:    cache,
		Audition: audition,
		Stats:    stats,
		Options:  opts,
		Now:      time.Now,
	}
}

func badRequest(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, a...))
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Mo.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// DocumentInfo is returned when a document is stored
type DocumentInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	ParentID string    `json:"parentId,omitempty"`
	Header   Mt.Header `json:"header"`
	Channels []int     `json:"channels"`
}

func infoOf(d Mp.StoredDocument) DocumentInfo {
	return DocumentInfo{
		ID:       d.ID,
		Name:     d.Name,
		ParentID: d.ParentID,
		Header:   d.Document.Header,
		Channels: Ma.ActiveChannels(d.Document),
	}
}

// ParseDocument accepts a Standard MIDI File or the JSON wire form
func ParseDocument(data []byte) (*Mt.Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return Mc.UnmarshalJSON(trimmed)
	}
	return Mc.DecodeBytes(data)
}

func (s *Service) ImportDocument(ctx context.Context, name string, data []byte) (DocumentInfo, error) {
	_, span := startSpan(ctx, "ImportDocument", attribute.Int("bytes", len(data)))
	defer span.End()

	doc, err := ParseDocument(data)
	if err != nil {
		span.RecordError(err)
		return DocumentInfo{}, err
	}

	stored := Mp.StoredDocument{Name: name, CreatedAt: s.Now().UTC(), Document: doc}
	id, err := s.Store.PutDocument(stored)
	if err != nil {
		return DocumentInfo{}, err
	}
	stored.ID = id

	slog.Info("Document imported",
		slog.String("id", id),
		slog.String("name", name),
		slog.Int("tracks", len(doc.Tracks)))

	return infoOf(stored), nil
}

func (s *Service) Document(ctx context.Context, id string) (Mp.StoredDocument, error) {
	return s.Store.GetDocument(id)
}

// Analyses returns the analysis of every active channel, through the cache
func (s *Service) Analyses(ctx context.Context, id string) ([]Mt.ChannelAnalysis, error) {
	ctx, span := startSpan(ctx, "Analyses", attribute.String("document", id))
	defer span.End()

	if s.Cache != nil {
		if analyses, ok := s.Cache.GetAnalyses(id); ok {
			s.Stats.RecCache(true)
			return analyses, nil
		}
		s.Stats.RecCache(false)
	}

	stored, err := s.Document(ctx, id)
	if err != nil {
		return nil, err
	}

	analyses := Ma.AnalyzeAll(stored.Document)
	if s.Cache != nil && !s.Cache.SetAnalyses(id, analyses) {
		slog.Debug("Analysis cache refused entry", slog.String("document", id))
	}
	return analyses, nil
}

func (s *Service) Analysis(ctx context.Context, id string, channel int) (Mt.ChannelAnalysis, error) {
	if channel < 0 || channel > 15 {
		return Mt.ChannelAnalysis{}, fmt.Errorf("%w: %d", Mx.ErrInvalidChannel, channel)
	}

	analyses, err := s.Analyses(ctx, id)
	if err != nil {
		return Mt.ChannelAnalysis{}, err
	}
	for _, a := range analyses {
		if a.Channel == channel {
			return a, nil
		}
	}
	return Mt.ChannelAnalysis{}, fmt.Errorf("%w: Channel %d not found in MIDI file", Mx.ErrChannelNotFound, channel)
}

// SuggestRequest overrides the configured options for one run
type SuggestRequest struct {
	TopN      *int  `json:"topN,omitempty" validate:"omitempty,min=1,max=50"`
	MinScore  *int  `json:"minScore,omitempty" validate:"omitempty,min=0,max=100"`
	DrumRemap *bool `json:"drumRemap,omitempty"`
}

func (s *Service) Suggest(ctx context.Context, id string, req SuggestRequest) (Mt.SuggestionResult, error) {
	ctx, span := startSpan(ctx, "Suggest", attribute.String("document", id))
	defer span.End()

	if err := Mv.Validator().Struct(req); err != nil {
		return Mt.SuggestionResult{}, badRequest("%v", Mv.FieldErrors(err))
	}

	stored, err := s.Document(ctx, id)
	if err != nil {
		return Mt.SuggestionResult{}, err
	}
	instruments, err := s.Store.ListInstruments()
	if err != nil {
		return Mt.SuggestionResult{}, err
	}

	opts := s.Options
	if req.TopN != nil {
		opts.TopN = *req.TopN
	}
	if req.MinScore != nil {
		opts.MinScore = *req.MinScore
	}
	if req.DrumRemap != nil {
		opts.DrumRemap = *req.DrumRemap
	}

	result := As.GenerateSuggestions(stored.Document, instruments, opts)
	s.Stats.RecSuggestion(result.Success, result.ConfidenceScore)
	span.SetAttributes(
		attribute.Bool("success", result.Success),
		attribute.Int("confidence", result.ConfidenceScore))

	return result, nil
}

type ApplyRequest struct {
	Assignments map[int]Mt.Assignment `json:"assignments" validate:"required"`
}

type ApplyResult struct {
	DocumentID string                `json:"documentId"`
	SourceID   string                `json:"sourceId"`
	Stats      Mt.TransposeStats     `json:"stats"`
	Metadata   Mt.AdaptationMetadata `json:"metadata"`
}

// Apply stores the adapted document next to its source along with
// the record of how it was made
func (s *Service) Apply(ctx context.Context, id string, req ApplyRequest) (ApplyResult, error) {
	ctx, span := startSpan(ctx, "Apply", attribute.String("document", id))
	defer span.End()

	if err := Mv.Validator().Struct(req); err != nil {
		return ApplyResult{}, badRequest("%v", Mv.FieldErrors(err))
	}

	stored, err := s.Document(ctx, id)
	if err != nil {
		return ApplyResult{}, err
	}

	adapted, err := As.Apply(stored.Document, req.Assignments, s.Now())
	if err != nil {
		span.RecordError(err)
		return ApplyResult{}, err
	}

	newID, err := s.Store.PutDocument(Mp.StoredDocument{
		Name:      stored.Name,
		ParentID:  id,
		CreatedAt: adapted.Metadata.CreatedAt,
		Document:  adapted.Document,
	})
	if err != nil {
		return ApplyResult{}, err
	}

	adapted.Metadata.DocumentID = id
	recordID, err := s.Store.PutAdaptation(adapted.Metadata)
	if err != nil {
		return ApplyResult{}, err
	}
	adapted.Metadata.ID = recordID

	s.Stats.RecApply(adapted.Stats.NotesChanged, adapted.Stats.NotesRemapped)
	slog.Info("Assignments applied",
		slog.String("source", id),
		slog.String("document", newID),
		slog.Int("notesChanged", adapted.Stats.NotesChanged),
		slog.Int("notesRemapped", adapted.Stats.NotesRemapped))

	return ApplyResult{
		DocumentID: newID,
		SourceID:   id,
		Stats:      adapted.Stats,
		Metadata:   adapted.Metadata,
	}, nil
}

func (s *Service) Adaptations(ctx context.Context, id string) ([]Mt.AdaptationMetadata, error) {
	if _, err := s.Document(ctx, id); err != nil {
		return nil, err
	}
	return s.Store.ListAdaptations(id)
}

type DrumMappingRequest struct {
	DocumentID      string       `json:"documentId" validate:"required"`
	Channel         *int         `json:"channel" validate:"omitempty,min=0,max=15"`
	InstrumentNotes []int        `json:"instrumentNotes" validate:"required,min=1,dive,min=0,max=127"`
	Options         *Mdr.Options `json:"options,omitempty"`
}

type DrumMappingResponse struct {
	Mt.DrumMappingResult
	Report Mdr.MappingReport `json:"report"`
}

// DrumMapping maps a drum channel, channel 9 unless one is given
func (s *Service) DrumMapping(ctx context.Context, req DrumMappingRequest) (DrumMappingResponse, error) {
	ctx, span := startSpan(ctx, "DrumMapping", attribute.String("document", req.DocumentID))
	defer span.End()

	if err := Mv.Validator().Struct(req); err != nil {
		return DrumMappingResponse{}, badRequest("%v", Mv.FieldErrors(err))
	}

	channel := Mt.DrumChannel
	if req.Channel != nil {
		channel = *req.Channel
	}
	opts := Mdr.DefaultOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	a, err := s.Analysis(ctx, req.DocumentID, channel)
	if err != nil {
		return DrumMappingResponse{}, err
	}

	result := Mdr.MapChannel(a, req.InstrumentNotes, opts)
	span.SetAttributes(attribute.Int("quality", result.Quality.Score))

	return DrumMappingResponse{DrumMappingResult: result, Report: Mdr.Report(result)}, nil
}

func (s *Service) Instruments(ctx context.Context) ([]Mt.InstrumentCapability, error) {
	return s.Store.ListInstruments()
}

// PutInstruments refuses the whole batch when any capability breaks its bounds
func (s *Service) PutInstruments(ctx context.Context, caps []Mt.InstrumentCapability) error {
	if len(caps) == 0 {
		return badRequest("no instruments given")
	}

	var errs []error
	for i, c := range caps {
		if err := Mv.Validator().Struct(c); err != nil {
			errs = append(errs, fmt.Errorf("instrument %d (%s/%s): %v", i, c.DeviceID, c.ID, Mv.FieldErrors(err)))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrBadRequest, errors.Join(errs...))
	}

	return s.Store.PutInstruments(caps)
}

func (s *Service) DeleteInstrument(ctx context.Context, deviceID, id string) error {
	return s.Store.DeleteInstrument(deviceID, id)
}

func (s *Service) ValidateInstruments(ctx context.Context) (Mv.Summary, error) {
	caps, err := s.Store.ListInstruments()
	if err != nil {
		return Mv.Summary{}, err
	}
	return Mv.Instruments(caps), nil
}

func (s *Service) Presets(ctx context.Context) []string {
	return Mp.PresetNames()
}

func (s *Service) Preset(ctx context.Context, name string) (Mt.InstrumentCapability, error) {
	return Mp.PresetLookup(name)
}

type AuditionRequest struct {
	Channel    int           `json:"channel" validate:"min=0,max=15"`
	Assignment Mt.Assignment `json:"assignment"`
}

type AuditionResult struct {
	Channel int     `json:"channel"`
	Notes   []uint8 `json:"notes"`
}

func (s *Service) AuditionAssignment(ctx context.Context, req AuditionRequest) (AuditionResult, error) {
	if err := Mv.Validator().Struct(req); err != nil {
		return AuditionResult{}, badRequest("%v", Mv.FieldErrors(err))
	}
	if s.Audition == nil {
		return AuditionResult{}, ErrAuditionDisabled
	}

	notes := Mp.AuditionNotes(req.Assignment)
	if err := s.Audition.Audition(uint8(req.Channel), notes); err != nil {
		return AuditionResult{}, err
	}
	return AuditionResult{Channel: req.Channel, Notes: slices.Clone(notes)}, nil
}
