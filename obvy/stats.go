package midiassign

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsInternal holds midiassign's own metrics on a private registry,
// so tests can build as many as they like
type StatsInternal struct {
	Registry      *prometheus.Registry
	WWWRequests   *prometheus.CounterVec
	Suggestions   *prometheus.CounterVec
	Confidence    prometheus.Histogram
	NotesShifted  prometheus.Counter
	NotesRemapped prometheus.Counter
	CacheLookups  *prometheus.CounterVec
}

func NewStatsInternal() *StatsInternal {
	reg := prometheus.NewRegistry()

	s := &StatsInternal{
		Registry: reg,
		WWWRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midiassign_http_requests_total",
			Help: "HTTP requests served, by status code and method",
		}, []string{"code", "method"}),
		Suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midiassign_suggestions_total",
			Help: "Suggestion runs, by result",
		}, []string{"result"}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "midiassign_assignment_confidence",
			Help:    "Confidence of automatic assignment sets",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		NotesShifted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "midiassign_notes_transposed_total",
			Help: "Notes shifted by applied transpositions",
		}),
		NotesRemapped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "midiassign_notes_remapped_total",
			Help: "Notes substituted by applied remappings",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midiassign_analysis_cache_total",
			Help: "Analysis cache lookups, by hit or miss",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.WWWRequests,
		s.Suggestions,
		s.Confidence,
		s.NotesShifted,
		s.NotesRemapped,
		s.CacheLookups,
	)

	return s
}

// Handler serves the private registry on /metrics
func (s *StatsInternal) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{Registry: s.Registry})
}

func (s *StatsInternal) RecWWW(code, method string) {
	s.WWWRequests.WithLabelValues(code, method).Inc()
}

// RecSuggestion counts a run as "success" or "empty", with its confidence
func (s *StatsInternal) RecSuggestion(success bool, confidence int) {
	if !success {
		s.Suggestions.WithLabelValues("empty").Inc()
		return
	}
	s.Suggestions.WithLabelValues("success").Inc()
	s.Confidence.Observe(float64(confidence))
}

func (s *StatsInternal) RecApply(shifted, remapped int) {
	s.NotesShifted.Add(float64(shifted))
	s.NotesRemapped.Add(float64(remapped))
}

func (s *StatsInternal) RecCache(hit bool) {
	if hit {
		s.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	s.CacheLookups.WithLabelValues("miss").Inc()
}
