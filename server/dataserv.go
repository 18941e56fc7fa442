package midiassign

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	Mc "github.com/maroda/midiassign/codec"
	Mm "github.com/maroda/midiassign/matcher"
	Mo "github.com/maroda/midiassign/obvy"
	Mp "github.com/maroda/midiassign/plugin"
	Mx "github.com/maroda/midiassign/transpose"
	Mt "github.com/maroda/midiassign/types"
)

// MaxUploadBytes caps a document upload
const MaxUploadBytes = 16 << 20

var Version = "dev"

// View serves the Service over HTTP and WebSocket
type View struct {
	Service *Service
	Stats   *Mo.StatsInternal
	server  *http.Server
}

func NewView(s *Service) *View {
	return &View{Service: s, Stats: s.Stats}
}

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket command channel
// - Version for programmatic use
// - The document, instrument and drum API
func (v *View) SetupMux() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", v.Stats.Handler())
	r.HandleFunc("/ws", v.WebsocketHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(v.StatsMiddleware)
	api.NotFoundHandler = v.StatsMiddleware(http.HandlerFunc(notFound))
	api.MethodNotAllowedHandler = v.StatsMiddleware(http.HandlerFunc(methodNotAllowed))

	api.HandleFunc("/version", v.VersionHandler).Methods(http.MethodGet)

	api.HandleFunc("/documents", v.UploadHandler).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}", v.DocumentHandler).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/export", v.ExportHandler).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/channels", v.ChannelsHandler).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/channels/{channel:[0-9]+}", v.ChannelHandler).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/suggestions", v.SuggestionsHandler).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/apply", v.ApplyHandler).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/adaptations", v.AdaptationsHandler).Methods(http.MethodGet)

	api.HandleFunc("/drums/mapping", v.DrumMappingHandler).Methods(http.MethodPost)

	api.HandleFunc("/instruments", v.InstrumentsHandler).Methods(http.MethodGet)
	api.HandleFunc("/instruments", v.PutInstrumentsHandler).Methods(http.MethodPost)
	api.HandleFunc("/instruments/validate", v.ValidateHandler).Methods(http.MethodGet)
	api.HandleFunc("/instruments/{device}/{id}", v.DeleteInstrumentHandler).Methods(http.MethodDelete)

	api.HandleFunc("/presets", v.PresetsHandler).Methods(http.MethodGet)
	api.HandleFunc("/presets/{name}", v.PresetHandler).Methods(http.MethodGet)

	api.HandleFunc("/audition", v.AuditionHandler).Methods(http.MethodPost)

	return r
}

// Handler is the instrumented root handler
func (v *View) Handler() http.Handler {
	return otelhttp.NewHandler(v.SetupMux(), "midiassign")
}

// RespWriter is a wrapper with StatsMiddleware, used for Prometheus
type RespWriter struct {
	http.ResponseWriter
	Status int
}

func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

func (v *View) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)

		v.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
		slog.Debug("Request served",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.Status),
			slog.Duration("took", time.Since(start)))
	})
}

// ErrorBody is the JSON shape of every failed request
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusOf maps an error to its HTTP status and error code
func StatusOf(err error) (int, string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, Mp.ErrNotFound), errors.Is(err, Mx.ErrChannelNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrAuditionDisabled), errors.Is(err, Mp.ErrMIDIDisabled):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, Mc.ErrUnsupportedFormat),
		errors.Is(err, Mx.ErrTranspositionTooLarge),
		errors.Is(err, Mx.ErrInvalidChannel),
		errors.Is(err, Mm.ErrMalformedCapability),
		errors.As(err, &verrs):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Could not encode response", slog.Any("Error", err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := StatusOf(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", slog.Any("Error", err))
	}
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorBody{Error: ErrorDetail{
		Code:    "not_found",
		Message: "no route for " + r.URL.Path,
	}})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorBody{Error: ErrorDetail{
		Code:    "method_not_allowed",
		Message: r.Method + " is not allowed on " + r.URL.Path,
	}})
}

// decodeBody reads a JSON body into dst, an empty body leaves dst alone
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return badRequest("invalid JSON body: %v", err)
}

func (v *View) VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": Version})
}

func (v *View) UploadHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		writeError(w, badRequest("could not read upload: %v", err))
		return
	}
	if len(body) == 0 {
		writeError(w, badRequest("empty upload"))
		return
	}

	name := r.URL.Query().Get("name")
	info, err := v.Service.ImportDocument(r.Context(), name, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (v *View) DocumentHandler(w http.ResponseWriter, r *http.Request) {
	stored, err := v.Service.Document(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Mc.ToWire(stored.Document))
}

func (v *View) ExportHandler(w http.ResponseWriter, r *http.Request) {
	stored, err := v.Service.Document(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := Mc.EncodeBytes(stored.Document)
	if err != nil {
		writeError(w, err)
		return
	}

	name := stored.Name
	if name == "" {
		name = stored.ID + ".mid"
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Write(data)
}

func (v *View) ChannelsHandler(w http.ResponseWriter, r *http.Request) {
	analyses, err := v.Service.Analyses(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (v *View) ChannelHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	channel, err := strconv.Atoi(vars["channel"])
	if err != nil {
		writeError(w, badRequest("invalid channel: %s", vars["channel"]))
		return
	}

	a, err := v.Service.Analysis(r.Context(), vars["id"], channel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (v *View) SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := v.Service.Suggest(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (v *View) ApplyHandler(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := v.Service.Apply(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (v *View) AdaptationsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := v.Service.Adaptations(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []Mt.AdaptationMetadata{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (v *View) DrumMappingHandler(w http.ResponseWriter, r *http.Request) {
	var req DrumMappingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := v.Service.DrumMapping(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (v *View) InstrumentsHandler(w http.ResponseWriter, r *http.Request) {
	caps, err := v.Service.Instruments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if caps == nil {
		caps = []Mt.InstrumentCapability{}
	}
	writeJSON(w, http.StatusOK, caps)
}

func (v *View) PutInstrumentsHandler(w http.ResponseWriter, r *http.Request) {
	var caps []Mt.InstrumentCapability
	if err := decodeBody(r, &caps); err != nil {
		writeError(w, err)
		return
	}

	if err := v.Service.PutInstruments(r.Context(), caps); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"stored": len(caps)})
}

func (v *View) DeleteInstrumentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := v.Service.DeleteInstrument(r.Context(), vars["device"], vars["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (v *View) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := v.Service.ValidateInstruments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (v *View) PresetsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, v.Service.Presets(r.Context()))
}

func (v *View) PresetHandler(w http.ResponseWriter, r *http.Request) {
	c, err := v.Service.Preset(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (v *View) AuditionHandler(w http.ResponseWriter, r *http.Request) {
	var req AuditionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := v.Service.AuditionAssignment(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// Serve runs the HTTP server until ctx is done
func (v *View) Serve(ctx context.Context, addr string) error {
	v.server = &http.Server{
		Addr:              addr,
		Handler:           v.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("Starting midiassign endpoint...", slog.String("Port", addr))
		if err := v.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not start endpoint", slog.Any("Error", err))
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("Shutting down midiassign endpoint")
	if err := v.server.Shutdown(shutdown); err != nil {
		return err
	}
	return <-errc
}
