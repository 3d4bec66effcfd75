package transporthttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Shyamsundamarasu/hi-there-friend-93/internal/analysis"
)

const defaultRequestTimeout = 10 * time.Second

// Error kinds reported in error bodies.
const (
	kindInvalidInput     = "invalid_input"
	kindAllSourcesFailed = "all_sources_failed"
	kindCancelled        = "cancelled"
	kindNotFound         = "not_found"
	kindConflict         = "conflict"
	kindInternal         = "internal"
)

type Server struct {
	service        *analysis.Service
	requestTimeout time.Duration
	log            logrus.FieldLogger
}

func NewServer(service *analysis.Service, requestTimeout time.Duration, log logrus.FieldLogger) *Server {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		service:        service,
		requestTimeout: requestTimeout,
		log:            log,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("GET /sources", s.handleSources)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /analyses", s.handleStart)
	mux.HandleFunc("GET /analyses/{id}", s.handleResult)
	mux.HandleFunc("GET /analyses/{id}/events", s.handleEvents)
	mux.HandleFunc("DELETE /analyses/{id}", s.handleCancel)
	mux.HandleFunc("GET /swagger/openapi.yaml", serveSwaggerYAML)
	mux.HandleFunc("GET /swagger", serveSwaggerUI)
	mux.HandleFunc("GET /swagger/", serveSwaggerUI)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sources": s.service.Sources()})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	result, err := s.service.Analyze(ctx, raw)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	run, err := s.service.Start(r.Context(), raw)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	w.Header().Set("Location", "/analyses/"+run.ID)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":     run.ID,
		"status": analysis.StatusRunning,
		"events": "/analyses/" + run.ID + "/events",
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookup(w, r)
	if !ok {
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		_, _ = run.Wait(ctx)
	}

	select {
	case <-run.Done():
	default:
		writeJSON(w, http.StatusOK, map[string]any{"id": run.ID, "status": analysis.StatusRunning})
		return
	}

	result, err := run.Outcome()
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch err := s.service.Cancel(id); {
	case errors.Is(err, analysis.ErrRunNotFound):
		s.writeError(w, http.StatusNotFound, kindNotFound, err.Error())
	case errors.Is(err, analysis.ErrRunFinished):
		s.writeError(w, http.StatusConflict, kindConflict, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, kindInternal, err.Error())
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "cancelling"})
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*analysis.Run, bool) {
	run, ok := s.service.Lookup(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, kindNotFound, analysis.ErrRunNotFound.Error())
		return nil, false
	}
	return run, true
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (analysis.RawQuery, bool) {
	var raw analysis.RawQuery
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		s.writeError(w, http.StatusBadRequest, kindInvalidInput, "invalid payload")
		return analysis.RawQuery{}, false
	}
	return raw, true
}

// classifyError maps the analysis error taxonomy onto an error kind and HTTP status.
func classifyError(err error) (string, int) {
	var invalid *analysis.InvalidInputError
	var failed *analysis.AllSourcesFailedError
	switch {
	case errors.As(err, &invalid):
		return kindInvalidInput, http.StatusBadRequest
	case errors.As(err, &failed):
		return kindAllSourcesFailed, http.StatusServiceUnavailable
	case errors.Is(err, analysis.ErrCancelled):
		return kindCancelled, http.StatusConflict
	default:
		return kindInternal, http.StatusInternalServerError
	}
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	kind, status := classifyError(err)
	var failed *analysis.AllSourcesFailedError
	switch {
	case errors.As(err, &failed):
		failures := make(map[string]string, len(failed.Failures))
		for source, ferr := range failed.Failures {
			failures[source] = ferr.Error()
		}
		writeJSON(w, status, map[string]any{"error": err.Error(), "kind": kind, "failures": failures})
	case kind == kindInternal:
		s.log.WithError(err).Error("analysis failed")
		s.writeError(w, status, kind, "internal error")
	default:
		s.writeError(w, status, kind, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]string{"error": message, "kind": kind})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
