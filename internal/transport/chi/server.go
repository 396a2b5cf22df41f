// Package chi is the HTTP transport: routing, request decoding, and the
// mapping from domain errors to status codes.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/podscout/podscout/internal/domain"
	healthuc "github.com/podscout/podscout/internal/usecase/health"
	"github.com/podscout/podscout/internal/usecase/ingest"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Answerer runs the question-answering pipeline.
type Answerer interface {
	Answer(ctx context.Context, q domain.Query) (domain.FinalResponse, error)
}

// Server holds the HTTP handlers.
type Server struct {
	answers       Answerer
	ingest        *ingest.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	answers Answerer,
	ingestSvc *ingest.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		answers: answers,
		ingest:  ingestSvc,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrPassageNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrMissingRequester, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable, codeRetrieval),
		sentinelHandler(domain.ErrDeadlineExhausted, http.StatusGatewayTimeout, codeTimeout),
	}
	return s
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/v1/ask", s.Ask)
	r.Put("/v1/passages/{id}", s.UpsertPassage)
	r.Get("/v1/passages/{id}", s.GetPassage)
	r.Get("/health", s.HealthCheck)
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := domain.NewQuery(
		req.Query, req.RequesterID, domain.Category(req.Category), req.Context, req.TraceID,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.answers.Answer(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("X-Trace-ID", resp.TraceID)
	writeJSON(w, http.StatusOK, askResponseFrom(resp))
}

// UpsertPassage handles PUT /v1/passages/{id}.
func (s *Server) UpsertPassage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req upsertPassageRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Passage content is required")
		return
	}

	err := s.ingest.Upsert(r.Context(), id, ingest.Input{
		Content:  req.Content,
		Tags:     req.Tags,
		Category: domain.Category(req.Category),
		Provenance: domain.Provenance{
			PodcastID: req.PodcastID,
			EpisodeID: req.EpisodeID,
			Title:     req.Title,
			Link:      req.Link,
			Timestamp: req.Timestamp,
		},
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPassage handles GET /v1/passages/{id}.
func (s *Server) GetPassage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.ingest.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, upsertPassageRequest{
		Content:   p.Content,
		Tags:      p.Tags,
		Category:  string(p.Category),
		PodcastID: p.Provenance.PodcastID,
		EpisodeID: p.Provenance.EpisodeID,
		Title:     p.Provenance.Title,
		Link:      p.Provenance.Link,
		Timestamp: p.Provenance.Timestamp,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrMissingRequester,
		domain.ErrPassageNotFound,
		domain.ErrEmbeddingProviderError,
		domain.ErrRetrievalUnavailable,
		domain.ErrSearchUnavailable,
		domain.ErrSynthesisUnavailable,
		domain.ErrDeadlineExhausted,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}
