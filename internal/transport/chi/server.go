// Package chi exposes the search API over HTTP using the chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/omnisearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/omnisearch/internal/usecase/search"
)

const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeTenantNotFound    = "tenant_not_found"
	codeNoShards          = "no_shards_available"
	codeAllModalitiesDown = "all_modalities_failed"
	codeVectorDim         = "vector_dim_mismatch"
	codeEmbeddingProvider = "embedding_provider_error"
	codeInternalError     = "internal_error"
)

// SearchService runs one multi-modal search.
type SearchService interface {
	Search(ctx context.Context, req *request.Request) (*searchuc.Response, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	search        SearchService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search SearchService, health HealthService, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrTenantNotFound, http.StatusNotFound, codeTenantNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDim),
		sentinelHandler(domain.ErrNoShardsAvailable, http.StatusNotFound, codeNoShards),
		sentinelHandler(domain.ErrAllModalitiesFailed, http.StatusServiceUnavailable, codeAllModalitiesDown),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
	}
	return s
}

// Routes registers all API routes on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1/search", func(r chi.Router) {
		r.Post("/text", s.searchModality(modality.Text))
		r.Post("/attributes", s.searchModality(modality.Attribute))
		r.Post("/specifications", s.searchModality(modality.Specification))
		r.Post("/image", s.searchModality(modality.Image))
		r.Post("/combined", s.searchCombined)
	})
	r.Get("/healthz", s.healthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// searchModality handles the single-modality endpoints. The modality set is
// fixed by the route; a modalities field in the body is ignored.
func (s *Server) searchModality(m modality.Modality) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.handleSearch(w, r, []modality.Modality{m})
	}
}

// searchCombined handles POST /api/v1/search/combined. The modality set comes
// from the request body.
func (s *Server) searchCombined(w http.ResponseWriter, r *http.Request) {
	s.handleSearch(w, r, nil)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, mods []modality.Modality) {
	tenantID := r.Header.Get("X-Tenant-ID")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "X-Tenant-ID header is required")
		return
	}

	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := requestFromBody(tenantID, body, mods)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, responseToBody(resp, req.Offset(), req.Limit()))
}

// healthCheck handles GET /healthz. A degraded report still returns 200: the
// service keeps answering searches when only the embedding provider is down.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals. Validation errors carry their full message.
func safeDomainMessage(err error) string {
	var ire *domain.InvalidRequestError
	if errors.As(err, &ire) {
		return ire.Error()
	}
	sentinels := []error{
		domain.ErrTenantNotFound,
		domain.ErrInvalidRequest,
		domain.ErrVectorDimMismatch,
		domain.ErrNoShardsAvailable,
		domain.ErrAllModalitiesFailed,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
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
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
