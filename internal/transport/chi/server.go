package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/domain"
	documentuc "github.com/kailas-cloud/kbase/internal/usecase/document"
	enrichmentuc "github.com/kailas-cloud/kbase/internal/usecase/enrichment"
	healthuc "github.com/kailas-cloud/kbase/internal/usecase/health"
	searchuc "github.com/kailas-cloud/kbase/internal/usecase/search"
)

// maxBodyBytes caps request bodies; documents may carry up to 10MB of content.
const maxBodyBytes = 11 << 20

// Server holds the HTTP handlers of the knowledge-base API.
type Server struct {
	documents     *documentuc.Service
	search        *searchuc.Service
	enrichment    *enrichmentuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	documents *documentuc.Service,
	search *searchuc.Service,
	enrichment *enrichmentuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents:  documents,
		search:     search,
		enrichment: enrichment,
		health:     health,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, CodeForbidden),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists),
		sentinelHandler(domain.ErrAIService, http.StatusBadGateway, CodeAIServiceError),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.ListDocuments)
			r.Post("/", s.CreateDocument)
			r.Get("/activity", s.RecentDocuments)
			r.Get("/{id}", s.GetDocument)
			r.Put("/{id}", s.UpdateDocument)
			r.Delete("/{id}", s.DeleteDocument)
			r.Get("/{id}/versions", s.ListVersions)
		})

		r.Route("/search", func(r chi.Router) {
			r.Get("/text", s.TextSearch)
			r.Post("/semantic", s.SemanticSearch)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/summarize", s.Summarize)
			r.Post("/tags", s.SuggestTags)
			r.Post("/question", s.Ask)
			r.Put("/documents/{id}/summary", s.StoreSummary)
			r.Put("/documents/{id}/tags", s.StoreTags)
			r.Post("/documents/{id}/summary", s.SummarizeAndStore)
			r.Post("/documents/{id}/tags", s.TagAndStore)
		})
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
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}
