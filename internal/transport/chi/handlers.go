package chi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/domain"
	"github.com/kailas-cloud/kbase/internal/logger"
	documentuc "github.com/kailas-cloud/kbase/internal/usecase/document"
)

// ListDocuments handles GET /api/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var page, limit int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid page parameter")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid limit parameter")
		return
	}

	p, err := s.documents.List(r.Context(), page, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DocumentListResponse{
		Documents:   documentsToResponse(p.Documents),
		CurrentPage: p.Page,
		TotalPages:  p.Pages,
		Total:       p.Total,
	})
}

// RecentDocuments handles GET /api/documents/activity.
func (s *Server) RecentDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.Recent(r.Context(), documentuc.DefaultRecentLimit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentsToResponse(docs))
}

// GetDocument handles GET /api/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc, true))
}

// CreateDocument handles POST /api/documents.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req DocumentRequest
	if !s.decode(w, r, &req) {
		return
	}

	doc, err := s.documents.Create(r.Context(), documentuc.CreateInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	}, user)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentToResponse(&doc, false))
}

// UpdateDocument handles PUT /api/documents/{id}.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req DocumentRequest
	if !s.decode(w, r, &req) {
		return
	}

	doc, err := s.documents.Update(r.Context(), chi.URLParam(r, "id"), documentuc.UpdateInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Summary: req.Summary,
	}, user)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc, false))
}

// DeleteDocument handles DELETE /api/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.documents.Delete(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

// ListVersions handles GET /api/documents/{id}/versions.
func (s *Server) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.documents.Versions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionsToResponse(versions))
}

// TextSearch handles GET /api/search/text?q=...&tags=a,b.
func (s *Server) TextSearch(w http.ResponseWriter, r *http.Request) {
	var (
		query string
		tags  []string
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "q", q, &query); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid q parameter")
		return
	}
	if err := runtime.BindQueryParameter("form", false, false, "tags", q, &tags); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid tags parameter")
		return
	}

	docs, err := s.search.Text(r.Context(), query, tags)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentsToResponse(docs))
}

// SemanticSearch handles POST /api/search/semantic.
func (s *Server) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}

	results, err := s.search.Semantic(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToResponse(&results[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// Summarize handles POST /api/ai/summarize.
func (s *Server) Summarize(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !s.decode(w, r, &req) {
		return
	}
	summary, err := s.enrichment.Summarize(r.Context(), req.Content)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Summary: summary})
}

// SuggestTags handles POST /api/ai/tags.
func (s *Server) SuggestTags(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !s.decode(w, r, &req) {
		return
	}
	tags, err := s.enrichment.SuggestTags(r.Context(), req.Content)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// Ask handles POST /api/ai/question.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	answer, err := s.enrichment.Ask(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AnswerResponse{Question: req.Question, Answer: answer})
}

// StoreSummary handles PUT /api/ai/documents/{id}/summary.
func (s *Server) StoreSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req SummaryRequest
	if !s.decode(w, r, &req) {
		return
	}
	doc, err := s.enrichment.StoreSummary(r.Context(), chi.URLParam(r, "id"), req.Summary, user)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc, false))
}

// StoreTags handles PUT /api/ai/documents/{id}/tags.
func (s *Server) StoreTags(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req TagsRequest
	if !s.decode(w, r, &req) {
		return
	}
	doc, err := s.enrichment.StoreTags(r.Context(), chi.URLParam(r, "id"), req.Tags, user)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc, false))
}

// SummarizeAndStore handles POST /api/ai/documents/{id}/summary.
func (s *Server) SummarizeAndStore(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	doc, err := s.enrichment.SummarizeAndStore(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc, false))
}

// TagAndStore handles POST /api/ai/documents/{id}/tags.
func (s *Server) TagAndStore(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	doc, err := s.enrichment.TagAndStore(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc, false))
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok || user.ID == "" {
		s.handleDomainError(w, r, domain.ErrUnauthorized)
		return domain.User{}, false
	}
	return user, true
}

// decode reads a JSON body into v. Unknown fields are ignored.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		loggerFor(r, s.logger).Debug("invalid request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return false
	}
	return true
}

func loggerFor(r *http.Request, def *zap.Logger) *zap.Logger {
	return logger.FromContextOr(r.Context(), def)
}
