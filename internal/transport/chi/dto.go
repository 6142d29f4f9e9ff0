package chi

import (
	"time"

	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
	"github.com/kailas-cloud/kbase/internal/domain/search/result"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// DocumentRequest is the body of create and update calls.
type DocumentRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Summary *string  `json:"summary,omitempty"`
}

// AuthorResponse identifies the creating user.
type AuthorResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// VersionResponse is one entry of the version history.
type VersionResponse struct {
	VersionNumber int       `json:"versionNumber"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Tags          []string  `json:"tags"`
	Summary       string    `json:"summary"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DocumentResponse is a document without its embedding.
type DocumentResponse struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Tags           []string          `json:"tags"`
	Summary        string            `json:"summary"`
	CreatedBy      AuthorResponse    `json:"createdBy"`
	CurrentVersion int               `json:"currentVersion"`
	Revision       int               `json:"revision"`
	HasEmbedding   bool              `json:"hasEmbedding"`
	Versions       []VersionResponse `json:"versions,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// DocumentListResponse is one page of documents.
type DocumentListResponse struct {
	Documents   []DocumentResponse `json:"documents"`
	CurrentPage int                `json:"currentPage"`
	TotalPages  int                `json:"totalPages"`
	Total       int                `json:"total"`
}

// SearchResultItem is a semantic hit.
type SearchResultItem struct {
	DocumentResponse
	Similarity float64 `json:"similarity"`
}

// QueryRequest carries a semantic search query or a question.
type QueryRequest struct {
	Query    string `json:"query"`
	Question string `json:"question"`
}

// ContentRequest carries content for stateless generation.
type ContentRequest struct {
	Content string `json:"content"`
}

// SummaryRequest carries a client-supplied summary.
type SummaryRequest struct {
	Summary string `json:"summary"`
}

// TagsRequest carries client-supplied tags.
type TagsRequest struct {
	Tags []string `json:"tags"`
}

// SummaryResponse is a generated summary.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// TagsResponse is a generated tag list.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// AnswerResponse is an answer to a question.
type AnswerResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// documentToResponse converts a document; the version log is included only when withVersions is set.
func documentToResponse(doc *domdoc.Document, withVersions bool) DocumentResponse {
	a := doc.Author()
	resp := DocumentResponse{
		ID:             doc.ID(),
		Title:          doc.Title(),
		Content:        doc.Content(),
		Tags:           nonNilTags(doc.Tags()),
		Summary:        doc.Summary(),
		CreatedBy:      AuthorResponse{ID: a.ID, Name: a.Name, Email: a.Email},
		CurrentVersion: doc.CurrentVersion(),
		Revision:       doc.Revision(),
		HasEmbedding:   doc.HasEmbedding(),
		CreatedAt:      doc.CreatedAt(),
		UpdatedAt:      doc.UpdatedAt(),
	}
	if withVersions {
		resp.Versions = versionsToResponse(doc.Versions())
	}
	return resp
}

func documentsToResponse(docs []domdoc.Document) []DocumentResponse {
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = documentToResponse(&docs[i], false)
	}
	return out
}

func versionsToResponse(vs []domdoc.Version) []VersionResponse {
	out := make([]VersionResponse, len(vs))
	for i, v := range vs {
		out[i] = VersionResponse{
			VersionNumber: v.VersionNumber,
			Title:         v.Title,
			Content:       v.Content,
			Tags:          nonNilTags(v.Tags),
			Summary:       v.Summary,
			CreatedAt:     v.CreatedAt,
		}
	}
	return out
}

func searchResultToResponse(r *result.Result) SearchResultItem {
	doc := r.Document()
	return SearchResultItem{
		DocumentResponse: documentToResponse(&doc, false),
		Similarity:       r.Score(),
	}
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
