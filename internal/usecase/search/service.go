package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/kbase/internal/domain"
	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	"github.com/kailas-cloud/kbase/internal/domain/search/result"
)

// DefaultTopK is the number of semantic results returned.
const DefaultTopK = 10

// Service answers keyword/tag and semantic queries over all documents.
type Service struct {
	repo  Repository
	embed Embedder
	topK  int
}

// New creates a search service.
func New(repo Repository, embed Embedder) *Service {
	return &Service{repo: repo, embed: embed, topK: DefaultTopK}
}

// Text returns documents whose title, content or summary contains query
// (case-insensitive) and that carry any of tags, most recently updated first.
// An empty query and tag set returns every document.
func (s *Service) Text(ctx context.Context, query string, tags []string) ([]domdoc.Document, error) {
	f, err := filter.NewText(query, tags)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	docs, err := s.repo.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return docs, nil
}

// Semantic ranks documents by cosine similarity between the query embedding
// and each stored embedding. Documents without an embedding are skipped.
func (s *Service) Semantic(ctx context.Context, query string) ([]result.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("query", "cannot be blank")
	}

	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := s.repo.Find(ctx, filter.Text{})
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return rankBySimilarity(vec, docs, s.topK), nil
}
