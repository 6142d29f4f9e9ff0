package kbase

import (
	"context"
	"fmt"
	"time"

	searchuc "github.com/kailas-cloud/kbase/internal/usecase/search"
)

// SearchService finds documents by substring and by meaning.
type SearchService struct {
	svc *searchuc.Service
	obs *observer
}

// Text matches query against title, content and summary (case-insensitive)
// and keeps documents carrying any of tags.
func (s *SearchService) Text(ctx context.Context, query string, tags ...string) (_ []Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search_text", start, err) }()

	docs, err := s.svc.Text(ctx, query, tags)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return fromInternalDocuments(docs), nil
}

// Semantic returns the documents closest to query by embedding similarity.
func (s *SearchService) Semantic(ctx context.Context, query string) (_ []SearchHit, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search_semantic", start, err) }()

	results, err := s.svc.Semantic(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	hits := make([]SearchHit, len(results))
	for i := range results {
		hits[i] = SearchHit{
			Document:   fromInternalDocument(results[i].Document()),
			Similarity: results[i].Score(),
		}
	}
	return hits, nil
}
