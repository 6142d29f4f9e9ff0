package search

import (
	"context"

	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	Find(ctx context.Context, f filter.Text) ([]domdoc.Document, error)
}

// Embedder vectorizes the query. Failures must be returned, not swallowed.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
