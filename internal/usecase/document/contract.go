package document

import (
	"context"

	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Insert(ctx context.Context, doc *domdoc.Document) error
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Find(ctx context.Context, f filter.Text) ([]domdoc.Document, error)
	CompareAndSwap(ctx context.Context, doc *domdoc.Document, expectedRevision int) error
	Delete(ctx context.Context, id string) error
}

// Embedder produces content embeddings. Failures yield an empty vector.
type Embedder interface {
	EmbedBestEffort(ctx context.Context, text string) []float32
}
