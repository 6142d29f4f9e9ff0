package enrichment

import (
	"context"

	"github.com/kailas-cloud/kbase/internal/domain"
	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
)

// Gateway generates text from the AI provider.
type Gateway interface {
	Summarize(ctx context.Context, content string) (string, error)
	ExtractTags(ctx context.Context, content string) ([]string, error)
	Answer(ctx context.Context, question string, corpus []domain.CorpusEntry) (string, error)
}

// Documents reads documents and performs the authorized writebacks.
type Documents interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
	SetSummary(ctx context.Context, id, summary string, user domain.User) (domdoc.Document, error)
	MergeTags(ctx context.Context, id string, tags []string, user domain.User) (domdoc.Document, error)
}

// Corpus lists every document for question answering.
type Corpus interface {
	Find(ctx context.Context, f filter.Text) ([]domdoc.Document, error)
}
