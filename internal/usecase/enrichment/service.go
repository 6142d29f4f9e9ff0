package enrichment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/domain"
	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	"github.com/kailas-cloud/kbase/internal/logger"
)

// MaxQuestionLength bounds a natural-language question.
const MaxQuestionLength = 2000

// Service generates summaries, tags and answers, and writes generated
// metadata back through the document service so authorization and
// concurrency rules are shared with manual edits.
type Service struct {
	ai     Gateway
	docs   Documents
	corpus Corpus
}

// New creates an enrichment service.
func New(ai Gateway, docs Documents, corpus Corpus) *Service {
	return &Service{ai: ai, docs: docs, corpus: corpus}
}

// SummarizeAndStore generates a summary of the stored content and saves it.
// Nothing is written when generation fails.
func (s *Service) SummarizeAndStore(ctx context.Context, id string, user domain.User) (domdoc.Document, error) {
	doc, err := s.load(ctx, id, user)
	if err != nil {
		return domdoc.Document{}, err
	}

	summary, err := s.ai.Summarize(ctx, doc.Content())
	if err != nil {
		return domdoc.Document{}, err
	}

	updated, err := s.docs.SetSummary(ctx, id, summary, user)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("store summary: %w", err)
	}
	logger.FromContext(ctx).Info("Summary stored", zap.String("document_id", id))
	return updated, nil
}

// TagAndStore generates tags for the stored content and merges them into
// the document's tag set.
func (s *Service) TagAndStore(ctx context.Context, id string, user domain.User) (domdoc.Document, error) {
	doc, err := s.load(ctx, id, user)
	if err != nil {
		return domdoc.Document{}, err
	}

	tags, err := s.ai.ExtractTags(ctx, doc.Content())
	if err != nil {
		return domdoc.Document{}, err
	}

	updated, err := s.docs.MergeTags(ctx, id, tags, user)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("store tags: %w", err)
	}
	logger.FromContext(ctx).Info("Tags merged",
		zap.String("document_id", id), zap.Strings("generated", tags))
	return updated, nil
}

// Summarize generates a summary for arbitrary content without storing it.
func (s *Service) Summarize(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", domain.NewValidationError("content", "cannot be blank")
	}
	return s.ai.Summarize(ctx, content)
}

// SuggestTags generates tags for arbitrary content without storing them.
func (s *Service) SuggestTags(ctx context.Context, content string) ([]string, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.NewValidationError("content", "cannot be blank")
	}
	return s.ai.ExtractTags(ctx, content)
}

// StoreSummary saves a client-supplied summary.
func (s *Service) StoreSummary(ctx context.Context, id, summary string, user domain.User) (domdoc.Document, error) {
	return s.docs.SetSummary(ctx, id, summary, user)
}

// StoreTags merges client-supplied tags.
func (s *Service) StoreTags(ctx context.Context, id string, tags []string, user domain.User) (domdoc.Document, error) {
	return s.docs.MergeTags(ctx, id, tags, user)
}

// Ask answers question using every stored document as context.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", domain.NewValidationError("question", "cannot be blank")
	}
	if len([]rune(question)) > MaxQuestionLength {
		return "", domain.NewValidationError("question", fmt.Sprintf("must be at most %d characters", MaxQuestionLength))
	}

	docs, err := s.corpus.Find(ctx, filter.Text{})
	if err != nil {
		return "", fmt.Errorf("load corpus: %w", err)
	}

	corpus := make([]domain.CorpusEntry, len(docs))
	for i := range docs {
		corpus[i] = domain.CorpusEntry{
			Title:   docs[i].Title(),
			Content: docs[i].Content(),
			Tags:    docs[i].Tags(),
		}
	}
	return s.ai.Answer(ctx, question, corpus)
}

// load fetches the document and fails fast when user may not write to it,
// before any provider call is made.
func (s *Service) load(ctx context.Context, id string, user domain.User) (domdoc.Document, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, err
	}
	if !domdoc.CanMutate(&doc, user) {
		return domdoc.Document{}, domain.ErrForbidden
	}
	return doc, nil
}
