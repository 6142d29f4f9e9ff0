package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/domain"
	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	"github.com/kailas-cloud/kbase/internal/logger"
)

// DefaultRecentLimit is the size of the activity feed.
const DefaultRecentLimit = 5

// Page is one page of documents ordered by last update.
type Page struct {
	Documents []domdoc.Document
	Page      int
	Limit     int
	Total     int
	Pages     int
}

// Service is the single writer of documents. Every mutation is an
// authorized read-modify-write guarded by the document revision.
type Service struct {
	repo            Repository
	embedder        Embedder
	now             func() time.Time
	newID           func() string
	defaultPageSize int
	maxPageSize     int
	maxRetries      int
}

// New creates a document service.
func New(repo Repository, embedder Embedder) *Service {
	return &Service{
		repo:            repo,
		embedder:        embedder,
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
		defaultPageSize: 10,
		maxPageSize:     100,
		maxRetries:      3,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// WithMaxRetries sets how many times a write is retried after a revision conflict.
func (s *Service) WithMaxRetries(n int) *Service {
	if n >= 0 {
		s.maxRetries = n
	}
	return s
}

// Create stores a new document at version 1 owned by user.
func (s *Service) Create(ctx context.Context, in CreateInput, user domain.User) (domdoc.Document, error) {
	if err := in.Validate(); err != nil {
		return domdoc.Document{}, err
	}
	if user.ID == "" {
		return domdoc.Document{}, domain.ErrUnauthorized
	}

	author := domdoc.Author{ID: user.ID, Name: user.Name, Email: user.Email}
	doc, err := domdoc.New(s.newID(), in.Title, in.Content, in.Tags, author, s.now())
	if err != nil {
		return domdoc.Document{}, err
	}
	doc.SetEmbedding(s.embedder.EmbedBestEffort(ctx, doc.Content()))

	if err := s.repo.Insert(ctx, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

// Update replaces title, content and tags, appending a new version.
// The embedding is refreshed before the write; a failed refresh keeps the old one.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, user domain.User) (domdoc.Document, error) {
	if err := in.Validate(); err != nil {
		return domdoc.Document{}, err
	}
	if _, err := s.authorize(ctx, id, user); err != nil {
		return domdoc.Document{}, err
	}

	vec := s.embedder.EmbedBestEffort(ctx, in.Content)

	var summary *string
	if in.Summary != nil && *in.Summary != "" {
		summary = in.Summary
	}

	return s.mutate(ctx, id, user, func(d *domdoc.Document) error {
		if err := d.Edit(in.Title, in.Content, in.Tags, summary, s.now()); err != nil {
			return err
		}
		d.SetEmbedding(vec)
		return nil
	})
}

// Delete removes a document together with its version history.
func (s *Service) Delete(ctx context.Context, id string, user domain.User) error {
	if _, err := s.authorize(ctx, id, user); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// SetSummary overwrites the summary. No version is appended.
func (s *Service) SetSummary(ctx context.Context, id, summary string, user domain.User) (domdoc.Document, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return domdoc.Document{}, domain.NewValidationError("summary", "cannot be blank")
	}
	return s.mutate(ctx, id, user, func(d *domdoc.Document) error {
		d.SetSummary(summary, s.now())
		return nil
	})
}

// MergeTags adds tags not already present, existing tags first. No version is appended.
func (s *Service) MergeTags(ctx context.Context, id string, tags []string, user domain.User) (domdoc.Document, error) {
	tags = domdoc.NormalizeTags(tags)
	if len(tags) == 0 {
		return domdoc.Document{}, domain.NewValidationError("tags", "cannot be blank")
	}
	return s.mutate(ctx, id, user, func(d *domdoc.Document) error {
		d.MergeTags(tags, s.now())
		return nil
	})
}

// Get returns a document by id.
func (s *Service) Get(ctx context.Context, id string) (domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Versions returns the version history newest first.
func (s *Service) Versions(ctx context.Context, id string) ([]domdoc.Version, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.VersionsNewestFirst(), nil
}

// List returns one page of documents, most recently updated first.
// page is 1-based; out-of-range values are clamped.
func (s *Service) List(ctx context.Context, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	all, err := s.repo.Find(ctx, filter.Text{})
	if err != nil {
		return Page{}, fmt.Errorf("list documents: %w", err)
	}

	total := len(all)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	return Page{
		Documents: all[start:end],
		Page:      page,
		Limit:     limit,
		Total:     total,
		Pages:     (total + limit - 1) / limit,
	}, nil
}

// Recent returns the n most recently updated documents.
func (s *Service) Recent(ctx context.Context, n int) ([]domdoc.Document, error) {
	if n <= 0 {
		n = DefaultRecentLimit
	}
	all, err := s.repo.Find(ctx, filter.Text{})
	if err != nil {
		return nil, fmt.Errorf("recent documents: %w", err)
	}
	return all[:min(n, len(all))], nil
}

func (s *Service) authorize(ctx context.Context, id string, user domain.User) (domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	if !domdoc.CanMutate(&doc, user) {
		return domdoc.Document{}, domain.ErrForbidden
	}
	return doc, nil
}

// mutate loads the document, re-checks authorization, applies fn and writes
// the result only if nobody else wrote in between. Conflicts are retried
// against a fresh copy.
func (s *Service) mutate(
	ctx context.Context, id string, user domain.User, fn func(*domdoc.Document) error,
) (domdoc.Document, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		doc, err := s.authorize(ctx, id, user)
		if err != nil {
			return domdoc.Document{}, err
		}

		expected := doc.Revision()
		if err := fn(&doc); err != nil {
			return domdoc.Document{}, err
		}
		doc.BumpRevision()

		err = s.repo.CompareAndSwap(ctx, &doc, expected)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, domain.ErrRevisionConflict) {
			return domdoc.Document{}, fmt.Errorf("save document: %w", err)
		}

		lastErr = err
		logger.FromContext(ctx).Debug("Revision conflict, retrying",
			zap.String("document_id", id),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return domdoc.Document{}, fmt.Errorf("save document %s after %d attempts: %w: %w",
		id, s.maxRetries+1, domain.ErrStore, lastErr)
}
