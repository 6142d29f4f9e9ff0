package kbase

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/kbase/internal/domain"
	documentuc "github.com/kailas-cloud/kbase/internal/usecase/document"
)

// DocumentService manages documents on behalf of one user.
type DocumentService struct {
	user domain.User
	svc  *documentuc.Service
	obs  *observer
}

// Create stores a new document authored by the service user.
func (s *DocumentService) Create(ctx context.Context, in DocumentInput) (_ Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_create", start, err) }()

	d, err := s.svc.Create(ctx, documentuc.CreateInput{
		Title:   in.Title,
		Content: in.Content,
		Tags:    in.Tags,
	}, s.user)
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return fromInternalDocument(d), nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (_ Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_get", start, err) }()

	d, err := s.svc.Get(ctx, id)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return fromInternalDocument(d), nil
}

// Update replaces the editable fields and appends a version.
func (s *DocumentService) Update(ctx context.Context, id string, in DocumentUpdate) (_ Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_update", start, err) }()

	d, err := s.svc.Update(ctx, id, documentuc.UpdateInput{
		Title:   in.Title,
		Content: in.Content,
		Tags:    in.Tags,
		Summary: in.Summary,
	}, s.user)
	if err != nil {
		return Document{}, fmt.Errorf("update document: %w", err)
	}
	return fromInternalDocument(d), nil
}

// Delete removes a document and its history.
func (s *DocumentService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_delete", start, err) }()

	if err = s.svc.Delete(ctx, id, s.user); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Versions returns the document history, newest first.
func (s *DocumentService) Versions(ctx context.Context, id string) (_ []Version, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_versions", start, err) }()

	vs, err := s.svc.Versions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	out := make([]Version, len(vs))
	for i, v := range vs {
		out[i] = fromInternalVersion(v)
	}
	return out, nil
}

// List returns one page of documents. Zero page or limit selects the defaults.
func (s *DocumentService) List(ctx context.Context, page, limit int) (_ Page, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_list", start, err) }()

	p, err := s.svc.List(ctx, page, limit)
	if err != nil {
		return Page{}, fmt.Errorf("list documents: %w", err)
	}
	return Page{
		Documents: fromInternalDocuments(p.Documents),
		Page:      p.Page,
		Limit:     p.Limit,
		Total:     p.Total,
		Pages:     p.Pages,
	}, nil
}

// Recent returns the n most recently updated documents.
func (s *DocumentService) Recent(ctx context.Context, n int) (_ []Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_recent", start, err) }()

	docs, err := s.svc.Recent(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("recent documents: %w", err)
	}
	return fromInternalDocuments(docs), nil
}
