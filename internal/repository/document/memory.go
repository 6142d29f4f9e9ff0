package document

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/kbase/internal/domain"
	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
)

// MemoryRepo is a process-local repository. Stored values are deep-copied
// in and out so callers never share slices with the map.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]domdoc.Fields
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]domdoc.Fields)}
}

// Insert stores a new document.
func (m *MemoryRepo) Insert(_ context.Context, doc *domdoc.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[doc.ID()]; ok {
		return fmt.Errorf("document %s: %w", doc.ID(), domain.ErrAlreadyExists)
	}
	m.docs[doc.ID()] = cloneFields(doc.Fields())
	return nil
}

// Get returns a document by ID.
func (m *MemoryRepo) Get(_ context.Context, id string) (domdoc.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.docs[id]
	if !ok {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return domdoc.Reconstruct(cloneFields(f)), nil
}

// Find returns the documents matching f, most recently updated first.
func (m *MemoryRepo) Find(_ context.Context, f filter.Text) ([]domdoc.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domdoc.Document
	for _, fields := range m.docs {
		doc := domdoc.Reconstruct(cloneFields(fields))
		if f.Matches(&doc) {
			out = append(out, doc)
		}
	}
	sortByUpdatedDesc(out)
	return out, nil
}

// CompareAndSwap replaces the stored document if its revision still equals expectedRevision.
func (m *MemoryRepo) CompareAndSwap(_ context.Context, doc *domdoc.Document, expectedRevision int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.docs[doc.ID()]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	if cur.Revision != expectedRevision {
		return domain.NewRevisionConflict(cur.Revision)
	}
	m.docs[doc.ID()] = cloneFields(doc.Fields())
	return nil
}

// Delete removes a document together with its version history.
func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(m.docs, id)
	return nil
}

func cloneFields(f domdoc.Fields) domdoc.Fields {
	out := f
	out.Tags = cloneStrings(f.Tags)
	if f.Embedding != nil {
		out.Embedding = append([]float32(nil), f.Embedding...)
	}
	out.Versions = make([]domdoc.Version, len(f.Versions))
	for i, v := range f.Versions {
		v.Tags = cloneStrings(v.Tags)
		out.Versions[i] = v
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
