package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/kbase/internal/db"
	"github.com/kailas-cloud/kbase/internal/domain"
	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
)

// scanBatch bounds the number of keys fetched per JSON.GET pipeline.
const scanBatch = 100

// store is the consumer interface for documents (ISP).
type store interface {
	JSONSetNX(ctx context.Context, key string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	JSONCompareAndSet(ctx context.Context, key, revPath string, expected int, data []byte) error
	Del(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores each document, versions included, as a single RedisJSON value.
type Repo struct {
	store  store
	prefix string
}

// New creates a Redis-backed document repository. Keys are <prefix>doc:<id>.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix + "doc:"}
}

// Insert stores a new document. Fails with ErrAlreadyExists on id collision.
func (r *Repo) Insert(ctx context.Context, doc *domdoc.Document) error {
	data, err := marshalDoc(doc)
	if err != nil {
		return err
	}

	key := r.key(doc.ID())
	if err := r.store.JSONSetNX(ctx, key, data); err != nil {
		if errors.Is(err, db.ErrKeyExists) {
			return fmt.Errorf("document %s: %w", doc.ID(), domain.ErrAlreadyExists)
		}
		return fmt.Errorf("json.set %s: %w: %w", key, domain.ErrStore, err)
	}
	return nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	key := r.key(id)
	raw, err := r.store.JSONGet(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Document{}, domain.ErrDocumentNotFound
		}
		return domdoc.Document{}, fmt.Errorf("json.get %s: %w: %w", key, domain.ErrStore, err)
	}
	return unmarshalDoc(raw)
}

// Find returns the documents matching f, most recently updated first.
// Keys are enumerated with SCAN and the predicate is evaluated in process.
func (r *Repo) Find(ctx context.Context, f filter.Text) ([]domdoc.Document, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w: %w", domain.ErrStore, err)
	}

	var out []domdoc.Document
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		raws, err := r.store.JSONGetMulti(ctx, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("fetch documents: %w: %w", domain.ErrStore, err)
		}
		for _, raw := range raws {
			if raw == nil {
				continue // deleted between SCAN and GET
			}
			doc, err := unmarshalDoc(raw)
			if err != nil {
				return nil, err
			}
			if f.Matches(&doc) {
				out = append(out, doc)
			}
		}
	}

	sortByUpdatedDesc(out)
	return out, nil
}

// CompareAndSwap replaces the stored document if its revision still equals expectedRevision.
func (r *Repo) CompareAndSwap(ctx context.Context, doc *domdoc.Document, expectedRevision int) error {
	data, err := marshalDoc(doc)
	if err != nil {
		return err
	}

	key := r.key(doc.ID())
	err = r.store.JSONCompareAndSet(ctx, key, revisionPath, expectedRevision, data)
	if err == nil {
		return nil
	}

	var mismatch *db.RevisionMismatch
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return domain.ErrDocumentNotFound
	case errors.As(err, &mismatch):
		return domain.NewRevisionConflict(mismatch.Current)
	default:
		return fmt.Errorf("cas %s: %w: %w", key, domain.ErrStore, err)
	}
}

// Delete removes a document together with its version history.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)
	existed, err := r.store.Del(ctx, key)
	if err != nil {
		return fmt.Errorf("del %s: %w: %w", key, domain.ErrStore, err)
	}
	if !existed {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.prefix + id
}
