package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/kbase/internal/db"
	"github.com/kailas-cloud/kbase/internal/domain"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
)

// --- Insert ---

func TestInsert_Success(t *testing.T) {
	repo, ms := newTestRepo(t)
	doc := testDocument(t, "doc-1", "Alpha", []string{"x"}, baseTime)

	var gotKey string
	ms.jsonSetNXFn = func(_ context.Context, key string, _ []byte) error {
		gotKey = key
		return nil
	}

	if err := repo.Insert(context.Background(), &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "kb:doc:doc-1" {
		t.Errorf("unexpected key: %s", gotKey)
	}
}

func TestInsert_Duplicate(t *testing.T) {
	repo, ms := newTestRepo(t)
	doc := testDocument(t, "doc-1", "Alpha", nil, baseTime)

	ms.jsonSetNXFn = func(context.Context, string, []byte) error { return db.ErrKeyExists }

	err := repo.Insert(context.Background(), &doc)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestInsert_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	doc := testDocument(t, "doc-1", "Alpha", nil, baseTime)

	ms.jsonSetNXFn = func(context.Context, string, []byte) error {
		return &db.Error{Op: db.OpJSONSet, Err: errors.New("OOM")}
	}

	err := repo.Insert(context.Background(), &doc)
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

// --- Get ---

func TestGet_RoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)
	doc := testDocument(t, "doc-1", "Alpha", []string{"x", "y"}, baseTime.Add(time.Hour))
	doc.SetEmbedding([]float32{0.25, 0.5})
	raw := mustMarshal(t, &doc)

	ms.jsonGetFn = func(_ context.Context, key string, _ ...string) ([]byte, error) {
		if key != "kb:doc:doc-1" {
			t.Errorf("unexpected key: %s", key)
		}
		return raw, nil
	}

	got, err := repo.Get(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title() != "Alpha" || got.CurrentVersion() != 2 || len(got.Versions()) != 2 {
		t.Errorf("unexpected document: %+v", got.Fields())
	}
	if got.Author().Email != "ann@example.com" {
		t.Errorf("author not restored: %+v", got.Author())
	}
	if len(got.Embedding()) != 2 || got.Embedding()[1] != 0.5 {
		t.Errorf("embedding not restored: %v", got.Embedding())
	}
	if !got.UpdatedAt().Equal(baseTime.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt())
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

// --- Find ---

func TestFind_FiltersAndOrders(t *testing.T) {
	repo, ms := newTestRepo(t)
	older := testDocument(t, "a", "Alpha notes", []string{"x"}, baseTime.Add(time.Minute))
	newer := testDocument(t, "b", "Alpha plans", []string{"y"}, baseTime.Add(time.Hour))
	other := testDocument(t, "c", "Gamma", []string{"x"}, baseTime.Add(2*time.Hour))

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "kb:doc:*" {
			t.Errorf("unexpected pattern: %s", pattern)
		}
		return []string{"kb:doc:a", "kb:doc:b", "kb:doc:c", "kb:doc:gone"}, nil
	}
	ms.jsonGetMultiFn = func(_ context.Context, keys []string) ([][]byte, error) {
		if len(keys) != 4 {
			t.Errorf("expected 4 keys, got %d", len(keys))
		}
		return [][]byte{mustMarshal(t, &older), mustMarshal(t, &newer), mustMarshal(t, &other), nil}, nil
	}

	f, _ := filter.NewText("alpha", nil)
	docs, err := repo.Find(context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID() != "b" || docs[1].ID() != "a" {
		t.Errorf("unexpected order: %s, %s", docs[0].ID(), docs[1].ID())
	}
}

func TestFind_ScanError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(context.Context, string) ([]string, error) { return nil, errors.New("down") }

	_, err := repo.Find(context.Background(), filter.Text{})
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

// --- CompareAndSwap ---

func TestCompareAndSwap_Success(t *testing.T) {
	repo, ms := newTestRepo(t)
	doc := testDocument(t, "doc-1", "Alpha", nil, baseTime)

	ms.casFn = func(_ context.Context, key, revPath string, expected int, _ []byte) error {
		if key != "kb:doc:doc-1" || revPath != "$.revision" || expected != 3 {
			t.Errorf("unexpected args: %s %s %d", key, revPath, expected)
		}
		return nil
	}

	if err := repo.CompareAndSwap(context.Background(), &doc, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCompareAndSwap_Errors(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		want     error
	}{
		{"mismatch", &db.RevisionMismatch{Current: 4}, domain.ErrRevisionConflict},
		{"missing", db.ErrKeyNotFound, domain.ErrDocumentNotFound},
		{"transport", &db.Error{Op: db.OpEval, Err: errors.New("timeout")}, domain.ErrStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, ms := newTestRepo(t)
			doc := testDocument(t, "doc-1", "Alpha", nil, baseTime)
			ms.casFn = func(context.Context, string, string, int, []byte) error { return tt.storeErr }

			err := repo.CompareAndSwap(context.Background(), &doc, 1)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// --- Delete ---

func TestDelete_Success(t *testing.T) {
	repo, _ := newTestRepo(t)
	if err := repo.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.delFn = func(context.Context, string) (bool, error) { return false, nil }

	err := repo.Delete(context.Background(), "doc-1")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
