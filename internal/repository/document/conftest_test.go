package document

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/kbase/internal/db"
	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetNXFn    func(ctx context.Context, key string, data []byte) error
	jsonGetFn      func(ctx context.Context, key string, paths ...string) ([]byte, error)
	jsonGetMultiFn func(ctx context.Context, keys []string) ([][]byte, error)
	casFn          func(ctx context.Context, key, revPath string, expected int, data []byte) error
	delFn          func(ctx context.Context, key string) (bool, error)
	scanFn         func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) JSONSetNX(ctx context.Context, key string, data []byte) error {
	if m.jsonSetNXFn != nil {
		return m.jsonSetNXFn(ctx, key, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	if m.jsonGetMultiFn != nil {
		return m.jsonGetMultiFn(ctx, keys)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockStore) JSONCompareAndSet(ctx context.Context, key, revPath string, expected int, data []byte) error {
	if m.casFn != nil {
		return m.casFn(ctx, key, revPath, expected, data)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) (bool, error) {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return true, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "kb:"), ms
}

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func testDocument(t *testing.T, id, title string, tags []string, updated time.Time) domdoc.Document {
	t.Helper()
	doc, err := domdoc.New(id, title, "content of "+title, tags,
		domdoc.Author{ID: "user-1", Name: "Ann", Email: "ann@example.com"}, baseTime)
	if err != nil {
		t.Fatalf("domdoc.New: %v", err)
	}
	if updated.After(baseTime) {
		if err := doc.Edit(title, "content of "+title, tags, nil, updated); err != nil {
			t.Fatalf("Edit: %v", err)
		}
	}
	return doc
}

func mustMarshal(t *testing.T, doc *domdoc.Document) []byte {
	t.Helper()
	data, err := marshalDoc(doc)
	if err != nil {
		t.Fatalf("marshalDoc: %v", err)
	}
	return data
}
