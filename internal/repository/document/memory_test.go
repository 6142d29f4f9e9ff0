package document

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/kbase/internal/domain"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
)

func TestMemoryRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	doc := testDocument(t, "doc-1", "Alpha", []string{"x"}, baseTime)

	require.NoError(t, repo.Insert(ctx, &doc))
	require.ErrorIs(t, repo.Insert(ctx, &doc), domain.ErrAlreadyExists)

	got, err := repo.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Fields(), got.Fields())

	require.NoError(t, repo.Delete(ctx, "doc-1"))
	_, err = repo.Get(ctx, "doc-1")
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "doc-1"), domain.ErrDocumentNotFound)
}

func TestMemoryRepo_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	doc := testDocument(t, "doc-1", "Alpha", nil, baseTime)
	require.NoError(t, repo.Insert(ctx, &doc))

	first, err := repo.Get(ctx, "doc-1")
	require.NoError(t, err)
	second, err := repo.Get(ctx, "doc-1")
	require.NoError(t, err)

	require.NoError(t, first.Edit("First", "c1", nil, nil, baseTime.Add(time.Minute)))
	first.BumpRevision()
	require.NoError(t, repo.CompareAndSwap(ctx, &first, 1))

	require.NoError(t, second.Edit("Second", "c2", nil, nil, baseTime.Add(time.Minute)))
	second.BumpRevision()
	err = repo.CompareAndSwap(ctx, &second, 1)
	require.ErrorIs(t, err, domain.ErrRevisionConflict)

	stored, err := repo.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "First", stored.Title())
	assert.Equal(t, 2, stored.Revision())
}

func TestMemoryRepo_CompareAndSwapMissing(t *testing.T) {
	repo := NewMemory()
	doc := testDocument(t, "doc-1", "Alpha", nil, baseTime)
	err := repo.CompareAndSwap(context.Background(), &doc, 1)
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestMemoryRepo_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	doc := testDocument(t, "doc-1", "Alpha", []string{"x"}, baseTime)
	require.NoError(t, repo.Insert(ctx, &doc))

	got, err := repo.Get(ctx, "doc-1")
	require.NoError(t, err)
	got.Tags()[0] = "mutated"

	again, err := repo.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, again.Tags())
}

func TestMemoryRepo_Find(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	a := testDocument(t, "a", "Alpha", []string{"x"}, baseTime.Add(time.Minute))
	b := testDocument(t, "b", "Beta", []string{"y"}, baseTime.Add(time.Hour))
	require.NoError(t, repo.Insert(ctx, &a))
	require.NoError(t, repo.Insert(ctx, &b))

	all, err := repo.Find(ctx, filter.Text{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID(), "most recently updated first")

	f, err := filter.NewText("", []string{"x"})
	require.NoError(t, err)
	tagged, err := repo.Find(ctx, f)
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "a", tagged[0].ID())
}
