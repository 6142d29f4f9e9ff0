package document

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kailas-cloud/kbase/internal/domain"
	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	docrepo "github.com/kailas-cloud/kbase/internal/repository/document"
)

// --- Mocks ---

// fakeRepo is an in-memory store that can inject revision conflicts.
type fakeRepo struct {
	*docrepo.MemoryRepo
	conflicts  int                                  // CAS calls to reject before delegating
	beforeCAS  func(ctx context.Context, id string) // simulates a concurrent writer
	casCalls   int
	findErr    error
	deleteCall string
}

func newFakeRepo() *fakeRepo { return &fakeRepo{MemoryRepo: docrepo.NewMemory()} }

func (f *fakeRepo) CompareAndSwap(ctx context.Context, doc *domdoc.Document, expected int) error {
	f.casCalls++
	if f.beforeCAS != nil {
		hook := f.beforeCAS
		f.beforeCAS = nil
		hook(ctx, doc.ID())
	}
	if f.conflicts > 0 {
		f.conflicts--
		return domain.NewRevisionConflict(expected + 1)
	}
	return f.MemoryRepo.CompareAndSwap(ctx, doc, expected)
}

func (f *fakeRepo) Find(ctx context.Context, flt filter.Text) ([]domdoc.Document, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.MemoryRepo.Find(ctx, flt)
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.deleteCall = id
	return f.MemoryRepo.Delete(ctx, id)
}

type mockEmbedder struct {
	vec   []float32
	calls int
}

func (m *mockEmbedder) EmbedBestEffort(_ context.Context, _ string) []float32 {
	m.calls++
	return m.vec
}

// --- Helpers ---

var (
	alice = domain.User{ID: "alice", Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser}
	bob   = domain.User{ID: "bob", Name: "Bob", Role: domain.RoleUser}
	root  = domain.User{ID: "root", Role: domain.RoleAdmin}
)

func newTestService(repo Repository, emb *mockEmbedder) *Service {
	svc := New(repo, emb)
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("doc-%d", n)
	}
	return svc
}

func mustCreate(t *testing.T, svc *Service, title string, user domain.User) domdoc.Document {
	t.Helper()
	doc, err := svc.Create(context.Background(), CreateInput{Title: title, Content: "body of " + title, Tags: []string{"go"}}, user)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return doc
}

// assertUnchanged fails if the stored document differs from before in any
// field a mutation could touch.
func assertUnchanged(t *testing.T, svc *Service, before domdoc.Document) {
	t.Helper()
	after, err := svc.Get(context.Background(), before.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if after.Revision() != before.Revision() {
		t.Errorf("revision = %d, want %d", after.Revision(), before.Revision())
	}
	if len(after.Versions()) != len(before.Versions()) || after.CurrentVersion() != before.CurrentVersion() {
		t.Errorf("versions = %d (counter %d), want %d (counter %d)",
			len(after.Versions()), after.CurrentVersion(), len(before.Versions()), before.CurrentVersion())
	}
	if fmt.Sprint(after.Tags()) != fmt.Sprint(before.Tags()) {
		t.Errorf("tags = %v, want %v", after.Tags(), before.Tags())
	}
	if after.Summary() != before.Summary() || after.Title() != before.Title() || after.Content() != before.Content() {
		t.Errorf("content changed: %+v", after.Fields())
	}
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	repo := newFakeRepo()
	emb := &mockEmbedder{vec: []float32{0.1, 0.2}}
	svc := newTestService(repo, emb)

	doc := mustCreate(t, svc, "Runbook", alice)

	if doc.ID() != "doc-1" {
		t.Errorf("ID = %q", doc.ID())
	}
	if doc.CurrentVersion() != 1 || len(doc.Versions()) != 1 {
		t.Errorf("expected version 1 with one snapshot, got %d/%d", doc.CurrentVersion(), len(doc.Versions()))
	}
	if doc.Author().ID != "alice" || doc.Author().Email != "alice@example.com" {
		t.Errorf("unexpected author %+v", doc.Author())
	}
	if !doc.HasEmbedding() {
		t.Error("expected embedding")
	}

	stored, err := repo.Get(context.Background(), doc.ID())
	if err != nil {
		t.Fatalf("stored doc: %v", err)
	}
	if stored.Title() != "Runbook" {
		t.Errorf("stored title = %q", stored.Title())
	}
}

func TestCreate_EmbeddingFailureStillSaves(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mockEmbedder{})

	doc := mustCreate(t, svc, "Plain", alice)
	if doc.HasEmbedding() {
		t.Error("expected empty embedding")
	}
	if _, err := repo.Get(context.Background(), doc.ID()); err != nil {
		t.Fatalf("document not stored: %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"missing title", CreateInput{Content: "c"}, "title"},
		{"blank title", CreateInput{Title: "   ", Content: "c"}, "title"},
		{"missing content", CreateInput{Title: "t"}, "content"},
		{"blank content", CreateInput{Title: "t", Content: "\n\t "}, "content"},
		{"too many tags", CreateInput{Title: "t", Content: "c", Tags: make([]string, MaxTags+1)}, "tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := &mockEmbedder{}
			_, err := newTestService(newFakeRepo(), emb).Create(context.Background(), tt.in, alice)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("expected field %q in %v", tt.field, verr.Fields)
			}
			if emb.calls != 0 {
				t.Error("embedder must not be called for invalid input")
			}
		})
	}
}

func TestCreate_Anonymous(t *testing.T) {
	svc := newTestService(newFakeRepo(), &mockEmbedder{})
	_, err := svc.Create(context.Background(), CreateInput{Title: "t", Content: "c"}, domain.User{})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

// --- Update ---

func TestUpdate_AppendsVersion(t *testing.T) {
	repo := newFakeRepo()
	emb := &mockEmbedder{vec: []float32{1}}
	svc := newTestService(repo, emb)
	doc := mustCreate(t, svc, "Draft", alice)

	emb.vec = []float32{2}
	got, err := svc.Update(context.Background(), doc.ID(), UpdateInput{
		Title: "Final", Content: "new body", Tags: []string{"ops"},
	}, alice)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got.CurrentVersion() != 2 || len(got.Versions()) != 2 {
		t.Fatalf("expected 2 versions, got counter=%d len=%d", got.CurrentVersion(), len(got.Versions()))
	}
	if got.Versions()[1].Title != "Final" || got.Versions()[0].Title != "Draft" {
		t.Errorf("unexpected history %+v", got.Versions())
	}
	if len(got.Tags()) != 1 || got.Tags()[0] != "ops" {
		t.Errorf("tags should be replaced, got %v", got.Tags())
	}
	if got.Embedding()[0] != 2 {
		t.Errorf("embedding not refreshed: %v", got.Embedding())
	}
	if got.Revision() != doc.Revision()+1 {
		t.Errorf("revision = %d, want %d", got.Revision(), doc.Revision()+1)
	}
	if !got.UpdatedAt().After(doc.UpdatedAt()) {
		t.Error("updatedAt not refreshed")
	}
}

func TestUpdate_FailedEmbeddingKeepsPrevious(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{0.5}}
	svc := newTestService(newFakeRepo(), emb)
	doc := mustCreate(t, svc, "T", alice)

	emb.vec = nil
	got, err := svc.Update(context.Background(), doc.ID(), UpdateInput{Title: "T", Content: "c2"}, alice)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got.Embedding()) != 1 || got.Embedding()[0] != 0.5 {
		t.Errorf("expected previous embedding, got %v", got.Embedding())
	}
}

func TestUpdate_Summary(t *testing.T) {
	svc := newTestService(newFakeRepo(), &mockEmbedder{})
	doc := mustCreate(t, svc, "T", alice)
	ctx := context.Background()

	if _, err := svc.SetSummary(ctx, doc.ID(), "kept", alice); err != nil {
		t.Fatalf("SetSummary: %v", err)
	}

	empty := ""
	got, err := svc.Update(ctx, doc.ID(), UpdateInput{Title: "T", Content: "c", Summary: &empty}, alice)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Summary() != "kept" {
		t.Errorf("empty summary must not overwrite, got %q", got.Summary())
	}

	s := "manual"
	got, err = svc.Update(ctx, doc.ID(), UpdateInput{Title: "T", Content: "c", Summary: &s}, alice)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Summary() != "manual" {
		t.Errorf("summary = %q", got.Summary())
	}
}

func TestUpdate_Authorization(t *testing.T) {
	svc := newTestService(newFakeRepo(), &mockEmbedder{})
	doc := mustCreate(t, svc, "T", alice)
	summary := "stranger summary"
	in := UpdateInput{Title: "Hijacked", Content: "c", Tags: []string{"x"}, Summary: &summary}

	if _, err := svc.Update(context.Background(), doc.ID(), in, bob); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-owner, got %v", err)
	}
	assertUnchanged(t, svc, doc)

	in = UpdateInput{Title: "T", Content: "c"}
	if _, err := svc.Update(context.Background(), doc.ID(), in, root); err != nil {
		t.Errorf("admin update failed: %v", err)
	}
}

func TestUpdate_ValidationBeforeLookup(t *testing.T) {
	svc := newTestService(newFakeRepo(), &mockEmbedder{})
	_, err := svc.Update(context.Background(), "missing", UpdateInput{Title: "", Content: "c"}, alice)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	emb := &mockEmbedder{}
	svc := newTestService(newFakeRepo(), emb)
	_, err := svc.Update(context.Background(), "missing", UpdateInput{Title: "t", Content: "c"}, alice)
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if emb.calls != 0 {
		t.Error("embedder must not be called for a missing document")
	}
}

func TestUpdate_RetriesOnConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mockEmbedder{})
	doc := mustCreate(t, svc, "T", alice)

	// A concurrent tag merge lands between our read and our write.
	repo.beforeCAS = func(ctx context.Context, id string) {
		other := newTestService(repo.MemoryRepo, &mockEmbedder{})
		if _, err := other.MergeTags(ctx, id, []string{"concurrent"}, alice); err != nil {
			t.Errorf("concurrent merge: %v", err)
		}
	}

	got, err := svc.Update(context.Background(), doc.ID(), UpdateInput{Title: "T2", Content: "c2", Tags: []string{"go"}}, alice)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if repo.casCalls != 2 {
		t.Errorf("expected 2 CAS attempts, got %d", repo.casCalls)
	}
	if got.CurrentVersion() != 2 {
		t.Errorf("version = %d, want 2", got.CurrentVersion())
	}
	// Revision went 1 (create) -> 2 (merge) -> 3 (update).
	if got.Revision() != 3 {
		t.Errorf("revision = %d, want 3", got.Revision())
	}
}

func TestUpdate_ConflictRetriesExhausted(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mockEmbedder{}).WithMaxRetries(2)
	doc := mustCreate(t, svc, "T", alice)

	repo.conflicts = 100
	_, err := svc.Update(context.Background(), doc.ID(), UpdateInput{Title: "T", Content: "c"}, alice)

	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if !errors.Is(err, domain.ErrRevisionConflict) {
		t.Errorf("expected conflict in chain, got %v", err)
	}
	if repo.casCalls != 3 {
		t.Errorf("expected 3 attempts, got %d", repo.casCalls)
	}

	stored, _ := repo.Get(context.Background(), doc.ID())
	if stored.CurrentVersion() != 1 {
		t.Errorf("failed update must not persist, version = %d", stored.CurrentVersion())
	}
}

func TestUpdate_VersionCountAfterManyUpdates(t *testing.T) {
	svc := newTestService(newFakeRepo(), &mockEmbedder{})
	doc := mustCreate(t, svc, "T", alice)

	const n = 5
	var got domdoc.Document
	for i := 0; i < n; i++ {
		var err error
		got, err = svc.Update(context.Background(), doc.ID(), UpdateInput{Title: "T", Content: fmt.Sprint(i)}, alice)
		if err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
	}
	if len(got.Versions()) != n+1 || got.CurrentVersion() != n+1 {
		t.Fatalf("expected %d versions, got %d (counter %d)", n+1, len(got.Versions()), got.CurrentVersion())
	}
}

// --- Delete ---

func TestDelete(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &mockEmbedder{})
	doc := mustCreate(t, svc, "T", alice)
	ctx := context.Background()

	if err := svc.Delete(ctx, doc.ID(), bob); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if repo.deleteCall != "" {
		t.Fatal("forbidden delete reached the store")
	}
	if err := svc.Delete(ctx, doc.ID(), alice); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Versions(ctx, doc.ID()); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected versions gone, got %v", err)
	}
	if err := svc.Delete(ctx, doc.ID(), alice); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

// --- Writebacks ---

func TestSetSummary_NoVersion(t *testing.T) {
	svc := newTestService(newFakeRepo(), &mockEmbedder{})
	doc := mustCreate(t, svc, "T", alice)

	got, err := svc.SetSummary(context.Background(), doc.ID(), "  short  ", alice)
	if err != nil {
		t.Fatalf("SetSummary: %v", err)
	}
	if got.Summary() != "short" {
		t.Errorf("summary = %q", got.Summary())
	}
	if got.CurrentVersion() != 1 || len(got.Versions()) != 1 {
		t.Error("writeback must not append a version")
	}
	if !got.UpdatedAt().After(doc.UpdatedAt()) {
		t.Error("updatedAt not refreshed")
	}
}

func TestSetSummary_Errors(t *testing.T) {
	svc := newTestService(newFakeRepo(), &mockEmbedder{})
	doc := mustCreate(t, svc, "T", alice)
	ctx := context.Background()

	if _, err := svc.SetSummary(ctx, doc.ID(), " ", alice); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.SetSummary(ctx, doc.ID(), "s", bob); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	assertUnchanged(t, svc, doc)
	if _, err := svc.SetSummary(ctx, "missing", "s", alice); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestMergeTags(t *testing.T) {
	svc := newTestService(newFakeRepo(), &mockEmbedder{})
	doc := mustCreate(t, svc, "T", alice)
	ctx := context.Background()

	got, err := svc.MergeTags(ctx, doc.ID(), []string{"ai", "go", " search "}, alice)
	if err != nil {
		t.Fatalf("MergeTags: %v", err)
	}
	want := []string{"go", "ai", "search"}
	if fmt.Sprint(got.Tags()) != fmt.Sprint(want) {
		t.Errorf("tags = %v, want %v", got.Tags(), want)
	}

	again, err := svc.MergeTags(ctx, doc.ID(), []string{"ai", "go", "search"}, alice)
	if err != nil {
		t.Fatalf("MergeTags: %v", err)
	}
	if fmt.Sprint(again.Tags()) != fmt.Sprint(want) {
		t.Errorf("merge not idempotent: %v", again.Tags())
	}
	if again.CurrentVersion() != 1 {
		t.Error("writeback must not append a version")
	}

	if _, err := svc.MergeTags(ctx, doc.ID(), []string{" ", ""}, alice); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestMergeTags_Forbidden(t *testing.T) {
	svc := newTestService(newFakeRepo(), &mockEmbedder{})
	doc := mustCreate(t, svc, "T", alice)

	if _, err := svc.MergeTags(context.Background(), doc.ID(), []string{"ai"}, bob); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	assertUnchanged(t, svc, doc)
}

// --- Reads ---

func TestVersions_NewestFirst(t *testing.T) {
	svc := newTestService(newFakeRepo(), &mockEmbedder{})
	doc := mustCreate(t, svc, "v1", alice)
	for _, title := range []string{"v2", "v3"} {
		if _, err := svc.Update(context.Background(), doc.ID(), UpdateInput{Title: title, Content: "c"}, alice); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	versions, err := svc.Versions(context.Background(), doc.ID())
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
	for i, want := range []int{3, 2, 1} {
		if versions[i].VersionNumber != want {
			t.Errorf("versions[%d] = %d, want %d", i, versions[i].VersionNumber, want)
		}
	}
}

func TestList_Pagination(t *testing.T) {
	svc := newTestService(newFakeRepo(), &mockEmbedder{}).WithPagination(2, 3)
	for i := 1; i <= 5; i++ {
		mustCreate(t, svc, fmt.Sprintf("d%d", i), alice)
	}
	ctx := context.Background()

	tests := []struct {
		name      string
		page      int
		limit     int
		wantIDs   []string
		wantLimit int
		wantPages int
	}{
		{"defaults", 0, 0, []string{"doc-5", "doc-4"}, 2, 3},
		{"second page", 2, 2, []string{"doc-3", "doc-2"}, 2, 3},
		{"last page", 3, 2, []string{"doc-1"}, 2, 3},
		{"past the end", 9, 2, nil, 2, 3},
		{"limit clamped", 1, 50, []string{"doc-5", "doc-4", "doc-3"}, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.List(ctx, tt.page, tt.limit)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if p.Total != 5 || p.Limit != tt.wantLimit || p.Pages != tt.wantPages {
				t.Errorf("total=%d limit=%d pages=%d", p.Total, p.Limit, p.Pages)
			}
			var ids []string
			for i := range p.Documents {
				ids = append(ids, p.Documents[i].ID())
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.wantIDs) {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestList_StoreError(t *testing.T) {
	repo := newFakeRepo()
	repo.findErr = fmt.Errorf("scan: %w", domain.ErrStore)
	_, err := newTestService(repo, &mockEmbedder{}).List(context.Background(), 1, 10)
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

func TestRecent(t *testing.T) {
	svc := newTestService(newFakeRepo(), &mockEmbedder{})
	for i := 1; i <= 7; i++ {
		mustCreate(t, svc, fmt.Sprintf("d%d", i), alice)
	}
	// Touching the oldest document moves it to the top of the feed.
	if _, err := svc.SetSummary(context.Background(), "doc-1", "touched", alice); err != nil {
		t.Fatalf("SetSummary: %v", err)
	}

	docs, err := svc.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(docs) != DefaultRecentLimit {
		t.Fatalf("expected %d docs, got %d", DefaultRecentLimit, len(docs))
	}
	if docs[0].ID() != "doc-1" || docs[1].ID() != "doc-7" {
		t.Errorf("unexpected order: %s, %s", docs[0].ID(), docs[1].ID())
	}
}
