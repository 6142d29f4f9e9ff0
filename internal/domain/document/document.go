package document

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/kbase/internal/domain"
)

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 10 << 20 // 10MB, matches the API body limit

// Author identifies the user who created a document. Ownership never changes.
type Author struct {
	ID    string
	Name  string
	Email string
}

// Document is the knowledge-base aggregate: current fields, embedding and
// an append-only version history.
type Document struct {
	id             string
	title          string
	content        string
	tags           []string
	summary        string
	embedding      []float32
	author         Author
	versions       []Version
	currentVersion int
	revision       int
	createdAt      time.Time
	updatedAt      time.Time
}

// Fields is the full persisted state, used for storage hydration.
type Fields struct {
	ID             string
	Title          string
	Content        string
	Tags           []string
	Summary        string
	Embedding      []float32
	Author         Author
	Versions       []Version
	CurrentVersion int
	Revision       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// New validates and creates a Document at version 1 with its initial snapshot.
func New(id, title, content string, tags []string, author Author, now time.Time) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required: %w", domain.ErrValidation)
	}
	if author.ID == "" {
		return Document{}, fmt.Errorf("author is required: %w", domain.ErrValidation)
	}
	title = strings.TrimSpace(title)
	if err := validateText(title, content); err != nil {
		return Document{}, err
	}

	d := Document{
		id:             id,
		title:          title,
		content:        content,
		tags:           NormalizeTags(tags),
		author:         author,
		currentVersion: 1,
		revision:       1,
		createdAt:      now,
		updatedAt:      now,
	}
	d.versions = []Version{d.snapshot(now)}
	return d, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(f Fields) Document {
	return Document{
		id:             f.ID,
		title:          f.Title,
		content:        f.Content,
		tags:           f.Tags,
		summary:        f.Summary,
		embedding:      f.Embedding,
		author:         f.Author,
		versions:       f.Versions,
		currentVersion: f.CurrentVersion,
		revision:       f.Revision,
		createdAt:      f.CreatedAt,
		updatedAt:      f.UpdatedAt,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Content returns the canonical document text.
func (d *Document) Content() string { return d.content }

// Tags returns the document tags.
func (d *Document) Tags() []string { return d.tags }

// Summary returns the human- or AI-authored summary.
func (d *Document) Summary() string { return d.summary }

// Embedding returns the content embedding, empty if never generated.
func (d *Document) Embedding() []float32 { return d.embedding }

// Author returns the creating user.
func (d *Document) Author() Author { return d.author }

// Versions returns the version log in append order.
func (d *Document) Versions() []Version { return d.versions }

// CurrentVersion returns the version counter.
func (d *Document) CurrentVersion() int { return d.currentVersion }

// Revision returns the optimistic concurrency token.
func (d *Document) Revision() int { return d.revision }

// CreatedAt returns the creation timestamp.
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the last modification timestamp.
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }

// Fields exports the full state for persistence.
func (d *Document) Fields() Fields {
	return Fields{
		ID:             d.id,
		Title:          d.title,
		Content:        d.content,
		Tags:           d.tags,
		Summary:        d.summary,
		Embedding:      d.embedding,
		Author:         d.author,
		Versions:       d.versions,
		CurrentVersion: d.currentVersion,
		Revision:       d.revision,
		CreatedAt:      d.createdAt,
		UpdatedAt:      d.updatedAt,
	}
}

// HasEmbedding reports whether an embedding is stored.
func (d *Document) HasEmbedding() bool { return len(d.embedding) > 0 }

// SetEmbedding replaces the embedding. Empty vectors are ignored so a failed
// refresh keeps the previous one.
func (d *Document) SetEmbedding(v []float32) {
	if len(v) == 0 {
		return
	}
	d.embedding = v
}

// Edit applies a full update: fields are replaced, the version counter is
// incremented and a snapshot of the new state is appended. A nil summary
// keeps the stored one.
func (d *Document) Edit(title, content string, tags []string, summary *string, now time.Time) error {
	title = strings.TrimSpace(title)
	if err := validateText(title, content); err != nil {
		return err
	}

	d.title = title
	d.content = content
	d.tags = NormalizeTags(tags)
	if summary != nil {
		d.summary = *summary
	}
	d.currentVersion++
	d.versions = append(d.versions, d.snapshot(now))
	d.updatedAt = now
	return nil
}

// SetSummary overwrites the summary without appending a version.
func (d *Document) SetSummary(summary string, now time.Time) {
	d.summary = summary
	d.updatedAt = now
}

// MergeTags appends tags not already present, keeping existing tags first.
// No version is appended. Returns the number of tags added.
func (d *Document) MergeTags(tags []string, now time.Time) int {
	merged := MergeTags(d.tags, tags)
	added := len(merged) - len(d.tags)
	d.tags = merged
	d.updatedAt = now
	return added
}

// BumpRevision advances the concurrency token before a conditional write.
func (d *Document) BumpRevision() { d.revision++ }

// VersionsNewestFirst returns a copy of the version log ordered by creation
// time descending. Equal timestamps fall back to the version number.
func (d *Document) VersionsNewestFirst() []Version {
	out := make([]Version, len(d.versions))
	copy(out, d.versions)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].VersionNumber > out[j].VersionNumber
	})
	return out
}

func (d *Document) snapshot(now time.Time) Version {
	tags := make([]string, len(d.tags))
	copy(tags, d.tags)
	return Version{
		Title:         d.title,
		Content:       d.content,
		Tags:          tags,
		Summary:       d.summary,
		VersionNumber: d.currentVersion,
		CreatedAt:     now,
	}
}

// CanMutate reports whether user may update, delete or write back to doc.
func CanMutate(doc *Document, user domain.User) bool {
	return user.IsAdmin() || (user.ID != "" && doc.author.ID == user.ID)
}

// NormalizeTags trims tags and drops empties and duplicates, keeping first occurrence order.
func NormalizeTags(tags []string) []string {
	return MergeTags(nil, tags)
}

// MergeTags returns existing followed by the incoming tags that are not
// already present. Incoming tags are trimmed; empties are dropped.
func MergeTags(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, t := range existing {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range incoming {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func validateText(title, content string) error {
	if title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required: %w", domain.ErrValidation)
	}
	if len(content) > MaxContentSize {
		return fmt.Errorf("content too large (max %d bytes): %w", MaxContentSize, domain.ErrValidation)
	}
	return nil
}
