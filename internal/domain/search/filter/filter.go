package filter

import (
	"fmt"
	"strings"

	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
)

// MaxTags is the maximum number of tags accepted in a tag filter.
const MaxTags = 32

// Text is a keyword + tag filter. The query matches title, content or
// summary case-insensitively; tags match when the document carries any of
// them. Both conditions must hold when both are set.
type Text struct {
	query string
	tags  []string
}

// NewText validates and creates a text filter. Tags are trimmed and
// empties dropped; an empty filter matches everything.
func NewText(query string, tags []string) (Text, error) {
	clean := domdoc.NormalizeTags(tags)
	if len(clean) > MaxTags {
		return Text{}, fmt.Errorf("too many tags in filter (max %d)", MaxTags)
	}
	return Text{query: strings.TrimSpace(query), tags: clean}, nil
}

// Query returns the keyword query.
func (f Text) Query() string { return f.query }

// Tags returns the tag set.
func (f Text) Tags() []string { return f.tags }

// IsEmpty reports whether the filter has no conditions.
func (f Text) IsEmpty() bool { return f.query == "" && len(f.tags) == 0 }

// Matches evaluates the filter against a document.
func (f Text) Matches(doc *domdoc.Document) bool {
	if f.query != "" {
		q := strings.ToLower(f.query)
		if !containsFold(doc.Title(), q) &&
			!containsFold(doc.Content(), q) &&
			!containsFold(doc.Summary(), q) {
			return false
		}
	}
	if len(f.tags) > 0 && !hasAnyTag(doc.Tags(), f.tags) {
		return false
	}
	return true
}

func containsFold(s, lowerSub string) bool {
	return strings.Contains(strings.ToLower(s), lowerSub)
}

func hasAnyTag(docTags, want []string) bool {
	for _, t := range docTags {
		for _, w := range want {
			if t == w {
				return true
			}
		}
	}
	return false
}
