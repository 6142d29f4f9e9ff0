package document

import "time"

// Version is an immutable snapshot of a document's content-bearing fields.
type Version struct {
	Title         string
	Content       string
	Tags          []string
	Summary       string
	VersionNumber int
	CreatedAt     time.Time
}
