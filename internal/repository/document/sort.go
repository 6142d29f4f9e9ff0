package document

import (
	"sort"

	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
)

// sortByUpdatedDesc orders documents most recently updated first, ties by id.
func sortByUpdatedDesc(docs []domdoc.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].UpdatedAt(), docs[j].UpdatedAt()
		if !a.Equal(b) {
			return a.After(b)
		}
		return docs[i].ID() < docs[j].ID()
	})
}
