package kbase

import (
	"github.com/kailas-cloud/kbase/internal/domain"
	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
)

func toDomainUser(u User) domain.User {
	role := domain.RoleUser
	if u.Admin {
		role = domain.RoleAdmin
	}
	return domain.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: role}
}

func fromInternalDocument(d domdoc.Document) Document {
	a := d.Author()
	return Document{
		ID:             d.ID(),
		Title:          d.Title(),
		Content:        d.Content(),
		Tags:           append([]string(nil), d.Tags()...),
		Summary:        d.Summary(),
		Author:         Author{ID: a.ID, Name: a.Name, Email: a.Email},
		CurrentVersion: d.CurrentVersion(),
		HasEmbedding:   d.HasEmbedding(),
		CreatedAt:      d.CreatedAt(),
		UpdatedAt:      d.UpdatedAt(),
	}
}

func fromInternalDocuments(docs []domdoc.Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = fromInternalDocument(d)
	}
	return out
}

func fromInternalVersion(v domdoc.Version) Version {
	return Version{
		Number:    v.VersionNumber,
		Title:     v.Title,
		Content:   v.Content,
		Tags:      append([]string(nil), v.Tags...),
		Summary:   v.Summary,
		CreatedAt: v.CreatedAt,
	}
}
