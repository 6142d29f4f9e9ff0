package document

import (
	"encoding/json"
	"fmt"
	"time"

	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
)

// revisionPath is the JSONPath of the concurrency token inside a stored document.
const revisionPath = "$.revision"

type jsonAuthor struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type jsonVersion struct {
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Tags          []string  `json:"tags"`
	Summary       string    `json:"summary,omitempty"`
	VersionNumber int       `json:"version_number"`
	CreatedAt     time.Time `json:"created_at"`
}

type jsonDoc struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Content        string        `json:"content"`
	Tags           []string      `json:"tags"`
	Summary        string        `json:"summary,omitempty"`
	Embedding      []float32     `json:"embedding,omitempty"`
	Author         jsonAuthor    `json:"author"`
	Versions       []jsonVersion `json:"versions"`
	CurrentVersion int           `json:"current_version"`
	Revision       int           `json:"revision"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func marshalDoc(doc *domdoc.Document) ([]byte, error) {
	f := doc.Fields()
	jd := jsonDoc{
		ID:             f.ID,
		Title:          f.Title,
		Content:        f.Content,
		Tags:           nonNil(f.Tags),
		Summary:        f.Summary,
		Embedding:      f.Embedding,
		Author:         jsonAuthor(f.Author),
		Versions:       make([]jsonVersion, len(f.Versions)),
		CurrentVersion: f.CurrentVersion,
		Revision:       f.Revision,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
	for i, v := range f.Versions {
		jd.Versions[i] = jsonVersion{
			Title:         v.Title,
			Content:       v.Content,
			Tags:          nonNil(v.Tags),
			Summary:       v.Summary,
			VersionNumber: v.VersionNumber,
			CreatedAt:     v.CreatedAt,
		}
	}

	data, err := json.Marshal(jd)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

func unmarshalDoc(data []byte) (domdoc.Document, error) {
	var jd jsonDoc
	if err := json.Unmarshal(data, &jd); err != nil {
		return domdoc.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}

	versions := make([]domdoc.Version, len(jd.Versions))
	for i, v := range jd.Versions {
		versions[i] = domdoc.Version{
			Title:         v.Title,
			Content:       v.Content,
			Tags:          v.Tags,
			Summary:       v.Summary,
			VersionNumber: v.VersionNumber,
			CreatedAt:     v.CreatedAt,
		}
	}

	return domdoc.Reconstruct(domdoc.Fields{
		ID:             jd.ID,
		Title:          jd.Title,
		Content:        jd.Content,
		Tags:           jd.Tags,
		Summary:        jd.Summary,
		Embedding:      jd.Embedding,
		Author:         domdoc.Author(jd.Author),
		Versions:       versions,
		CurrentVersion: jd.CurrentVersion,
		Revision:       jd.Revision,
		CreatedAt:      jd.CreatedAt,
		UpdatedAt:      jd.UpdatedAt,
	}), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
