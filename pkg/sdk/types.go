package kbase

import "time"

// User is the identity mutations are performed as.
type User struct {
	ID    string
	Name  string
	Email string
	Admin bool
}

// Author identifies the creator of a document.
type Author struct {
	ID    string
	Name  string
	Email string
}

// Document is a knowledge-base entry with its current fields.
type Document struct {
	ID             string
	Title          string
	Content        string
	Tags           []string
	Summary        string
	Author         Author
	CurrentVersion int
	HasEmbedding   bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Version is an immutable snapshot from a document's history.
type Version struct {
	Number    int
	Title     string
	Content   string
	Tags      []string
	Summary   string
	CreatedAt time.Time
}

// DocumentInput holds the fields of a new document.
type DocumentInput struct {
	Title   string
	Content string
	Tags    []string
}

// DocumentUpdate replaces the editable fields. A nil or empty Summary
// keeps the current one.
type DocumentUpdate struct {
	Title   string
	Content string
	Tags    []string
	Summary *string
}

// Page is one page of documents, most recently updated first.
type Page struct {
	Documents []Document
	Page      int
	Limit     int
	Total     int
	Pages     int
}

// SearchHit is a semantic search result.
type SearchHit struct {
	Document   Document
	Similarity float64
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}
