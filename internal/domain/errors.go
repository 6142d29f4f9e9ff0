package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a missing or malformed request field.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized signals a missing or invalid identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals that the requester may not mutate the resource.
	ErrForbidden = errors.New("not authorized to edit this document")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrAlreadyExists signals a duplicate document id.
	ErrAlreadyExists = errors.New("already exists")

	// ErrRevisionConflict signals an optimistic locking conflict.
	ErrRevisionConflict = errors.New("revision conflict")
	// ErrStore signals an unavailable store or an exhausted conflict retry budget.
	ErrStore = errors.New("store error")

	// ErrAIService signals that a generation, embedding or answer call failed
	// or returned unusable output.
	ErrAIService = errors.New("ai service error")
)

// RevisionConflictError wraps ErrRevisionConflict with the current resource revision.
type RevisionConflictError struct {
	CurrentRevision int
}

func (e *RevisionConflictError) Error() string {
	return fmt.Sprintf("%s: current revision is %d", ErrRevisionConflict.Error(), e.CurrentRevision)
}

func (e *RevisionConflictError) Unwrap() error { return ErrRevisionConflict }

// NewRevisionConflict creates a revision conflict error.
func NewRevisionConflict(currentRevision int) error {
	return &RevisionConflictError{CurrentRevision: currentRevision}
}

// ValidationError carries per-field messages and unwraps to ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %v", ErrValidation.Error(), e.Fields)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
