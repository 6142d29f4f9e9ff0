package kbase

import "github.com/kailas-cloud/kbase/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation       = domain.ErrValidation
	ErrUnauthorized     = domain.ErrUnauthorized
	ErrForbidden        = domain.ErrForbidden
	ErrDocumentNotFound = domain.ErrDocumentNotFound
	ErrAlreadyExists    = domain.ErrAlreadyExists
	ErrStore            = domain.ErrStore
	ErrAIService        = domain.ErrAIService
)
