package apperrors

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
