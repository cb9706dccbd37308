// Package apperr defines the error kinds shared by the ingestion and query
// pipelines. Stages wrap one of these sentinels with fmt.Errorf("...: %w", ...)
// so handlers can map failures to HTTP statuses with errors.Is.
package apperr

import "errors"

var (
	// ErrValidation marks bad input shape or type (4xx).
	ErrValidation = errors.New("validation error")

	// ErrExtraction marks an unreadable, encrypted or effectively empty PDF.
	ErrExtraction = errors.New("extraction error")

	// ErrProvider marks an embedding or completion provider failure,
	// potentially retryable.
	ErrProvider = errors.New("provider error")

	// ErrStorage marks a persistence failure.
	ErrStorage = errors.New("storage error")
)
