package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures into the machine-readable taxonomy
// surfaced to callers.
type ErrorKind string

const (
	ErrInvalidInput          ErrorKind = "invalid_input"
	ErrLanguageDetection     ErrorKind = "language_detection_failed"
	ErrTranslationFailed     ErrorKind = "translation_failed"
	ErrSearchTransient       ErrorKind = "search_transient"
	ErrSearchPermanent       ErrorKind = "search_permanent"
	ErrNoSearchResults       ErrorKind = "no_search_results"
	ErrInsufficientCoverage  ErrorKind = "insufficient_coverage"
	ErrExtractionTimeout     ErrorKind = "extraction_timeout"
	ErrExtractionFailed      ErrorKind = "extraction_failed"
	ErrContentQuality        ErrorKind = "content_quality_gate"
	ErrInsufficientExtracted ErrorKind = "insufficient_extracted_content"
	ErrBackendUnavailable    ErrorKind = "backend_unavailable"
	ErrBackendAuth           ErrorKind = "backend_auth"
	ErrBackendRate           ErrorKind = "backend_rate"
	ErrBackendNetwork        ErrorKind = "backend_network"
	ErrBackendServer         ErrorKind = "backend_server"
	ErrBackendTimeout        ErrorKind = "backend_timeout"
	ErrModelSchemaViolation  ErrorKind = "model_schema_violation"
	ErrModelJSONParse        ErrorKind = "model_json_parse"
	ErrCriticalStageFailed   ErrorKind = "critical_analysis_stage_failed"
	ErrCancelled             ErrorKind = "cancelled"
)

// PipelineError carries an ErrorKind alongside a human-readable message and
// an optional wrapped cause.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewError creates a PipelineError with the given kind and message.
func NewError(kind ErrorKind, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a PipelineError wrapping an underlying cause.
func WrapError(kind ErrorKind, err error, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the ErrorKind from err, walking the wrap chain.
// Context cancellation maps to ErrCancelled; anything else is empty.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
