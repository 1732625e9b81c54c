// Package errors provides the standardized error taxonomy for the
// research pipeline: adapter faults, schema violations, and sequencing
// preconditions are all expressed as a StageError carrying the stage that
// originated it.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Adapter errors: the external capability failed or returned an
	// unusable shape.
	ErrCodeAdapterFailed     ErrorCode = "ADAPTER_FAILED"
	ErrCodeBackendTimeout    ErrorCode = "BACKEND_TIMEOUT"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"

	// Validation errors: adapter output did not satisfy the stage's
	// schema contract.
	ErrCodeSchemaValidationFailed ErrorCode = "SCHEMA_VALIDATION_FAILED"

	// Sequencing errors: a precondition for advancing was unmet.
	ErrCodeNoDomainsFound      ErrorCode = "NO_DOMAINS_FOUND"
	ErrCodeMissingUpstreamData ErrorCode = "MISSING_UPSTREAM_DATA"
	ErrCodeRunAborted          ErrorCode = "RUN_ABORTED"
	ErrCodeUnexpectedFault     ErrorCode = "UNEXPECTED_FAULT"
)

// StageError is a structured pipeline error attributed to one stage.
type StageError struct {
	Code      ErrorCode `json:"code"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Fields    []string  `json:"fields,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StageError) Error() string {
	return fmt.Sprintf("StageError[%s] at %s: %s", e.Code, e.Stage, e.Message)
}

// NewAdapterError wraps a capability failure reported by a stage adapter.
func NewAdapterError(stageName, details string) *StageError {
	return &StageError{
		Code:      ErrCodeAdapterFailed,
		Stage:     stageName,
		Message:   "stage adapter reported a failure",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendTimeoutError wraps an adapter-level timeout.
func NewBackendTimeoutError(stageName string) *StageError {
	return &StageError{
		Code:      ErrCodeBackendTimeout,
		Stage:     stageName,
		Message:   "analysis backend timed out",
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError wraps an adapter response the normalizer could
// not map into a usable shape.
func NewMalformedResponseError(stageName, details string) *StageError {
	return &StageError{
		Code:      ErrCodeMalformedResponse,
		Stage:     stageName,
		Message:   "adapter returned an unusable response shape",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError wraps a schema-contract violation, carrying every
// violated field so callers can report complete diagnostics.
func NewValidationError(stageName string, fields []string, details string) *StageError {
	return &StageError{
		Code:      ErrCodeSchemaValidationFailed,
		Stage:     stageName,
		Message:   fmt.Sprintf("stage output violates its schema contract (%d field(s))", len(fields)),
		Details:   details,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoDomainsFoundError is raised at the domain-selection branch when
// industry analysis produced an empty opportunity list.
func NewNoDomainsFoundError(stageName string) *StageError {
	return &StageError{
		Code:      ErrCodeNoDomainsFound,
		Stage:     stageName,
		Message:   "no domains found: industry analysis returned an empty opportunity list",
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingUpstreamDataError is raised when a stage cannot run because
// neither a manual input nor a validated upstream output is available.
func NewMissingUpstreamDataError(stageName, needs string) *StageError {
	return &StageError{
		Code:      ErrCodeMissingUpstreamData,
		Stage:     stageName,
		Message:   "requires manual input",
		Details:   fmt.Sprintf("needs: %s", needs),
		Timestamp: time.Now().UTC(),
	}
}

// NewRunAbortedError marks a caller-initiated abort observed at a stage
// boundary, distinct from a stage failure.
func NewRunAbortedError(stageName string) *StageError {
	return &StageError{
		Code:      ErrCodeRunAborted,
		Stage:     stageName,
		Message:   fmt.Sprintf("aborted at stage %s", stageName),
		Timestamp: time.Now().UTC(),
	}
}

// NewUnexpectedFaultError converts a recovered panic or other unclassified
// fault into a sequencing error at the run boundary.
func NewUnexpectedFaultError(stageName string, v interface{}) *StageError {
	return &StageError{
		Code:      ErrCodeUnexpectedFault,
		Stage:     stageName,
		Message:   "unexpected fault during pipeline run",
		Details:   fmt.Sprintf("%v", v),
		Timestamp: time.Now().UTC(),
	}
}

// Category returns the taxonomy bucket of the error code.
func Category(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case code == ErrCodeAdapterFailed || code == ErrCodeBackendTimeout || code == ErrCodeMalformedResponse:
		return "ADAPTER"
	default:
		return "SEQUENCING"
	}
}
