package content

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// rawPreviewLimit bounds how much raw model output a parse error carries.
const rawPreviewLimit = 500

var (
	ErrStoreUnavailable  = errors.New("content store unavailable")
	ErrInvalidTransition = errors.New("invalid publish state transition")
)

// ValidationError reports a malformed request. It is never retried automatically.
type ValidationError struct {
	Fields []string
}

func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s", strings.Join(e.Fields, "; "))
}

// GenerationParseError means no structured array could be isolated from the model output.
type GenerationParseError struct {
	Raw string
	Err error
}

func NewGenerationParseError(raw string, err error) *GenerationParseError {
	return &GenerationParseError{Raw: Preview(raw, rawPreviewLimit), Err: err}
}

func (e *GenerationParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse generation output: %v", e.Err)
	}
	return "failed to parse generation output"
}

func (e *GenerationParseError) Unwrap() error {
	return e.Err
}

// GenerationShapeError means the output parsed but was not a non-empty list of articles.
type GenerationShapeError struct {
	Reason string
}

func (e *GenerationShapeError) Error() string {
	return fmt.Sprintf("unexpected generation output shape: %s", e.Reason)
}

// PublishFailure is the per-record persistence failure of the pipeline.
type PublishFailure struct {
	Slug   string
	Reason string
	Err    error
}

func (e *PublishFailure) Error() string {
	return fmt.Sprintf("failed to publish %q: %s", e.Slug, e.Reason)
}

func (e *PublishFailure) Unwrap() error {
	return e.Err
}

type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to %s", e.Action)
}

// TimeoutError is returned when an external call exceeds its deadline or is cancelled.
type TimeoutError struct {
	Operation string
	After     time.Duration
	Err       error
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("%s timed out after %s", e.Operation, e.After)
	}
	return fmt.Sprintf("%s was cancelled", e.Operation)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// ProviderError wraps a failed call to the generation provider that was not a timeout.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("generation provider %s failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Preview truncates s to at most limit bytes without splitting a UTF-8 sequence.
func Preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
