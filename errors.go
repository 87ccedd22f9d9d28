package autolocalize

import (
	"fmt"
	"strings"
)

// ProviderError indicates an AI provider failure (API error, timeout,
// malformed response, etc.).
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// StoreError indicates a record-store read or write failure.
type StoreError struct {
	Message    string
	Cause      error
	Collection string
	ID         string
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("store error: %s", e.Message)
	if e.Collection != "" {
		msg += fmt.Sprintf(" (%s/%s)", e.Collection, e.ID)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// ResponseKeyError indicates the AI response did not contain every
// requested field path as a string value.
type ResponseKeyError struct {
	Missing []string
}

func (e *ResponseKeyError) Error() string {
	return fmt.Sprintf("translation response missing keys: %s", strings.Join(e.Missing, ", "))
}
