package framework

import (
	"errors"
	"fmt"
)

// ValidationError marks client-side failures: malformed or incomplete plans,
// missing required task arguments, and dispatch preconditions the plan
// violated (analyzing before any data exists, visualizing without a table).
// The HTTP layer maps these to a 400-class status.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// NewValidationError builds a ValidationError from a plain message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ProviderError wraps a failure inside a provider: network errors, SQL
// execution errors, rendering errors, model failures. Surfaced as a
// 500-class status. Provider names the failing component for logs.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Providerf wraps err with the provider name, preserving the chain.
func Providerf(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// Sentinels for the engine's dispatch preconditions. All are
// ValidationErrors: they describe plans that ask for the impossible, not
// provider malfunctions.
var (
	// ErrMissingURL rejects a scrape task with no url, before any network
	// call is attempted.
	ErrMissingURL = NewValidationError("scrape task requires a url")

	// ErrNoData rejects an analyze task when the context holds no artifact.
	ErrNoData = NewValidationError("no data in context to analyze; a scrape task must run first")

	// ErrNoTable rejects a visualize task when the context artifact is not
	// tabular.
	ErrNoTable = NewValidationError("visualization requires tabular data; the scraped source yielded none")
)
