package spellbook

import "errors"

// Provider sentinels classify patch-adaptation failures for transport
// mapping. They are returned wrapped, so match with errors.Is.
var (
	ErrProviderTimeout       = errors.New("content provider timed out")
	ErrProviderNotConfigured = errors.New("content provider not configured")
	ErrProviderUpstream      = errors.New("content provider upstream failure")
)

// ValidationError marks input or provider-output problems the caller can
// fix, as opposed to infrastructure failures.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}
