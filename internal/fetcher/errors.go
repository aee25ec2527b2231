package fetcher

import (
	"errors"
	"fmt"

	"hotsoonripper/internal/errs"
)

// AttemptKind classifies why a single download attempt failed.
type AttemptKind string

const (
	// KindTransport covers dial, TLS, header and body read failures including timeouts.
	KindTransport AttemptKind = "transport"
	// KindStatus covers non-2xx responses.
	KindStatus AttemptKind = "status"
	// KindWrite covers local filesystem failures.
	KindWrite AttemptKind = "write"
)

// AttemptError is the typed failure of one attempt.
type AttemptError struct {
	Attempt    int
	Kind       AttemptKind
	StatusCode int
	Err        error
}

func (e *AttemptError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("attempt %d: %s %d: %v", e.Attempt, e.Kind, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("attempt %d: %s: %v", e.Attempt, e.Kind, e.Err)
}

func (e *AttemptError) Unwrap() error { return e.Err }

// Terminal reports whether retrying cannot help.
func (e *AttemptError) Terminal() bool {
	return errors.Is(e.Err, errs.ErrAccessDenied)
}

// classifyAttemptError maps an attempt error to a metrics label.
func classifyAttemptError(err error) string {
	if err == nil {
		return "ok"
	}

	var ae *AttemptError
	if !errors.As(err, &ae) {
		return "unknown"
	}

	if ae.Terminal() {
		return "denied"
	}

	return string(ae.Kind)
}
