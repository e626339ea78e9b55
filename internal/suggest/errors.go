package suggest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
)

// Category is the user-facing class of a failed suggestion request.
type Category string

const (
	CategoryNetwork   Category = "network"
	CategoryTimeout   Category = "timeout"
	CategoryRateLimit Category = "rateLimit"
	CategoryGeneric   Category = "generic"
)

// Message returns the fixed text shown to the applicant for c.
func (c Category) Message() string {
	switch c {
	case CategoryNetwork:
		return "Network error. Please check your connection and try again."
	case CategoryTimeout:
		return "The request timed out. Please try again."
	case CategoryRateLimit:
		return "Too many requests. Please wait a moment and try again."
	}
	return "Unable to generate a suggestion right now. Please try again."
}

var (
	// ErrMissingAPIKey is returned before any network call when the provider
	// has no credentials.
	ErrMissingAPIKey = errors.New("AI API key is not configured")
	// ErrEmptyCompletion is returned when the provider answered with no text.
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrUnsupportedField is returned for fields the assistant cannot write.
	ErrUnsupportedField = errors.New("suggestions are only available for narrative fields")
	// ErrNoActiveField is returned by modal actions when the modal is closed.
	ErrNoActiveField = errors.New("no suggestion in progress")
	// ErrNoSuggestion is returned by Accept while there is no text to accept.
	ErrNoSuggestion = errors.New("no suggestion to accept")
	// ErrClosed is returned after the assistant has been shut down.
	ErrClosed = errors.New("assistant closed")
)

// Error is a classified provider failure.
type Error struct {
	Category Category
	Err      error
}

func (e *Error) Error() string { return string(e.Category) + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Classify maps a provider error onto the four categories:
// deadline, cancellation and timeout net errors are timeouts; a 429 status
// is a rate limit; a transport failure without a response is a network
// error; anything else is generic.
func Classify(err error) Category {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Category
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTimeout
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusTooManyRequests {
			return CategoryRateLimit
		}
		return CategoryGeneric
	}
	if code, ok := geminiStatus(err); ok {
		if code == http.StatusTooManyRequests {
			return CategoryRateLimit
		}
		return CategoryGeneric
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return CategoryTimeout
	}
	var ue *url.Error
	var oe *net.OpError
	if errors.As(err, &ue) || errors.As(err, &oe) {
		return CategoryNetwork
	}
	return CategoryGeneric
}

func classify(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Category: Classify(err), Err: err}
}
