// Package suggest drafts narrative answers for the intake wizard with a
// text-generation model.
//
// A Client owns the provider (mock, OpenAI-compatible HTTP, or Gemini) and
// the request settings. Each wizard session gets its own Assistant from the
// Client; the Assistant keeps the modal state, a context-hash keyed cache and
// a per-field in-flight guard so at most one request per field runs at a
// time. Late results of cancelled requests never reach the modal state.
package suggest

import (
	"context"
	"fmt"
)

// Chat roles used in Request.Messages.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the chat-style payload sent to a provider.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`

	// Field is the target narrative. Providers that do not call a model
	// (the mock) use it to pick a canned answer; it is not serialized.
	Field string `json:"-"`
}

// Provider turns a Request into completion text.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (string, error)

// Complete implements Provider.
func (f ProviderFunc) Complete(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// StatusError is returned when the provider answered with a non-success
// HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider returned status %d", e.Code)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.Code, e.Body)
}
