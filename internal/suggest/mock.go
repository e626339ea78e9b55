package suggest

import (
	"context"
	"time"
)

// DefaultMockDelay is the artificial latency of MockProvider.
const DefaultMockDelay = 1500 * time.Millisecond

// MockProvider answers with a canned per-field text after Delay, without any
// network access. It exists so caching, cancellation and the modal flow work
// without credentials.
type MockProvider struct {
	Delay   time.Duration
	Prompts *Catalogue
}

// NewMockProvider returns a MockProvider using the embedded catalogue.
func NewMockProvider(delay time.Duration) *MockProvider {
	return &MockProvider{Delay: delay, Prompts: DefaultCatalogue()}
}

// Complete implements Provider.
func (m *MockProvider) Complete(ctx context.Context, req Request) (string, error) {
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	cat := m.Prompts
	if cat == nil {
		cat = DefaultCatalogue()
	}
	text := cat.Mock(req.Field)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
