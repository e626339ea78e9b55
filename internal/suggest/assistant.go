package suggest

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-intake-backend/internal/domain"
)

// Target is the form the assistant reads context from and writes accepted
// text into.
type Target interface {
	FormData() domain.ApplicationRecord
	UpdateField(name string, value any) error
}

// State is the suggestion modal as the presentation layer renders it.
type State struct {
	Open          bool     `json:"open"`
	Field         string   `json:"field,omitempty"`
	Loading       bool     `json:"loading"`
	Suggestion    string   `json:"suggestion,omitempty"`
	FromCache     bool     `json:"fromCache,omitempty"`
	ErrorCategory Category `json:"errorCategory,omitempty"`
	Error         string   `json:"error,omitempty"`
}

type pending struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Assistant runs the suggestion workflow of one wizard session.
//
// Requests for different fields may run concurrently; a field with a
// request in flight rejects further requests until it settles. Accept,
// Edit, Discard and Close cancel the request of the affected field and
// forget it, so its late result is dropped.
type Assistant struct {
	client *Client
	target Target
	cache  *Cache
	guard  *KeyedGuard
	log    zerolog.Logger

	base     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu       sync.Mutex
	state    State
	inflight map[string]*pending
	closed   bool
}

// NewAssistant returns an Assistant writing into target.
func (c *Client) NewAssistant(target Target) *Assistant {
	base, cancel := context.WithCancel(context.Background())
	return &Assistant{
		client:   c,
		target:   target,
		cache:    NewCache(c.cfg.CacheTTL, c.cfg.Now),
		guard:    NewKeyedGuard(),
		log:      c.log,
		base:     base,
		shutdown: cancel,
		inflight: make(map[string]*pending),
	}
}

// Cache exposes the assistant's suggestion cache.
func (a *Assistant) Cache() *Cache { return a.cache }

// State returns a copy of the modal state.
func (a *Assistant) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Generate opens the modal for field and produces a suggestion, from the
// cache when the field's context is unchanged, otherwise from the provider
// in the background. While a request for field is in flight, Generate only
// re-points the modal at it.
func (a *Assistant) Generate(field string) error {
	if !domain.IsNarrative(field) || !a.client.prompts.Supports(field) {
		return ErrUnsupportedField
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}

	if a.guard.Held(field) {
		a.state = State{Open: true, Field: field, Loading: true}
		return nil
	}

	rec := a.target.FormData()
	hash := a.client.prompts.ContextHash(field, rec)
	if e, ok := a.cache.Get(field, hash); ok {
		suggestionCacheHits.Inc()
		a.state = State{Open: true, Field: field, Suggestion: e.Text, FromCache: true}
		return nil
	}

	prompt, err := a.client.prompts.Build(field, rec)
	if err != nil {
		cat := CategoryGeneric
		a.state = State{Open: true, Field: field, ErrorCategory: cat, Error: cat.Message()}
		return nil
	}

	if !a.guard.TryAcquire(field) {
		return nil
	}
	ctx, cancel := context.WithTimeout(a.base, a.client.cfg.Timeout)
	p := &pending{cancel: cancel, done: make(chan struct{})}
	a.inflight[field] = p
	a.state = State{Open: true, Field: field, Loading: true}

	a.wg.Add(1)
	go a.run(ctx, p, field, hash, prompt)
	return nil
}

func (a *Assistant) run(ctx context.Context, p *pending, field, hash, prompt string) {
	defer a.wg.Done()
	defer close(p.done)
	text, err := a.client.complete(ctx, field, prompt)
	a.settle(p, field, hash, text, err)
}

func (a *Assistant) settle(p *pending, field, hash, text string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inflight[field] != p {
		// Cancelled: the modal has moved on.
		return
	}
	delete(a.inflight, field)
	a.guard.Release(field)
	p.cancel()

	if err == nil {
		a.cache.Put(field, hash, text)
	}
	if !a.state.Open || a.state.Field != field {
		return
	}
	if err != nil {
		cat := Classify(err)
		a.state = State{Open: true, Field: field, ErrorCategory: cat, Error: cat.Message()}
		return
	}
	a.state = State{Open: true, Field: field, Suggestion: text}
}

// Wait blocks until the request behind the modal settles or ctx ends.
func (a *Assistant) Wait(ctx context.Context) error {
	a.mu.Lock()
	p := a.inflight[a.state.Field]
	a.mu.Unlock()
	if p == nil {
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Accept writes the suggestion into its field and closes the modal.
func (a *Assistant) Accept() error {
	a.mu.Lock()
	if !a.state.Open {
		a.mu.Unlock()
		return ErrNoActiveField
	}
	if a.state.Suggestion == "" {
		a.mu.Unlock()
		return ErrNoSuggestion
	}
	field, text := a.state.Field, a.state.Suggestion
	a.cancelLocked(field)
	a.state = State{}
	a.mu.Unlock()

	return a.target.UpdateField(field, text)
}

// Edit writes text, the applicant's revision of the suggestion, into the
// field and closes the modal.
func (a *Assistant) Edit(text string) error {
	a.mu.Lock()
	if !a.state.Open {
		a.mu.Unlock()
		return ErrNoActiveField
	}
	field := a.state.Field
	a.cancelLocked(field)
	a.state = State{}
	a.mu.Unlock()

	return a.target.UpdateField(field, text)
}

// Discard cancels the modal's request and closes the modal without writing.
func (a *Assistant) Discard() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.Open {
		a.cancelLocked(a.state.Field)
	}
	a.state = State{}
}

// Retry asks again for the modal's field. An unchanged context is served
// from the cache.
func (a *Assistant) Retry() error {
	a.mu.Lock()
	field := a.state.Field
	open := a.state.Open
	a.mu.Unlock()
	if !open || field == "" {
		return ErrNoActiveField
	}
	return a.Generate(field)
}

// Close cancels every request in flight and resets the modal. It may be
// called at any time.
func (a *Assistant) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for field := range a.inflight {
		a.cancelLocked(field)
	}
	a.state = State{}
}

// Shutdown closes the modal, rejects further requests and waits for the
// background goroutines to exit.
func (a *Assistant) Shutdown() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.Close()
	a.shutdown()
	a.wg.Wait()
}

// Observe compares two record snapshots and empties the cache when any
// watch-list field differs. It matches form.ChangeFunc.
func (a *Assistant) Observe(prev, cur domain.ApplicationRecord) {
	for _, f := range WatchList {
		if prev.Value(f) != cur.Value(f) {
			a.cache.InvalidateAll()
			a.log.Debug().Str("field", f).Msg("suggestion cache invalidated")
			return
		}
	}
}

func (a *Assistant) cancelLocked(field string) {
	p, ok := a.inflight[field]
	if !ok {
		return
	}
	p.cancel()
	delete(a.inflight, field)
	a.guard.Release(field)
}
