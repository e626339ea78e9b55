// Package services – IntakeService
//
// IntakeService hosts the wizard sessions of every applicant. It builds a
// session from its parts (draft store, form controller, navigator and
// suggestion assistant), hydrates it from a saved draft when one exists,
// evicts sessions that sat idle, and flushes pending drafts on shutdown.
//
// Observability: session lifecycle operations are OpenTelemetry-instrumented;
// spans carry the session id.
package services

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intake-backend/internal/form"
	"github.com/tbourn/go-intake-backend/internal/navigation"
	"github.com/tbourn/go-intake-backend/internal/schedule"
	"github.com/tbourn/go-intake-backend/internal/store"
	"github.com/tbourn/go-intake-backend/internal/submission"
	"github.com/tbourn/go-intake-backend/internal/suggest"
	"github.com/tbourn/go-intake-backend/internal/validation"
)

// DefaultIdleTTL is how long an untouched session stays in memory.
const DefaultIdleTTL = 30 * time.Minute

var reSessionID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// IntakeOptions configures an IntakeService. Zero values select defaults.
type IntakeOptions struct {
	SaveDelay time.Duration
	IdleTTL   time.Duration
	// Scheduler drives the debounced draft writes; nil means real timers.
	Scheduler schedule.Scheduler
	Validator *validation.Validator
	Now       func() time.Time
	Logger    zerolog.Logger
}

// IntakeService is safe for concurrent use.
type IntakeService struct {
	Backend   store.Backend
	Suggest   *suggest.Client
	Submitter *submission.Client

	opts IntakeOptions
	log  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewIntakeService wires the shared collaborators.
func NewIntakeService(backend store.Backend, sc *suggest.Client, sub *submission.Client, opts IntakeOptions) *IntakeService {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &IntakeService{
		Backend:   backend,
		Suggest:   sc,
		Submitter: sub,
		opts:      opts,
		log:       opts.Logger.With().Str("component", "intake").Logger(),
		sessions:  make(map[string]*Session),
	}
}

// Create starts a session with a fresh id.
func (s *IntakeService) Create(ctx context.Context) (*Session, error) {
	return s.Open(ctx, uuid.NewString())
}

// Open returns the live session for id, restoring it from its saved draft
// or starting an empty one when needed.
func (s *IntakeService) Open(ctx context.Context, id string) (*Session, error) {
	return s.lookup(ctx, id, true)
}

// Get returns the live session for id, or restores it from a saved draft.
// It fails with ErrSessionNotFound when neither exists.
func (s *IntakeService) Get(ctx context.Context, id string) (*Session, error) {
	return s.lookup(ctx, id, false)
}

func (s *IntakeService) lookup(ctx context.Context, id string, create bool) (*Session, error) {
	if !reSessionID.MatchString(id) {
		return nil, ErrInvalidSessionID
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if sess, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		if err := sess.touch(); err != nil {
			return nil, err
		}
		return sess, nil
	}
	s.mu.Unlock()

	tr := otel.Tracer("services/IntakeService")
	ctx, span := tr.Start(ctx, "Open",
		trace.WithAttributes(attribute.String("session.id", id)),
	)
	defer span.End()

	st := store.New(s.Backend, id, s.opts.Logger)
	saved := st.Load(ctx) != nil
	if !saved {
		_, saved = st.LoadStep(ctx)
	}
	if !saved && !create {
		return nil, ErrSessionNotFound
	}
	span.SetAttributes(attribute.Bool("session.restored", saved))

	sess := s.build(ctx, id, st)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		sess.close()
		return nil, ErrSessionClosed
	}
	// Another request may have opened the same id meanwhile.
	if existing, ok := s.sessions[id]; ok {
		sess.close()
		if err := existing.touch(); err != nil {
			return nil, err
		}
		return existing, nil
	}
	s.sessions[id] = sess
	s.log.Info().Str("session_id", id).Bool("restored", saved).Msg("session opened")
	return sess, nil
}

func (s *IntakeService) build(ctx context.Context, id string, st *store.Store) *Session {
	log := s.opts.Logger.With().Str("session_id", id).Logger()
	fc := form.New(st, form.Options{
		Scheduler: s.opts.Scheduler,
		SaveDelay: s.opts.SaveDelay,
		Validator: s.opts.Validator,
		Logger:    log,
	})
	fc.Hydrate(ctx)

	sess := &Session{
		ID:        id,
		form:      fc,
		assistant: s.Suggest.NewAssistant(fc),
		store:     st,
		submitter: s.Submitter,
		log:       log,
		now:       s.opts.Now,
		lastUsed:  s.opts.Now(),
	}
	sess.nav = navigation.New(fc, sess.scrolled)
	sess.unsub = fc.OnChange(sess.assistant.Observe)
	return sess
}

// Close flushes and removes the session. Closing an unknown id is a no-op.
func (s *IntakeService) Close(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.close()
		s.log.Info().Str("session_id", id).Msg("session closed")
	}
}

// Len returns the number of live sessions.
func (s *IntakeService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle closes sessions untouched for longer than the idle TTL. A
// session with a submission in flight is kept. It returns the evicted ids.
func (s *IntakeService) EvictIdle() []string {
	now := s.opts.Now()

	s.mu.Lock()
	var victims []*Session
	for id, sess := range s.sessions {
		idle, busy := sess.idleSince(now)
		if busy || idle < s.opts.IdleTTL {
			continue
		}
		victims = append(victims, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(victims))
	for _, sess := range victims {
		sess.close()
		ids = append(ids, sess.ID)
	}
	sort.Strings(ids)
	if len(ids) > 0 {
		s.log.Info().Int("count", len(ids)).Msg("idle sessions evicted")
	}
	return ids
}

// RunJanitor evicts idle sessions every interval until ctx ends.
func (s *IntakeService) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.EvictIdle()
		}
	}
}

// Shutdown flushes and closes every session and rejects new ones.
func (s *IntakeService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.sessions = map[string]*Session{}
	s.mu.Unlock()

	for _, sess := range all {
		sess.close()
	}
	s.log.Info().Int("count", len(all)).Msg("sessions flushed")
}
