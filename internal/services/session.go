package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intake-backend/internal/domain"
	"github.com/tbourn/go-intake-backend/internal/form"
	"github.com/tbourn/go-intake-backend/internal/navigation"
	"github.com/tbourn/go-intake-backend/internal/store"
	"github.com/tbourn/go-intake-backend/internal/submission"
	"github.com/tbourn/go-intake-backend/internal/suggest"
)

// Snapshot is what the presentation layer renders for one session.
type Snapshot struct {
	SessionID string `json:"sessionId"`
	form.Snapshot
	StepLabel      string               `json:"stepLabel"`
	CanGoNext      bool                 `json:"canGoNext"`
	CanGoPrevious  bool                 `json:"canGoPrevious"`
	ScrollSeq      int                  `json:"scrollSeq"`
	Language       string               `json:"language,omitempty"`
	Submitting     bool                 `json:"submitting"`
	LastSubmission *submission.Response `json:"lastSubmission,omitempty"`
	Suggestion     suggest.State        `json:"suggestion"`
}

// Session is one applicant's wizard: form state, navigation, the
// suggestion assistant and the draft store, wired together.
type Session struct {
	ID string

	form      *form.Controller
	nav       *navigation.Navigator
	assistant *suggest.Assistant
	store     *store.Store
	submitter *submission.Client
	log       zerolog.Logger
	now       func() time.Time
	unsub     func()

	mu         sync.Mutex
	lastUsed   time.Time
	scrollSeq  int
	submitting bool
	last       *submission.Response
	closed     bool
}

func (s *Session) touch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.lastUsed = s.now()
	return nil
}

func (s *Session) scrolled() {
	s.mu.Lock()
	s.scrollSeq++
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed), s.submitting
}

// Snapshot returns the session state.
func (s *Session) Snapshot(ctx context.Context) Snapshot {
	fs := s.form.Snapshot()
	lang, _ := s.store.LoadLanguage(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID:      s.ID,
		Snapshot:       fs,
		StepLabel:      fs.Step.Label(),
		CanGoNext:      fs.Step < domain.LastStep,
		CanGoPrevious:  fs.Step > domain.FirstStep,
		ScrollSeq:      s.scrollSeq,
		Language:       lang,
		Submitting:     s.submitting,
		LastSubmission: s.last,
		Suggestion:     s.assistant.State(),
	}
}

// UpdateFields applies field values in catalogue order.
func (s *Session) UpdateFields(values map[string]any) error {
	if err := s.touch(); err != nil {
		return err
	}
	return s.form.UpdateFields(values)
}

// Validate runs the active step's schema and reports whether it passed.
func (s *Session) Validate() (bool, error) {
	if err := s.touch(); err != nil {
		return false, err
	}
	return s.form.ValidateCurrentStep(), nil
}

// Next validates the active step and advances when it passes.
func (s *Session) Next() (bool, error) {
	if err := s.touch(); err != nil {
		return false, err
	}
	return s.nav.Next(), nil
}

// Previous goes back one step.
func (s *Session) Previous() (bool, error) {
	if err := s.touch(); err != nil {
		return false, err
	}
	return s.nav.Previous(), nil
}

// GoTo jumps to step without validation.
func (s *Session) GoTo(step domain.Step) (bool, error) {
	if err := s.touch(); err != nil {
		return false, err
	}
	if !step.Valid() {
		return false, form.ErrInvalidStep
	}
	return s.nav.GoTo(step), nil
}

// Generate opens the suggestion modal for field.
func (s *Session) Generate(field string) error {
	if err := s.touch(); err != nil {
		return err
	}
	return s.assistant.Generate(field)
}

// WaitSuggestion blocks until the modal's request settles or ctx ends.
func (s *Session) WaitSuggestion(ctx context.Context) error {
	return s.assistant.Wait(ctx)
}

// Suggestion returns the modal state.
func (s *Session) Suggestion() suggest.State { return s.assistant.State() }

// AcceptSuggestion writes the suggestion into its field.
func (s *Session) AcceptSuggestion() error {
	if err := s.touch(); err != nil {
		return err
	}
	return s.assistant.Accept()
}

// EditSuggestion writes the applicant's revision into the field.
func (s *Session) EditSuggestion(text string) error {
	if err := s.touch(); err != nil {
		return err
	}
	return s.assistant.Edit(text)
}

// DiscardSuggestion closes the modal without writing.
func (s *Session) DiscardSuggestion() error {
	if err := s.touch(); err != nil {
		return err
	}
	s.assistant.Discard()
	return nil
}

// RetrySuggestion asks again for the modal's field.
func (s *Session) RetrySuggestion() error {
	if err := s.touch(); err != nil {
		return err
	}
	return s.assistant.Retry()
}

// CloseSuggestion cancels every request and resets the modal.
func (s *Session) CloseSuggestion() error {
	if err := s.touch(); err != nil {
		return err
	}
	s.assistant.Close()
	return nil
}

// SetLanguage stores the preferred UI language and returns its normalized
// form.
func (s *Session) SetLanguage(ctx context.Context, lang string) (string, error) {
	if err := s.touch(); err != nil {
		return "", err
	}
	norm, err := store.ParseLanguage(lang)
	if err != nil {
		return "", err
	}
	s.store.SaveLanguage(ctx, norm)
	return norm, nil
}

// Submit sends the record to the submission backend. Only one submission
// per session runs at a time. On success the draft is cleared and the form
// starts over at step 1; on failure nothing changes and the error message is
// meant to be shown as is.
func (s *Session) Submit(ctx context.Context) (*submission.Response, error) {
	tr := otel.Tracer("services/IntakeService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("session.id", s.ID)),
	)
	defer span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.submitting {
		s.mu.Unlock()
		span.SetStatus(codes.Error, "in flight")
		return nil, ErrSubmitInFlight
	}
	s.submitting = true
	s.lastUsed = s.now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.lastUsed = s.now()
		s.mu.Unlock()
	}()

	resp, err := s.submitter.Submit(submission.WithSessionID(ctx, s.ID), s.form.FormData())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.reset(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.last = resp
	s.mu.Unlock()
	span.SetAttributes(attribute.String("submission.application_id", resp.Data.ApplicationID))
	return resp, nil
}

// StartOver discards the application in progress.
func (s *Session) StartOver(ctx context.Context) error {
	if err := s.touch(); err != nil {
		return err
	}
	s.reset(ctx)
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()
	return nil
}

func (s *Session) reset(ctx context.Context) {
	s.assistant.Close()
	s.form.ResetForm()
	s.store.Clear(ctx)
	s.log.Info().Msg("application reset")
}

// close persists a pending draft and releases the session's resources.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.unsub()
	s.assistant.Shutdown()
	s.form.Flush()
	s.form.Close()
}
