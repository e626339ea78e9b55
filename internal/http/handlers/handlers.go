package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-intake-backend/internal/domain"
	"github.com/tbourn/go-intake-backend/internal/form"
	"github.com/tbourn/go-intake-backend/internal/services"
	"github.com/tbourn/go-intake-backend/internal/store"
	"github.com/tbourn/go-intake-backend/internal/submission"
	"github.com/tbourn/go-intake-backend/internal/suggest"
)

// SessionService hosts wizard sessions. *services.IntakeService satisfies
// it.
type SessionService interface {
	// Create starts a session under a fresh id.
	Create(ctx context.Context) (*services.Session, error)
	// Open returns the live session for id, restoring or creating it.
	Open(ctx context.Context, id string) (*services.Session, error)
	// Get returns the live session for id or restores a saved draft.
	Get(ctx context.Context, id string) (*services.Session, error)
	// Close persists and releases a session.
	Close(id string)
}

// Options tunes the handlers.
type Options struct {
	// DB backs idempotent submits and the submission archive. Both are
	// disabled when nil.
	DB *gorm.DB
	// IdempotencyTTL is how long a submit can be replayed. Defaults to 24h.
	IdempotencyTTL time.Duration
	// MaxWait bounds ?wait=true suggestion requests. Defaults to 35s.
	MaxWait time.Duration
}

// Handlers serves the wizard API.
type Handlers struct {
	sessions SessionService
	db       *gorm.DB
	idemTTL  time.Duration
	maxWait  time.Duration
}

// New binds handlers to a session service.
func New(sessions SessionService, opts Options) *Handlers {
	h := &Handlers{
		sessions: sessions,
		db:       opts.DB,
		idemTTL:  opts.IdempotencyTTL,
		maxWait:  opts.MaxWait,
	}
	if h.idemTTL <= 0 {
		h.idemTTL = 24 * time.Hour
	}
	if h.maxWait <= 0 {
		h.maxWait = 35 * time.Second
	}
	return h
}

// session resolves the :id path parameter, answering the request itself
// when that fails.
func (h *Handlers) session(c *gin.Context) (*services.Session, bool) {
	s, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return nil, false
	}
	return s, true
}

// classify maps a service error onto an HTTP status and code. A zero status
// means the error is not one the API knows about.
func classify(err error) (status int, code, msg string) {
	var verr *submission.ValidationError
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "session not found"
	case errors.Is(err, services.ErrInvalidSessionID):
		return http.StatusBadRequest, ErrCodeBadRequest, "invalid session id"
	case errors.Is(err, services.ErrSessionClosed),
		errors.Is(err, form.ErrClosed),
		errors.Is(err, suggest.ErrClosed):
		return http.StatusGone, ErrCodeSessionClosed, "session closed"
	case errors.Is(err, domain.ErrUnknownField):
		return http.StatusBadRequest, ErrCodeUnknownField, err.Error()
	case errors.Is(err, domain.ErrInvalidValue):
		return http.StatusBadRequest, ErrCodeInvalidValue, err.Error()
	case errors.Is(err, form.ErrInvalidStep):
		return http.StatusBadRequest, ErrCodeInvalidStep, "step must be 1, 2 or 3"
	case errors.Is(err, store.ErrUnsupportedLanguage):
		return http.StatusBadRequest, ErrCodeUnsupportedLanguage, err.Error()
	case errors.Is(err, suggest.ErrUnsupportedField):
		return http.StatusBadRequest, ErrCodeUnsupportedField, err.Error()
	case errors.Is(err, suggest.ErrNoActiveField), errors.Is(err, suggest.ErrNoSuggestion):
		return http.StatusConflict, ErrCodeNoSuggestion, err.Error()
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, ErrCodeValidationFailed, verr.Error()
	case errors.Is(err, services.ErrSubmitInFlight):
		return http.StatusConflict, ErrCodeConflict, err.Error()
	case errors.Is(err, submission.ErrFailed):
		return http.StatusBadGateway, ErrCodeSubmitFailed, submission.ErrFailed.Error()
	}
	return 0, "", ""
}

func failErr(c *gin.Context, err error) {
	if status, code, msg := classify(err); status != 0 {
		fail(c, status, code, msg)
		return
	}
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}
