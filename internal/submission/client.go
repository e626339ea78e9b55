// Package submission sends a completed application to the submission
// backend.
//
// The Client re-checks the record on its own before anything leaves the
// process: it sanitizes every string and verifies required fields and
// minimum lengths from a table of its own, independent of the wizard's
// step validation. The backend is an external collaborator behind the
// Backend interface; a MockBackend and an HTTPBackend are provided.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/go-intake-backend/internal/domain"
	"github.com/tbourn/go-intake-backend/internal/sanitize"
)

// Data carries the identifiers of an accepted application.
type Data struct {
	ApplicationID string `json:"applicationId"`
	Timestamp     string `json:"timestamp"`
}

// Response is the backend's answer to a submission.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    Data   `json:"data"`
}

// Backend receives sanitized, checked records.
type Backend interface {
	Submit(ctx context.Context, r domain.ApplicationRecord) (*Response, error)
}

var (
	// ErrFailed is the generic failure shown when the backend gives no
	// usable reason.
	ErrFailed = errors.New("Failed to submit application. Please try again.")
	// ErrInFlight is returned when a submission for the same session is
	// still pending.
	ErrInFlight = errors.New("a submission is already in progress")
)

// ValidationError lists every field that failed the pre-submit check.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "Please fix the following: " + strings.Join(e.Problems, "; ")
}

type requirement struct {
	field string
	min   int
}

// requirements is checked in catalogue order. min is a rune count; 0 only
// requires presence.
var requirements = []requirement{
	{domain.FieldFullName, 2},
	{domain.FieldNationalID, 0},
	{domain.FieldDateOfBirth, 0},
	{domain.FieldGender, 0},
	{domain.FieldAddress, 5},
	{domain.FieldCity, 2},
	{domain.FieldState, 2},
	{domain.FieldCountry, 2},
	{domain.FieldPhone, 0},
	{domain.FieldEmail, 0},
	{domain.FieldMaritalStatus, 0},
	{domain.FieldDependents, 0},
	{domain.FieldEmploymentStatus, 0},
	{domain.FieldMonthlyIncome, 0},
	{domain.FieldCurrency, 0},
	{domain.FieldHousingStatus, 0},
	{domain.FieldFinancialSituation, 50},
	{domain.FieldEmploymentCircumstances, 50},
	{domain.FieldReasonForApplying, 50},
}

// Check returns the pre-submit problems of r, or nil.
func Check(r domain.ApplicationRecord) *ValidationError {
	var problems []string
	for _, req := range requirements {
		label := domain.Label(req.field)
		v := r.Value(req.field)
		if v == nil {
			problems = append(problems, label+" is required")
			continue
		}
		s, isText := v.(string)
		if !isText {
			continue
		}
		if strings.TrimSpace(s) == "" {
			problems = append(problems, label+" is required")
			continue
		}
		if req.min > 0 && utf8.RuneCountInString(strings.TrimSpace(s)) < req.min {
			problems = append(problems, fmt.Sprintf("%s must be at least %d characters", label, req.min))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// Client submits applications through a Backend.
type Client struct {
	backend Backend
	log     zerolog.Logger
}

// NewClient returns a Client over backend.
func NewClient(backend Backend, log zerolog.Logger) *Client {
	return &Client{backend: backend, log: log.With().Str("component", "submission").Logger()}
}

// Submit sanitizes and checks r, then hands it to the backend. A failed
// check returns *ValidationError without contacting the backend. Once
// issued, the backend call is not cancelled by ctx; the caller waits for
// its outcome.
func (c *Client) Submit(ctx context.Context, r domain.ApplicationRecord) (*Response, error) {
	tr := otel.Tracer("submission/Client")
	ctx, span := tr.Start(ctx, "Submit")
	defer span.End()

	clean := sanitize.Record(r)
	if verr := Check(clean); verr != nil {
		submissions.WithLabelValues("invalid").Inc()
		span.SetStatus(codes.Error, "invalid")
		span.SetAttributes(attribute.Int("submission.problems", len(verr.Problems)))
		return nil, verr
	}

	start := time.Now()
	resp, err := c.backend.Submit(context.WithoutCancel(ctx), clean)
	submissionLatency.Observe(time.Since(start).Seconds())
	if err == nil && (resp == nil || !resp.Success) {
		err = ErrFailed
		if resp != nil && resp.Message != "" {
			err = errors.New(resp.Message)
		}
	}
	if err != nil {
		submissions.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed")
		c.log.Warn().Err(err).Msg("submission failed")
		return nil, err
	}

	submissions.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.String("submission.application_id", resp.Data.ApplicationID))
	c.log.Info().Str("application_id", resp.Data.ApplicationID).Msg("application submitted")
	return resp, nil
}

type sessionKey struct{}

// WithSessionID tags ctx with the wizard session that submits. Backends
// that archive submissions record it.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the id set by WithSessionID, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

type userKey struct{}

// WithUserID tags ctx with the caller that submits.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

// UserID returns the id set by WithUserID, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}
