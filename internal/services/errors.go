// Package services composes the wizard components into sessions and hosts
// them for the HTTP layer. This file centralizes the service-level error
// values so handlers can map them to HTTP results consistently.
package services

import (
	"errors"

	"github.com/tbourn/go-intake-backend/internal/submission"
)

var (
	// ErrSessionNotFound indicates that no live or saved session has the id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidSessionID is returned for ids that cannot name a session.
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrSessionClosed is returned by operations on a session that has been
	// closed or evicted.
	ErrSessionClosed = errors.New("session closed")

	// ErrSubmitInFlight is returned when the session already has a
	// submission pending.
	ErrSubmitInFlight = submission.ErrInFlight
)
