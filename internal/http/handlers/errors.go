// Package handlers implements the intake wizard's HTTP endpoints.
//
// Every failure is answered with ErrorResponse carrying one of the codes
// below. Clients branch on the code; the message is safe to display.
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "validation_failed",
//	  "message": "Please fix the following: Full Name is required"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Wizard specific.
	ErrCodeSessionClosed       = "session_closed"
	ErrCodeUnknownField        = "unknown_field"
	ErrCodeInvalidValue        = "invalid_value"
	ErrCodeInvalidStep         = "invalid_step"
	ErrCodeUnsupportedLanguage = "unsupported_language"
	ErrCodeUnsupportedField    = "unsupported_field"
	ErrCodeNoSuggestion        = "no_suggestion"
	ErrCodeValidationFailed    = "validation_failed"
	ErrCodeSubmitFailed        = "submit_failed"
)
