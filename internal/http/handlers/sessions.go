// Session endpoints: lifecycle, field updates, validation and navigation.
//
//	POST   /sessions
//	GET    /sessions/{id}
//	DELETE /sessions/{id}
//	PATCH  /sessions/{id}/fields
//	POST   /sessions/{id}/validate | next | previous | reset
//	PUT    /sessions/{id}/step/{step}
//	PUT    /sessions/{id}/language
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intake-backend/internal/domain"
	"github.com/tbourn/go-intake-backend/internal/services"
)

// CreateSessionRequest optionally names the session to resume.
type CreateSessionRequest struct {
	// SessionID resumes the draft saved under this id when present.
	SessionID string `json:"sessionId" example:"household-7f3a"`
}

// UpdateFieldsRequest carries field values keyed by field name. Numeric
// fields accept numbers, numeric strings, or ""/null to unset.
type UpdateFieldsRequest struct {
	Fields map[string]any `json:"fields" binding:"required"`
}

// StepResponse reports whether a navigation moved and the resulting state.
type StepResponse struct {
	Moved   bool              `json:"moved"`
	Session services.Snapshot `json:"session"`
}

// ValidateResponse reports the active step's validation result.
type ValidateResponse struct {
	Valid   bool              `json:"valid"`
	Session services.Snapshot `json:"session"`
}

// LanguageRequest sets the preferred UI language.
type LanguageRequest struct {
	Language string `json:"language" binding:"required" example:"ar"`
}

// LanguageResponse echoes the normalized language.
type LanguageResponse struct {
	Language string `json:"language" example:"ar"`
}

// CreateSession godoc
// @ID          createSession
// @Summary     Start or resume a wizard session
// @Description Without a body a new session is created. With sessionId the saved draft is restored, or a new session is started under that id.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CreateSessionRequest  false  "Session to resume"
// @Success     201   {object}  services.Snapshot
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sessions [post]
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	var (
		s   *services.Session
		err error
	)
	if req.SessionID != "" {
		s, err = h.sessions.Open(ctx, req.SessionID)
	} else {
		s, err = h.sessions.Create(ctx)
	}
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+s.ID)
	ok(c, http.StatusCreated, s.Snapshot(ctx))
}

// GetSession godoc
// @ID          getSession
// @Summary     Session snapshot
// @Description Returns the record, active step, errors, navigation flags and suggestion modal state. A saved draft is restored on first access.
// @Tags        Sessions
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  services.Snapshot
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id} [get]
func (h *Handlers) GetSession(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, s.Snapshot(c.Request.Context()))
}

// CloseSession godoc
// @ID          closeSession
// @Summary     Close a session
// @Description Persists any pending draft and releases the session. The draft stays available for a later resume.
// @Tags        Sessions
// @Param       id  path  string  true  "Session ID"
// @Success     204
// @Router      /sessions/{id} [delete]
func (h *Handlers) CloseSession(c *gin.Context) {
	h.sessions.Close(c.Param("id"))
	noContent(c)
}

// UpdateFields godoc
// @ID          updateFields
// @Summary     Update field values
// @Description Writes one or more fields. Existing errors on written fields are cleared and the draft is saved after the autosave delay.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       id    path      string                        true  "Session ID"
// @Param       body  body      handlers.UpdateFieldsRequest  true  "Field values"
// @Success     200   {object}  services.Snapshot
// @Failure     400   {object}  handlers.ErrorResponse  "Unknown field or invalid value"
// @Failure     404   {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/fields [patch]
func (h *Handlers) UpdateFields(c *gin.Context) {
	var req UpdateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "fields required")
		return
	}
	s, found := h.session(c)
	if !found {
		return
	}
	if err := s.UpdateFields(req.Fields); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s.Snapshot(c.Request.Context()))
}

// Validate godoc
// @ID          validateStep
// @Summary     Validate the active step
// @Tags        Navigation
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  handlers.ValidateResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/validate [post]
func (h *Handlers) Validate(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	valid, err := s.Validate()
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ValidateResponse{Valid: valid, Session: s.Snapshot(c.Request.Context())})
}

// Next godoc
// @ID          nextStep
// @Summary     Advance one step
// @Description Validates the active step and advances only when it passes. On failure the snapshot carries the step's errors.
// @Tags        Navigation
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  handlers.StepResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/next [post]
func (h *Handlers) Next(c *gin.Context) {
	h.navigate(c, (*services.Session).Next)
}

// Previous godoc
// @ID          previousStep
// @Summary     Go back one step
// @Tags        Navigation
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  handlers.StepResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/previous [post]
func (h *Handlers) Previous(c *gin.Context) {
	h.navigate(c, (*services.Session).Previous)
}

// GoTo godoc
// @ID          goToStep
// @Summary     Jump to a step
// @Description Moves to the given step without validating the active one.
// @Tags        Navigation
// @Produce     json
// @Param       id    path      string  true  "Session ID"
// @Param       step  path      int     true  "Step (1-3)"  minimum(1) maximum(3)
// @Success     200   {object}  handlers.StepResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid step"
// @Failure     404   {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/step/{step} [put]
func (h *Handlers) GoTo(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidStep, "step must be 1, 2 or 3")
		return
	}
	h.navigate(c, func(s *services.Session) (bool, error) {
		return s.GoTo(domain.Step(n))
	})
}

func (h *Handlers) navigate(c *gin.Context, move func(*services.Session) (bool, error)) {
	s, found := h.session(c)
	if !found {
		return
	}
	moved, err := move(s)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, StepResponse{Moved: moved, Session: s.Snapshot(c.Request.Context())})
}

// Reset godoc
// @ID          resetSession
// @Summary     Start another application
// @Description Clears the form, the saved draft and the last submission; the wizard returns to step 1.
// @Tags        Sessions
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  services.Snapshot
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/reset [post]
func (h *Handlers) Reset(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	ctx := c.Request.Context()
	if err := s.StartOver(ctx); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s.Snapshot(ctx))
}

// SetLanguage godoc
// @ID          setLanguage
// @Summary     Set the preferred language
// @Description Accepts a BCP 47 tag; English and Arabic are supported.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       id    path      string                    true  "Session ID"
// @Param       body  body      handlers.LanguageRequest  true  "Language"
// @Success     200   {object}  handlers.LanguageResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Unsupported language"
// @Failure     404   {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/language [put]
func (h *Handlers) SetLanguage(c *gin.Context) {
	var req LanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "language required")
		return
	}
	s, found := h.session(c)
	if !found {
		return
	}
	lang, err := s.SetLanguage(c.Request.Context(), req.Language)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LanguageResponse{Language: lang})
}
