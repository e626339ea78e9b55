// Suggestion modal endpoints.
//
//	POST /sessions/{id}/suggestions/{field}[?wait=true]
//	GET  /sessions/{id}/suggestion
//	POST /sessions/{id}/suggestion/accept | edit | discard | retry | close
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intake-backend/internal/services"
	"github.com/tbourn/go-intake-backend/internal/utils"
)

// EditSuggestionRequest carries the applicant's revision of a suggestion.
type EditSuggestionRequest struct {
	Text string `json:"text" example:"I am currently facing financial hardship..."`
}

// GenerateSuggestion godoc
// @ID          generateSuggestion
// @Summary     Ask for a suggestion
// @Description Opens the modal for a narrative field. A cached suggestion for an unchanged context is returned at once. Otherwise the request runs in the background and 202 is returned, unless wait=true, which blocks until it settles.
// @Tags        Suggestions
// @Produce     json
// @Param       id     path      string  true   "Session ID"
// @Param       field  path      string  true   "Narrative field"  Enums(financialSituation, employmentCircumstances, reasonForApplying)
// @Param       wait   query     bool    false  "Block until the suggestion settles"
// @Success     200    {object}  suggest.State  "Settled modal state"
// @Success     202    {object}  suggest.State  "Request in progress"
// @Failure     400    {object}  handlers.ErrorResponse  "Unsupported field"
// @Failure     404    {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/suggestions/{field} [post]
func (h *Handlers) GenerateSuggestion(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	if err := s.Generate(c.Param("field")); err != nil {
		failErr(c, err)
		return
	}
	h.writeState(c, s)
}

// GetSuggestion godoc
// @ID          getSuggestion
// @Summary     Suggestion modal state
// @Tags        Suggestions
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  suggest.State
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/suggestion [get]
func (h *Handlers) GetSuggestion(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, s.Suggestion())
}

// AcceptSuggestion godoc
// @ID          acceptSuggestion
// @Summary     Accept the suggestion
// @Description Writes the suggestion into its field and closes the modal.
// @Tags        Suggestions
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  services.Snapshot
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "No suggestion to accept"
// @Router      /sessions/{id}/suggestion/accept [post]
func (h *Handlers) AcceptSuggestion(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	if err := s.AcceptSuggestion(); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s.Snapshot(c.Request.Context()))
}

// EditSuggestion godoc
// @ID          editSuggestion
// @Summary     Accept an edited suggestion
// @Description Writes the applicant's revised text into the modal's field and closes the modal.
// @Tags        Suggestions
// @Accept      json
// @Produce     json
// @Param       id    path      string                          true  "Session ID"
// @Param       body  body      handlers.EditSuggestionRequest  true  "Revised text"
// @Success     200   {object}  services.Snapshot
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404   {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409   {object}  handlers.ErrorResponse  "Modal not open"
// @Router      /sessions/{id}/suggestion/edit [post]
func (h *Handlers) EditSuggestion(c *gin.Context) {
	var req EditSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}
	s, found := h.session(c)
	if !found {
		return
	}
	if err := s.EditSuggestion(req.Text); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s.Snapshot(c.Request.Context()))
}

// DiscardSuggestion godoc
// @ID          discardSuggestion
// @Summary     Discard the suggestion
// @Description Cancels the modal's request and closes the modal without writing.
// @Tags        Suggestions
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  suggest.State
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/suggestion/discard [post]
func (h *Handlers) DiscardSuggestion(c *gin.Context) {
	h.modalAction(c, (*services.Session).DiscardSuggestion)
}

// CloseSuggestion godoc
// @ID          closeSuggestion
// @Summary     Close the modal
// @Tags        Suggestions
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  suggest.State
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id}/suggestion/close [post]
func (h *Handlers) CloseSuggestion(c *gin.Context) {
	h.modalAction(c, (*services.Session).CloseSuggestion)
}

// RetrySuggestion godoc
// @ID          retrySuggestion
// @Summary     Retry the suggestion
// @Description Asks again for the modal's field. An unchanged context is answered from the cache.
// @Tags        Suggestions
// @Produce     json
// @Param       id    path      string  true   "Session ID"
// @Param       wait  query     bool    false  "Block until the suggestion settles"
// @Success     200   {object}  suggest.State  "Settled modal state"
// @Success     202   {object}  suggest.State  "Request in progress"
// @Failure     404   {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409   {object}  handlers.ErrorResponse  "Modal not open"
// @Router      /sessions/{id}/suggestion/retry [post]
func (h *Handlers) RetrySuggestion(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	if err := s.RetrySuggestion(); err != nil {
		failErr(c, err)
		return
	}
	h.writeState(c, s)
}

func (h *Handlers) modalAction(c *gin.Context, act func(*services.Session) error) {
	s, found := h.session(c)
	if !found {
		return
	}
	if err := act(s); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s.Suggestion())
}

// writeState answers with the modal state, waiting first when asked to.
// A wait that runs out still answers with the in-progress state.
func (h *Handlers) writeState(c *gin.Context, s *services.Session) {
	if utils.BoolDefault(c.Query("wait"), false) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.maxWait)
		_ = s.WaitSuggestion(ctx)
		cancel()
	}
	st := s.Suggestion()
	status := http.StatusOK
	if st.Loading {
		status = http.StatusAccepted
	}
	ok(c, status, st)
}
