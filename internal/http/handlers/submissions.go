// Submission endpoints.
//
//	POST /sessions/{id}/submit       (Idempotency-Key supported)
//	GET  /sessions/{id}/submissions  (paginated, weak ETag)
package handlers

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intake-backend/internal/domain"
	"github.com/tbourn/go-intake-backend/internal/http/middleware"
	"github.com/tbourn/go-intake-backend/internal/repo"
	"github.com/tbourn/go-intake-backend/internal/submission"
	"github.com/tbourn/go-intake-backend/internal/utils"
)

// Pagination describes a page of a list response.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListSubmissionsResponse is a page of archived applications.
type ListSubmissionsResponse struct {
	Submissions []domain.Submission `json:"submissions"`
	Pagination  Pagination          `json:"pagination"`
}

// Submit godoc
// @ID          submitApplication
// @Summary     Submit the application
// @Description Sanitizes and checks the record, then sends it to the submission backend. On success the draft is cleared and the wizard starts over. A repeated Idempotency-Key returns the original result with Idempotency-Replayed: true.
// @Tags        Submission
// @Produce     json
// @Param       id               path    string  true   "Session ID"
// @Param       Idempotency-Key  header  string  false  "Key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       X-User-ID        header  string  false  "Caller identity scoping the key"
// @Success     200  {object}  submission.Response
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Submission already in progress"
// @Failure     422  {object}  handlers.ErrorResponse  "Record incomplete"
// @Failure     502  {object}  handlers.ErrorResponse  "Backend rejected the application"
// @Router      /sessions/{id}/submit [post]
func (h *Handlers) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	if rid, replay := middleware.ReplayOf(c); replay && h.db != nil {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, h.replay(ctx, rid))
		return
	}

	s, found := h.session(c)
	if !found {
		return
	}
	resp, err := s.Submit(submission.WithUserID(ctx, middleware.UserID(c)))
	if err != nil {
		if status, code, msg := classify(err); status != 0 {
			fail(c, status, code, msg)
			return
		}
		// Backend messages are shown to the applicant as they are.
		fail(c, http.StatusBadGateway, ErrCodeSubmitFailed, err.Error())
		return
	}

	if key, has := middleware.GetIdempotencyKey(c); has && h.db != nil {
		_, err := repo.CreateIdempotency(context.WithoutCancel(ctx), h.db,
			middleware.UserID(c), s.ID, key, resp.Data.ApplicationID, http.StatusOK, h.idemTTL)
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
		}
	}
	ok(c, http.StatusOK, resp)
}

// replay rebuilds the stored result for an application id. Without an
// archived row only the id is known.
func (h *Handlers) replay(ctx context.Context, applicationID string) *submission.Response {
	if sub, err := repo.GetSubmission(ctx, h.db, applicationID); err == nil {
		return submission.Replay(sub)
	}
	return &submission.Response{
		Success: true,
		Message: submission.SuccessMessage,
		Data:    submission.Data{ApplicationID: applicationID},
	}
}

// ListSubmissions godoc
// @ID          listSubmissions
// @Summary     Archived applications of a session
// @Description Only applications submitted by the calling X-User-ID (or anonymously, without the header) are listed. Newest first. Supports a weak ETag via If-None-Match and may return 304.
// @Tags        Submission
// @Produce     json
// @Param       id             path    string  true   "Session ID"
// @Param       X-User-ID      header  string  false  "Caller identity owning the archive"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false  "Return 304 if the ETag matches"
// @Success     200  {object}  handlers.ListSubmissionsResponse
// @Success     304  "Not modified"
// @Header      200  {string}  ETag  "Weak ETag for the current result"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sessions/{id}/submissions [get]
func (h *Handlers) ListSubmissions(c *gin.Context) {
	ctx := c.Request.Context()
	sid := c.Param("id")
	uid := middleware.UserID(c)
	page, size, offset := utils.Page(c.Query("page"), c.Query("page_size"), 20, 100)

	if h.db == nil {
		ok(c, http.StatusOK, ListSubmissionsResponse{
			Submissions: []domain.Submission{},
			Pagination:  Pagination{Page: page, PageSize: size},
		})
		return
	}

	total, latest, err := repo.SubmissionStats(ctx, h.db, uid, sid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to list submissions")
		return
	}
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"submissions:%s:%d:%d:%d:%d"`, sid, total, ts, page, size)
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	subs, err := repo.ListSubmissionsPage(ctx, h.db, uid, sid, offset, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to list submissions")
		return
	}
	if subs == nil {
		subs = []domain.Submission{}
	}
	pages := int(math.Ceil(float64(total) / float64(size)))
	ok(c, http.StatusOK, ListSubmissionsResponse{
		Submissions: subs,
		Pagination: Pagination{
			Page:       page,
			PageSize:   size,
			Total:      total,
			TotalPages: pages,
			HasNext:    page < pages,
		},
	})
}
