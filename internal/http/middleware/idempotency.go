// Package middleware contains the Gin middleware shared by the intake API.
//
// This file handles the Idempotency-Key header on unsafe requests. A valid
// key is stashed in the Gin context; when a lookup reports that the same
// (user, session, key) triple already produced a resource, the request is
// marked as a replay so the handler can return the stored result and the
// rate limiter lets it through.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderUserID optionally names the caller when no upstream auth sets one.
const HeaderUserID = "X-User-ID"

// anonymousUser scopes idempotency records for callers without an identity.
const anonymousUser = "anonymous"

const (
	ctxKeyUserID     = "userID"
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // string: resource id of the prior result
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key, if any.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// ReplayOf returns the resource id recorded for this request's key when the
// request repeats a completed one.
func ReplayOf(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemReplay)
	return s, s != ""
}

// IsReplay reports whether ReplayOf found a prior result.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayOf(c)
	return ok
}

// UserID returns the caller identity: a value set by upstream auth, then the
// X-User-ID header, then "anonymous".
func UserID(c *gin.Context) string {
	if s := c.GetString(ctxKeyUserID); s != "" {
		return s
	}
	if c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader(HeaderUserID)); h != "" {
			return h
		}
	}
	return anonymousUser
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the key length. Defaults to 200.
	MaxLen int
	// Pattern restricts the key alphabet. Defaults to ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Now is the clock passed to the lookup. Defaults to time.Now.
	Now func() time.Time
}

// IdempotencyLookup returns the id of the resource a previous request with
// the same key produced within the session, or "" when there is none. TTL
// checks belong to the implementation.
type IdempotencyLookup func(ctx context.Context, userID, sessionID, key string, now time.Time) (resourceID string, err error)

// IdempotencyValidator validates Idempotency-Key on POST requests and marks
// replays. Safe methods and requests without the header pass untouched. A
// malformed key is rejected with 400. Lookup errors are ignored and the
// request is processed normally.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		sessionID := c.Param("id")
		if lookup != nil && sessionID != "" {
			rid, err := lookup(c.Request.Context(), UserID(c), sessionID, key, now().UTC())
			if err == nil && rid != "" {
				c.Set(ctxKeyIdemReplay, rid)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
