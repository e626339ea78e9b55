package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(rl *RateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(rl.Handler())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/sessions/:id/next", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_PerSessionBuckets(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1, KeyBySessionOrIP())
	r := newLimitedRouter(rl)

	if w := hit(r, http.MethodPost, "/sessions/a/next"); w.Code != http.StatusOK {
		t.Fatalf("first a = %d", w.Code)
	}
	w := hit(r, http.MethodPost, "/sessions/a/next")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second a = %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
	if w := hit(r, http.MethodPost, "/sessions/b/next"); w.Code != http.StatusOK {
		t.Fatalf("other session = %d", w.Code)
	}
	if w := hit(r, http.MethodGet, "/health"); w.Code != http.StatusOK {
		t.Fatalf("ip bucket = %d", w.Code)
	}
	if rl.Len() != 3 {
		t.Fatalf("buckets = %d, want 3", rl.Len())
	}
}

func TestRateLimiter_NonPositiveRateDisablesLimiting(t *testing.T) {
	rl := NewRateLimiter(0, 0, nil)
	r := newLimitedRouter(rl)
	for i := 0; i < 20; i++ {
		if w := hit(r, http.MethodGet, "/health"); w.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}
}

func TestRateLimiter_ReplayBypass(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1, KeyBySessionOrIP())
	r := newLimitedRouter(rl, func(c *gin.Context) {
		c.Set(ctxKeyRateBypass, true)
		c.Next()
	})
	for i := 0; i < 3; i++ {
		if w := hit(r, http.MethodPost, "/sessions/a/next"); w.Code != http.StatusOK {
			t.Fatalf("replay %d = %d", i, w.Code)
		}
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, KeyBySessionOrIP())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.limiterFor("session:a")
	rl.limiterFor("session:b")
	if rl.Len() != 2 {
		t.Fatalf("buckets = %d", rl.Len())
	}

	now = now.Add(5 * time.Minute)
	rl.limiterFor("session:b")

	now = now.Add(6 * time.Minute)
	rl.limiterFor("session:c")
	if rl.Len() != 2 {
		t.Fatalf("after sweep buckets = %d, want 2 (b and c)", rl.Len())
	}
}
