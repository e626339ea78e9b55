package suggest

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"
)

// Throttled wraps p with an outbound rate limit shared by every session.
// A request refused by the limiter fails as a 429 without reaching p.
func Throttled(p Provider, limiter *rate.Limiter) Provider {
	if limiter == nil {
		return p
	}
	return ProviderFunc(func(ctx context.Context, req Request) (string, error) {
		if !limiter.Allow() {
			return "", &StatusError{Code: http.StatusTooManyRequests, Body: "outbound suggestion rate exceeded"}
		}
		return p.Complete(ctx, req)
	})
}
