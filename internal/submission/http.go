package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-intake-backend/internal/domain"
)

// HTTPBackend posts applications as JSON to a remote endpoint. Any non-2xx
// status or transport failure becomes ErrFailed; the cause is logged.
type HTTPBackend struct {
	URL    string
	Client *http.Client
	Log    zerolog.Logger
}

// NewHTTPBackend returns a backend posting to url. timeout bounds the
// whole exchange; 0 means none.
func NewHTTPBackend(url string, timeout time.Duration, log zerolog.Logger) *HTTPBackend {
	return &HTTPBackend{URL: url, Client: &http.Client{Timeout: timeout}, Log: log}
}

// Submit implements Backend.
func (b *HTTPBackend) Submit(ctx context.Context, r domain.ApplicationRecord) (*Response, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := SessionID(ctx); id != "" {
		req.Header.Set("X-Session-ID", id)
	}
	if id := UserID(ctx); id != "" {
		req.Header.Set("X-User-ID", id)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		b.Log.Error().Err(err).Str("url", b.URL).Msg("submission transport error")
		return nil, ErrFailed
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		b.Log.Error().Err(err).Int("status", resp.StatusCode).Msg("submission rejected")
		return nil, ErrFailed
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		b.Log.Error().Err(err).Msg("submission response is not JSON")
		return nil, ErrFailed
	}
	return &out, nil
}
