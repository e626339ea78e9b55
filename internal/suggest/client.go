package suggest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intake-backend/internal/domain"
	"github.com/tbourn/go-intake-backend/internal/sanitize"
)

// Request defaults.
const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.7
	DefaultTimeout     = 30 * time.Second
)

// WatchList holds the fields whose change empties an assistant's cache.
var WatchList = []string{
	domain.FieldEmploymentStatus,
	domain.FieldMonthlyIncome,
	domain.FieldHousingStatus,
	domain.FieldDependents,
	domain.FieldFinancialSituation,
}

// Config holds request settings shared by every assistant.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// Timeout bounds one provider call.
	Timeout  time.Duration
	CacheTTL time.Duration
	// Now is the clock of the suggestion caches; nil means time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature < 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Client is the process-wide suggestion service. It is created once by the
// composition root and hands out one Assistant per wizard session.
type Client struct {
	provider Provider
	cfg      Config
	prompts  *Catalogue
	log      zerolog.Logger
}

// NewClient returns a Client over provider using the embedded prompts.
func NewClient(provider Provider, cfg Config, log zerolog.Logger) *Client {
	return &Client{
		provider: provider,
		cfg:      cfg.withDefaults(),
		prompts:  DefaultCatalogue(),
		log:      log.With().Str("component", "suggest").Logger(),
	}
}

// Prompts returns the catalogue in use.
func (c *Client) Prompts() *Catalogue { return c.prompts }

// Suggest renders the prompt for field from r and calls the provider once,
// without caching. The text is trimmed and sanitized; failures are returned
// as *Error.
func (c *Client) Suggest(ctx context.Context, field string, r domain.ApplicationRecord) (string, error) {
	if !c.prompts.Supports(field) {
		return "", ErrUnsupportedField
	}
	prompt, err := c.prompts.Build(field, r)
	if err != nil {
		return "", &Error{Category: CategoryGeneric, Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	return c.complete(ctx, field, prompt)
}

func (c *Client) request(field, prompt string) Request {
	return Request{
		Model: c.cfg.Model,
		Messages: []Message{
			{Role: RoleSystem, Content: c.prompts.System},
			{Role: RoleUser, Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Field:       field,
	}
}

func (c *Client) complete(ctx context.Context, field, prompt string) (string, error) {
	tr := otel.Tracer("suggest/Client")
	ctx, span := tr.Start(ctx, "Complete",
		trace.WithAttributes(
			attribute.String("suggest.field", field),
			attribute.String("suggest.model", c.cfg.Model),
		),
	)
	defer span.End()

	start := time.Now()
	text, err := c.provider.Complete(ctx, c.request(field, prompt))
	suggestionLatency.Observe(time.Since(start).Seconds())
	if err == nil {
		text = strings.TrimSpace(sanitize.String(strings.TrimSpace(text)))
		if text == "" {
			err = ErrEmptyCompletion
		}
	}
	if err != nil {
		ce := classify(err)
		suggestionRequests.WithLabelValues(string(ce.Category)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(ce.Category))
		if !errors.Is(err, context.Canceled) {
			c.log.Warn().Err(err).Str("field", field).Str("category", string(ce.Category)).Msg("suggestion failed")
		}
		return "", ce
	}
	suggestionRequests.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Int("suggest.response_len", len(text)))
	return text, nil
}
