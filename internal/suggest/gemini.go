package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when the request names no model.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint (tests, proxies).
	BaseURL string
}

// GeminiProvider calls Models.GenerateContent through the genai SDK. The
// client is created lazily on first use so a missing key fails without any
// network activity.
type GeminiProvider struct {
	cfg GeminiConfig

	once   sync.Once
	client *genai.Client
	err    error
}

// NewGeminiProvider returns a provider for cfg.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	return &GeminiProvider{cfg: cfg}
}

func (p *GeminiProvider) init(ctx context.Context) (*genai.Client, error) {
	p.once.Do(func() {
		cc := &genai.ClientConfig{
			APIKey:  p.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if p.cfg.BaseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: p.cfg.BaseURL}
		}
		p.client, p.err = genai.NewClient(ctx, cc)
	})
	return p.client, p.err
}

// Complete implements Provider. The system message becomes the system
// instruction; user messages become the contents.
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return "", &Error{Category: CategoryGeneric, Err: ErrMissingAPIKey}
	}
	client, err := p.init(ctx)
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}

	model := req.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			cfg.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// geminiStatus extracts the HTTP status of a genai API error.
func geminiStatus(err error) (int, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v.Code, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return p.Code, true
	}
	return 0, false
}
