package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/tbourn/go-intake-backend/internal/config"
	"github.com/tbourn/go-intake-backend/internal/repo"
	"github.com/tbourn/go-intake-backend/internal/services"
	"github.com/tbourn/go-intake-backend/internal/store"
	"github.com/tbourn/go-intake-backend/internal/submission"
	"github.com/tbourn/go-intake-backend/internal/suggest"
	"github.com/tbourn/go-intake-backend/internal/validation"
)

// openDB opens and migrates the SQLite database holding drafts, archived
// submissions and idempotency records.
func openDB(path string) (*gorm.DB, error) {
	db, err := repo.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// newDraftBackend selects the draft store. The returned close func releases
// any connection it opened.
func newDraftBackend(ctx context.Context, sc config.StoreConfig, db *gorm.DB) (store.Backend, func() error, error) {
	noop := func() error { return nil }
	switch sc.Backend {
	case "memory":
		return store.NewMemoryBackend(), noop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
		})
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", sc.RedisAddr, err)
		}
		return store.NewRedisBackend(client, sc.DraftTTL), client.Close, nil
	case "sqlite", "":
		return store.NewGormBackend(db), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
}

// newProvider selects the suggestion provider, throttled when AI_RPS > 0.
func newProvider(ac config.AIConfig) suggest.Provider {
	var p suggest.Provider
	switch ac.Provider {
	case "openai":
		p = suggest.NewOpenAIProvider(suggest.OpenAIConfig{
			APIKey:  ac.APIKey,
			BaseURL: ac.BaseURL,
			Timeout: ac.Timeout,
		})
	case "gemini":
		p = suggest.NewGeminiProvider(suggest.GeminiConfig{
			APIKey:  ac.APIKey,
			BaseURL: ac.BaseURL,
		})
	default:
		p = suggest.NewMockProvider(ac.MockDelay)
	}
	if ac.RPS > 0 {
		p = suggest.Throttled(p, rate.NewLimiter(rate.Limit(ac.RPS), ac.Burst))
	}
	return p
}

// newSubmitBackend selects where applications are sent. The mock archives
// into db.
func newSubmitBackend(sc config.SubmitConfig, db *gorm.DB, log zerolog.Logger) submission.Backend {
	if sc.Backend == "http" {
		return submission.NewHTTPBackend(sc.URL, sc.Timeout, log)
	}
	mb := submission.NewMockBackend(db)
	mb.MinLatency, mb.MaxLatency = sc.MinLatency, sc.MaxLatency
	return mb
}

// newIntakeService assembles the session host from cfg.
func newIntakeService(cfg config.Config, backend store.Backend, db *gorm.DB, log zerolog.Logger) *services.IntakeService {
	sc := suggest.NewClient(newProvider(cfg.AI), suggest.Config{
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
		CacheTTL:    cfg.AI.CacheTTL,
	}, log)
	sub := submission.NewClient(newSubmitBackend(cfg.Submit, db, log), log)
	return services.NewIntakeService(backend, sc, sub, services.IntakeOptions{
		SaveDelay: cfg.Wizard.AutosaveDelay,
		IdleTTL:   cfg.Wizard.SessionIdleTTL,
		Validator: validation.New(time.Now),
		Logger:    log,
	})
}
