package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-intake-backend/internal/config"
	"github.com/tbourn/go-intake-backend/internal/domain"
	"github.com/tbourn/go-intake-backend/internal/store"
	"github.com/tbourn/go-intake-backend/internal/submission"
	"github.com/tbourn/go-intake-backend/internal/suggest"
)

func TestOpenDB_MigratesFile(t *testing.T) {
	db, err := openDB(filepath.Join(t.TempDir(), "intake.db"))
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	for _, m := range []any{&domain.DraftEntry{}, &domain.Submission{}, &domain.Idempotency{}} {
		if !db.Migrator().HasTable(m) {
			t.Fatalf("missing table for %T", m)
		}
	}

	if _, err := openDB(filepath.Join(t.TempDir(), "missing", "intake.db")); err == nil {
		t.Fatalf("expected error for a missing parent directory")
	}
}

func TestNewDraftBackend(t *testing.T) {
	ctx := context.Background()
	db, err := openDB(filepath.Join(t.TempDir(), "intake.db"))
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}

	b, closeFn, err := newDraftBackend(ctx, config.StoreConfig{Backend: "memory"}, db)
	if err != nil || closeFn() != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := b.(*store.MemoryBackend); !ok {
		t.Fatalf("memory: got %T", b)
	}

	b, _, err = newDraftBackend(ctx, config.StoreConfig{Backend: "sqlite"}, db)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if _, ok := b.(*store.GormBackend); !ok {
		t.Fatalf("sqlite: got %T", b)
	}

	mr := miniredis.RunT(t)
	b, closeFn, err = newDraftBackend(ctx, config.StoreConfig{Backend: "redis", RedisAddr: mr.Addr(), DraftTTL: time.Hour}, db)
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	if err := b.Set(ctx, "s1", "k", "v"); err != nil {
		t.Fatalf("redis set: %v", err)
	}
	if v, ok, err := b.Get(ctx, "s1", "k"); err != nil || !ok || v != "v" {
		t.Fatalf("redis get: %q %v %v", v, ok, err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("redis close: %v", err)
	}

	mr.Close()
	if _, _, err := newDraftBackend(ctx, config.StoreConfig{Backend: "redis", RedisAddr: mr.Addr()}, db); err == nil {
		t.Fatalf("expected ping failure once redis is gone")
	}
	if _, _, err := newDraftBackend(ctx, config.StoreConfig{Backend: "etcd"}, db); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestNewProvider(t *testing.T) {
	if _, ok := newProvider(config.AIConfig{Provider: "openai"}).(*suggest.OpenAIProvider); !ok {
		t.Fatalf("openai provider not selected")
	}
	if _, ok := newProvider(config.AIConfig{Provider: "gemini"}).(*suggest.GeminiProvider); !ok {
		t.Fatalf("gemini provider not selected")
	}
	if _, ok := newProvider(config.AIConfig{Provider: "mock"}).(*suggest.MockProvider); !ok {
		t.Fatalf("mock provider not selected")
	}

	p := newProvider(config.AIConfig{Provider: "mock", RPS: 0.001, Burst: 1})
	req := suggest.Request{Field: domain.FieldFinancialSituation}
	if _, err := p.Complete(context.Background(), req); err != nil {
		t.Fatalf("first call within burst: %v", err)
	}
	_, err := p.Complete(context.Background(), req)
	var se *suggest.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusTooManyRequests {
		t.Fatalf("expected throttled 429, got %v", err)
	}
}

func TestNewSubmitBackend(t *testing.T) {
	hb, ok := newSubmitBackend(config.SubmitConfig{Backend: "http", URL: "http://backend.test/submit", Timeout: time.Second}, nil, zerolog.Nop()).(*submission.HTTPBackend)
	if !ok || hb.URL != "http://backend.test/submit" || hb.Client.Timeout != time.Second {
		t.Fatalf("http backend not configured: %+v", hb)
	}

	mb, ok := newSubmitBackend(config.SubmitConfig{Backend: "mock", MinLatency: 10 * time.Millisecond, MaxLatency: 20 * time.Millisecond}, nil, zerolog.Nop()).(*submission.MockBackend)
	if !ok || mb.MinLatency != 10*time.Millisecond || mb.MaxLatency != 20*time.Millisecond {
		t.Fatalf("mock backend not configured: %+v", mb)
	}
}

func TestNewIntakeService_CreatesSessions(t *testing.T) {
	cfg := config.Config{
		AI:     config.AIConfig{Provider: "mock", Timeout: time.Second, CacheTTL: time.Minute},
		Submit: config.SubmitConfig{Backend: "mock"},
		Wizard: config.WizardConfig{AutosaveDelay: time.Second, SessionIdleTTL: time.Minute},
	}
	svc := newIntakeService(cfg, store.NewMemoryBackend(), nil, zerolog.Nop())
	t.Cleanup(svc.Shutdown)

	s, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if snap := s.Snapshot(context.Background()); snap.Step != domain.StepPersonal {
		t.Fatalf("new session should start on step 1, got %v", snap.Step)
	}
}

func TestLoadEnv(t *testing.T) {
	if err := loadEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing file must be ignored: %v", err)
	}
	if err := loadEnv(""); err != nil {
		t.Fatalf("empty path: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("INTAKE_TEST_A=from-file\nINTAKE_TEST_B=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INTAKE_TEST_A", "from-env")
	t.Setenv("INTAKE_TEST_B", "")
	os.Unsetenv("INTAKE_TEST_B")

	if err := loadEnv(path); err != nil {
		t.Fatalf("loadEnv: %v", err)
	}
	if got := os.Getenv("INTAKE_TEST_A"); got != "from-env" {
		t.Fatalf("existing variable overridden: %q", got)
	}
	if got := os.Getenv("INTAKE_TEST_B"); got != "from-file" {
		t.Fatalf("file variable not applied: %q", got)
	}
}

func TestPurgeCommand(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "intake.db"))
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--env-file", "", "purge", "--older-than", "1h"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		purgeOlderThan = 0
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if !strings.Contains(out.String(), "purged 0 draft rows") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestAppVersion(t *testing.T) {
	orig := version
	t.Cleanup(func() { version = orig })

	version = ""
	t.Setenv("APP_VERSION", "")
	if got := appVersion(); got != "dev" {
		t.Fatalf("appVersion() = %q; want dev", got)
	}
	t.Setenv("APP_VERSION", "1.4.0")
	if got := appVersion(); got != "1.4.0" {
		t.Fatalf("appVersion() = %q", got)
	}
	version = "1.5.0"
	if got := appVersion(); got != "1.5.0" {
		t.Fatalf("ldflags version should win, got %q", got)
	}
}
