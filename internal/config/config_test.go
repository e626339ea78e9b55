package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Clear all env that might affect defaults. t.Setenv isolates per test.
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// Storage
	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("STORE_BACKEND", "REDIS")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DRAFT_TTL", "72h")

	// Wizard / AI / submission
	t.Setenv("AUTOSAVE_DELAY", "500ms")
	t.Setenv("SESSION_IDLE_TTL", "10m")
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("AI_API_KEY", "sk-test")
	t.Setenv("AI_MODEL", "gpt-4o-mini")
	t.Setenv("AI_TEMPERATURE", "0.2")
	t.Setenv("AI_TIMEOUT", "10s")
	t.Setenv("AI_RPS", "2")
	t.Setenv("SUBMIT_BACKEND", "http")
	t.Setenv("SUBMIT_URL", "https://backend.example/applications")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Idempotency
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// Storage
	if cfg.DBPath != "db.sqlite" || cfg.Store.Backend != "redis" || cfg.Store.RedisAddr != "redis:6379" ||
		cfg.Store.RedisDB != 3 || cfg.Store.DraftTTL != 72*time.Hour {
		t.Fatalf("storage fields unexpected: %+v", cfg.Store)
	}

	// Wizard / AI / submission
	if cfg.Wizard.AutosaveDelay != 500*time.Millisecond || cfg.Wizard.SessionIdleTTL != 10*time.Minute {
		t.Fatalf("wizard fields unexpected: %+v", cfg.Wizard)
	}
	if cfg.AI.Provider != "openai" || cfg.AI.APIKey != "sk-test" || cfg.AI.Model != "gpt-4o-mini" ||
		cfg.AI.Temperature != 0.2 || cfg.AI.Timeout != 10*time.Second || cfg.AI.RPS != 2 ||
		cfg.AI.MaxTokens != 500 || cfg.AI.CacheTTL != 5*time.Minute {
		t.Fatalf("ai fields unexpected: %+v", cfg.AI)
	}
	if cfg.Submit.Backend != "http" || cfg.Submit.URL != "https://backend.example/applications" {
		t.Fatalf("submit fields unexpected: %+v", cfg.Submit)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// Idempotency
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	t.Run("invalid LOG_LEVEL", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "verbose")
		if _, err := Load(); err == nil {
			t.Fatalf("expected LOG_LEVEL validation error")
		}
	})
	t.Run("empty PORT via spaces", func(t *testing.T) {
		t.Setenv("PORT", "   ")
		if _, err := Load(); err == nil || !containsErr(err, "PORT must not be empty") {
			t.Fatalf("expected port validation error, got: %v", err)
		}
	})
	t.Run("non-positive timeouts", func(t *testing.T) {
		t.Setenv("READ_TIMEOUT", "0s")
		if _, err := Load(); err == nil || !containsErr(err, "timeouts must be positive") {
			t.Fatalf("expected timeouts validation error, got: %v", err)
		}
	})
	t.Run("max header bytes <= 0", func(t *testing.T) {
		t.Setenv("MAX_HEADER_BYTES", "0")
		if _, err := Load(); err == nil || !containsErr(err, "MAX_HEADER_BYTES") {
			t.Fatalf("expected MAX_HEADER_BYTES validation error, got: %v", err)
		}
	})
	t.Run("empty DB_PATH", func(t *testing.T) {
		t.Setenv("DB_PATH", "   ")
		if _, err := Load(); err == nil || !containsErr(err, "DB_PATH must not be empty") {
			t.Fatalf("expected DB_PATH validation error, got: %v", err)
		}
	})
	t.Run("unknown STORE_BACKEND", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "mongo")
		if _, err := Load(); err == nil || !containsErr(err, "STORE_BACKEND") {
			t.Fatalf("expected STORE_BACKEND validation error, got: %v", err)
		}
	})
	t.Run("negative DRAFT_TTL", func(t *testing.T) {
		t.Setenv("DRAFT_TTL", "-1h")
		if _, err := Load(); err == nil || !containsErr(err, "DRAFT_TTL") {
			t.Fatalf("expected DRAFT_TTL validation error, got: %v", err)
		}
	})
	t.Run("non-positive AUTOSAVE_DELAY", func(t *testing.T) {
		t.Setenv("AUTOSAVE_DELAY", "0s")
		if _, err := Load(); err == nil || !containsErr(err, "AUTOSAVE_DELAY") {
			t.Fatalf("expected AUTOSAVE_DELAY validation error, got: %v", err)
		}
	})
	t.Run("non-positive SESSION_IDLE_TTL", func(t *testing.T) {
		t.Setenv("SESSION_IDLE_TTL", "0s")
		if _, err := Load(); err == nil || !containsErr(err, "SESSION_IDLE_TTL") {
			t.Fatalf("expected SESSION_IDLE_TTL validation error, got: %v", err)
		}
	})
	t.Run("unknown AI_PROVIDER", func(t *testing.T) {
		t.Setenv("AI_PROVIDER", "llama")
		if _, err := Load(); err == nil || !containsErr(err, "AI_PROVIDER") {
			t.Fatalf("expected AI_PROVIDER validation error, got: %v", err)
		}
	})
	t.Run("AI_TEMPERATURE out of range", func(t *testing.T) {
		t.Setenv("AI_TEMPERATURE", "3")
		if _, err := Load(); err == nil || !containsErr(err, "AI_TEMPERATURE") {
			t.Fatalf("expected AI_TEMPERATURE validation error, got: %v", err)
		}
	})
	t.Run("AI_MAX_TOKENS non-positive", func(t *testing.T) {
		t.Setenv("AI_MAX_TOKENS", "0")
		if _, err := Load(); err == nil || !containsErr(err, "AI_MAX_TOKENS") {
			t.Fatalf("expected AI_MAX_TOKENS validation error, got: %v", err)
		}
	})
	t.Run("http submit without URL", func(t *testing.T) {
		t.Setenv("SUBMIT_BACKEND", "http")
		if _, err := Load(); err == nil || !containsErr(err, "SUBMIT_URL") {
			t.Fatalf("expected SUBMIT_URL validation error, got: %v", err)
		}
	})
	t.Run("submit latency window inverted", func(t *testing.T) {
		t.Setenv("SUBMIT_MIN_LATENCY", "3s")
		t.Setenv("SUBMIT_MAX_LATENCY", "1s")
		if _, err := Load(); err == nil || !containsErr(err, "SUBMIT_MIN_LATENCY") {
			t.Fatalf("expected latency validation error, got: %v", err)
		}
	})
	t.Run("rate rps negative", func(t *testing.T) {
		t.Setenv("RATE_RPS", "-1")
		if _, err := Load(); err == nil || !containsErr(err, "RATE_RPS") {
			t.Fatalf("expected RATE_RPS validation error, got: %v", err)
		}
	})
	t.Run("rate burst < 1", func(t *testing.T) {
		t.Setenv("RATE_BURST", "0")
		if _, err := Load(); err == nil || !containsErr(err, "RATE_BURST") {
			t.Fatalf("expected RATE_BURST validation error, got: %v", err)
		}
	})
	t.Run("hsts max age negative", func(t *testing.T) {
		t.Setenv("HSTS_MAX_AGE", "-1s")
		if _, err := Load(); err == nil || !containsErr(err, "HSTS_MAX_AGE") {
			t.Fatalf("expected HSTS_MAX_AGE validation error, got: %v", err)
		}
	})
	t.Run("idempotency ttl non-positive", func(t *testing.T) {
		t.Setenv("IDEMPOTENCY_TTL", "0s")
		if _, err := Load(); err == nil || !containsErr(err, "IDEMPOTENCY_TTL") {
			t.Fatalf("expected IDEMPOTENCY_TTL validation error, got: %v", err)
		}
	})
	t.Run("otel sample ratio out of range", func(t *testing.T) {
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", "1.5")
		if _, err := Load(); err == nil || !containsErr(err, "OTEL_TRACES_SAMPLER_ARG") {
			t.Fatalf("expected OTEL_TRACES_SAMPLER_ARG validation error, got: %v", err)
		}
	})

	// Note: API_BASE_PATH validation is effectively unreachable due to normalizeBasePath
	// always ensuring a leading '/' and returning "/" for empty input.
}

// --- helpers ---

func TestHelpers_Scalars(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	t.Setenv("X_SET", " val ")
	t.Setenv("F_VALID", "3.14")
	t.Setenv("F_BAD", "nope")
	t.Setenv("I_VALID", "42")
	t.Setenv("I_BAD", "x")
	t.Setenv("D_VALID", "150ms")
	t.Setenv("D_BAD", "zzz")

	if getenv("X_EMPTY", "d") != "d" || getenv("X_UNSET_ANYWHERE", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty/unset var")
	}
	if got := getenv("X_SET", "d"); got != " val " {
		t.Fatalf("getenv should return the raw value, got %q", got)
	}
	if getfloat("F_VALID", 0) != 3.14 || getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat parse/default failed")
	}
	if getint("I_VALID", 0) != 42 || getint("I_BAD", 7) != 7 {
		t.Fatalf("getint parse/default failed")
	}
	if getdur("D_VALID", time.Second) != 150*time.Millisecond || getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur parse/default failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	cases := []struct {
		in       string
		def      bool
		expected bool
	}{
		{"1", false, true}, {"TRUE", false, true}, {" yes ", false, true}, {"Y", false, true}, {"On", false, true},
		{"0", true, false}, {"false", true, false}, {" no ", true, false}, {"N", true, false}, {"Off", true, false},
		{"", true, true}, {"", false, false}, {"maybe", true, true}, {"maybe", false, false},
	}
	for i, tc := range cases {
		k := fmt.Sprintf("B_CASE_%d", i)
		t.Setenv(k, tc.in)
		if got := getbool(k, tc.def); got != tc.expected {
			t.Fatalf("getbool(%q, def=%v) = %v; want %v", tc.in, tc.def, got, tc.expected)
		}
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got, want := splitCSV(" a, ,b ,  c  ,"), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("splitCSV mismatch: got %#v want %#v", got, want)
	}

	for in, want := range map[string]string{
		"":         "/",
		" / ":      "/",
		"v1":       "/v1",
		"/v1/":     "/v1",
		"//api/v1": "/api/v1",
		"api/v1/":  "/api/v1",
	} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}

// Ensure tests don't leak env to others.
func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Exit(m.Run())
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_PATH", "db.sqlite")
	// Intentionally leave API_BASE_PATH and the wizard keys unset

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	// default per code is "/api/v1"
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("API_BASE_PATH default expected '/api/v1', got %q", cfg.APIBasePath)
	}
	if cfg.Store.Backend != "sqlite" || cfg.AI.Provider != "mock" || cfg.Submit.Backend != "mock" {
		t.Fatalf("backends should default to local implementations: %+v %+v %+v", cfg.Store, cfg.AI, cfg.Submit)
	}
	if cfg.Wizard.AutosaveDelay != 2*time.Second || cfg.AI.MockDelay != 1500*time.Millisecond {
		t.Fatalf("wizard timing defaults unexpected: %+v %+v", cfg.Wizard, cfg.AI)
	}
	if cfg.Submit.MinLatency != time.Second || cfg.Submit.MaxLatency != 2*time.Second {
		t.Fatalf("submit latency defaults unexpected: %+v", cfg.Submit)
	}
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	// No special env needed; defaults are valid.
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath == "" {
		t.Fatalf("unexpected empty config from MustLoad")
	}
}
