// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, draft storage, the suggestion provider, the
// submission backend, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-intake-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StoreConfig selects where drafts are kept.
type StoreConfig struct {
	Backend       string        // STORE_BACKEND: sqlite|redis|memory
	RedisAddr     string        // REDIS_ADDR
	RedisPassword string        // REDIS_PASSWORD
	RedisDB       int           // REDIS_DB
	DraftTTL      time.Duration // DRAFT_TTL; 0 keeps drafts forever
}

// WizardConfig holds per-session behaviour.
type WizardConfig struct {
	AutosaveDelay  time.Duration // AUTOSAVE_DELAY
	SessionIdleTTL time.Duration // SESSION_IDLE_TTL
}

// AIConfig configures the suggestion provider.
type AIConfig struct {
	Provider    string        // AI_PROVIDER: mock|openai|gemini
	APIKey      string        // AI_API_KEY
	BaseURL     string        // AI_BASE_URL
	Model       string        // AI_MODEL
	MaxTokens   int           // AI_MAX_TOKENS
	Temperature float64       // AI_TEMPERATURE in [0,2]
	Timeout     time.Duration // AI_TIMEOUT
	CacheTTL    time.Duration // AI_CACHE_TTL
	MockDelay   time.Duration // AI_MOCK_DELAY
	RPS         float64       // AI_RPS; 0 disables outbound throttling
	Burst       int           // AI_BURST
}

// SubmitConfig configures the submission backend.
type SubmitConfig struct {
	Backend    string        // SUBMIT_BACKEND: mock|http
	URL        string        // SUBMIT_URL
	Timeout    time.Duration // SUBMIT_TIMEOUT for the http backend
	MinLatency time.Duration // SUBMIT_MIN_LATENCY for the mock
	MaxLatency time.Duration // SUBMIT_MAX_LATENCY for the mock
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s; must exceed AI_TIMEOUT for ?wait=true
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBPath string // SQLite path
	Store  StoreConfig

	// Wizard, suggestions and submission
	Wizard WizardConfig
	AI     AIConfig
	Submit SubmitConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 45*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DBPath: getenv("DB_PATH", "intake.db"),
		Store: StoreConfig{
			Backend:       strings.ToLower(getenv("STORE_BACKEND", "sqlite")),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getint("REDIS_DB", 0),
			DraftTTL:      getdur("DRAFT_TTL", 30*24*time.Hour),
		},

		Wizard: WizardConfig{
			AutosaveDelay:  getdur("AUTOSAVE_DELAY", 2*time.Second),
			SessionIdleTTL: getdur("SESSION_IDLE_TTL", 30*time.Minute),
		},
		AI: AIConfig{
			Provider:    strings.ToLower(getenv("AI_PROVIDER", "mock")),
			APIKey:      getenv("AI_API_KEY", ""),
			BaseURL:     getenv("AI_BASE_URL", ""),
			Model:       getenv("AI_MODEL", "gpt-3.5-turbo"),
			MaxTokens:   getint("AI_MAX_TOKENS", 500),
			Temperature: getfloat("AI_TEMPERATURE", 0.7),
			Timeout:     getdur("AI_TIMEOUT", 30*time.Second),
			CacheTTL:    getdur("AI_CACHE_TTL", 5*time.Minute),
			MockDelay:   getdur("AI_MOCK_DELAY", 1500*time.Millisecond),
			RPS:         getfloat("AI_RPS", 0),
			Burst:       getint("AI_BURST", 5),
		},
		Submit: SubmitConfig{
			Backend:    strings.ToLower(getenv("SUBMIT_BACKEND", "mock")),
			URL:        getenv("SUBMIT_URL", ""),
			Timeout:    getdur("SUBMIT_TIMEOUT", 30*time.Second),
			MinLatency: getdur("SUBMIT_MIN_LATENCY", time.Second),
			MaxLatency: getdur("SUBMIT_MAX_LATENCY", 2*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-intake-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	switch cfg.Store.Backend {
	case "sqlite", "memory":
	case "redis":
		if strings.TrimSpace(cfg.Store.RedisAddr) == "" {
			return cfg, errors.New("REDIS_ADDR must not be empty when STORE_BACKEND=redis")
		}
	default:
		return cfg, errors.New("STORE_BACKEND must be one of: sqlite, redis, memory")
	}
	if cfg.Store.DraftTTL < 0 {
		return cfg, errors.New("DRAFT_TTL must be >= 0")
	}
	if cfg.Wizard.AutosaveDelay <= 0 {
		return cfg, errors.New("AUTOSAVE_DELAY must be > 0")
	}
	if cfg.Wizard.SessionIdleTTL <= 0 {
		return cfg, errors.New("SESSION_IDLE_TTL must be > 0")
	}
	switch cfg.AI.Provider {
	case "mock", "openai", "gemini":
	default:
		return cfg, errors.New("AI_PROVIDER must be one of: mock, openai, gemini")
	}
	if cfg.AI.MaxTokens <= 0 {
		return cfg, errors.New("AI_MAX_TOKENS must be > 0")
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		return cfg, errors.New("AI_TEMPERATURE must be between 0 and 2")
	}
	if cfg.AI.Timeout <= 0 || cfg.AI.CacheTTL <= 0 {
		return cfg, errors.New("AI_TIMEOUT and AI_CACHE_TTL must be > 0")
	}
	if cfg.AI.MockDelay < 0 {
		return cfg, errors.New("AI_MOCK_DELAY must be >= 0")
	}
	if cfg.AI.RPS < 0 || cfg.AI.Burst < 1 {
		return cfg, errors.New("AI_RPS must be >= 0 and AI_BURST >= 1")
	}
	switch cfg.Submit.Backend {
	case "mock":
	case "http":
		if strings.TrimSpace(cfg.Submit.URL) == "" {
			return cfg, errors.New("SUBMIT_URL must not be empty when SUBMIT_BACKEND=http")
		}
	default:
		return cfg, errors.New("SUBMIT_BACKEND must be one of: mock, http")
	}
	if cfg.Submit.MinLatency < 0 || cfg.Submit.MaxLatency < cfg.Submit.MinLatency {
		return cfg, errors.New("SUBMIT_MIN_LATENCY must be >= 0 and <= SUBMIT_MAX_LATENCY")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

// lookup returns the value of k when it is set and non-empty.
func lookup(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	return v, ok && v != ""
}

// parsed returns parse(value of k), or def when k is unset, empty or does
// not parse.
func parsed[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := lookup(k)
	if !ok {
		return def
	}
	if x, err := parse(v); err == nil {
		return x
	}
	return def
}

func getenv(k, def string) string {
	if v, ok := lookup(k); ok {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	return parsed(k, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func getint(k string, def int) int { return parsed(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return parsed(k, def, time.ParseDuration) }

func getbool(k string, def bool) bool { return parsed(k, def, parseBool) }

var errNotBool = errors.New("not a boolean")

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, errNotBool
}

// splitCSV returns the trimmed non-empty items of a comma list.
func splitCSV(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// normalizeBasePath yields "/" or a path with one leading and no trailing
// slash.
func normalizeBasePath(p string) string {
	return "/" + strings.Trim(strings.TrimSpace(p), "/")
}
