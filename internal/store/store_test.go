package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-intake-backend/internal/domain"
)

// failingBackend fails every call, like storage that is full or disabled.
type failingBackend struct{ calls int }

var errUnavailable = errors.New("storage unavailable")

func (f *failingBackend) Get(context.Context, string, string) (string, bool, error) {
	f.calls++
	return "", false, errUnavailable
}
func (f *failingBackend) Set(context.Context, string, string, string) error {
	f.calls++
	return errUnavailable
}
func (f *failingBackend) Delete(context.Context, string, ...string) error {
	f.calls++
	return errUnavailable
}

func newSQLiteBackend(t *testing.T) *GormBackend {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.DraftEntry{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return NewGormBackend(db)
}

func newRedisBackend(t *testing.T, ttl time.Duration) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBackend(client, ttl), mr
}

func sampleRecord() domain.ApplicationRecord {
	r := domain.NewApplicationRecord()
	r.FullName = "Ahmed Hassan"
	r.NationalID = "1234567890"
	r.Email = "ahmed@example.com"
	dep := 0
	r.Dependents = &dep
	r.FinancialSituation = "<b>struggling</b> with rent"
	return r
}

func backends(t *testing.T) map[string]Backend {
	rb, _ := newRedisBackend(t, 0)
	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"sqlite": newSQLiteBackend(t),
		"redis":  rb,
	}
}

func TestStore_RoundTrip_AllBackends(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(b, "sess-1", zerolog.Nop())

			if s.Load(ctx) != nil {
				t.Fatalf("fresh store should load nil")
			}
			if _, ok := s.LoadStep(ctx); ok {
				t.Fatalf("fresh store should have no step")
			}

			s.Save(ctx, sampleRecord())
			s.SaveStep(ctx, domain.StepFamily)

			got := s.Load(ctx)
			if got == nil {
				t.Fatalf("expected record after save")
			}
			if got.FullName != "Ahmed Hassan" || got.Dependents == nil || *got.Dependents != 0 {
				t.Fatalf("unexpected record: %+v", got)
			}
			if got.FinancialSituation != "struggling with rent" {
				t.Fatalf("record should be sanitized before storage, got %q", got.FinancialSituation)
			}
			if got.MonthlyIncome != nil {
				t.Fatalf("unset income must stay unset")
			}
			if step, ok := s.LoadStep(ctx); !ok || step != domain.StepFamily {
				t.Fatalf("LoadStep = (%d, %v)", step, ok)
			}

			s.SaveLanguage(ctx, "ar-SA")
			s.Clear(ctx)
			if s.Load(ctx) != nil {
				t.Fatalf("form data should be cleared")
			}
			if _, ok := s.LoadStep(ctx); ok {
				t.Fatalf("step should be cleared")
			}
			if lang, ok := s.LoadLanguage(ctx); !ok || lang != "ar" {
				t.Fatalf("language should survive Clear, got (%q, %v)", lang, ok)
			}
		})
	}
}

func TestStore_SaveIsIdempotent(t *testing.T) {
	b := NewMemoryBackend()
	s := New(b, "s", zerolog.Nop())
	ctx := context.Background()

	s.Save(ctx, sampleRecord())
	first, _, _ := b.Get(ctx, "s", KeyForm)
	s.Save(ctx, sampleRecord())
	second, _, _ := b.Get(ctx, "s", KeyForm)
	if first != second {
		t.Fatalf("saving the same record twice changed stored bytes:\n%s\n%s", first, second)
	}

	// Saving the already-sanitized record yields the same bytes too.
	loaded := s.Load(ctx)
	s.Save(ctx, *loaded)
	third, _, _ := b.Get(ctx, "s", KeyForm)
	if third != first {
		t.Fatalf("re-saving loaded record changed bytes:\n%s\n%s", first, third)
	}
}

func TestStore_CorruptDataReadsAsAbsent(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	s := New(b, "s", zerolog.Nop())

	_ = b.Set(ctx, "s", KeyForm, "{not json")
	if s.Load(ctx) != nil {
		t.Fatalf("corrupt JSON must read as nil")
	}

	for _, bad := range []string{"0", "4", "-1", "two", ""} {
		_ = b.Set(ctx, "s", KeyStep, bad)
		if _, ok := s.LoadStep(ctx); ok {
			t.Fatalf("step %q must read as absent", bad)
		}
	}
	_ = b.Set(ctx, "s", KeyStep, " 3 ")
	if step, ok := s.LoadStep(ctx); !ok || step != domain.StepSituation {
		t.Fatalf("padded step should parse, got (%d, %v)", step, ok)
	}

	_ = b.Set(ctx, "s", KeyLanguage, "klingon!!")
	if _, ok := s.LoadLanguage(ctx); ok {
		t.Fatalf("bad language must read as absent")
	}
}

func TestStore_FailuresAreSwallowed(t *testing.T) {
	f := &failingBackend{}
	s := New(f, "s", zerolog.Nop())
	ctx := context.Background()

	s.Save(ctx, sampleRecord())
	s.SaveStep(ctx, domain.StepSituation)
	s.SaveLanguage(ctx, "en")
	s.Clear(ctx)
	if s.Load(ctx) != nil {
		t.Fatalf("failing backend should load nil")
	}
	if _, ok := s.LoadStep(ctx); ok {
		t.Fatalf("failing backend should have no step")
	}
	if _, ok := s.LoadLanguage(ctx); ok {
		t.Fatalf("failing backend should have no language")
	}
	if f.calls != 7 {
		t.Fatalf("expected every operation to reach the backend, got %d calls", f.calls)
	}
}

func TestStore_NamespacesAreIsolated(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	a := New(b, "a", zerolog.Nop())
	other := New(b, "b", zerolog.Nop())

	a.Save(ctx, sampleRecord())
	if other.Load(ctx) != nil {
		t.Fatalf("namespace b sees a's data")
	}
	if a.Namespace() != "a" {
		t.Fatalf("Namespace() = %q", a.Namespace())
	}
}

func TestParseLanguage(t *testing.T) {
	cases := map[string]string{
		"en":    "en",
		"en-US": "en",
		"EN":    "en",
		"ar":    "ar",
		"ar-AE": "ar",
	}
	for in, want := range cases {
		got, err := ParseLanguage(in)
		if err != nil || got != want {
			t.Errorf("ParseLanguage(%q) = (%q, %v); want %q", in, got, err, want)
		}
	}
	for _, bad := range []string{"fr", "!!"} {
		if _, err := ParseLanguage(bad); !errors.Is(err, ErrUnsupportedLanguage) {
			t.Errorf("ParseLanguage(%q) err = %v; want ErrUnsupportedLanguage", bad, err)
		}
	}
}

func TestRedisBackend_KeyLayoutAndTTL(t *testing.T) {
	rb, mr := newRedisBackend(t, 10*time.Minute)
	ctx := context.Background()

	if err := rb.Set(ctx, "sess", KeyStep, "2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := mr.Get("intake:sess:" + KeyStep)
	if err != nil || v != "2" {
		t.Fatalf("raw redis value = (%q, %v)", v, err)
	}
	if ttl := mr.TTL("intake:sess:" + KeyStep); ttl != 10*time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	mr.FastForward(11 * time.Minute)
	if _, ok, err := rb.Get(ctx, "sess", KeyStep); ok || err != nil {
		t.Fatalf("expired key should be missing, got ok=%v err=%v", ok, err)
	}

	if err := rb.Delete(ctx, "sess"); err != nil {
		t.Fatalf("delete with no keys: %v", err)
	}
}

func TestRedisBackend_ErrorsSurface(t *testing.T) {
	rb, mr := newRedisBackend(t, 0)
	mr.SetError("ERR simulated failure")
	if _, _, err := rb.Get(context.Background(), "s", "k"); err == nil {
		t.Fatalf("expected error from redis")
	}
	if err := rb.Set(context.Background(), "s", "k", "v"); err == nil {
		t.Fatalf("expected error from redis")
	}
}

func TestMemoryBackend_DeleteMissingIsNoop(t *testing.T) {
	b := NewMemoryBackend()
	if err := b.Delete(context.Background(), "nope", "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
