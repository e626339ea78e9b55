// Package store persists in-progress applications on a best-effort basis.
//
// A Store is bound to one wizard session (its namespace) and keeps three
// fixed keys: the sanitized record as JSON, the current step as decimal
// text, and the preferred UI language. Every storage failure is logged and
// swallowed; corrupt or out-of-range data reads as absent. Callers can
// therefore treat persistence as optional and keep working without it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/tbourn/go-intake-backend/internal/domain"
	"github.com/tbourn/go-intake-backend/internal/sanitize"
)

// Fixed draft keys.
const (
	KeyForm     = "socialSupportForm"
	KeyStep     = "socialSupportFormStep"
	KeyLanguage = "language"
)

// ErrUnsupportedLanguage is returned by ParseLanguage for tags other than
// English and Arabic.
var ErrUnsupportedLanguage = errors.New("unsupported language")

var supported = language.NewMatcher([]language.Tag{language.English, language.Arabic})

// ParseLanguage normalizes a BCP 47 tag to "en" or "ar".
func ParseLanguage(s string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", ErrUnsupportedLanguage
	}
	_, idx, conf := supported.Match(tag)
	if conf == language.No {
		return "", ErrUnsupportedLanguage
	}
	if idx == 1 {
		return "ar", nil
	}
	return "en", nil
}

// Store reads and writes one session's draft.
type Store struct {
	backend   Backend
	namespace string
	san       *sanitize.Sanitizer
	log       zerolog.Logger
}

// New returns a Store for namespace over backend.
func New(backend Backend, namespace string, log zerolog.Logger) *Store {
	return &Store{
		backend:   backend,
		namespace: namespace,
		san:       sanitize.New(),
		log:       log.With().Str("component", "store").Str("session_id", namespace).Logger(),
	}
}

// Namespace returns the session id the store is bound to.
func (s *Store) Namespace() string { return s.namespace }

// Save sanitizes and writes the record. Failures are logged only.
func (s *Store) Save(ctx context.Context, r domain.ApplicationRecord) {
	buf, err := json.Marshal(s.san.Record(r))
	if err != nil {
		s.log.Warn().Err(err).Msg("encode form data")
		return
	}
	if err := s.backend.Set(ctx, s.namespace, KeyForm, string(buf)); err != nil {
		s.log.Warn().Err(err).Msg("save form data")
	}
}

// Load returns the stored record, or nil when absent or unreadable.
func (s *Store) Load(ctx context.Context) *domain.ApplicationRecord {
	raw, ok := s.get(ctx, KeyForm)
	if !ok {
		return nil
	}
	rec := domain.NewApplicationRecord()
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.log.Warn().Err(err).Msg("discarding corrupt form data")
		return nil
	}
	return &rec
}

// SaveStep writes the current step.
func (s *Store) SaveStep(ctx context.Context, step domain.Step) {
	if err := s.backend.Set(ctx, s.namespace, KeyStep, strconv.Itoa(int(step))); err != nil {
		s.log.Warn().Err(err).Msg("save step")
	}
}

// LoadStep returns the stored step. Anything outside 1..3 reads as absent.
func (s *Store) LoadStep(ctx context.Context) (domain.Step, bool) {
	raw, ok := s.get(ctx, KeyStep)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || !domain.Step(n).Valid() {
		s.log.Warn().Str("value", raw).Msg("discarding invalid step")
		return 0, false
	}
	return domain.Step(n), true
}

// SaveLanguage writes the language preference if it is supported.
func (s *Store) SaveLanguage(ctx context.Context, lang string) {
	norm, err := ParseLanguage(lang)
	if err != nil {
		s.log.Warn().Str("value", lang).Msg("ignoring unsupported language")
		return
	}
	if err := s.backend.Set(ctx, s.namespace, KeyLanguage, norm); err != nil {
		s.log.Warn().Err(err).Msg("save language")
	}
}

// LoadLanguage returns the stored language preference.
func (s *Store) LoadLanguage(ctx context.Context) (string, bool) {
	raw, ok := s.get(ctx, KeyLanguage)
	if !ok {
		return "", false
	}
	norm, err := ParseLanguage(raw)
	if err != nil {
		return "", false
	}
	return norm, true
}

// Clear removes the form data and step. The language preference is kept.
func (s *Store) Clear(ctx context.Context) {
	if err := s.backend.Delete(ctx, s.namespace, KeyForm, KeyStep); err != nil {
		s.log.Warn().Err(err).Msg("clear draft")
	}
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.backend.Get(ctx, s.namespace, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("read draft")
		return "", false
	}
	return v, ok
}
