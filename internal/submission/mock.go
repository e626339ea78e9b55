package submission

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/go-intake-backend/internal/domain"
	"github.com/tbourn/go-intake-backend/internal/repo"
)

// Default latency window of MockBackend.
const (
	DefaultMinLatency = 1000 * time.Millisecond
	DefaultMaxLatency = 2000 * time.Millisecond
)

// SuccessMessage is returned with every accepted application.
const SuccessMessage = "Application submitted successfully"

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idSuffix   = 9
	timeLayout = "2006-01-02T15:04:05.000Z07:00"
)

//go:embed contract.json
var contractJSON []byte

var (
	contractOnce   sync.Once
	contractSchema *gojsonschema.Schema
	contractErr    error
)

func contract() (*gojsonschema.Schema, error) {
	contractOnce.Do(func() {
		contractSchema, contractErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(contractJSON))
	})
	return contractSchema, contractErr
}

// ValidateContract checks r against the submission API contract.
func ValidateContract(r domain.ApplicationRecord) error {
	schema, err := contract()
	if err != nil {
		return fmt.Errorf("load contract: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(r))
	if err != nil {
		return fmt.Errorf("validate contract: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("Invalid application data: %s", strings.Join(errs, "; "))
	}
	return nil
}

// MockBackend accepts applications locally after a simulated network delay.
// When DB is set, accepted applications are archived in the submissions
// table.
type MockBackend struct {
	MinLatency time.Duration
	MaxLatency time.Duration
	DB         *gorm.DB
	Now        func() time.Time
}

// NewMockBackend returns a MockBackend with the default latency window.
func NewMockBackend(db *gorm.DB) *MockBackend {
	return &MockBackend{MinLatency: DefaultMinLatency, MaxLatency: DefaultMaxLatency, DB: db}
}

// Submit implements Backend.
func (m *MockBackend) Submit(ctx context.Context, r domain.ApplicationRecord) (*Response, error) {
	if err := ValidateContract(r); err != nil {
		return nil, err
	}
	if err := sleep(ctx, m.latency()); err != nil {
		return nil, err
	}

	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	ts := now().UTC()
	id := NewApplicationID(ts)

	if m.DB != nil {
		payload, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encode submission: %w", err)
		}
		err = repo.CreateSubmission(ctx, m.DB, &domain.Submission{
			ID:          id,
			UserID:      UserID(ctx),
			SessionID:   SessionID(ctx),
			Payload:     datatypes.JSON(payload),
			SubmittedAt: ts,
		})
		if err != nil {
			return nil, errors.Join(ErrFailed, err)
		}
	}

	return &Response{
		Success: true,
		Message: SuccessMessage,
		Data:    Data{ApplicationID: id, Timestamp: ts.Format(timeLayout)},
	}, nil
}

func (m *MockBackend) latency() time.Duration {
	lo, hi := m.MinLatency, m.MaxLatency
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewApplicationID returns APP-<unix millis>-<9 uppercase alphanumerics>.
func NewApplicationID(t time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "APP-%d-", t.UnixMilli())
	for i := 0; i < idSuffix; i++ {
		b.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return b.String()
}

// Replay rebuilds the response originally returned for an archived
// application.
func Replay(s *domain.Submission) *Response {
	return &Response{
		Success: true,
		Message: SuccessMessage,
		Data: Data{
			ApplicationID: s.ID,
			Timestamp:     s.SubmittedAt.UTC().Format(timeLayout),
		},
	}
}
