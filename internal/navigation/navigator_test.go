package navigation

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-intake-backend/internal/domain"
	"github.com/tbourn/go-intake-backend/internal/form"
	"github.com/tbourn/go-intake-backend/internal/schedule"
	"github.com/tbourn/go-intake-backend/internal/store"
	"github.com/tbourn/go-intake-backend/internal/validation"
)

func newFixture(t *testing.T) (*form.Controller, *Navigator, *int) {
	t.Helper()
	st := store.New(store.NewMemoryBackend(), "nav", zerolog.Nop())
	c := form.New(st, form.Options{
		Scheduler: schedule.NewManual(),
		Validator: validation.New(func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }),
		Logger:    zerolog.Nop(),
	})
	t.Cleanup(c.Close)
	scrolls := 0
	return c, New(c, func() { scrolls++ }), &scrolls
}

func TestScenarioA_ValidStep1Advances(t *testing.T) {
	c, nav, scrolls := newFixture(t)
	err := c.UpdateFields(map[string]any{
		domain.FieldFullName:    "Ahmed Hassan",
		domain.FieldNationalID:  "1234567890",
		domain.FieldDateOfBirth: "1990-01-15",
		domain.FieldGender:      "male",
		domain.FieldAddress:     "King Fahd Road 12",
		domain.FieldCity:        "Riyadh",
		domain.FieldState:       "Riyadh Province",
		domain.FieldCountry:     "Saudi Arabia",
		domain.FieldPhone:       "+966501234567",
		domain.FieldEmail:       "ahmed@example.com",
	})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !nav.Next() {
		t.Fatalf("Next should advance: %v", c.Errors())
	}
	if c.CurrentStep() != domain.StepFamily || *scrolls != 1 {
		t.Fatalf("step=%d scrolls=%d", c.CurrentStep(), *scrolls)
	}
}

func TestScenarioB_EmptyStep2Stays(t *testing.T) {
	c, nav, scrolls := newFixture(t)
	if !nav.GoTo(domain.StepFamily) {
		t.Fatalf("GoTo failed")
	}
	if nav.Next() {
		t.Fatalf("Next must not advance with empty step 2")
	}
	if c.CurrentStep() != domain.StepFamily {
		t.Fatalf("step = %d", c.CurrentStep())
	}
	errs := c.Errors()
	for _, f := range []string{
		domain.FieldMaritalStatus, domain.FieldDependents, domain.FieldEmploymentStatus,
		domain.FieldMonthlyIncome, domain.FieldHousingStatus,
	} {
		if _, ok := errs[f]; !ok {
			t.Errorf("missing error for %s", f)
		}
	}
	if *scrolls != 1 {
		t.Fatalf("only the GoTo should scroll, got %d", *scrolls)
	}
}

func TestPreviousAndBounds(t *testing.T) {
	c, nav, scrolls := newFixture(t)
	if nav.CanGoPrevious() || !nav.CanGoNext() {
		t.Fatalf("flags wrong at step 1")
	}
	if nav.Previous() {
		t.Fatalf("Previous at step 1 must be a no-op")
	}
	nav.GoTo(domain.StepSituation)
	if nav.CanGoNext() || !nav.CanGoPrevious() {
		t.Fatalf("flags wrong at step 3")
	}
	if !nav.Previous() || c.CurrentStep() != domain.StepFamily {
		t.Fatalf("Previous should go to step 2 without validation")
	}
	if *scrolls != 2 {
		t.Fatalf("scrolls = %d", *scrolls)
	}
}

func TestNext_AtLastStepDoesNotMove(t *testing.T) {
	c, nav, _ := newFixture(t)
	nav.GoTo(domain.StepSituation)
	for _, f := range domain.FieldsForStep(domain.StepSituation) {
		_ = c.UpdateField(f.Name, "This narrative is comfortably longer than fifty characters in total.")
	}
	if nav.Next() {
		t.Fatalf("there is no step after 3")
	}
	if c.CurrentStep() != domain.StepSituation || len(c.Errors()) != 0 {
		t.Fatalf("step=%d errs=%v", c.CurrentStep(), c.Errors())
	}
}

func TestGoTo_IgnoresOutOfRange(t *testing.T) {
	c, nav, scrolls := newFixture(t)
	if nav.GoTo(0) || nav.GoTo(4) {
		t.Fatalf("out-of-range GoTo should be ignored")
	}
	if c.CurrentStep() != domain.StepPersonal || *scrolls != 0 {
		t.Fatalf("state changed on ignored GoTo")
	}
}

func TestNew_NilScroll(t *testing.T) {
	c, _, _ := newFixture(t)
	nav := New(c, nil)
	if !nav.GoTo(domain.StepFamily) {
		t.Fatalf("GoTo with nil callback failed")
	}
}
