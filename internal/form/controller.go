// Package form holds the state of one applicant's wizard: the record being
// filled in, the active step and the inline validation errors.
//
// Every change to the record or the step re-arms a debounced write to the
// draft store, so at most one write happens per quiet period and the write
// always carries the latest state. Close cancels any pending write; nothing
// is persisted afterwards.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-intake-backend/internal/domain"
	"github.com/tbourn/go-intake-backend/internal/schedule"
	"github.com/tbourn/go-intake-backend/internal/validation"
)

// DefaultSaveDelay is the quiet period before a draft is written.
const DefaultSaveDelay = 2 * time.Second

// persistTimeout bounds one debounced draft write.
const persistTimeout = 5 * time.Second

var (
	// ErrClosed is returned by mutations after Close.
	ErrClosed = errors.New("form closed")
	// ErrInvalidStep is returned for steps outside 1..3.
	ErrInvalidStep = errors.New("invalid step")
)

// Persister is the subset of the draft store used by the controller.
type Persister interface {
	Save(ctx context.Context, r domain.ApplicationRecord)
	Load(ctx context.Context) *domain.ApplicationRecord
	SaveStep(ctx context.Context, step domain.Step)
	LoadStep(ctx context.Context) (domain.Step, bool)
}

// ChangeFunc observes record changes. It runs after the change is applied,
// outside the controller lock.
type ChangeFunc func(prev, cur domain.ApplicationRecord)

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Scheduler schedule.Scheduler
	SaveDelay time.Duration
	Validator *validation.Validator
	Logger    zerolog.Logger
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Record domain.ApplicationRecord `json:"formData"`
	Step   domain.Step              `json:"currentStep"`
	Errors domain.ValidationErrors  `json:"errors"`
}

// Controller is safe for concurrent use.
type Controller struct {
	store     Persister
	debounce  *schedule.Debouncer
	validator *validation.Validator
	log       zerolog.Logger

	mu        sync.Mutex
	record    domain.ApplicationRecord
	step      domain.Step
	errs      domain.ValidationErrors
	live      map[domain.Step]bool
	observers map[int]ChangeFunc
	nextObs   int
	closed    bool
}

// New returns a Controller holding an empty record at step 1. Call Hydrate
// to restore a saved draft.
func New(store Persister, opts Options) *Controller {
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	if opts.Validator == nil {
		opts.Validator = validation.New(nil)
	}
	return &Controller{
		store:     store,
		debounce:  schedule.NewDebouncer(opts.Scheduler, opts.SaveDelay),
		validator: opts.Validator,
		log:       opts.Logger.With().Str("component", "form").Logger(),
		record:    domain.NewApplicationRecord(),
		step:      domain.FirstStep,
		errs:      domain.ValidationErrors{},
		live:      map[domain.Step]bool{},
		observers: map[int]ChangeFunc{},
	}
}

// Hydrate loads the saved record and step. Missing data leaves the empty
// record and step 1 in place. Hydration does not schedule a write.
func (c *Controller) Hydrate(ctx context.Context) {
	rec := c.store.Load(ctx)
	step, ok := c.store.LoadStep(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if rec != nil {
		c.record = rec.Clone()
	}
	if ok {
		c.step = step
	}
}

// FormData returns a copy of the current record.
func (c *Controller) FormData() domain.ApplicationRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.Clone()
}

// CurrentStep returns the active step.
func (c *Controller) CurrentStep() domain.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Errors returns a copy of the current validation errors.
func (c *Controller) Errors() domain.ValidationErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs.Clone()
}

// Snapshot returns record, step and errors read under one lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Record: c.record.Clone(), Step: c.step, Errors: c.errs.Clone()}
}

// UpdateField sets one field. Numeric fields accept numbers, numeric strings
// and "" or nil for unset.
//
// Once the active step has been validated, a change to one of its fields
// re-validates that field alone and updates or clears its error.
func (c *Controller) UpdateField(name string, value any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	prev := c.record.Clone()
	next := c.record.Clone()
	if err := next.Set(name, value); err != nil {
		c.mu.Unlock()
		return err
	}
	c.record = next
	if c.live[c.step] {
		if msg, ok := c.validator.ValidateField(c.step, name, next); ok {
			if msg == "" {
				delete(c.errs, name)
			} else {
				c.errs[name] = msg
			}
		}
	}
	cur := next.Clone()
	obs := c.observersLocked()
	c.schedulePersistLocked()
	c.mu.Unlock()

	for _, fn := range obs {
		fn(prev, cur)
	}
	return nil
}

// UpdateFields applies several fields in catalogue order and stops at the
// first error. Unknown names are rejected before anything is applied.
func (c *Controller) UpdateFields(values map[string]any) error {
	for name := range values {
		if _, ok := domain.Lookup(name); !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownField, name)
		}
	}
	for _, f := range domain.Fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		if err := c.UpdateField(f.Name, v); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

// SetCurrentStep moves to step without any validation gate.
func (c *Controller) SetCurrentStep(step domain.Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.step == step {
		return nil
	}
	c.step = step
	c.schedulePersistLocked()
	return nil
}

// ValidateCurrentStep runs the active step's schema, replaces the error map
// with the result and reports whether the step passed.
func (c *Controller) ValidateCurrentStep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = c.validator.Validate(c.step, c.record)
	c.live[c.step] = true
	return len(c.errs) == 0
}

// ResetForm restores the empty record at step 1 and drops errors. It does
// not touch the store and cancels a pending draft write, so a caller that
// also clears the store leaves it empty.
func (c *Controller) ResetForm() {
	c.mu.Lock()
	prev := c.record.Clone()
	c.record = domain.NewApplicationRecord()
	c.step = domain.FirstStep
	c.errs = domain.ValidationErrors{}
	c.live = map[domain.Step]bool{}
	cur := c.record.Clone()
	obs := c.observersLocked()
	c.debounce.Cancel()
	c.mu.Unlock()

	for _, fn := range obs {
		fn(prev, cur)
	}
}

// OnChange registers fn and returns a function that unregisters it.
func (c *Controller) OnChange(fn ChangeFunc) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Flush writes a pending draft immediately.
func (c *Controller) Flush() { c.debounce.Flush() }

// SavePending reports whether a draft write is armed.
func (c *Controller) SavePending() bool { return c.debounce.Pending() }

// Close cancels a pending draft write and rejects further mutations.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.observers = map[int]ChangeFunc{}
	c.mu.Unlock()
	c.debounce.Stop()
}

func (c *Controller) observersLocked() []ChangeFunc {
	out := make([]ChangeFunc, 0, len(c.observers))
	for i := 0; i < c.nextObs; i++ {
		if fn, ok := c.observers[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (c *Controller) schedulePersistLocked() {
	c.debounce.Trigger(c.persist)
}

// persist writes the state as it is when the timer fires.
func (c *Controller) persist() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	rec := c.record.Clone()
	step := c.step
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	c.store.Save(ctx, rec)
	c.store.SaveStep(ctx, step)
	c.log.Debug().Int("step", int(step)).Msg("draft saved")
}
