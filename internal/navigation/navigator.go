// Package navigation moves the wizard between its three steps.
//
// Forward moves are gated by validation of the active step; backward moves
// and direct jumps are not. Every successful move invokes the ScrollToTop
// callback. There is no step after the last one: leaving step 3 forward is
// a submission, not a navigation.
package navigation

import (
	"github.com/tbourn/go-intake-backend/internal/domain"
)

// Form is the part of the form controller the navigator drives.
type Form interface {
	CurrentStep() domain.Step
	SetCurrentStep(step domain.Step) error
	ValidateCurrentStep() bool
}

// Navigator is stateless apart from its collaborators; the step lives in Form.
type Navigator struct {
	form        Form
	scrollToTop func()
}

// New returns a Navigator over form. scrollToTop may be nil.
func New(form Form, scrollToTop func()) *Navigator {
	if scrollToTop == nil {
		scrollToTop = func() {}
	}
	return &Navigator{form: form, scrollToTop: scrollToTop}
}

// Next validates the active step and advances when it passes and a later
// step exists. It reports whether the step changed.
func (n *Navigator) Next() bool {
	if !n.form.ValidateCurrentStep() {
		return false
	}
	step := n.form.CurrentStep()
	if step >= domain.LastStep {
		return false
	}
	return n.move(step + 1)
}

// Previous goes back one step without validation.
func (n *Navigator) Previous() bool {
	step := n.form.CurrentStep()
	if step <= domain.FirstStep {
		return false
	}
	return n.move(step - 1)
}

// GoTo jumps directly to step without validation. Steps outside 1..3 are
// ignored.
func (n *Navigator) GoTo(step domain.Step) bool {
	if !step.Valid() {
		return false
	}
	return n.move(step)
}

// CanGoNext reports whether a later step exists.
func (n *Navigator) CanGoNext() bool { return n.form.CurrentStep() < domain.LastStep }

// CanGoPrevious reports whether an earlier step exists.
func (n *Navigator) CanGoPrevious() bool { return n.form.CurrentStep() > domain.FirstStep }

func (n *Navigator) move(step domain.Step) bool {
	if err := n.form.SetCurrentStep(step); err != nil {
		return false
	}
	n.scrollToTop()
	return true
}
