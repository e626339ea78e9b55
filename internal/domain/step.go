package domain

// Step is the index of a wizard page. Legal values are 1..3.
type Step int

const (
	StepPersonal  Step = 1
	StepFamily    Step = 2
	StepSituation Step = 3

	FirstStep = StepPersonal
	LastStep  = StepSituation
)

// Valid reports whether s is a legal step.
func (s Step) Valid() bool { return s >= FirstStep && s <= LastStep }

// Label names the step for progress displays.
func (s Step) Label() string {
	switch s {
	case StepPersonal:
		return "Personal Information"
	case StepFamily:
		return "Family & Financial Information"
	case StepSituation:
		return "Situation Descriptions"
	}
	return ""
}
