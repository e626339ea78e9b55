// Package validation holds the per-step rules of the intake wizard.
//
// Validation is a pure function of (step, record): the step selects a schema
// from a lookup table and every rule of that schema is evaluated against the
// record. The result is a fresh ValidationErrors map keyed by field name; a
// missing key means the field passed. Messages are English sentences built
// from the field labels of the domain catalogue.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-intake-backend/internal/domain"
)

// Length bounds.
const (
	NameMin       = 2
	NameMax       = 100
	NationalIDMin = 10
	NationalIDMax = 20
	AddressMin    = 5
	PlaceMin      = 2
	PhoneMin      = 7
	PhoneMax      = 20
	DependentsMax = 20
	NarrativeMin  = 50
	NarrativeMax  = 2000
)

const dateLayout = "2006-01-02"

var (
	reName       = regexp.MustCompile(`^[a-zA-Z\x{0600}-\x{06FF}\s]+$`)
	reDigits     = regexp.MustCompile(`^[0-9]+$`)
	rePhone      = regexp.MustCompile(`^[+]?[(]?[0-9]{1,4}[)]?[-\s./0-9]*$`)
	reDateLayout = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Validator evaluates the step schemas. Now is the clock used by the
// date-of-birth rule.
type Validator struct {
	Now func() time.Time
	v   *validator.Validate
}

// New returns a Validator using now as its clock. A nil now means time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{Now: now, v: validator.New()}
}

var std = New(nil)

// Validate runs the schema of step against r with the default Validator.
func Validate(step domain.Step, r domain.ApplicationRecord) domain.ValidationErrors {
	return std.Validate(step, r)
}

// ValidateField runs the rule for one field of step with the default Validator.
func ValidateField(step domain.Step, field string, r domain.ApplicationRecord) (string, bool) {
	return std.ValidateField(step, field, r)
}

// ValidateAll runs the combined schema with the default Validator.
func ValidateAll(r domain.ApplicationRecord) domain.ValidationErrors {
	return std.ValidateAll(r)
}

// Validate runs every rule of step's schema. An invalid step yields an
// empty map.
func (v *Validator) Validate(step domain.Step, r domain.ApplicationRecord) domain.ValidationErrors {
	errs := domain.ValidationErrors{}
	for _, fr := range schemas[step] {
		if msg := fr.check(v, r); msg != "" {
			errs[fr.field] = msg
		}
	}
	return errs
}

// ValidateField evaluates the rule for field when it belongs to step's
// schema. It returns the error message ("" when valid) and whether the
// field has a rule in that schema at all.
func (v *Validator) ValidateField(step domain.Step, field string, r domain.ApplicationRecord) (string, bool) {
	for _, fr := range schemas[step] {
		if fr.field == field {
			return fr.check(v, r), true
		}
	}
	return "", false
}

// ValidateAll runs the union of the three step schemas.
func (v *Validator) ValidateAll(r domain.ApplicationRecord) domain.ValidationErrors {
	errs := domain.ValidationErrors{}
	for s := domain.FirstStep; s <= domain.LastStep; s++ {
		for k, msg := range v.Validate(s, r) {
			errs[k] = msg
		}
	}
	return errs
}

type fieldRule struct {
	field string
	check func(v *Validator, r domain.ApplicationRecord) string
}

var schemas = map[domain.Step][]fieldRule{
	domain.StepPersonal: {
		text(domain.FieldFullName, NameMin, NameMax, matches(reName, "may only contain letters and spaces")),
		text(domain.FieldNationalID, 0, 0, matches(reDigits, "must contain only digits"), lengthBetween(NationalIDMin, NationalIDMax, "digits")),
		text(domain.FieldDateOfBirth, 0, 0, pastDate),
		enum(domain.FieldGender),
		text(domain.FieldAddress, AddressMin, 0),
		text(domain.FieldCity, PlaceMin, 0),
		text(domain.FieldState, PlaceMin, 0),
		text(domain.FieldCountry, PlaceMin, 0),
		text(domain.FieldPhone, 0, 0, matches(rePhone, "must be a valid phone number"), lengthBetween(PhoneMin, PhoneMax, "characters")),
		text(domain.FieldEmail, 0, 0, email),
	},
	domain.StepFamily: {
		enum(domain.FieldMaritalStatus),
		{field: domain.FieldDependents, check: checkDependents},
		enum(domain.FieldEmploymentStatus),
		{field: domain.FieldMonthlyIncome, check: checkIncome},
		enum(domain.FieldCurrency),
		enum(domain.FieldHousingStatus),
	},
	domain.StepSituation: {
		text(domain.FieldFinancialSituation, NarrativeMin, NarrativeMax),
		text(domain.FieldEmploymentCircumstances, NarrativeMin, NarrativeMax),
		text(domain.FieldReasonForApplying, NarrativeMin, NarrativeMax),
	},
}

// textCheck inspects a non-empty value and returns a message suffix, or "".
type textCheck func(v *Validator, s string) string

// text builds a required string rule with optional rune-length bounds
// lo..hi (0 disables a bound) followed by extra checks.
func text(field string, lo, hi int, extra ...textCheck) fieldRule {
	label := domain.Label(field)
	return fieldRule{field: field, check: func(v *Validator, r domain.ApplicationRecord) string {
		s := r.Text(field)
		if strings.TrimSpace(s) == "" {
			return label + " is required"
		}
		// Surrounding whitespace does not count towards the bounds; the
		// submission client measures the same way.
		n := utf8.RuneCountInString(strings.TrimSpace(s))
		if lo > 0 && n < lo {
			return fmt.Sprintf("%s must be at least %d characters", label, lo)
		}
		if hi > 0 && n > hi {
			return fmt.Sprintf("%s must be at most %d characters", label, hi)
		}
		for _, c := range extra {
			if msg := c(v, s); msg != "" {
				return label + " " + msg
			}
		}
		return ""
	}}
}

func matches(re *regexp.Regexp, msg string) textCheck {
	return func(_ *Validator, s string) string {
		if !re.MatchString(s) {
			return msg
		}
		return ""
	}
}

func lengthBetween(lo, hi int, unit string) textCheck {
	return func(_ *Validator, s string) string {
		n := utf8.RuneCountInString(s)
		if n < lo || n > hi {
			return fmt.Sprintf("must be between %d and %d %s", lo, hi, unit)
		}
		return ""
	}
}

func pastDate(v *Validator, s string) string {
	if !reDateLayout.MatchString(s) {
		return "must be a valid date (YYYY-MM-DD)"
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return "must be a valid date (YYYY-MM-DD)"
	}
	now := v.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !d.Before(today) {
		return "must be in the past"
	}
	return ""
}

func email(v *Validator, s string) string {
	if err := v.v.Var(s, "required,email"); err != nil {
		return "must be a valid email address"
	}
	return ""
}

// enum builds a required membership rule from the catalogue options.
func enum(field string) fieldRule {
	f, _ := domain.Lookup(field)
	return fieldRule{field: field, check: func(_ *Validator, r domain.ApplicationRecord) string {
		s := r.Text(field)
		if s == "" {
			return f.Label + " is required"
		}
		for _, o := range f.Options {
			if s == o {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of: %s", f.Label, strings.Join(f.Options, ", "))
	}}
}

func checkDependents(_ *Validator, r domain.ApplicationRecord) string {
	label := domain.Label(domain.FieldDependents)
	if r.Dependents == nil {
		return label + " is required"
	}
	if d := *r.Dependents; d < 0 || d > DependentsMax {
		return fmt.Sprintf("%s must be between 0 and %d", label, DependentsMax)
	}
	return ""
}

func checkIncome(_ *Validator, r domain.ApplicationRecord) string {
	label := domain.Label(domain.FieldMonthlyIncome)
	if r.MonthlyIncome == nil {
		return label + " is required"
	}
	if n := *r.MonthlyIncome; math.IsNaN(n) || math.IsInf(n, 0) {
		return label + " must be a number"
	}
	if *r.MonthlyIncome < 0 {
		return label + " cannot be negative"
	}
	return ""
}
