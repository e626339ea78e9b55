// Package domain defines the application record collected by the intake
// wizard, its field catalogue, and the persistence models mapped with GORM.
// These types are shared by the store, validation, form, suggestion,
// submission and HTTP layers.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Gender is the applicant's declared gender.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// MaritalStatus is the applicant's marital status.
type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

// EmploymentStatus is the applicant's current employment status.
type EmploymentStatus string

const (
	EmploymentEmployed     EmploymentStatus = "employed"
	EmploymentUnemployed   EmploymentStatus = "unemployed"
	EmploymentSelfEmployed EmploymentStatus = "selfEmployed"
	EmploymentRetired      EmploymentStatus = "retired"
)

// Currency is the currency of the declared monthly income.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyAED Currency = "AED"
)

// HousingStatus is the applicant's housing situation.
type HousingStatus string

const (
	HousingOwned    HousingStatus = "owned"
	HousingRented   HousingStatus = "rented"
	HousingHomeless HousingStatus = "homeless"
	HousingOther    HousingStatus = "other"
)

// ApplicationRecord is the single entity filled in by the wizard.
//
// Numeric fields use pointers: nil means "unset", which is distinct from a
// filled-in zero. Enum fields are either one of their literal values or "".
type ApplicationRecord struct {
	// Personal information (step 1)
	FullName    string `json:"fullName"`
	NationalID  string `json:"nationalId"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      Gender `json:"gender"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`

	// Family and financial information (step 2)
	MaritalStatus    MaritalStatus    `json:"maritalStatus"`
	Dependents       *int             `json:"dependents"`
	EmploymentStatus EmploymentStatus `json:"employmentStatus"`
	MonthlyIncome    *float64         `json:"monthlyIncome"`
	Currency         Currency         `json:"currency"`
	HousingStatus    HousingStatus    `json:"housingStatus"`

	// Situation descriptions (step 3)
	FinancialSituation      string `json:"financialSituation"`
	EmploymentCircumstances string `json:"employmentCircumstances"`
	ReasonForApplying       string `json:"reasonForApplying"`
}

// NewApplicationRecord returns the empty record shown on first load.
// Currency is pre-selected, every other field is unset.
func NewApplicationRecord() ApplicationRecord {
	return ApplicationRecord{Currency: CurrencyUSD}
}

// Clone returns a deep copy; the numeric pointers are not shared.
func (r ApplicationRecord) Clone() ApplicationRecord {
	out := r
	if r.Dependents != nil {
		v := *r.Dependents
		out.Dependents = &v
	}
	if r.MonthlyIncome != nil {
		v := *r.MonthlyIncome
		out.MonthlyIncome = &v
	}
	return out
}

// Equal reports whether two records hold the same values.
func (r ApplicationRecord) Equal(o ApplicationRecord) bool {
	for _, f := range Fields {
		if r.Value(f.Name) != o.Value(f.Name) {
			return false
		}
	}
	return true
}

// Value returns the field as a comparable value: strings for text and enum
// fields, nil or the dereferenced number for numeric fields. Unknown names
// yield nil.
func (r ApplicationRecord) Value(name string) any {
	switch name {
	case FieldFullName:
		return r.FullName
	case FieldNationalID:
		return r.NationalID
	case FieldDateOfBirth:
		return r.DateOfBirth
	case FieldGender:
		return string(r.Gender)
	case FieldAddress:
		return r.Address
	case FieldCity:
		return r.City
	case FieldState:
		return r.State
	case FieldCountry:
		return r.Country
	case FieldPhone:
		return r.Phone
	case FieldEmail:
		return r.Email
	case FieldMaritalStatus:
		return string(r.MaritalStatus)
	case FieldDependents:
		if r.Dependents == nil {
			return nil
		}
		return *r.Dependents
	case FieldEmploymentStatus:
		return string(r.EmploymentStatus)
	case FieldMonthlyIncome:
		if r.MonthlyIncome == nil {
			return nil
		}
		return *r.MonthlyIncome
	case FieldCurrency:
		return string(r.Currency)
	case FieldHousingStatus:
		return string(r.HousingStatus)
	case FieldFinancialSituation:
		return r.FinancialSituation
	case FieldEmploymentCircumstances:
		return r.EmploymentCircumstances
	case FieldReasonForApplying:
		return r.ReasonForApplying
	}
	return nil
}

// Text returns the string value of a text, enum or narrative field, and ""
// for numeric or unknown fields.
func (r ApplicationRecord) Text(name string) string {
	s, _ := r.Value(name).(string)
	return s
}

// ErrUnknownField is returned when a field name is not part of the record.
var ErrUnknownField = errors.New("unknown field")

// ErrInvalidValue is returned when a value cannot be assigned to a field.
var ErrInvalidValue = errors.New("invalid field value")

// Set assigns value to the named field.
//
// Text and enum fields accept strings. Numeric fields accept numbers,
// numeric strings, and the unset sentinel ("" or nil).
func (r *ApplicationRecord) Set(name string, value any) error {
	f, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	switch f.Kind {
	case KindInt:
		n, set, err := toInt(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, name, err)
		}
		if !set {
			r.Dependents = nil
			return nil
		}
		r.Dependents = &n
		return nil
	case KindNumber:
		n, set, err := toFloat(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, name, err)
		}
		if !set {
			r.MonthlyIncome = nil
			return nil
		}
		r.MonthlyIncome = &n
		return nil
	}

	s, ok := value.(string)
	if !ok {
		if value != nil {
			return fmt.Errorf("%w: %s expects a string", ErrInvalidValue, name)
		}
	}
	r.setText(name, s)
	return nil
}

func (r *ApplicationRecord) setText(name, s string) {
	switch name {
	case FieldFullName:
		r.FullName = s
	case FieldNationalID:
		r.NationalID = s
	case FieldDateOfBirth:
		r.DateOfBirth = s
	case FieldGender:
		r.Gender = Gender(s)
	case FieldAddress:
		r.Address = s
	case FieldCity:
		r.City = s
	case FieldState:
		r.State = s
	case FieldCountry:
		r.Country = s
	case FieldPhone:
		r.Phone = s
	case FieldEmail:
		r.Email = s
	case FieldMaritalStatus:
		r.MaritalStatus = MaritalStatus(s)
	case FieldEmploymentStatus:
		r.EmploymentStatus = EmploymentStatus(s)
	case FieldCurrency:
		r.Currency = Currency(s)
	case FieldHousingStatus:
		r.HousingStatus = HousingStatus(s)
	case FieldFinancialSituation:
		r.FinancialSituation = s
	case FieldEmploymentCircumstances:
		r.EmploymentCircumstances = s
	case FieldReasonForApplying:
		r.ReasonForApplying = s
	}
}

// MapStrings applies fn to every string-valued field (enums included) and
// returns the resulting copy.
func (r ApplicationRecord) MapStrings(fn func(string) string) ApplicationRecord {
	out := r.Clone()
	for _, f := range Fields {
		if f.Kind == KindInt || f.Kind == KindNumber {
			continue
		}
		out.setText(f.Name, fn(r.Text(f.Name)))
	}
	return out
}

// UnmarshalJSON decodes a record, accepting "" and null as the unset
// sentinel for numeric fields and numeric strings as numbers.
func (r *ApplicationRecord) UnmarshalJSON(data []byte) error {
	type plain ApplicationRecord
	aux := struct {
		*plain
		Dependents    json.RawMessage `json:"dependents"`
		MonthlyIncome json.RawMessage `json:"monthlyIncome"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	dep, err := decodeLenient(aux.Dependents)
	if err != nil {
		return fmt.Errorf("dependents: %w", err)
	}
	if err := r.Set(FieldDependents, dep); err != nil {
		return err
	}
	inc, err := decodeLenient(aux.MonthlyIncome)
	if err != nil {
		return fmt.Errorf("monthlyIncome: %w", err)
	}
	return r.Set(FieldMonthlyIncome, inc)
}

// decodeLenient turns a raw JSON scalar into nil, a float64 or a string.
func decodeLenient(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case float64, string:
		return v, nil
	}
	return nil, fmt.Errorf("unsupported JSON value %s", string(raw))
}

func toInt(value any) (int, bool, error) {
	switch v := value.(type) {
	case nil:
		return 0, false, nil
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false, fmt.Errorf("%v is not a whole number", v)
		}
		return int(v), true, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false, fmt.Errorf("%q is not a whole number", v)
		}
		return n, true, nil
	}
	return 0, false, fmt.Errorf("unsupported type %T", value)
}

// toFloat accepts finite numbers only; NaN and infinities cannot be
// encoded as JSON.
func toFloat(value any) (float64, bool, error) {
	var n float64
	switch v := value.(type) {
	case nil:
		return 0, false, nil
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%q is not a number", v)
		}
		n = f
	default:
		return 0, false, fmt.Errorf("unsupported type %T", value)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false, fmt.Errorf("%v is not a finite number", value)
	}
	return n, true, nil
}

// ValidationErrors maps a field name to a human-readable error message.
// An absent key means the field is currently valid.
type ValidationErrors map[string]string

// Clone returns an independent copy.
func (e ValidationErrors) Clone() ValidationErrors {
	out := make(ValidationErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
