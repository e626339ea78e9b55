package domain

// Field names as they appear in JSON payloads, error maps and the
// suggestion API.
const (
	FieldFullName    = "fullName"
	FieldNationalID  = "nationalId"
	FieldDateOfBirth = "dateOfBirth"
	FieldGender      = "gender"
	FieldAddress     = "address"
	FieldCity        = "city"
	FieldState       = "state"
	FieldCountry     = "country"
	FieldPhone       = "phone"
	FieldEmail       = "email"

	FieldMaritalStatus    = "maritalStatus"
	FieldDependents       = "dependents"
	FieldEmploymentStatus = "employmentStatus"
	FieldMonthlyIncome    = "monthlyIncome"
	FieldCurrency         = "currency"
	FieldHousingStatus    = "housingStatus"

	FieldFinancialSituation      = "financialSituation"
	FieldEmploymentCircumstances = "employmentCircumstances"
	FieldReasonForApplying       = "reasonForApplying"
)

// Kind classifies how a field is stored and validated.
type Kind int

const (
	KindText Kind = iota
	KindEnum
	KindInt
	KindNumber
	KindNarrative
)

// Field describes one entry of the record.
type Field struct {
	Name  string
	Label string
	Step  Step
	Kind  Kind
	// Options lists the allowed literals for enum fields.
	Options []string
}

// Fields is the ordered field catalogue.
var Fields = []Field{
	{Name: FieldFullName, Label: "Full Name", Step: StepPersonal, Kind: KindText},
	{Name: FieldNationalID, Label: "National ID", Step: StepPersonal, Kind: KindText},
	{Name: FieldDateOfBirth, Label: "Date of Birth", Step: StepPersonal, Kind: KindText},
	{Name: FieldGender, Label: "Gender", Step: StepPersonal, Kind: KindEnum,
		Options: []string{string(GenderMale), string(GenderFemale), string(GenderOther)}},
	{Name: FieldAddress, Label: "Address", Step: StepPersonal, Kind: KindText},
	{Name: FieldCity, Label: "City", Step: StepPersonal, Kind: KindText},
	{Name: FieldState, Label: "State", Step: StepPersonal, Kind: KindText},
	{Name: FieldCountry, Label: "Country", Step: StepPersonal, Kind: KindText},
	{Name: FieldPhone, Label: "Phone", Step: StepPersonal, Kind: KindText},
	{Name: FieldEmail, Label: "Email", Step: StepPersonal, Kind: KindText},

	{Name: FieldMaritalStatus, Label: "Marital Status", Step: StepFamily, Kind: KindEnum,
		Options: []string{string(MaritalSingle), string(MaritalMarried), string(MaritalDivorced), string(MaritalWidowed)}},
	{Name: FieldDependents, Label: "Dependents", Step: StepFamily, Kind: KindInt},
	{Name: FieldEmploymentStatus, Label: "Employment Status", Step: StepFamily, Kind: KindEnum,
		Options: []string{string(EmploymentEmployed), string(EmploymentUnemployed), string(EmploymentSelfEmployed), string(EmploymentRetired)}},
	{Name: FieldMonthlyIncome, Label: "Monthly Income", Step: StepFamily, Kind: KindNumber},
	{Name: FieldCurrency, Label: "Currency", Step: StepFamily, Kind: KindEnum,
		Options: []string{string(CurrencyUSD), string(CurrencyAED)}},
	{Name: FieldHousingStatus, Label: "Housing Status", Step: StepFamily, Kind: KindEnum,
		Options: []string{string(HousingOwned), string(HousingRented), string(HousingHomeless), string(HousingOther)}},

	{Name: FieldFinancialSituation, Label: "Financial Situation", Step: StepSituation, Kind: KindNarrative},
	{Name: FieldEmploymentCircumstances, Label: "Employment Circumstances", Step: StepSituation, Kind: KindNarrative},
	{Name: FieldReasonForApplying, Label: "Reason for Applying", Step: StepSituation, Kind: KindNarrative},
}

var fieldIndex = func() map[string]Field {
	m := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		m[f.Name] = f
	}
	return m
}()

// Lookup returns the catalogue entry for name.
func Lookup(name string) (Field, bool) {
	f, ok := fieldIndex[name]
	return f, ok
}

// Label returns the human-readable label for name, or name itself when the
// field is unknown.
func Label(name string) string {
	if f, ok := fieldIndex[name]; ok {
		return f.Label
	}
	return name
}

// FieldsForStep returns the catalogue entries owned by step, in order.
func FieldsForStep(step Step) []Field {
	var out []Field
	for _, f := range Fields {
		if f.Step == step {
			out = append(out, f)
		}
	}
	return out
}

// IsNarrative reports whether name is one of the free-text situation fields
// the suggestion assistant can write.
func IsNarrative(name string) bool {
	f, ok := fieldIndex[name]
	return ok && f.Kind == KindNarrative
}
