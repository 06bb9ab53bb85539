package patterns

// Built-in field identifiers
const (
	FieldName        = "name"
	FieldDateOfBirth = "date_of_birth"
	FieldInsurance   = "insurance"
)

// Catch-all patterns. They are low precision: the date pattern picks up any
// numeric date on the page (form revision dates included) and the name pattern
// any line made of two capitalised words. The name pattern clears the
// case-insensitive flag so that it keeps its meaning.
const (
	catchAllName = `(?-i)^([A-Z][a-z]+ [A-Z][a-z]+)$`
	catchAllDate = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`
)

// Defaults is an immutable set of field definitions used to seed a Registry.
// Every Registry gets its own copy.
type Defaults struct {
	fields []FieldSpec
}

// NewDefaults builds a Defaults value from the given field specs
func NewDefaults(fields ...FieldSpec) Defaults {
	d := Defaults{fields: make([]FieldSpec, 0, len(fields))}
	for _, f := range fields {
		d.fields = append(d.fields, f.normalized())
	}
	return d
}

// Fields returns a copy of the field specs in registration order
func (d Defaults) Fields() []FieldSpec {
	out := make([]FieldSpec, 0, len(d.fields))
	for _, f := range d.fields {
		out = append(out, f.normalized())
	}
	return out
}

// DefaultSet returns the built-in name, date of birth and insurance fields.
// catchAll appends the generic name and date patterns to their chains.
func DefaultSet(catchAll bool) Defaults {
	name := FieldSpec{
		ID:    FieldName,
		Label: "Name",
		Kind:  KindName,
		Patterns: []string{
			`Name:\s*([A-Za-z\s]+?)(?:\n|$)`,
			`Full Name:\s*([A-Za-z\s]+?)(?:\n|$)`,
			`Patient Name:\s*([A-Za-z\s]+?)(?:\n|$)`,
			`Client Name:\s*([A-Za-z\s]+?)(?:\n|$)`,
		},
	}
	dob := FieldSpec{
		ID:    FieldDateOfBirth,
		Label: "Date of Birth",
		Kind:  KindDate,
		Patterns: []string{
			`Date of Birth:\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
			`DOB:\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
			`Birth Date:\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
		},
	}
	insurance := FieldSpec{
		ID:     FieldInsurance,
		Label:  "Insurance Information",
		Kind:   KindIdentifier,
		Policy: DefaultAggregate,
		Patterns: []string{
			`Insurance:\s*([A-Za-z0-9\s\-]+?)(?:\n|$)`,
			`Policy Number:\s*([A-Za-z0-9\s\-]+?)(?:\n|$)`,
			`Insurance Company:\s*([A-Za-z0-9\s\-]+?)(?:\n|$)`,
			`Policy:\s*([A-Za-z0-9\s\-]+?)(?:\n|$)`,
			`Group Number:\s*([A-Za-z0-9\s\-]+?)(?:\n|$)`,
		},
	}

	if catchAll {
		name.Patterns = append(name.Patterns, catchAllName)
		dob.Patterns = append(dob.Patterns, catchAllDate)
	}

	return NewDefaults(name, dob, insurance)
}
