// Package patterns holds the per-field regular expression chains used by the
// field extraction engine. A chain is ordered: the most specific pattern comes
// first and the catch-all, if any, comes last.
package patterns

// Kind selects the validator and normaliser applied to a field's captures
type Kind string

const (
	KindText       Kind = "text"
	KindName       Kind = "name"
	KindDate       Kind = "date"
	KindIdentifier Kind = "identifier"
)

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindName, KindDate, KindIdentifier:
		return true
	default:
		return false
	}
}

// Policy decides how the matches of a chain become a single value.
// It is either FirstMatch or AggregateMatches.
type Policy interface {
	policyName() string
}

// FirstMatch stops at the first capture accepted by the field's validator
type FirstMatch struct{}

func (FirstMatch) policyName() string { return "first_match" }

// AggregateMatches evaluates every pattern of the chain, collects every
// accepted capture and joins at most Limit of them with Separator.
type AggregateMatches struct {
	Limit     int
	Separator string
}

func (AggregateMatches) policyName() string { return "aggregate_matches" }

// DefaultAggregate is the aggregation used by the built-in identifier fields
var DefaultAggregate = AggregateMatches{Limit: 3, Separator: "; "}

// PolicyName returns a stable name for a policy, used in listings and logs
func PolicyName(p Policy) string {
	if p == nil {
		return FirstMatch{}.policyName()
	}
	return p.policyName()
}

// FieldSpec describes one extractable field
type FieldSpec struct {
	ID       string
	Label    string
	Kind     Kind
	Policy   Policy
	Patterns []string
}

// normalized fills in the defaults for a zero label, kind or policy
func (s FieldSpec) normalized() FieldSpec {
	if s.Label == "" {
		s.Label = s.ID
	}
	if s.Kind == "" {
		s.Kind = KindText
	}
	if s.Policy == nil {
		s.Policy = FirstMatch{}
	}
	if agg, ok := s.Policy.(AggregateMatches); ok {
		if agg.Limit <= 0 {
			agg.Limit = DefaultAggregate.Limit
		}
		if agg.Separator == "" {
			agg.Separator = DefaultAggregate.Separator
		}
		s.Policy = agg
	}
	s.Patterns = append([]string(nil), s.Patterns...)
	return s
}
