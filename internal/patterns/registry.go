package patterns

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

// Entry is a read-only view of one field: its definition and compiled chain
type Entry struct {
	Spec  FieldSpec
	Chain []*Pattern
}

type field struct {
	spec  FieldSpec
	chain []*Pattern
}

// Registry maps field identifiers to ordered pattern chains.
//
// Chains are never modified in place: every change builds a new slice, so an
// Entry handed out to an extraction keeps seeing the chain it started with.
// Registrations take the write lock and therefore happen-before any later
// extraction that reads the registry.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	fields map[string]*field
}

// NewRegistry creates a registry seeded with a private copy of defaults.
// Every default pattern must compile.
func NewRegistry(defaults Defaults) (*Registry, error) {
	r := &Registry{fields: make(map[string]*field)}

	var errs error
	for _, spec := range defaults.Fields() {
		if err := r.DefineField(spec); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return nil, fmt.Errorf("invalid default patterns: %w", errs)
	}

	return r, nil
}

// DefineField adds a field or replaces the definition and chain of an
// existing one. The call is all-or-nothing: if any pattern fails to compile
// the registry is left unchanged and every failure is reported.
func (r *Registry) DefineField(spec FieldSpec) error {
	spec.ID = strings.TrimSpace(spec.ID)
	if spec.ID == "" {
		return ErrEmptyField
	}
	spec = spec.normalized()
	if !spec.Kind.Valid() {
		return fmt.Errorf("field %q: unknown kind %q", spec.ID, spec.Kind)
	}

	chain, errs := compileAll(spec.ID, spec.Patterns)
	if errs != nil {
		return errs
	}
	spec.Patterns = nil

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fields[spec.ID]; !exists {
		r.order = append(r.order, spec.ID)
	}
	r.fields[spec.ID] = &field{spec: spec, chain: chain}
	return nil
}

// AddFallbackPattern appends one pattern to the end of a field's chain, so it
// is tried after every existing pattern. An unknown field gets a new
// first-match text chain.
func (r *Registry) AddFallbackPattern(fieldID, expr string) error {
	fieldID = strings.TrimSpace(fieldID)
	if fieldID == "" {
		return ErrEmptyField
	}

	p, err := Compile(fieldID, expr)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.fieldLocked(fieldID)
	chain := make([]*Pattern, 0, len(f.chain)+1)
	chain = append(chain, f.chain...)
	chain = append(chain, p)
	r.fields[fieldID] = &field{spec: f.spec, chain: chain}
	return nil
}

// OverrideWithPatterns merges a bulk set of custom patterns. For known fields
// the custom patterns are placed before the existing chain so that they take
// priority; unknown fields get a new chain. Invalid patterns are skipped and
// reported together, the valid ones are still registered.
func (r *Registry) OverrideWithPatterns(custom map[string][]string) error {
	ids := make([]string, 0, len(custom))
	for id := range custom {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs error
	compiled := make(map[string][]*Pattern, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			errs = multierr.Append(errs, ErrEmptyField)
			continue
		}
		for _, expr := range custom[id] {
			p, err := Compile(trimmed, expr)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			compiled[trimmed] = append(compiled[trimmed], p)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		added := compiled[trimmed]
		if len(added) == 0 {
			continue
		}
		f := r.fieldLocked(trimmed)
		chain := make([]*Pattern, 0, len(added)+len(f.chain))
		chain = append(chain, added...)
		chain = append(chain, f.chain...)
		r.fields[trimmed] = &field{spec: f.spec, chain: chain}
	}

	return errs
}

// fieldLocked returns the field, creating an empty text field if needed.
// The caller must hold the write lock.
func (r *Registry) fieldLocked(id string) *field {
	if f, ok := r.fields[id]; ok {
		return f
	}
	f := &field{spec: FieldSpec{ID: id}.normalized()}
	f.spec.Patterns = nil
	r.fields[id] = f
	r.order = append(r.order, id)
	return f
}

// Lookup returns the definition and chain of a field
func (r *Registry) Lookup(fieldID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.fields[fieldID]
	if !ok {
		return Entry{}, false
	}
	return Entry{Spec: f.spec, Chain: f.chain}, true
}

// ChainFor returns the ordered chain of a field, or an empty chain if the
// field is unknown
func (r *Registry) ChainFor(fieldID string) []*Pattern {
	entry, ok := r.Lookup(fieldID)
	if !ok {
		return []*Pattern{}
	}
	return append([]*Pattern(nil), entry.Chain...)
}

// Fields returns the field identifiers in registration order
func (r *Registry) Fields() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Specs returns every field definition, with the pattern sources filled in
func (r *Registry) Specs() []FieldSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]FieldSpec, 0, len(r.order))
	for _, id := range r.order {
		f := r.fields[id]
		spec := f.spec
		spec.Patterns = sources(f.chain)
		specs = append(specs, spec)
	}
	return specs
}

// Patterns returns the pattern sources of every field, in chain order
func (r *Registry) Patterns() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.fields))
	for id, f := range r.fields {
		out[id] = sources(f.chain)
	}
	return out
}

// Clone returns an independent copy of the registry
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := &Registry{
		order:  append([]string(nil), r.order...),
		fields: make(map[string]*field, len(r.fields)),
	}
	for id, f := range r.fields {
		c.fields[id] = &field{spec: f.spec, chain: append([]*Pattern(nil), f.chain...)}
	}
	return c
}

func compileAll(fieldID string, exprs []string) ([]*Pattern, error) {
	var errs error
	chain := make([]*Pattern, 0, len(exprs))
	for _, expr := range exprs {
		p, err := Compile(fieldID, expr)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		chain = append(chain, p)
	}
	if errs != nil {
		return nil, errs
	}
	return chain, nil
}

func sources(chain []*Pattern) []string {
	out := make([]string, 0, len(chain))
	for _, p := range chain {
		out = append(out, p.String())
	}
	return out
}
