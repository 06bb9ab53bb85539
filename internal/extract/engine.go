// Package extract turns document text into field values using the pattern
// chains of a patterns.Registry, and assembles the values into records.
package extract

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/a3tai/pdf-field-extractor/internal/logging"
	"github.com/a3tai/pdf-field-extractor/internal/patterns"
)

// FieldResult is the outcome of extracting one field
type FieldResult struct {
	Field string
	Label string
	Value string
	Found bool
	Err   error
}

// Engine evaluates pattern chains against text. It keeps no state between
// calls; the registry is the only shared structure and is safe for
// concurrent use.
type Engine struct {
	registry   *patterns.Registry
	validators map[string]Validator
	now        func() time.Time
	logger     *zap.Logger
	redact     bool
}

// Option configures an Engine
type Option func(*Engine)

// WithValidator overrides the validator of one field identifier
func WithValidator(fieldID string, v Validator) Option {
	return func(e *Engine) {
		e.validators[fieldID] = v
	}
}

// WithClock sets the clock used by the date range check
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRedaction hides extracted values in debug logs
func WithRedaction(redact bool) Option {
	return func(e *Engine) {
		e.redact = redact
	}
}

// NewEngine creates an engine reading chains from registry
func NewEngine(registry *patterns.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:   registry,
		validators: make(map[string]Validator),
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine reads from
func (e *Engine) Registry() *patterns.Registry {
	return e.registry
}

// Extract runs every requested field against text. With no fields given,
// every registered field is extracted. Unknown fields are skipped. A field
// whose processing fails carries an ExtractionError in its result; the
// remaining fields are still processed.
func (e *Engine) Extract(text string, fields ...string) ([]FieldResult, error) {
	prepared, err := prepare(text)
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		fields = e.registry.Fields()
	}

	results := make([]FieldResult, 0, len(fields))
	for _, id := range fields {
		entry, ok := e.registry.Lookup(id)
		if !ok {
			e.logger.Debug("skipping unknown field", zap.String("field", id))
			continue
		}
		results = append(results, e.extractField(prepared, entry))
	}
	return results, nil
}

// ExtractOne extracts a single field. It shares the code path of Extract, so
// the value is the same as the one a full-record extraction produces.
func (e *Engine) ExtractOne(text, fieldID string) (string, bool, error) {
	prepared, err := prepare(text)
	if err != nil {
		return "", false, err
	}

	entry, ok := e.registry.Lookup(fieldID)
	if !ok {
		return "", false, nil
	}

	r := e.extractField(prepared, entry)
	return r.Value, r.Found, r.Err
}

// prepare rejects blank input and normalises line endings so that the $
// anchor sees every line break
func prepare(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}

func (e *Engine) extractField(text string, entry patterns.Entry) (result FieldResult) {
	spec := entry.Spec
	result = FieldResult{Field: spec.ID, Label: spec.Label}

	defer func() {
		if r := recover(); r != nil {
			result.Value, result.Found = "", false
			result.Err = &ExtractionError{Field: spec.ID, Err: fmt.Errorf("validator panic: %v", r)}
			e.logger.Warn("field extraction panicked", zap.String("field", spec.ID), zap.Any("panic", r))
		}
	}()

	validate := e.validatorFor(spec)

	var (
		value string
		found bool
		err   error
	)
	switch policy := spec.Policy.(type) {
	case patterns.AggregateMatches:
		value, found, err = aggregate(text, entry.Chain, validate, policy)
	default:
		value, found, err = firstMatch(text, entry.Chain, validate)
	}

	if err != nil {
		result.Err = &ExtractionError{Field: spec.ID, Err: err}
		e.logger.Warn("field extraction failed", zap.String("field", spec.ID), zap.Error(err))
		return result
	}

	result.Value, result.Found = value, found
	if found {
		e.logger.Debug("field extracted",
			zap.String("field", spec.ID),
			logging.Value("value", value, e.redact))
	}
	return result
}

func (e *Engine) validatorFor(spec patterns.FieldSpec) Validator {
	if v, ok := e.validators[spec.ID]; ok {
		return v
	}
	return validatorForKind(spec.Kind, e.now)
}

// firstMatch returns the first capture, in chain order, that the validator
// accepts. A rejected capture moves on to the next pattern.
func firstMatch(text string, chain []*patterns.Pattern, validate Validator) (string, bool, error) {
	for _, p := range chain {
		capture, ok := p.Find(text)
		if !ok {
			continue
		}
		value, accepted, err := validate(strings.TrimSpace(capture))
		if err != nil {
			return "", false, err
		}
		if accepted {
			return value, true, nil
		}
	}
	return "", false, nil
}

// aggregate collects accepted captures from every match of every pattern, in
// scan order, and joins the first policy.Limit of them
func aggregate(text string, chain []*patterns.Pattern, validate Validator, policy patterns.AggregateMatches) (string, bool, error) {
	var accepted []string

scan:
	for _, p := range chain {
		for _, capture := range p.FindAll(text) {
			value, ok, err := validate(strings.TrimSpace(capture))
			if err != nil {
				return "", false, err
			}
			if !ok {
				continue
			}
			accepted = append(accepted, value)
			if len(accepted) >= policy.Limit {
				break scan
			}
		}
	}

	if len(accepted) == 0 {
		return "", false, nil
	}
	return strings.Join(accepted, policy.Separator), true, nil
}
