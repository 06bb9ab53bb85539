package extract

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultRawTextMaxLength is the raw text limit used when none is configured
const DefaultRawTextMaxLength = 1000

// Input is one document handed to AssembleBatch. Err carries a failure from
// the text source; such inputs become error records without extraction.
type Input struct {
	Source string
	Text   string
	Err    error
}

// Assembler wraps engine output with source metadata
type Assembler struct {
	engine     *Engine
	includeRaw bool
	rawMax     int
	workers    int
	now        func() time.Time
	logger     *zap.Logger
}

// AssemblerOption configures an Assembler
type AssemblerOption func(*Assembler)

// WithRawText keeps a copy of the input text truncated to maxLen characters
func WithRawText(maxLen int) AssemblerOption {
	return func(a *Assembler) {
		a.includeRaw = true
		if maxLen > 0 {
			a.rawMax = maxLen
		}
	}
}

// WithWorkers sets how many inputs AssembleBatch processes at once
func WithWorkers(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithAssemblyClock sets the clock used for extraction timestamps
func WithAssemblyClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

// WithAssemblyLogger sets the assembler logger
func WithAssemblyLogger(logger *zap.Logger) AssemblerOption {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAssembler creates an assembler around engine
func NewAssembler(engine *Engine, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		engine:  engine,
		rawMax:  DefaultRawTextMaxLength,
		workers: 1,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Engine returns the engine used by the assembler
func (a *Assembler) Engine() *Engine {
	return a.engine
}

// Assemble extracts fields from text and wraps them into a record. source is
// stored as given. Empty input is returned as ErrEmptyInput.
func (a *Assembler) Assemble(source, text string, fields ...string) (*Record, error) {
	results, err := a.engine.Extract(text, fields...)
	if err != nil {
		return nil, err
	}

	rec := a.newRecord(source)
	for _, r := range results {
		f := Field{ID: r.Field, Label: r.Label, Value: r.Value, Found: r.Found}
		if r.Err != nil {
			f.Error = r.Err.Error()
		}
		rec.Fields = append(rec.Fields, f)
	}
	if a.includeRaw {
		rec.RawText = truncate(text, a.rawMax)
	}
	return rec, nil
}

// AssembleBatch assembles one record per input, in input order. A failing
// input yields an error-tagged record; the batch never aborts, so the result
// always has one record per input.
func (a *Assembler) AssembleBatch(ctx context.Context, inputs []Input, fields ...string) []*Record {
	records := make([]*Record, len(inputs))

	g := new(errgroup.Group)
	g.SetLimit(a.workers)
	for i, in := range inputs {
		g.Go(func() error {
			records[i] = a.assembleInput(ctx, in, fields)
			return nil
		})
	}
	_ = g.Wait()

	return records
}

func (a *Assembler) assembleInput(ctx context.Context, in Input, fields []string) (rec *Record) {
	defer func() {
		if r := recover(); r != nil {
			rec = a.ErrorRecord(in.Source, fmt.Errorf("extraction panic: %v", r), fields...)
		}
	}()

	if err := ctx.Err(); err != nil {
		return a.ErrorRecord(in.Source, err, fields...)
	}
	if in.Err != nil {
		return a.ErrorRecord(in.Source, in.Err, fields...)
	}

	rec, err := a.Assemble(in.Source, in.Text, fields...)
	if err != nil {
		return a.ErrorRecord(in.Source, err, fields...)
	}
	return rec
}

// ErrorRecord builds the placeholder record of a failed input. Every
// requested known field is present and absent so that batches keep a
// uniform shape.
func (a *Assembler) ErrorRecord(source string, cause error, fields ...string) *Record {
	a.logger.Warn("could not extract fields", zap.String("source", source), zap.Error(cause))

	rec := a.newRecord(source)
	rec.Error = cause.Error()

	if len(fields) == 0 {
		fields = a.engine.Registry().Fields()
	}
	for _, id := range fields {
		entry, ok := a.engine.Registry().Lookup(id)
		if !ok {
			continue
		}
		rec.Fields = append(rec.Fields, Field{ID: id, Label: entry.Spec.Label})
	}
	return rec
}

func (a *Assembler) newRecord(source string) *Record {
	return &Record{
		ID:          uuid.NewString(),
		Source:      source,
		ExtractedAt: a.now(),
		Fields:      make([]Field, 0),
	}
}

// truncate cuts text to maxLen runes and marks the cut with "..."
func truncate(text string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLen]) + "..."
}
