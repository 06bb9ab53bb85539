// Package service wires the text source, pattern registry, extraction
// engine and exporter into the operations exposed by the CLI and the MCP
// server.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/pdf-field-extractor/internal/config"
	"github.com/a3tai/pdf-field-extractor/internal/export"
	"github.com/a3tai/pdf-field-extractor/internal/extract"
	"github.com/a3tai/pdf-field-extractor/internal/patterns"
	"github.com/a3tai/pdf-field-extractor/internal/pdf"
)

// Metadata keys stamped on exported records
const (
	MetaExportedTo   = "exported_to"
	MetaExportFormat = "export_format"
)

// TextReader yields the plain text of a document
type TextReader interface {
	ReadText(ctx context.Context, path, password string) (string, error)
}

// Service runs extractions for one configuration
type Service struct {
	config    *config.Config
	logger    *zap.Logger
	now       func() time.Time
	source    TextReader
	registry  *patterns.Registry
	engine    *extract.Engine
	assembler *extract.Assembler
	exporter  *export.Exporter
	search    *pdf.Search
}

// Option configures a Service
type Option func(*Service)

// WithTextSource replaces the PDF text source
func WithTextSource(r TextReader) Option {
	return func(s *Service) {
		s.source = r
	}
}

// WithClock sets the clock shared by extraction and export
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New builds a service from cfg. Custom patterns are merged on top of the
// built-in set: first the patterns file, then the patterns given in the
// configuration, so the latter take the highest priority. Invalid custom
// patterns are logged and skipped; an unreadable patterns file is an error.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		config: cfg,
		logger: logger,
		now:    time.Now,
		search: pdf.NewSearch(cfg.MaxFileSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = pdf.NewTextSource(cfg.MaxFileSize, pdf.WithSourceLogger(logger.Named("pdf")))
	}

	registry, err := patterns.NewRegistry(patterns.DefaultSet(cfg.CatchAll))
	if err != nil {
		return nil, err
	}
	s.registry = registry

	if cfg.PatternsFile != "" {
		set, err := patterns.LoadFile(cfg.PatternsFile)
		if err != nil {
			return nil, err
		}
		s.mergePatterns(set, cfg.PatternsFile)
	}
	if len(cfg.CustomPatterns) > 0 {
		s.mergePatterns(cfg.CustomPatterns, "config")
	}

	s.engine = extract.NewEngine(registry,
		extract.WithClock(s.now),
		extract.WithLogger(logger.Named("engine")),
		extract.WithRedaction(cfg.Privacy))

	assemblerOpts := []extract.AssemblerOption{
		extract.WithWorkers(cfg.Workers),
		extract.WithAssemblyClock(s.now),
		extract.WithAssemblyLogger(logger.Named("assembler")),
	}
	if cfg.IncludeRawText {
		assemblerOpts = append(assemblerOpts, extract.WithRawText(cfg.RawTextMaxLength))
	}
	s.assembler = extract.NewAssembler(s.engine, assemblerOpts...)

	exporterOpts := []export.Option{
		export.WithClock(s.now),
		export.WithLogger(logger.Named("export")),
	}
	if d := []rune(cfg.Delimiter); len(d) == 1 {
		exporterOpts = append(exporterOpts, export.WithDelimiter(d[0]))
	}
	s.exporter = export.New(exporterOpts...)

	return s, nil
}

func (s *Service) mergePatterns(set map[string][]string, origin string) {
	err := s.registry.OverrideWithPatterns(set)
	for _, e := range multierr.Errors(err) {
		s.logger.Warn("skipping invalid custom pattern", zap.String("origin", origin), zap.Error(e))
	}
	s.logger.Debug("custom patterns merged", zap.String("origin", origin), zap.Int("fields", len(set)))
}

// Config returns the configuration the service was built with
func (s *Service) Config() *config.Config {
	return s.config
}

// Registry returns the pattern registry used for every extraction
func (s *Service) Registry() *patterns.Registry {
	return s.registry
}

// AddPattern appends a fallback pattern to a field's chain
func (s *Service) AddPattern(fieldID, expr string) error {
	if err := s.registry.AddFallbackPattern(fieldID, expr); err != nil {
		return err
	}
	s.logger.Info("pattern added", zap.String("field", fieldID))
	return nil
}

// ReadText returns the plain text of one document
func (s *Service) ReadText(ctx context.Context, path, password string) (string, error) {
	return s.source.ReadText(ctx, path, password)
}

// ProcessFile reads one document and extracts its fields
func (s *Service) ProcessFile(ctx context.Context, path, password string, fields ...string) (*extract.Record, error) {
	text, err := s.source.ReadText(ctx, path, password)
	if err != nil {
		return nil, err
	}
	return s.assembler.Assemble(path, text, fields...)
}

// ExtractText extracts fields from text that is already available
func (s *Service) ExtractText(source, text string, fields ...string) (*extract.Record, error) {
	return s.assembler.Assemble(source, text, fields...)
}

// ProcessFiles expands patterns into PDF paths, reads them in parallel and
// assembles one record per document, in path order. Documents that cannot be
// read become error-tagged records. Only a pattern set matching nothing is
// an error.
func (s *Service) ProcessFiles(ctx context.Context, paths []string, password string, fields ...string) ([]*extract.Record, error) {
	files, err := s.search.FindPDFs(paths)
	if err != nil {
		return nil, err
	}

	inputs := make([]extract.Input, len(files))
	g := new(errgroup.Group)
	g.SetLimit(max(s.config.Workers, 1))
	for i, path := range files {
		g.Go(func() error {
			text, err := s.source.ReadText(ctx, path, password)
			inputs[i] = extract.Input{Source: path, Text: text, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	records := s.assembler.AssembleBatch(ctx, inputs, fields...)
	s.logBatch(records)
	return records, nil
}

// ProcessTexts assembles one record per input without touching the disk
func (s *Service) ProcessTexts(ctx context.Context, inputs []extract.Input, fields ...string) []*extract.Record {
	records := s.assembler.AssembleBatch(ctx, inputs, fields...)
	s.logBatch(records)
	return records
}

func (s *Service) logBatch(records []*extract.Record) {
	failed := 0
	for _, rec := range records {
		if rec.Failed() {
			failed++
		}
	}
	s.logger.Info("batch processed",
		zap.Int("documents", len(records)),
		zap.Int("failed", failed))
}

// Export writes records in the named format. On success every record is
// stamped with the output path and format.
func (s *Service) Export(records []*extract.Record, path, format string) (string, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return "", err
	}

	written, err := s.exporter.Export(records, path, f)
	if err != nil {
		return "", err
	}

	for _, rec := range records {
		rec.SetMetadata(MetaExportedTo, written)
		rec.SetMetadata(MetaExportFormat, string(f))
	}
	return written, nil
}

// Summary counts the non-empty values of every column of records
func (s *Service) Summary(records []*extract.Record) (*export.Summary, error) {
	return s.exporter.Summary(records)
}

// SearchDirectory lists the PDF files of directory whose name matches query
func (s *Service) SearchDirectory(directory, query string) ([]pdf.FileInfo, error) {
	return s.search.SearchDirectory(directory, query)
}
