package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/a3tai/pdf-field-extractor/internal/extract"
)

const (
	defaultDirPerm  = 0o750
	defaultFilePerm = 0o600

	// filenameTimestamp is used in generated output names
	filenameTimestamp = "20060102_150405"

	sourceName = "pdf-field-extractor"
)

// Exporter writes records to files
type Exporter struct {
	outputDir string
	delimiter rune
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures an Exporter
type Option func(*Exporter)

// WithOutputDir sets the directory used for relative and generated paths
func WithOutputDir(dir string) Option {
	return func(e *Exporter) {
		e.outputDir = dir
	}
}

// WithDelimiter sets the csv field delimiter
func WithDelimiter(r rune) Option {
	return func(e *Exporter) {
		if r != 0 {
			e.delimiter = r
		}
	}
}

// WithClock sets the clock used for export timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

// WithLogger sets the exporter logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an exporter
func New(opts ...Option) *Exporter {
	e := &Exporter{
		delimiter: ',',
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes records to path in the given format and returns the path
// actually written. An empty path generates a timestamped name; a path
// without the format's extension gets it appended.
func (e *Exporter) Export(records []*extract.Record, path string, format Format) (string, error) {
	if len(records) == 0 {
		return "", ErrNothingToExport
	}

	target := e.resolvePath(path, format)
	if err := os.MkdirAll(filepath.Dir(target), defaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	e.logger.Info("exporting records",
		zap.Int("records", len(records)),
		zap.String("format", string(format)),
		zap.String("path", target))

	var err error
	switch format {
	case FormatCSV:
		err = e.writeCSV(records, target)
	case FormatXLSX:
		err = e.writeXLSX(records, target)
	case FormatJSON:
		err = e.writeJSON(records, target)
	case FormatYAML:
		err = e.writeYAML(records, target)
	case FormatSQLite:
		err = e.writeSQLite(records, target)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to export %s: %w", format, err)
	}

	return target, nil
}

// ExportAll writes records in every given format under one base name
func (e *Exporter) ExportAll(records []*extract.Record, base string, formats ...Format) (map[Format]string, error) {
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}
	if base == "" {
		base = e.generatedName()
	}

	written := make(map[Format]string, len(formats))
	for _, format := range formats {
		path, err := e.Export(records, base+format.Extension(), format)
		if err != nil {
			return written, err
		}
		written[format] = path
	}
	return written, nil
}

func (e *Exporter) resolvePath(path string, format Format) string {
	if path == "" {
		path = e.generatedName()
	}
	if !format.accepts(filepath.Ext(path)) {
		path += format.Extension()
	}
	if !filepath.IsAbs(path) && e.outputDir != "" {
		path = filepath.Join(e.outputDir, path)
	}
	return path
}

func (e *Exporter) generatedName() string {
	return "pdf_extracted_data_" + e.now().Format(filenameTimestamp)
}
