// Package export writes extraction records to tables, documents and
// databases
package export

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNothingToExport is returned for an empty record list. No file is
	// written in that case.
	ErrNothingToExport = errors.New("nothing to export: record list is empty")
	// ErrUnsupportedFormat is returned for an unknown format name
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Format selects the output encoding
type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// Formats lists every supported format
var Formats = []Format{FormatCSV, FormatXLSX, FormatJSON, FormatYAML, FormatSQLite}

// ParseFormat resolves a format name. "excel" and "yml" are accepted as
// aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Extension returns the file extension written for the format
func (f Format) Extension() string {
	switch f {
	case FormatSQLite:
		return ".db"
	default:
		return "." + string(f)
	}
}

// accepts reports whether ext is an acceptable extension for the format
func (f Format) accepts(ext string) bool {
	ext = strings.ToLower(ext)
	switch f {
	case FormatYAML:
		return ext == ".yaml" || ext == ".yml"
	case FormatSQLite:
		return ext == ".db" || ext == ".sqlite" || ext == ".sqlite3"
	default:
		return ext == f.Extension()
	}
}
