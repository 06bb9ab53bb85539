package export

import (
	"time"

	"github.com/a3tai/pdf-field-extractor/internal/extract"
)

// Fixed column headers
const (
	ColumnSource         = "Source File"
	ColumnExtractionDate = "Extraction Date"
	ColumnError          = "Error"
	ColumnRawText        = "Raw Text"
)

// Table is the flat, row-per-record view of a record list shared by the
// tabular formats
type Table struct {
	Header []string
	Rows   [][]string
}

// BuildTable flattens records. Field columns use the field labels in
// first-seen order; a record without a field gets an empty cell.
func BuildTable(records []*extract.Record) Table {
	var (
		fieldIDs []string
		labels   = make(map[string]string)
		hasRaw   bool
	)
	for _, rec := range records {
		for _, f := range rec.Fields {
			if _, ok := labels[f.ID]; !ok {
				labels[f.ID] = f.Label
				fieldIDs = append(fieldIDs, f.ID)
			}
		}
		if rec.RawText != "" {
			hasRaw = true
		}
	}

	header := []string{ColumnSource, ColumnExtractionDate}
	for _, id := range fieldIDs {
		header = append(header, labels[id])
	}
	header = append(header, ColumnError)
	if hasRaw {
		header = append(header, ColumnRawText)
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		values := rec.Values()
		row := make([]string, 0, len(header))
		row = append(row, rec.Source, rec.ExtractedAt.Format(time.RFC3339))
		for _, id := range fieldIDs {
			row = append(row, values[id])
		}
		row = append(row, rec.Error)
		if hasRaw {
			row = append(row, rec.RawText)
		}
		rows = append(rows, row)
	}

	return Table{Header: header, Rows: rows}
}
