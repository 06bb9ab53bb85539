package export

import (
	"time"

	"github.com/a3tai/pdf-field-extractor/internal/extract"
)

// Summary describes a record list before export
type Summary struct {
	TotalRecords   int            `json:"total_records"`
	FailedRecords  int            `json:"failed_records"`
	Fields         []string       `json:"fields"`
	FieldCount     int            `json:"field_count"`
	NonEmptyCounts map[string]int `json:"non_empty_counts"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// Summary counts, per column, the records with a non-empty value
func (e *Exporter) Summary(records []*extract.Record) (*Summary, error) {
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}

	table := BuildTable(records)
	counts := make(map[string]int, len(table.Header))
	for _, h := range table.Header {
		counts[h] = 0
	}
	for _, row := range table.Rows {
		for col, value := range row {
			if value != "" {
				counts[table.Header[col]]++
			}
		}
	}

	failed := 0
	for _, rec := range records {
		if rec.Failed() {
			failed++
		}
	}

	return &Summary{
		TotalRecords:   len(records),
		FailedRecords:  failed,
		Fields:         table.Header,
		FieldCount:     len(table.Header),
		NonEmptyCounts: counts,
		GeneratedAt:    e.now(),
	}, nil
}
