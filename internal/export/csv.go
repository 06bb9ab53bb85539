package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/a3tai/pdf-field-extractor/internal/extract"
)

func (e *Exporter) writeCSV(records []*extract.Record, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFilePerm)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	table := BuildTable(records)

	w := csv.NewWriter(f)
	w.Comma = e.delimiter
	if err := w.Write(table.Header); err != nil {
		return err
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return err
	}

	return f.Close()
}
