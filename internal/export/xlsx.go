package export

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/pdf-field-extractor/internal/extract"
)

const (
	dataSheet     = "Extracted Data"
	metadataSheet = "Metadata"

	maxColumnWidth = 50
)

func (e *Exporter) writeXLSX(records []*extract.Record, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(metadataSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	table := BuildTable(records)
	if err := writeSheet(f, dataSheet, table.Header, table.Rows, headerStyle); err != nil {
		return err
	}
	if err := fitColumns(f, dataSheet, table); err != nil {
		return err
	}

	metadata := [][]string{{
		e.now().Format(time.RFC3339),
		fmt.Sprint(len(records)),
		sourceName,
	}}
	if err := writeSheet(f, metadataSheet, []string{"Export Date", "Total Records", "Source"}, metadata, headerStyle); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// fitColumns sizes each column to its longest cell, capped at
// maxColumnWidth characters
func fitColumns(f *excelize.File, sheet string, table Table) error {
	for col, title := range table.Header {
		longest := utf8.RuneCountInString(title)
		for _, row := range table.Rows {
			if n := utf8.RuneCountInString(row[col]); n > longest {
				longest = n
			}
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := float64(min(longest+2, maxColumnWidth))
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}
