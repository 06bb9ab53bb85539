package export

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/a3tai/pdf-field-extractor/internal/extract"
)

var exportTime = time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return exportTime }

func sampleRecords() []*extract.Record {
	return []*extract.Record{
		{
			ID:          "rec-1",
			Source:      "one.pdf",
			ExtractedAt: exportTime,
			Fields: []extract.Field{
				{ID: "name", Label: "Name", Value: "Jane Smith", Found: true},
				{ID: "date_of_birth", Label: "Date of Birth", Value: "12/03/1990", Found: true},
			},
		},
		{
			ID:          "rec-2",
			Source:      "two.pdf",
			ExtractedAt: exportTime,
			Fields: []extract.Field{
				{ID: "name", Label: "Name"},
				{ID: "insurance", Label: "Insurance Information", Value: "Aetna; G-77", Found: true},
			},
		},
		{
			ID:          "rec-3",
			Source:      "locked.pdf",
			ExtractedAt: exportTime,
			Error:       "document is encrypted and the password is missing or wrong",
			Fields:      []extract.Field{{ID: "name", Label: "Name"}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "csv", want: FormatCSV},
		{in: "Excel", want: FormatXLSX},
		{in: "xlsx", want: FormatXLSX},
		{in: "json", want: FormatJSON},
		{in: "yml", want: FormatYAML},
		{in: "sqlite", want: FormatSQLite},
		{in: "pdf", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildTable_DifferingKeySets(t *testing.T) {
	table := BuildTable(sampleRecords())

	assert.Equal(t, []string{
		ColumnSource, ColumnExtractionDate, "Name", "Date of Birth", "Insurance Information", ColumnError,
	}, table.Header)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"one.pdf", "2024-03-05T09:30:00Z", "Jane Smith", "12/03/1990", "", ""}, table.Rows[0])
	assert.Equal(t, []string{"two.pdf", "2024-03-05T09:30:00Z", "", "", "Aetna; G-77", ""}, table.Rows[1])
	assert.Equal(t, "document is encrypted and the password is missing or wrong", table.Rows[2][5])
}

func TestBuildTable_RawText(t *testing.T) {
	records := sampleRecords()
	records[0].RawText = "Name: Jane Smith..."

	table := BuildTable(records)
	assert.Equal(t, ColumnRawText, table.Header[len(table.Header)-1])
	assert.Equal(t, "Name: Jane Smith...", table.Rows[0][len(table.Header)-1])
	assert.Equal(t, "", table.Rows[1][len(table.Header)-1])
}

func TestExport_NothingToExport(t *testing.T) {
	dir := t.TempDir()
	e := New(WithOutputDir(dir))

	for _, format := range Formats {
		path, err := e.Export(nil, "out", format)
		assert.ErrorIs(t, err, ErrNothingToExport)
		assert.Empty(t, path)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = e.Summary(nil)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestExport_UnsupportedFormat(t *testing.T) {
	_, err := New(WithOutputDir(t.TempDir())).Export(sampleRecords(), "out", Format("pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExport_Paths(t *testing.T) {
	dir := t.TempDir()
	e := New(WithOutputDir(dir), WithClock(fixedNow))

	path, err := e.Export(sampleRecords(), "report", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.csv"), path)

	path, err = e.Export(sampleRecords(), "nested/deeper/report.yml", FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "deeper", "report.yml"), path)
	assert.FileExists(t, path)

	path, err = e.Export(sampleRecords(), "", FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pdf_extracted_data_20240305_093000.json"), path)
}

func TestExport_CSV(t *testing.T) {
	e := New(WithOutputDir(t.TempDir()), WithDelimiter(';'))

	path, err := e.Export(sampleRecords(), "out.csv", FormatCSV)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, BuildTable(sampleRecords()).Header, rows[0])
	assert.Equal(t, "Aetna; G-77", rows[2][4])
}

func TestExport_XLSX(t *testing.T) {
	e := New(WithOutputDir(t.TempDir()), WithClock(fixedNow))

	records := sampleRecords()
	records[1].Fields[1].Value = strings.Repeat("x", 80)
	path, err := e.Export(records, "out", FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{dataSheet, metadataSheet}, f.GetSheetList())

	rows, err := f.GetRows(dataSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Source File", rows[0][0])
	assert.Equal(t, "Jane Smith", rows[1][2])

	width, err := f.GetColWidth(dataSheet, "E")
	require.NoError(t, err)
	assert.Equal(t, float64(maxColumnWidth), width)

	width, err = f.GetColWidth(dataSheet, "A")
	require.NoError(t, err)
	assert.Equal(t, float64(len("Source File")+2), width)

	meta, err := f.GetRows(metadataSheet)
	require.NoError(t, err)
	require.Len(t, meta, 2)
	assert.Equal(t, []string{"Export Date", "Total Records", "Source"}, meta[0])
	assert.Equal(t, []string{"2024-03-05T09:30:00Z", "3", "pdf-field-extractor"}, meta[1])
}

func TestExport_JSONAndYAML(t *testing.T) {
	e := New(WithOutputDir(t.TempDir()), WithClock(fixedNow))

	jsonPath, err := e.Export(sampleRecords(), "out", FormatJSON)
	require.NoError(t, err)
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var fromJSON Document
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, 3, fromJSON.TotalRecords)
	require.Len(t, fromJSON.Records, 3)
	assert.Equal(t, "Jane Smith", fromJSON.Records[0].Values()["name"])

	yamlPath, err := e.Export(sampleRecords(), "out", FormatYAML)
	require.NoError(t, err)
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)

	var fromYAML Document
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, "pdf-field-extractor", fromYAML.Source)
	require.Len(t, fromYAML.Records, 3)
	assert.Equal(t, "Aetna; G-77", fromYAML.Records[1].Values()["insurance"])
	assert.True(t, fromYAML.Records[2].Failed())
}

func TestExport_SQLite(t *testing.T) {
	e := New(WithOutputDir(t.TempDir()))

	path, err := e.Export(sampleRecords(), "out", FormatSQLite)
	require.NoError(t, err)
	assert.Equal(t, ".db", filepath.Ext(path))

	// Exporting twice replaces the database
	_, err = e.Export(sampleRecords(), "out.db", FormatSQLite)
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var records, fields, found int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM records`).Scan(&records))
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM record_fields`).Scan(&fields))
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM record_fields WHERE found = 1`).Scan(&found))
	assert.Equal(t, 3, records)
	assert.Equal(t, 5, fields)
	assert.Equal(t, 3, found)

	var value string
	require.NoError(t, db.QueryRow(
		`SELECT f.value FROM record_fields f JOIN records r ON r.id = f.record_id WHERE r.source = ? AND f.field = ?`,
		"one.pdf", "date_of_birth").Scan(&value))
	assert.Equal(t, "12/03/1990", value)

	var failure sql.NullString
	require.NoError(t, db.QueryRow(`SELECT error FROM records WHERE id = 'rec-3'`).Scan(&failure))
	assert.True(t, failure.Valid)
}

func TestExportAll(t *testing.T) {
	dir := t.TempDir()
	e := New(WithOutputDir(dir))

	written, err := e.ExportAll(sampleRecords(), "batch", FormatXLSX, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, map[Format]string{
		FormatXLSX: filepath.Join(dir, "batch.xlsx"),
		FormatCSV:  filepath.Join(dir, "batch.csv"),
	}, written)
}

func TestSummary(t *testing.T) {
	summary, err := New(WithClock(fixedNow)).Summary(sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalRecords)
	assert.Equal(t, 1, summary.FailedRecords)
	assert.Equal(t, 6, summary.FieldCount)
	assert.Equal(t, 3, summary.NonEmptyCounts[ColumnSource])
	assert.Equal(t, 1, summary.NonEmptyCounts["Name"])
	assert.Equal(t, 1, summary.NonEmptyCounts["Insurance Information"])
	assert.Equal(t, 1, summary.NonEmptyCounts[ColumnError])
	assert.Equal(t, exportTime, summary.GeneratedAt)
}
