package export

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/a3tai/pdf-field-extractor/internal/extract"
)

var schema = []string{
	`CREATE TABLE records (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		extracted_at TEXT NOT NULL,
		error TEXT,
		raw_text TEXT
	)`,
	`CREATE TABLE record_fields (
		record_id TEXT NOT NULL REFERENCES records(id),
		field TEXT NOT NULL,
		label TEXT NOT NULL,
		value TEXT,
		found INTEGER NOT NULL,
		error TEXT,
		PRIMARY KEY (record_id, field)
	)`,
	`CREATE INDEX idx_record_fields_field ON record_fields(field)`,
}

// writeSQLite writes a fresh database; an existing file at path is replaced
func (e *Exporter) writeSQLite(records []*extract.Record, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing previous database: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	insertRecord, err := tx.Prepare(`INSERT INTO records (id, source, extracted_at, error, raw_text) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer insertRecord.Close()

	insertField, err := tx.Prepare(`INSERT INTO record_fields (record_id, field, label, value, found, error) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing field insert: %w", err)
	}
	defer insertField.Close()

	for _, rec := range records {
		if _, err := insertRecord.Exec(rec.ID, rec.Source, rec.ExtractedAt.Format(time.RFC3339),
			nullable(rec.Error), nullable(rec.RawText)); err != nil {
			return fmt.Errorf("inserting record %s: %w", rec.Source, err)
		}
		for _, f := range rec.Fields {
			if _, err := insertField.Exec(rec.ID, f.ID, f.Label, nullable(f.Value), f.Found, nullable(f.Error)); err != nil {
				return fmt.Errorf("inserting field %s of %s: %w", f.ID, rec.Source, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

// nullable stores empty strings as NULL
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
