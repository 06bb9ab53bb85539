package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/a3tai/pdf-field-extractor/internal/extract"
)

// Document is the top level of json and yaml exports
type Document struct {
	ExportedAt   time.Time         `json:"exported_at" yaml:"exported_at"`
	TotalRecords int               `json:"total_records" yaml:"total_records"`
	Source       string            `json:"source" yaml:"source"`
	Records      []*extract.Record `json:"records" yaml:"records"`
}

func (e *Exporter) document(records []*extract.Record) Document {
	return Document{
		ExportedAt:   e.now(),
		TotalRecords: len(records),
		Source:       sourceName,
		Records:      records,
	}
}

func (e *Exporter) writeJSON(records []*extract.Record, path string) error {
	data, err := json.MarshalIndent(e.document(records), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), defaultFilePerm)
}

func (e *Exporter) writeYAML(records []*extract.Record, path string) error {
	data, err := yaml.Marshal(e.document(records))
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return os.WriteFile(path, data, defaultFilePerm)
}
