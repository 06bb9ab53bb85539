package extract

import (
	"time"
)

// Field is one extracted field inside a record. Found is false when no
// pattern produced an accepted capture.
type Field struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Found bool   `json:"found" yaml:"found"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Record is the extraction result for one input. It is not modified after
// assembly except through SetMetadata.
type Record struct {
	ID          string            `json:"id" yaml:"id"`
	Source      string            `json:"source" yaml:"source"`
	ExtractedAt time.Time         `json:"extracted_at" yaml:"extracted_at"`
	Fields      []Field           `json:"fields" yaml:"fields"`
	RawText     string            `json:"raw_text,omitempty" yaml:"raw_text,omitempty"`
	Error       string            `json:"error,omitempty" yaml:"error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Value returns the value of a field, and whether it was found
func (r *Record) Value(fieldID string) (string, bool) {
	for _, f := range r.Fields {
		if f.ID == fieldID {
			return f.Value, f.Found
		}
	}
	return "", false
}

// Values returns the found fields keyed by identifier
func (r *Record) Values() map[string]string {
	out := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		if f.Found {
			out[f.ID] = f.Value
		}
	}
	return out
}

// Failed reports whether the record is an error placeholder
func (r *Record) Failed() bool {
	return r.Error != ""
}

// SetMetadata attaches export metadata to the record
func (r *Record) SetMetadata(key, value string) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]string)
	}
	r.Metadata[key] = value
}
