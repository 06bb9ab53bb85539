package extract

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when there is no text to extract from
var ErrEmptyInput = errors.New("no text to extract from")

// ExtractionError reports a failure while processing a single field. It does
// not stop the extraction of the other fields of the same record.
type ExtractionError struct {
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting field %q: %v", e.Field, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
