package patterns

import (
	"errors"
	"fmt"
)

var (
	// ErrCaptureGroups is returned for patterns without exactly one capturing group
	ErrCaptureGroups = errors.New("pattern must declare exactly one capturing group")

	// ErrEmptyField is returned when a field identifier is blank
	ErrEmptyField = errors.New("field identifier cannot be empty")

	// ErrEmptyPattern is returned when a pattern is blank
	ErrEmptyPattern = errors.New("pattern cannot be empty")
)

// InvalidPatternError reports a pattern rejected at registration time
type InvalidPatternError struct {
	Field   string
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q for field %q: %v", e.Pattern, e.Field, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}
