package pdf

import (
	"errors"
	"fmt"
)

// Failure categories of ReadText. Callers tell them apart with errors.Is.
var (
	// ErrEncrypted means the document is encrypted and the password is
	// missing or wrong
	ErrEncrypted = errors.New("document is encrypted and the password is missing or wrong")
	// ErrUnreadable means the file is missing, not a PDF, too large or corrupt
	ErrUnreadable = errors.New("document is unreadable or corrupt")
	// ErrNoText means the document opened but carries no extractable text,
	// typically a scanned image
	ErrNoText = errors.New("document has no extractable text")
)

// SourceError reports why the text of one document could not be read
type SourceError struct {
	Path string
	Kind error
	Err  error
}

func newSourceError(path string, kind, err error) *SourceError {
	return &SourceError{Path: path, Kind: kind, Err: err}
}

func (e *SourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the category and the underlying cause
func (e *SourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
