package extract

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"

	"github.com/a3tai/pdf-field-extractor/internal/patterns"
)

// Validator checks and normalises one capture. ok=false rejects the capture
// and the chain moves on; a non-nil error fails the whole field.
type Validator func(capture string) (value string, ok bool, err error)

const (
	nameMinLen = 3
	nameMaxLen = 100

	identifierMinLen = 3
	identifierMaxLen = 200

	minBirthYear = 1900

	// DateLayout is the normalised output format of date fields
	DateLayout = "01/02/2006"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	dashedDate    = regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{2,4}$`)
)

// collapse folds compatibility characters (non-breaking spaces, ligatures)
// and squeezes whitespace runs into single spaces
func collapse(s string) string {
	s = norm.NFKC.String(s)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// ValidateName accepts captures of at least two words and 3 to 100 characters
func ValidateName(capture string) (string, bool, error) {
	name := collapse(capture)
	if len(strings.Fields(name)) < 2 {
		return "", false, nil
	}
	n := utf8.RuneCountInString(name)
	if n < nameMinLen || n > nameMaxLen {
		return "", false, nil
	}
	return name, true, nil
}

// DateValidator parses captures as calendar dates, month first when
// ambiguous, and accepts years after 1900 up to the current year. A date
// only valid day first, like 25/12/1990, is read with day and month swapped.
func DateValidator(now func() time.Time) Validator {
	return func(capture string) (string, bool, error) {
		s := strings.TrimSpace(capture)
		if s == "" {
			return "", false, nil
		}
		if dashedDate.MatchString(s) {
			s = strings.ReplaceAll(s, "-", "/")
		}

		parsed, err := dateparse.ParseAny(s,
			dateparse.PreferMonthFirst(true),
			dateparse.RetryAmbiguousDateWithSwap(true))
		if err != nil {
			return "", false, nil //nolint:nilerr // unparseable captures fall through to the next pattern
		}

		year := parsed.Year()
		if year <= minBirthYear || year > now().Year() {
			return "", false, nil
		}
		return parsed.Format(DateLayout), true, nil
	}
}

// ValidateIdentifier accepts captures between 3 and 199 characters
func ValidateIdentifier(capture string) (string, bool, error) {
	id := collapse(capture)
	n := utf8.RuneCountInString(id)
	if n < identifierMinLen || n >= identifierMaxLen {
		return "", false, nil
	}
	return id, true, nil
}

// ValidateText accepts any non-blank capture
func ValidateText(capture string) (string, bool, error) {
	text := collapse(capture)
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// validatorForKind returns the built-in validator of a field kind
func validatorForKind(kind patterns.Kind, now func() time.Time) Validator {
	switch kind {
	case patterns.KindName:
		return ValidateName
	case patterns.KindDate:
		return DateValidator(now)
	case patterns.KindIdentifier:
		return ValidateIdentifier
	default:
		return ValidateText
	}
}
