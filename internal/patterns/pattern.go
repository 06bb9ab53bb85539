package patterns

import (
	"regexp"
	"strings"
)

// matchFlags makes every pattern case-insensitive and turns ^ and $ into line
// anchors, so "rest of this line" captures stop at the end of the line.
const matchFlags = "(?im)"

// Pattern is a compiled chain entry
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// Compile validates and compiles a pattern for the given field
func Compile(field, expr string) (*Pattern, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, &InvalidPatternError{Field: field, Pattern: expr, Err: ErrEmptyPattern}
	}

	re, err := regexp.Compile(matchFlags + expr)
	if err != nil {
		return nil, &InvalidPatternError{Field: field, Pattern: expr, Err: err}
	}

	if re.NumSubexp() != 1 {
		return nil, &InvalidPatternError{Field: field, Pattern: expr, Err: ErrCaptureGroups}
	}

	return &Pattern{source: expr, re: re}, nil
}

// String returns the pattern as it was registered
func (p *Pattern) String() string {
	return p.source
}

// Find returns the capture of the first match in text
func (p *Pattern) Find(text string) (string, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FindAll returns the captures of every non-overlapping match in text
func (p *Pattern) FindAll(text string) []string {
	matches := p.re.FindAllStringSubmatch(text, -1)
	captures := make([]string, 0, len(matches))
	for _, m := range matches {
		captures = append(captures, m[1])
	}
	return captures
}
