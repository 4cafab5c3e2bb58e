package sources

import (
	"errors"
	"fmt"
)

var ErrParse = errors.New("parse error")

// ParseError describes one malformed entry in an identity feed. ID is set
// for authors entries, Line for credential lines.
type ParseError struct {
	ID     string
	Line   int
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	switch {
	case e.ID != "":
		return fmt.Sprintf("%s: %q: %s", e.ID, e.Value, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %q: %s", e.Line, e.Value, e.Reason)
	default:
		return fmt.Sprintf("%q: %s", e.Value, e.Reason)
	}
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }
