package detector

import (
	"errors"
	"fmt"

	"github.com/mfroeh/redoscheck/regex"
)

// ErrUnsupportedPattern is returned when a pattern needs downgrading before it can be checked.
var ErrUnsupportedPattern = errors.New("unsupported pattern")

// UnsupportedError names the backreference that could not be followed.
type UnsupportedError struct {
	Ref    *regex.Backreference
	Reason string
}

func (e *UnsupportedError) Error() string {
	start, _ := e.Ref.Span()
	return fmt.Sprintf("%s: backreference to group %d at %d %s, downgrade the pattern first",
		ErrUnsupportedPattern, e.Ref.Index, start, e.Reason)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupportedPattern
}
