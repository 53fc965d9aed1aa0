package detector

import (
	"strconv"
	"strings"

	"github.com/mfroeh/redoscheck/charset"
	"github.com/mfroeh/redoscheck/regex"
)

// QuantifierIteration is the iteration a quantifier is in.
type QuantifierIteration struct {
	Quantifier *regex.Quantifier
	Iteration  int
	// Optional is set past the quantifier's minimum.
	Optional bool
}

// Side is one of the two derivations of a trail entry.
type Side struct {
	Node regex.Node
	// Quantifiers enclosing Node, innermost first.
	Quantifiers []QuantifierIteration
	// Backreferences whose replay produced Node, oldest first.
	Backreferences []*regex.Backreference
}

func newSide(ev event) *Side {
	s := &Side{Node: ev.node, Backreferences: ev.backrefs}
	for _, f := range ev.stack.quantifiers() {
		s.Quantifiers = append(s.Quantifiers, QuantifierIteration{
			Quantifier: f.quantifier,
			Iteration:  f.iteration,
			Optional:   f.optional,
		})
	}
	return s
}

// key identifies the side for cycle detection, optional iterations all look alike.
func (s *Side) key() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(s.Node.ID()))
	for _, q := range s.Quantifiers {
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(q.Quantifier.ID()))
		sb.WriteByte(':')
		if q.Optional {
			sb.WriteByte('*')
		} else {
			sb.WriteString(strconv.Itoa(q.Iteration))
		}
	}
	for _, ref := range s.Backreferences {
		sb.WriteString("\\")
		sb.WriteString(strconv.Itoa(ref.ID()))
	}
	return sb.String()
}

func (s *Side) String() string {
	start, end := s.Node.Span()
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(start))
	sb.WriteByte('-')
	sb.WriteString(strconv.Itoa(end))
	for _, q := range s.Quantifiers {
		qs, _ := q.Quantifier.Span()
		sb.WriteString(" q@")
		sb.WriteString(strconv.Itoa(qs))
		sb.WriteByte('#')
		sb.WriteString(strconv.Itoa(q.Iteration))
	}
	for _, ref := range s.Backreferences {
		rs, _ := ref.Span()
		sb.WriteString(" via \\@")
		sb.WriteString(strconv.Itoa(rs))
	}
	return sb.String()
}

// TrailEntry is one character both derivations consume.
type TrailEntry struct {
	Intersection charset.Groups
	Left         *Side
	Right        *Side
}

// Trail is a witness of two different derivations consuming the same input.
type Trail []TrailEntry
