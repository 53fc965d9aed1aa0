package detector

import (
	"github.com/mfroeh/redoscheck/charset"
	"github.com/mfroeh/redoscheck/regex"
)

type frameKind int

const (
	frameGroup frameKind = iota
	frameLookaround
	frameQuantifier
)

// frame is one enclosing construct of an event.
type frame struct {
	kind       frameKind
	group      *regex.Group
	quantifier *regex.Quantifier
	iteration  int
	// optional is set for iterations past the quantifier's minimum.
	optional bool
}

// stack is a persistent list of frames, innermost first. The nil stack is empty.
type stack struct {
	top    frame
	parent *stack
}

func (s *stack) push(f frame) *stack {
	return &stack{top: f, parent: s}
}

// frames returns the frames innermost first.
func (s *stack) frames() []frame {
	var out []frame
	for ; s != nil; s = s.parent {
		out = append(out, s.top)
	}
	return out
}

// quantifiers returns the quantifier frames, innermost first.
func (s *stack) quantifiers() []frame {
	var out []frame
	for ; s != nil; s = s.parent {
		if s.top.kind == frameQuantifier {
			out = append(out, s.top)
		}
	}
	return out
}

// lookarounds returns the enclosing lookaround groups, outermost first.
func (s *stack) lookarounds() []*regex.Group {
	var out []*regex.Group
	for ; s != nil; s = s.parent {
		if s.top.kind == frameLookaround {
			out = append(out, s.top.group)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// inGroup reports whether a frame of the capturing group with the given index encloses the top.
func (s *stack) inGroup(index int) bool {
	for ; s != nil; s = s.parent {
		if s.top.kind == frameGroup && s.top.group.IsCapturing() && s.top.group.Index == index {
			return true
		}
	}
	return false
}

type eventKind int

const (
	eventGroups eventKind = iota
	eventReference
	eventStart
	eventEnd
	eventNull
	eventSplit
	eventAbort
	eventDone
)

var eventKindNames = [...]string{"groups", "reference", "start", "end", "null", "split", "abort", "done"}

func (k eventKind) String() string {
	return eventKindNames[k]
}

// event is one step of a stream. Which fields are set depends on kind.
type event struct {
	kind  eventKind
	stack *stack

	// groups
	groups    charset.Groups
	node      regex.Node
	backrefs  []*regex.Backreference
	unbounded *lazyUnbounded

	// reference
	ref *regex.Backreference

	// end
	bounded bool

	// split
	branch cursor
}

// terminal reports whether nothing follows the event on its path.
func (e event) terminal() bool {
	return e.kind == eventEnd || e.kind == eventDone || e.kind == eventAbort
}

// cursor is an immutable position in a stream. next never changes the receiver,
// so a cursor can be advanced any number of times from the same point.
type cursor interface {
	next() (event, cursor, error)
}

// doneCursor yields eventDone forever.
type doneCursor struct{}

func (doneCursor) next() (event, cursor, error) {
	return event{kind: eventDone}, doneCursor{}, nil
}
