package detector

// maxUnboundedSteps caps the walk to the end of a path.
const maxUnboundedSteps = 10000

// lazyUnbounded answers, on first use, whether the pattern can end right after an event
// without anything after it bounding the match.
type lazyUnbounded struct {
	rest  cursor
	done  bool
	value bool
}

func (l *lazyUnbounded) get() bool {
	if !l.done {
		l.value = isUnbounded(l.rest)
		l.done = true
		l.rest = nil
	}
	return l.value
}

// isUnbounded follows c without taking any branch until it consumes or ends.
func isUnbounded(c cursor) bool {
	for range maxUnboundedSteps {
		ev, next, err := c.next()
		if err != nil {
			return false
		}
		switch ev.kind {
		case eventSplit, eventNull, eventStart:
			c = next
		case eventEnd:
			return !ev.bounded
		default:
			return false
		}
	}
	return false
}

// annotated attaches the unboundedness question to every character requirement.
type annotated struct {
	inner cursor
}

func (a annotated) next() (event, cursor, error) {
	ev, next, err := a.inner.next()
	if err != nil {
		return event{}, nil, err
	}
	switch ev.kind {
	case eventGroups:
		ev.unbounded = &lazyUnbounded{rest: next}
	case eventSplit:
		ev.branch = annotated{inner: ev.branch}
	}
	return ev, annotated{inner: next}, nil
}
