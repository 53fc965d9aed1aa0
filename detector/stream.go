package detector

import (
	"github.com/mfroeh/redoscheck/regex"
)

type taskKind int

const (
	taskNode taskKind = iota
	taskAlternative
	taskIterate
	taskIterationStart
	taskIterationEnd
	taskEnd
)

// task is a pending piece of work of the structural stream.
type task struct {
	kind  taskKind
	node  regex.Node
	stack *stack
	// index is the alternative or the iteration.
	index int
	// mark is the number of consuming events before the iteration started.
	mark int
	// empty counts the directly preceding iterations that emitted nothing.
	empty int
}

type todo struct {
	t    task
	rest *todo
}

func (l *todo) push(t task) *todo {
	return &todo{t: t, rest: l}
}

// structural is the cursor over the events of a syntax tree. It expands nodes on demand,
// alternatives and optional quantifier iterations become splits.
type structural struct {
	c        *compiler
	todo     *todo
	consumed int
}

func newStream(c *compiler, root regex.Node) cursor {
	var l *todo
	l = l.push(task{kind: taskEnd})
	l = l.push(task{kind: taskNode, node: root})
	return &structural{c: c, todo: l}
}

// newBodyStream expands n under s and ends without an end event.
func newBodyStream(c *compiler, n regex.Node, s *stack) cursor {
	var l *todo
	l = l.push(task{kind: taskNode, node: n, stack: s})
	return &structural{c: c, todo: l}
}

func (s *structural) next() (event, cursor, error) {
	cur := *s
	for cur.todo != nil {
		t := cur.todo.t
		cur.todo = cur.todo.rest

		switch t.kind {
		case taskNode:
			if ev, ok := cur.expand(t); ok {
				if ev.kind == eventEnd {
					return ev, doneCursor{}, nil
				}
				return ev, &cur, nil
			}
		case taskAlternative:
			alts := t.node.(*regex.Alternation).Alternatives
			if t.index == len(alts)-1 {
				cur.todo = cur.todo.push(task{kind: taskNode, node: alts[t.index], stack: t.stack})
				continue
			}
			branch := cur
			branch.todo = branch.todo.push(task{kind: taskNode, node: alts[t.index], stack: t.stack})
			t.index++
			cur.todo = cur.todo.push(t)
			return event{kind: eventSplit, stack: t.stack, branch: &branch}, &cur, nil
		case taskIterate:
			q := t.node.(*regex.Quantifier)
			if t.index >= q.Max {
				continue
			}
			t.kind = taskIterationStart
			if t.index < q.Min {
				cur.todo = cur.todo.push(t)
				continue
			}
			branch := cur
			branch.todo = branch.todo.push(t)
			return event{kind: eventSplit, stack: t.stack, branch: &branch}, &cur, nil
		case taskIterationStart:
			q := t.node.(*regex.Quantifier)
			inner := t.stack.push(frame{
				kind:       frameQuantifier,
				quantifier: q,
				iteration:  t.index,
				optional:   t.index >= q.Min && t.index >= 1,
			})
			cur.todo = cur.todo.push(task{kind: taskIterationEnd, node: q, stack: t.stack, index: t.index, mark: cur.consumed, empty: t.empty})
			cur.todo = cur.todo.push(task{kind: taskNode, node: q.Body, stack: inner})
			return event{kind: eventNull, stack: inner}, &cur, nil
		case taskIterationEnd:
			empty := 0
			if cur.consumed == t.mark {
				empty = t.empty + 1
			}
			// a body that matched nothing twice in a row will keep doing so
			if empty >= 2 {
				continue
			}
			cur.todo = cur.todo.push(task{kind: taskIterate, node: t.node, stack: t.stack, index: t.index + 1, empty: empty})
		case taskEnd:
			return event{kind: eventEnd, stack: t.stack}, doneCursor{}, nil
		}
	}
	return event{kind: eventDone}, doneCursor{}, nil
}

// expand schedules the children of the node of t. It returns the event the node emits, if any.
func (s *structural) expand(t task) (event, bool) {
	switch n := t.node.(type) {
	case *regex.Char, *regex.Dot, *regex.ClassEscape, *regex.Property, *regex.Class:
		s.consumed++
		return event{kind: eventGroups, stack: t.stack, node: n, groups: s.c.groups(n)}, true
	case *regex.Anchor:
		switch {
		case n.Kind == regex.AnchorStart && !s.c.flags.Multiline:
			return event{kind: eventStart, stack: t.stack}, true
		case n.Kind == regex.AnchorEnd && !s.c.flags.Multiline:
			return event{kind: eventEnd, stack: t.stack, bounded: true}, true
		}
		return event{kind: eventNull, stack: t.stack}, true
	case *regex.Group:
		if n.IsLookaround() {
			inner := t.stack.push(frame{kind: frameLookaround, group: n})
			var l *todo
			l = l.push(task{kind: taskEnd, stack: inner})
			l = l.push(task{kind: taskNode, node: n.Body, stack: inner})
			branch := &structural{c: s.c, todo: l, consumed: s.consumed}
			return event{kind: eventSplit, stack: t.stack, branch: branch}, true
		}
		s.todo = s.todo.push(task{kind: taskNode, node: n.Body, stack: t.stack.push(frame{kind: frameGroup, group: n})})
	case *regex.Alternation:
		s.todo = s.todo.push(task{kind: taskAlternative, node: n, stack: t.stack})
	case *regex.Sequence:
		for i := len(n.Elements) - 1; i >= 0; i-- {
			s.todo = s.todo.push(task{kind: taskNode, node: n.Elements[i], stack: t.stack})
		}
	case *regex.Quantifier:
		s.todo = s.todo.push(task{kind: taskIterate, node: n, stack: t.stack})
		return event{kind: eventNull, stack: t.stack}, true
	case *regex.Backreference:
		s.consumed++
		return event{kind: eventReference, stack: t.stack, node: n, ref: n}, true
	}
	return event{}, false
}
