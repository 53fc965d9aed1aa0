package detector

import (
	"slices"

	"github.com/mfroeh/redoscheck/charset"
	"github.com/mfroeh/redoscheck/regex"
)

// replay is one recorded character requirement of a capturing group.
type replay struct {
	groups   charset.Groups
	node     regex.Node
	backrefs []*regex.Backreference
}

// capture is what a capturing group matched most recently.
type capture struct {
	entries []replay
	// infinite is set once the group matched through a quantifier without upper bound.
	infinite bool
	// iterations are the quantifiers enclosing the group at the time, innermost first.
	iterations []frame
}

// captures maps group indices to their contents. It is never modified in place.
type captures map[int]*capture

// invalidate drops the contents of groups whose enclosing quantifiers moved on to another iteration.
func (cs captures) invalidate(s *stack) captures {
	if len(cs) == 0 || s == nil {
		return cs
	}
	current := map[*regex.Quantifier]int{}
	for _, f := range s.quantifiers() {
		current[f.quantifier] = f.iteration
	}

	var out captures
	for index, c := range cs {
		if !c.stale(current) {
			continue
		}
		if out == nil {
			out = cs.clone()
		}
		delete(out, index)
	}
	if out == nil {
		return cs
	}
	return out
}

func (c *capture) stale(current map[*regex.Quantifier]int) bool {
	for _, f := range c.iterations {
		if i, ok := current[f.quantifier]; ok && i != f.iteration {
			return true
		}
	}
	return false
}

// record adds a character requirement to every capturing group enclosing it.
func (cs captures) record(ev event) captures {
	var out captures
	unbounded := false
	for s := ev.stack; s != nil; s = s.parent {
		f := s.top
		if f.kind == frameQuantifier && f.quantifier.IsUnbounded() {
			unbounded = true
		}
		if f.kind != frameGroup || !f.group.IsCapturing() {
			continue
		}

		if out == nil {
			out = cs.clone()
		}
		next := &capture{iterations: s.parent.quantifiers()}
		if old := out[f.group.Index]; old != nil {
			next.entries = slices.Clip(old.entries)
			next.infinite = old.infinite
		}
		next.entries = append(next.entries, replay{groups: ev.groups, node: ev.node, backrefs: ev.backrefs})
		next.infinite = next.infinite || unbounded
		out[f.group.Index] = next
	}
	if out == nil {
		return cs
	}
	return out
}

func (cs captures) clone() captures {
	out := make(captures, len(cs)+1)
	for k, v := range cs {
		out[k] = v
	}
	return out
}

// resolver replaces backreferences by the character requirements their group recorded.
type resolver struct {
	inner cursor
	idx   *regex.Index
	c     *compiler
	store captures

	pending      []replay
	pendingStack *stack

	consumed    int
	lastEmpty   *regex.Backreference
	lastEmptyAt int
}

func newResolver(inner cursor, idx *regex.Index) cursor {
	return &resolver{inner: inner, idx: idx, c: newCompiler(idx.Pattern().Flags)}
}

func (r *resolver) next() (event, cursor, error) {
	cur := *r
	for {
		var ev event
		if len(cur.pending) > 0 {
			p := cur.pending[0]
			cur.pending = cur.pending[1:]
			ev = event{kind: eventGroups, stack: cur.pendingStack, groups: p.groups, node: p.node, backrefs: p.backrefs}
		} else {
			var next cursor
			var err error
			ev, next, err = cur.inner.next()
			if err != nil {
				return event{}, nil, err
			}
			cur.inner = next
		}

		cur.store = cur.store.invalidate(ev.stack)

		switch ev.kind {
		case eventGroups:
			cur.store = cur.store.record(ev)
			cur.consumed++
			return ev, &cur, nil
		case eventReference:
			replays, again, err := cur.resolve(ev)
			if err != nil {
				return event{}, nil, err
			}
			if len(replays) > 0 {
				cur.pending = replays
				cur.pendingStack = ev.stack
				continue
			}
			if len(ev.stack.quantifiers()) > 0 {
				// an empty reference repeating without anything consumed in between never ends
				if cur.lastEmpty == ev.ref && cur.lastEmptyAt == cur.consumed {
					return event{kind: eventAbort, stack: ev.stack}, doneCursor{}, nil
				}
				cur.lastEmpty = ev.ref
				cur.lastEmptyAt = cur.consumed
			}
			if again != nil {
				branch := cur
				branch.inner = rematch{inner: newBodyStream(cur.c, again.Body, ev.stack), ref: ev.ref, rest: cur.inner}
				return event{kind: eventSplit, stack: ev.stack, branch: &branch}, &cur, nil
			}
		case eventSplit:
			branch := cur
			branch.inner = ev.branch
			ev.branch = &branch
			return ev, &cur, nil
		default:
			return ev, &cur, nil
		}
	}
}

// resolve returns what the reference of ev stands for at this point. A group that matched
// empty although its body could consume is returned as well: the reference then either
// matches empty or stands for another match of that body.
func (r *resolver) resolve(ev event) ([]replay, *regex.Group, error) {
	ref := ev.ref
	if ev.stack.inGroup(ref.Index) {
		return nil, nil, nil
	}
	g, ok := r.idx.Group(ref.Index)
	if !ok {
		return nil, nil, nil
	}

	looks := r.idx.Lookarounds(g)
	for _, look := range looks {
		if look.IsNegativeLookaround() && !r.idx.Contains(look, ref) {
			return nil, nil, nil
		}
	}
	for _, look := range looks {
		if !r.idx.Contains(look, ref) {
			return nil, nil, &UnsupportedError{Ref: ref, Reason: "into a lookaround"}
		}
	}

	c, ok := r.store[ref.Index]
	if !ok || len(c.entries) == 0 {
		if regex.MatchesEmpty(g.Body) && regex.Consumes(g.Body) {
			return nil, g, nil
		}
		return nil, nil, nil
	}
	if c.infinite {
		return nil, nil, &UnsupportedError{Ref: ref, Reason: "of unbounded size"}
	}

	out := make([]replay, len(c.entries))
	for i, e := range c.entries {
		out[i] = replay{
			groups:   e.groups,
			node:     e.node,
			backrefs: append(slices.Clip(e.backrefs), ref),
		}
	}
	return out, nil, nil
}

// rematch expands a group body once more on behalf of a reference, then continues with rest.
type rematch struct {
	inner cursor
	ref   *regex.Backreference
	rest  cursor
}

func (m rematch) next() (event, cursor, error) {
	ev, next, err := m.inner.next()
	if err != nil {
		return event{}, nil, err
	}
	switch ev.kind {
	case eventDone:
		return m.rest.next()
	case eventEnd, eventAbort:
		return ev, next, nil
	case eventGroups:
		ev.backrefs = append(slices.Clip(ev.backrefs), m.ref)
	case eventSplit:
		ev.branch = rematch{inner: ev.branch, ref: m.ref, rest: m.rest}
	}
	return ev, rematch{inner: next, ref: m.ref, rest: m.rest}, nil
}
