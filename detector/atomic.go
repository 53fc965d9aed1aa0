package detector

import "github.com/mfroeh/redoscheck/regex"

type presence int

const (
	absent presence = iota
	present
	wasPresent
)

// atomics is the set of atomic groups a side has been inside of. It is never modified in place.
type atomics map[*regex.Group]bool

// observe returns the presence of every atomic group at s, and the side's updated history.
func (a atomics) observe(groups map[*regex.Group]bool, s *stack) (map[*regex.Group]presence, atomics) {
	if len(groups) == 0 {
		return nil, a
	}

	states := map[*regex.Group]presence{}
	for g := range a {
		states[g] = wasPresent
	}
	next := a
	for ; s != nil; s = s.parent {
		g := s.top.group
		if s.top.kind != frameGroup || !groups[g] {
			continue
		}
		states[g] = present
		if !next[g] {
			if len(next) == len(a) {
				next = a.with(g)
			} else {
				next[g] = true
			}
		}
	}
	return states, next
}

func (a atomics) with(g *regex.Group) atomics {
	out := make(atomics, len(a)+1)
	for k := range a {
		out[k] = true
	}
	out[g] = true
	return out
}

// syncAtomics compares the atomic group states of both sides. They are out of sync when one
// side is still inside a group the other has already left. Otherwise the merged states are returned.
func syncAtomics(left, right map[*regex.Group]presence) (map[*regex.Group]presence, bool) {
	merged := make(map[*regex.Group]presence, len(left)+len(right))
	for g, l := range left {
		r := right[g]
		if l == present && r == wasPresent || l == wasPresent && r == present {
			return nil, false
		}
		merged[g] = max(l, r)
	}
	for g, r := range right {
		if _, ok := merged[g]; !ok {
			merged[g] = r
		}
	}
	return merged, true
}
