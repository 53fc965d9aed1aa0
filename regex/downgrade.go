package regex

import "fmt"

// Downgraded is the result of rewriting backreferences the analysis can't follow.
type Downgraded struct {
	Pattern *Pattern
	Changed bool
	// AtomicOffsets are the source offsets, in the rewritten pattern, of groups that
	// have to be matched atomically.
	AtomicOffsets []int
}

// Downgrade rewrites backreferences into equivalent or wider constructs:
//
//	(?=(X))\1   becomes an atomic (?:X)
//	\N          where group N sits in a positive lookaround, or repeats without bound,
//	            becomes a non-capturing copy of group N
//
// Captures are renumbered afterwards and the result is parsed again.
func Downgrade(p *Pattern) (*Downgraded, error) {
	idx := NewIndex(p)
	r := newRenderer()

	Walk(p.Root, func(n Node) bool {
		seq, ok := n.(*Sequence)
		if !ok {
			return true
		}
		for i := 0; i+1 < len(seq.Elements); i++ {
			look, ok := seq.Elements[i].(*Group)
			if !ok || look.Kind != GroupLookahead {
				continue
			}
			capture, ok := look.Body.(*Group)
			if !ok || !capture.IsCapturing() {
				continue
			}
			ref, ok := seq.Elements[i+1].(*Backreference)
			if !ok || ref.Index != capture.Index {
				continue
			}
			r.skip[look] = true
			r.substitute[ref] = substitution{group: capture, atomic: true}
		}
		return true
	})

	Walk(p.Root, func(n Node) bool {
		ref, ok := n.(*Backreference)
		if !ok {
			return true
		}
		if _, done := r.substitute[ref]; done {
			return true
		}
		g, ok := idx.Group(ref.Index)
		if !ok || idx.Contains(g, ref) {
			return true
		}
		if behindPositiveLookaround(idx, g) || repeatsWithoutBound(g) {
			r.substitute[ref] = substitution{group: g}
		}
		return true
	})

	if len(r.substitute) == 0 {
		return &Downgraded{Pattern: p}, nil
	}

	out := r.render(p.Root)
	np, err := Parse(out, p.Flags)
	if err != nil {
		return nil, fmt.Errorf("downgrading %q to %q: %w", p.Source, out, err)
	}
	return &Downgraded{Pattern: np, Changed: true, AtomicOffsets: r.atomic}, nil
}

func behindPositiveLookaround(idx *Index, g *Group) bool {
	for _, look := range idx.Lookarounds(g) {
		if !look.IsNegativeLookaround() {
			return true
		}
	}
	return false
}

// repeatsWithoutBound reports whether g's body contains a quantifier without an upper bound.
func repeatsWithoutBound(g *Group) bool {
	found := false
	Walk(g.Body, func(n Node) bool {
		if q, ok := n.(*Quantifier); ok && q.IsUnbounded() {
			found = true
		}
		return !found
	})
	return found
}
