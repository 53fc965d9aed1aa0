package detector

import (
	"slices"
	"strconv"
	"strings"
)

// equality memoizes whether two sides describe the same position of the same derivation.
// Sides are keyed by identity, so the memo holds across steps and frames. It lives for one check.
type equality struct {
	cache map[string]map[string]bool
}

func newEquality() *equality {
	return &equality{cache: map[string]map[string]bool{}}
}

func (e *equality) equal(a, b *Side) bool {
	if a == b {
		return true
	}
	ka, kb := a.identity(), b.identity()
	if v, ok := e.cache[ka][kb]; ok {
		return v
	}
	v := a.Node == b.Node &&
		slices.EqualFunc(a.Quantifiers, b.Quantifiers, func(x, y QuantifierIteration) bool {
			return x.Quantifier == y.Quantifier && x.Iteration == y.Iteration
		}) &&
		slices.Equal(a.Backreferences, b.Backreferences)
	e.set(ka, kb, v)
	e.set(kb, ka, v)
	return v
}

func (e *equality) set(a, b string, v bool) {
	m, ok := e.cache[a]
	if !ok {
		m = map[string]bool{}
		e.cache[a] = m
	}
	m[b] = v
}

// identity names the node, every quantifier iteration and every replaying reference of s.
func (s *Side) identity() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(s.Node.ID()))
	for _, q := range s.Quantifiers {
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(q.Quantifier.ID()))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(q.Iteration))
	}
	for _, ref := range s.Backreferences {
		sb.WriteString("\\")
		sb.WriteString(strconv.Itoa(ref.ID()))
	}
	return sb.String()
}
