package regex

// Index holds per node facts about a pattern that the analysis looks up repeatedly.
// It is built once per tree.
type Index struct {
	pattern     *Pattern
	groups      map[int]*Group
	parents     map[Node]Node
	lookarounds map[Node][]*Group
	byOffset    map[int]*Group
}

func NewIndex(p *Pattern) *Index {
	idx := &Index{
		pattern:     p,
		groups:      map[int]*Group{},
		parents:     map[Node]Node{},
		lookarounds: map[Node][]*Group{},
		byOffset:    map[int]*Group{},
	}
	idx.visit(p.Root, nil, nil)
	return idx
}

func (idx *Index) visit(n Node, parent Node, lookarounds []*Group) {
	if n == nil {
		return
	}
	if parent != nil {
		idx.parents[n] = parent
	}
	idx.lookarounds[n] = lookarounds

	switch n := n.(type) {
	case *Group:
		start, _ := n.Span()
		idx.byOffset[start] = n
		if n.IsCapturing() {
			idx.groups[n.Index] = n
		}
		inner := lookarounds
		if n.IsLookaround() {
			inner = append(lookarounds[:len(lookarounds):len(lookarounds)], n)
		}
		idx.visit(n.Body, n, inner)
	case *Alternation:
		for _, alt := range n.Alternatives {
			idx.visit(alt, n, lookarounds)
		}
	case *Sequence:
		for _, el := range n.Elements {
			idx.visit(el, n, lookarounds)
		}
	case *Quantifier:
		idx.visit(n.Body, n, lookarounds)
	}
}

func (idx *Index) Pattern() *Pattern {
	return idx.pattern
}

// Group returns the capturing group with the given index.
func (idx *Index) Group(index int) (*Group, bool) {
	g, ok := idx.groups[index]
	return g, ok
}

// GroupAt returns the group starting at the given source offset.
func (idx *Index) GroupAt(offset int) (*Group, bool) {
	g, ok := idx.byOffset[offset]
	return g, ok
}

func (idx *Index) Parent(n Node) Node {
	return idx.parents[n]
}

// Lookarounds returns the lookaround groups enclosing n, outermost first.
func (idx *Index) Lookarounds(n Node) []*Group {
	return idx.lookarounds[n]
}

// Contains reports whether inner lies within the subtree rooted at outer.
func (idx *Index) Contains(outer, inner Node) bool {
	for n := inner; n != nil; n = idx.parents[n] {
		if n == outer {
			return true
		}
	}
	return false
}
