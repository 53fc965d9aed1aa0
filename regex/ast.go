package regex

import "math"

// Unbounded is the Max of a quantifier without an upper bound.
const Unbounded = math.MaxInt

// Node is a syntax tree node. Nodes are compared by identity, never by value.
type Node interface {
	// ID is unique within one parsed pattern.
	ID() int
	// Span is the [start, end) offset range of the node in the pattern source.
	Span() (start, end int)
}

type node struct {
	id    int
	start int
	end   int
}

func (n *node) ID() int                { return n.id }
func (n *node) Span() (start, end int) { return n.start, n.end }

// Char is a single literal code point.
type Char struct {
	node
	Value rune
}

type ClassRange struct {
	From rune
	To   rune
}

// Class is a bracket expression like [a-z\d].
type Class struct {
	node
	Negated    bool
	Ranges     []ClassRange
	Escapes    []*ClassEscape
	Properties []*Property
}

type EscapeKind byte

const (
	EscapeDigit EscapeKind = 'd'
	EscapeWord  EscapeKind = 'w'
	EscapeSpace EscapeKind = 's'
)

// ClassEscape is one of \d \D \w \W \s \S.
type ClassEscape struct {
	node
	Kind    EscapeKind
	Negated bool
}

// Property is a unicode property escape, \p{...} or \P{...}.
type Property struct {
	node
	Name    string
	Negated bool
}

// Dot is the wildcard.
type Dot struct {
	node
}

type AnchorKind int

const (
	AnchorStart AnchorKind = iota
	AnchorEnd
	AnchorWordBoundary
	AnchorNonWordBoundary
)

type Anchor struct {
	node
	Kind AnchorKind
}

type GroupKind int

const (
	GroupCapture GroupKind = iota
	GroupNonCapture
	GroupLookahead
	GroupNegativeLookahead
	GroupLookbehind
	GroupNegativeLookbehind
)

// Group is any parenthesized construct. Index is set for capturing groups only.
type Group struct {
	node
	Kind  GroupKind
	Index int
	Name  string
	Body  Node
}

func (g *Group) IsCapturing() bool {
	return g.Kind == GroupCapture
}

func (g *Group) IsLookaround() bool {
	return g.Kind >= GroupLookahead
}

func (g *Group) IsNegativeLookaround() bool {
	return g.Kind == GroupNegativeLookahead || g.Kind == GroupNegativeLookbehind
}

type Alternation struct {
	node
	Alternatives []Node
}

type Sequence struct {
	node
	Elements []Node
}

type Quantifier struct {
	node
	Min  int
	Max  int
	Lazy bool
	Body Node
}

func (q *Quantifier) IsUnbounded() bool {
	return q.Max == Unbounded
}

// Backreference is \N or \k<name>. Index is resolved after parsing for named references.
type Backreference struct {
	node
	Index int
	Name  string
}

// Flags mirror the javascript flags that change matching semantics.
type Flags struct {
	IgnoreCase bool `yaml:"ignore_case" json:"ignoreCase"`
	DotAll     bool `yaml:"dot_all" json:"dotAll"`
	Unicode    bool `yaml:"unicode" json:"unicode"`
	Multiline  bool `yaml:"multiline" json:"multiline"`
}

func (f Flags) String() string {
	s := ""
	if f.IgnoreCase {
		s += "i"
	}
	if f.Multiline {
		s += "m"
	}
	if f.DotAll {
		s += "s"
	}
	if f.Unicode {
		s += "u"
	}
	return s
}

// Pattern is a parsed regular expression.
type Pattern struct {
	Source   string
	Flags    Flags
	Root     Node
	Captures int
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from visit skips the children of that node.
func Walk(n Node, visit func(Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	switch n := n.(type) {
	case *Group:
		Walk(n.Body, visit)
	case *Alternation:
		for _, alt := range n.Alternatives {
			Walk(alt, visit)
		}
	case *Sequence:
		for _, el := range n.Elements {
			Walk(el, visit)
		}
	case *Quantifier:
		Walk(n.Body, visit)
	case *Class:
		for _, e := range n.Escapes {
			Walk(e, visit)
		}
		for _, p := range n.Properties {
			Walk(p, visit)
		}
	}
}

// MatchesEmpty reports whether n can match without consuming a character.
// Backreferences count as possibly empty.
func MatchesEmpty(n Node) bool {
	switch n := n.(type) {
	case nil, *Anchor, *Backreference:
		return true
	case *Group:
		return n.IsLookaround() || MatchesEmpty(n.Body)
	case *Alternation:
		for _, alt := range n.Alternatives {
			if MatchesEmpty(alt) {
				return true
			}
		}
		return false
	case *Sequence:
		for _, el := range n.Elements {
			if !MatchesEmpty(el) {
				return false
			}
		}
		return true
	case *Quantifier:
		return n.Min == 0 || MatchesEmpty(n.Body)
	}
	return false
}

// Consumes reports whether n can consume a character outside of lookarounds and backreferences.
func Consumes(n Node) bool {
	found := false
	Walk(n, func(n Node) bool {
		switch n := n.(type) {
		case *Char, *Dot, *Class, *ClassEscape, *Property:
			found = true
		case *Group:
			return !n.IsLookaround()
		case *Quantifier:
			return n.Max > 0
		}
		return !found
	})
	return found
}
