package detector

import (
	"fmt"

	"github.com/mfroeh/redoscheck/charset"
	"github.com/mfroeh/redoscheck/regex"
)

// compiler turns consuming nodes into character requirements, once per node.
type compiler struct {
	flags regex.Flags
	cache map[regex.Node]charset.Groups
}

func newCompiler(flags regex.Flags) *compiler {
	return &compiler{flags: flags, cache: map[regex.Node]charset.Groups{}}
}

func (c *compiler) groups(n regex.Node) charset.Groups {
	if g, ok := c.cache[n]; ok {
		return g
	}
	g := c.compile(n)
	c.cache[n] = g
	return g
}

func (c *compiler) compile(n regex.Node) charset.Groups {
	switch n := n.(type) {
	case *regex.Char:
		return charset.Literal(n.Value, c.flags.IgnoreCase)
	case *regex.Dot:
		return charset.Any(c.flags.DotAll)
	case *regex.ClassEscape:
		switch n.Kind {
		case regex.EscapeDigit:
			return charset.Digit(n.Negated)
		case regex.EscapeWord:
			return charset.Word(n.Negated)
		default:
			return charset.Space(n.Negated)
		}
	case *regex.Property:
		return charset.Groups{Categories: []charset.Category{{Name: n.Name, Negated: n.Negated}}}
	case *regex.Class:
		var ranges []charset.Range
		for _, cr := range n.Ranges {
			ranges = append(ranges, charset.Range{Lo: cr.From, Hi: cr.To})
		}
		set := charset.NewSet(ranges...)
		if c.flags.IgnoreCase {
			set = charset.Fold(set)
		}
		g := charset.Groups{Ranges: set}
		for _, e := range n.Escapes {
			g = g.Union(c.compile(e))
		}
		for _, p := range n.Properties {
			g = g.Union(c.compile(p))
		}
		if n.Negated {
			return g.Negate()
		}
		return g
	}
	panic(fmt.Sprintf("detector: %T does not consume characters", n))
}
