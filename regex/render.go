package regex

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Render serializes a pattern back into javascript source.
func Render(p *Pattern) string {
	r := newRenderer()
	return r.render(p.Root)
}

type substitution struct {
	group  *Group
	atomic bool
}

type renderer struct {
	sb strings.Builder

	skip       map[Node]bool
	substitute map[*Backreference]substitution
	newIndex   map[int]int
	expanding  map[int]bool

	numbering  bool
	captures   int
	suppressed int
	refEnd     int
	atomic     []int
}

func newRenderer() *renderer {
	return &renderer{
		skip:       map[Node]bool{},
		substitute: map[*Backreference]substitution{},
		newIndex:   map[int]int{},
		expanding:  map[int]bool{},
		refEnd:     -1,
	}
}

// render makes a numbering pass first so that forward references get the renumbered index.
func (r *renderer) render(root Node) string {
	r.numbering = true
	r.write(root)
	r.numbering = false
	r.sb.Reset()
	r.captures = 0
	r.refEnd = -1
	r.atomic = nil
	r.write(root)
	return r.sb.String()
}

func (r *renderer) write(n Node) {
	if r.skip[n] {
		return
	}

	switch n := n.(type) {
	case *Char:
		if r.sb.Len() == r.refEnd && n.Value >= '0' && n.Value <= '9' {
			// keep the digit from extending the preceding reference
			r.sb.WriteString("(?:)")
		}
		r.sb.WriteString(quoteChar(n.Value, false))
	case *Class:
		r.sb.WriteByte('[')
		if n.Negated {
			r.sb.WriteByte('^')
		}
		for _, cr := range n.Ranges {
			r.sb.WriteString(quoteChar(cr.From, true))
			if cr.To != cr.From {
				r.sb.WriteByte('-')
				r.sb.WriteString(quoteChar(cr.To, true))
			}
		}
		for _, e := range n.Escapes {
			r.write(e)
		}
		for _, p := range n.Properties {
			r.write(p)
		}
		r.sb.WriteByte(']')
	case *ClassEscape:
		c := byte(n.Kind)
		if n.Negated {
			c -= 'a' - 'A'
		}
		r.sb.WriteByte('\\')
		r.sb.WriteByte(c)
	case *Property:
		if n.Negated {
			r.sb.WriteString(`\P{`)
		} else {
			r.sb.WriteString(`\p{`)
		}
		r.sb.WriteString(n.Name)
		r.sb.WriteByte('}')
	case *Dot:
		r.sb.WriteByte('.')
	case *Anchor:
		switch n.Kind {
		case AnchorStart:
			r.sb.WriteByte('^')
		case AnchorEnd:
			r.sb.WriteByte('$')
		case AnchorWordBoundary:
			r.sb.WriteString(`\b`)
		case AnchorNonWordBoundary:
			r.sb.WriteString(`\B`)
		}
	case *Group:
		r.writeGroup(n)
	case *Alternation:
		for i, alt := range n.Alternatives {
			if i > 0 {
				r.sb.WriteByte('|')
			}
			r.write(alt)
		}
	case *Sequence:
		for _, el := range n.Elements {
			r.write(el)
		}
	case *Quantifier:
		r.write(n.Body)
		switch {
		case n.Min == 0 && n.Max == Unbounded:
			r.sb.WriteByte('*')
		case n.Min == 1 && n.Max == Unbounded:
			r.sb.WriteByte('+')
		case n.Min == 0 && n.Max == 1:
			r.sb.WriteByte('?')
		case n.Max == Unbounded:
			fmt.Fprintf(&r.sb, "{%d,}", n.Min)
		case n.Min == n.Max:
			fmt.Fprintf(&r.sb, "{%d}", n.Min)
		default:
			fmt.Fprintf(&r.sb, "{%d,%d}", n.Min, n.Max)
		}
		if n.Lazy {
			r.sb.WriteByte('?')
		}
	case *Backreference:
		if r.expanding[n.Index] {
			// a reference into the copy being written matches the empty string
			r.sb.WriteString("(?:)")
			return
		}
		if sub, ok := r.substitute[n]; ok {
			if sub.atomic && !r.numbering {
				r.atomic = append(r.atomic, r.sb.Len())
			}
			r.sb.WriteString("(?:")
			r.suppressed++
			r.expanding[sub.group.Index] = true
			r.write(sub.group.Body)
			delete(r.expanding, sub.group.Index)
			r.suppressed--
			r.sb.WriteByte(')')
			return
		}
		r.writeReference(n)
	default:
		panic(fmt.Sprintf("regex: unexpected node type %T", n))
	}
}

func (r *renderer) writeGroup(g *Group) {
	switch g.Kind {
	case GroupCapture:
		if r.suppressed > 0 {
			r.sb.WriteString("(?:")
			break
		}
		r.captures++
		if r.numbering {
			r.newIndex[g.Index] = r.captures
		}
		if g.Name != "" {
			r.sb.WriteString("(?<" + g.Name + ">")
		} else {
			r.sb.WriteByte('(')
		}
	case GroupNonCapture:
		r.sb.WriteString("(?:")
	case GroupLookahead:
		r.sb.WriteString("(?=")
	case GroupNegativeLookahead:
		r.sb.WriteString("(?!")
	case GroupLookbehind:
		r.sb.WriteString("(?<=")
	case GroupNegativeLookbehind:
		r.sb.WriteString("(?<!")
	}
	r.write(g.Body)
	r.sb.WriteByte(')')
}

func (r *renderer) writeReference(ref *Backreference) {
	if ref.Name != "" && r.suppressed == 0 {
		r.sb.WriteString(`\k<` + ref.Name + `>`)
		return
	}
	idx := ref.Index
	if newIdx, ok := r.newIndex[ref.Index]; ok {
		idx = newIdx
	}
	r.sb.WriteByte('\\')
	r.sb.WriteString(strconv.Itoa(idx))
	r.refEnd = r.sb.Len()
}

func quoteChar(c rune, inClass bool) string {
	switch c {
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	case '\v':
		return `\v`
	case '\f':
		return `\f`
	}
	if inClass {
		if strings.ContainsRune(`\]^-[`, c) {
			return `\` + string(c)
		}
	} else if strings.ContainsRune(`\^$.|?*+()[]{}/`, c) {
		return `\` + string(c)
	}
	if c < ' ' || c == 0x7F {
		return fmt.Sprintf(`\x%02X`, c)
	}
	if !unicode.IsPrint(c) && c <= 0xFFFF {
		return fmt.Sprintf(`\u%04X`, c)
	}
	return string(c)
}
