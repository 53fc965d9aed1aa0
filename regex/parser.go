package regex

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mfroeh/redoscheck/charset"
)

// SyntaxError reports a malformed pattern.
type SyntaxError struct {
	Offset  int
	Msg     string
	Pattern string
	inner   error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid pattern %q at %d: %s", e.Pattern, e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.inner
}

type parser struct {
	re       string
	flags    Flags
	nextID   int
	captures int
	total    int
	names    map[string]int
	refs     []*Backreference
}

// ParseLiteral parses a slash delimited pattern with trailing flags, e.g. /a+b/iu.
func ParseLiteral(literal string) (*Pattern, error) {
	if len(literal) < 2 || literal[0] != '/' {
		return nil, &SyntaxError{Pattern: literal, Msg: "expected /pattern/flags"}
	}
	end := strings.LastIndexByte(literal, '/')
	if end == 0 {
		return nil, &SyntaxError{Pattern: literal, Offset: len(literal), Msg: "missing closing '/'"}
	}

	var flags Flags
	for i, c := range literal[end+1:] {
		switch c {
		case 'i':
			flags.IgnoreCase = true
		case 's':
			flags.DotAll = true
		case 'u', 'v':
			flags.Unicode = true
		case 'm':
			flags.Multiline = true
		case 'g', 'y', 'd':
			// don't change what a single match attempt does
		default:
			return nil, &SyntaxError{Pattern: literal, Offset: end + 1 + i, Msg: fmt.Sprintf("unknown flag %q", c)}
		}
	}
	return Parse(literal[1:end], flags)
}

// Parse parses javascript regular expression source into a syntax tree.
func Parse(re string, flags Flags) (*Pattern, error) {
	p := &parser{
		re:    re,
		flags: flags,
		names: map[string]int{},
		total: countCaptures(re),
	}

	root, i, err := p.parseChoices(0)
	if err != nil {
		return nil, err
	}
	if i < len(re) {
		// only an unbalanced ')' stops the top level early
		return nil, p.errorf(i, nil, "unmatched ')'")
	}

	for _, ref := range p.refs {
		if ref.Name == "" {
			continue
		}
		idx, ok := p.names[ref.Name]
		if !ok {
			return nil, p.errorf(ref.start, nil, "reference to undefined group %q", ref.Name)
		}
		ref.Index = idx
	}

	return &Pattern{
		Source:   re,
		Flags:    flags,
		Root:     root,
		Captures: p.captures,
	}, nil
}

func (p *parser) errorf(i int, inner error, format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: i, Msg: fmt.Sprintf(format, args...), Pattern: p.re, inner: inner}
}

func (p *parser) newNode(start, end int) node {
	p.nextID++
	return node{id: p.nextID, start: start, end: end}
}

// ...|...|...
func (p *parser) parseChoices(i int) (Node, int, error) {
	start := i
	var choices []Node
	for {
		seq, j, err := p.parseSequence(i)
		if err != nil {
			return nil, 0, err
		}
		choices = append(choices, seq)
		i = j
		if i >= len(p.re) || p.re[i] != '|' {
			break
		}
		// pop off '|'
		i++
	}

	// if we parsed just one, we are not a choice
	if len(choices) == 1 {
		return choices[0], i, nil
	}
	return &Alternation{node: p.newNode(start, i), Alternatives: choices}, i, nil
}

func (p *parser) parseSequence(i int) (Node, int, error) {
	start := i
	var elements []Node
	for i < len(p.re) && p.re[i] != '|' && p.re[i] != ')' {
		term, j, err := p.parseTerm(i)
		if err != nil {
			return nil, 0, err
		}
		elements = append(elements, term)
		i = j
	}
	if len(elements) == 1 {
		return elements[0], i, nil
	}
	return &Sequence{node: p.newNode(start, i), Elements: elements}, i, nil
}

func (p *parser) parseTerm(i int) (Node, int, error) {
	atom, j, err := p.parseAtom(i)
	if err != nil {
		return nil, 0, err
	}

	mi, ma, lazy, cons, err := p.parseQuantifier(j)
	if err != nil {
		return nil, 0, err
	}
	if cons == 0 {
		return atom, j, nil
	}
	if a, ok := atom.(*Anchor); ok {
		return nil, 0, p.errorf(j, nil, "nothing to repeat after anchor %q", p.re[a.start:a.end])
	}
	if g, ok := atom.(*Group); ok && g.IsLookaround() && (p.flags.Unicode || g.Kind >= GroupLookbehind) {
		return nil, 0, p.errorf(j, nil, "lookaround can't be quantified")
	}
	return &Quantifier{node: p.newNode(i, j+cons), Min: mi, Max: ma, Lazy: lazy, Body: atom}, j + cons, nil
}

func (p *parser) parseAtom(i int) (Node, int, error) {
	switch p.re[i] {
	case '(':
		return p.parseGroup(i)
	case '[':
		return p.parseBracket(i)
	case '.':
		return &Dot{node: p.newNode(i, i+1)}, i + 1, nil
	case '^':
		return &Anchor{node: p.newNode(i, i+1), Kind: AnchorStart}, i + 1, nil
	case '$':
		return &Anchor{node: p.newNode(i, i+1), Kind: AnchorEnd}, i + 1, nil
	case '\\':
		return p.parseEscape(i)
	case '*', '+', '?':
		return nil, 0, p.errorf(i, nil, "nothing to repeat")
	case '{':
		if _, _, _, cons, _ := p.parseQuantifier(i); cons > 0 {
			return nil, 0, p.errorf(i, nil, "nothing to repeat")
		}
		if p.flags.Unicode {
			return nil, 0, p.errorf(i, nil, "lone quantifier bracket")
		}
	case '}', ']':
		if p.flags.Unicode {
			return nil, 0, p.errorf(i, nil, "lone %q", p.re[i])
		}
	}

	c, size := utf8.DecodeRuneInString(p.re[i:])
	return &Char{node: p.newNode(i, i+size), Value: c}, i + size, nil
}

// (...), (?:...), (?=...), (?!...), (?<=...), (?<!...), (?<name>...)
func (p *parser) parseGroup(i int) (Node, int, error) {
	// pop off '('
	j := i + 1

	kind := GroupCapture
	name := ""
	switch {
	case strings.HasPrefix(p.re[j:], "?:"):
		kind, j = GroupNonCapture, j+2
	case strings.HasPrefix(p.re[j:], "?="):
		kind, j = GroupLookahead, j+2
	case strings.HasPrefix(p.re[j:], "?!"):
		kind, j = GroupNegativeLookahead, j+2
	case strings.HasPrefix(p.re[j:], "?<="):
		kind, j = GroupLookbehind, j+3
	case strings.HasPrefix(p.re[j:], "?<!"):
		kind, j = GroupNegativeLookbehind, j+3
	case strings.HasPrefix(p.re[j:], "?<"):
		end := strings.IndexByte(p.re[j:], '>')
		if end == -1 {
			return nil, 0, p.errorf(j, nil, "did not find closing '>' of group name")
		}
		name = p.re[j+2 : j+end]
		if !validGroupName(name) {
			return nil, 0, p.errorf(j+2, nil, "invalid group name %q", name)
		}
		if _, dup := p.names[name]; dup {
			return nil, 0, p.errorf(j+2, nil, "duplicate group name %q", name)
		}
		j += end + 1
	case strings.HasPrefix(p.re[j:], "?"):
		return nil, 0, p.errorf(j, nil, "invalid group")
	}

	group := &Group{Kind: kind, Name: name}
	if kind == GroupCapture {
		p.captures++
		group.Index = p.captures
		if name != "" {
			p.names[name] = group.Index
		}
	}

	body, j, err := p.parseChoices(j)
	if err != nil {
		return nil, 0, err
	}

	if j >= len(p.re) {
		return nil, 0, p.errorf(j, nil, "unexpected EOS, did not find closing ')'")
	}

	// pop off ')'
	j++

	group.node = p.newNode(i, j)
	group.Body = body
	return group, j, nil
}

// [...] and [^...]
func (p *parser) parseBracket(i int) (Node, int, error) {
	// pop off '['
	j := i + 1

	class := &Class{}
	if j < len(p.re) && p.re[j] == '^' {
		class.Negated = true
		j++
	}

	for j < len(p.re) && p.re[j] != ']' {
		from, escape, property, next, err := p.parseClassAtom(j)
		if err != nil {
			return nil, 0, err
		}
		if escape != nil || property != nil {
			if escape != nil {
				class.Escapes = append(class.Escapes, escape)
			} else {
				class.Properties = append(class.Properties, property)
			}
			j = next
			continue
		}

		// a-z, but a trailing or escaped '-' is literal
		if next+1 < len(p.re) && p.re[next] == '-' && p.re[next+1] != ']' {
			to, toEscape, toProperty, after, err := p.parseClassAtom(next + 1)
			if err != nil {
				return nil, 0, err
			}
			if toEscape == nil && toProperty == nil {
				if to < from {
					return nil, 0, p.errorf(j, nil, "range out of order in character class")
				}
				class.Ranges = append(class.Ranges, ClassRange{From: from, To: to})
				j = after
				continue
			}
			if p.flags.Unicode {
				return nil, 0, p.errorf(next, nil, "invalid character class range")
			}
		}
		class.Ranges = append(class.Ranges, ClassRange{From: from, To: from})
		j = next
	}

	if j >= len(p.re) {
		return nil, 0, p.errorf(j, nil, "unexpected EOS, did not find closing ']'")
	}

	// pop off ]
	j++

	class.node = p.newNode(i, j)
	return class, j, nil
}

// parseClassAtom parses one member of a bracket expression: a character, a class escape or a property.
func (p *parser) parseClassAtom(i int) (rune, *ClassEscape, *Property, int, error) {
	if p.re[i] != '\\' {
		c, size := utf8.DecodeRuneInString(p.re[i:])
		return c, nil, nil, i + size, nil
	}
	if i+1 >= len(p.re) {
		return 0, nil, nil, 0, p.errorf(i, nil, "unexpected EOS after '\\'")
	}

	if escape := p.parseClassEscape(i); escape != nil {
		return 0, escape, nil, i + 2, nil
	}
	if property, next, err := p.parseProperty(i); err != nil || property != nil {
		return 0, nil, property, next, err
	}
	if p.re[i+1] == 'b' {
		return '\b', nil, nil, i + 2, nil
	}
	if p.re[i+1] == '-' {
		return '-', nil, nil, i + 2, nil
	}
	c, next, err := p.parseCharacterEscape(i)
	return c, nil, nil, next, err
}

func (p *parser) parseEscape(i int) (Node, int, error) {
	if i+1 >= len(p.re) {
		return nil, 0, p.errorf(i, nil, "unexpected EOS after '\\'")
	}

	if escape := p.parseClassEscape(i); escape != nil {
		return escape, i + 2, nil
	}

	switch p.re[i+1] {
	case 'b':
		return &Anchor{node: p.newNode(i, i+2), Kind: AnchorWordBoundary}, i + 2, nil
	case 'B':
		return &Anchor{node: p.newNode(i, i+2), Kind: AnchorNonWordBoundary}, i + 2, nil
	case 'k':
		if strings.HasPrefix(p.re[i+2:], "<") {
			end := strings.IndexByte(p.re[i+2:], '>')
			if end == -1 {
				return nil, 0, p.errorf(i, nil, "did not find closing '>' of group reference")
			}
			ref := &Backreference{node: p.newNode(i, i+2+end+1), Name: p.re[i+3 : i+2+end]}
			p.refs = append(p.refs, ref)
			return ref, i + 2 + end + 1, nil
		}
		if p.flags.Unicode {
			return nil, 0, p.errorf(i, nil, "invalid named reference")
		}
	}

	if property, next, err := p.parseProperty(i); err != nil || property != nil {
		return property, next, err
	}

	if d := p.re[i+1]; d >= '1' && d <= '9' {
		j := i + 1
		for j < len(p.re) && p.re[j] >= '0' && p.re[j] <= '9' {
			j++
		}
		num, err := strconv.Atoi(p.re[i+1 : j])
		if err == nil && num <= p.total {
			ref := &Backreference{node: p.newNode(i, j), Index: num}
			p.refs = append(p.refs, ref)
			return ref, j, nil
		}
		if p.flags.Unicode {
			return nil, 0, p.errorf(i, err, "reference to undefined group %s", p.re[i+1:j])
		}
	}

	c, next, err := p.parseCharacterEscape(i)
	if err != nil {
		return nil, 0, err
	}
	return &Char{node: p.newNode(i, next), Value: c}, next, nil
}

// supported: \d, \D, \w, \W, \s, \S
func (p *parser) parseClassEscape(i int) *ClassEscape {
	switch c := p.re[i+1]; c {
	case 'd', 'D', 'w', 'W', 's', 'S':
		lower := c | 0x20
		return &ClassEscape{node: p.newNode(i, i+2), Kind: EscapeKind(lower), Negated: c != lower}
	}
	return nil
}

// \p{...} and \P{...}, only meaningful with the unicode flag
func (p *parser) parseProperty(i int) (*Property, int, error) {
	c := p.re[i+1]
	if (c != 'p' && c != 'P') || !p.flags.Unicode {
		return nil, 0, nil
	}
	if i+2 >= len(p.re) || p.re[i+2] != '{' {
		return nil, 0, p.errorf(i, nil, "invalid property name")
	}
	end := strings.IndexByte(p.re[i+2:], '}')
	if end == -1 {
		return nil, 0, p.errorf(i, nil, "did not find closing '}' of property")
	}
	name := p.re[i+3 : i+2+end]
	if _, ok := charset.LookupCategory(name); !ok {
		return nil, 0, p.errorf(i+3, nil, "unknown property %q", name)
	}
	next := i + 2 + end + 1
	return &Property{node: p.newNode(i, next), Name: name, Negated: c == 'P'}, next, nil
}

// parseCharacterEscape parses \n, \x41, A, \u{1F600}, \cJ, \0 and identity escapes.
func (p *parser) parseCharacterEscape(i int) (rune, int, error) {
	c, size := utf8.DecodeRuneInString(p.re[i+1:])
	j := i + 1 + size

	switch c {
	case 'x':
		if v, ok := parseHex(p.re, j, 2); ok {
			return v, j + 2, nil
		}
	case 'u':
		if p.flags.Unicode && strings.HasPrefix(p.re[j:], "{") {
			end := strings.IndexByte(p.re[j:], '}')
			if end != -1 {
				if v, err := strconv.ParseUint(p.re[j+1:j+end], 16, 32); err == nil && v <= charset.MaxCodePoint {
					return rune(v), j + end + 1, nil
				}
			}
			return 0, 0, p.errorf(i, nil, "invalid unicode escape")
		}
		if v, ok := parseHex(p.re, j, 4); ok {
			return v, j + 4, nil
		}
	case 'c':
		if j < len(p.re) && isASCIILetter(p.re[j]) {
			return rune(p.re[j] % 32), j + 1, nil
		}
	case '0':
		if j >= len(p.re) || p.re[j] < '0' || p.re[j] > '9' {
			return 0, j, nil
		}
	}

	if c >= '0' && c <= '9' {
		if p.flags.Unicode {
			return 0, 0, p.errorf(i, nil, "invalid decimal escape")
		}
		if c <= '7' {
			v, next := parseOctal(p.re, i+1)
			return v, next, nil
		}
	}

	if p.flags.Unicode && c < utf8.RuneSelf && isASCIILetter(byte(c)) && escapedChar(c) == c {
		return 0, 0, p.errorf(i, nil, "invalid escape \\%c", c)
	}
	return escapedChar(c), j, nil
}

// {m,n} and ? and * and +, each optionally followed by '?' for the lazy variant
func (p *parser) parseQuantifier(i int) (mi int, ma int, lazy bool, consumed int, err error) {
	if i >= len(p.re) {
		return 1, 1, false, 0, nil
	}

	switch p.re[i] {
	case '+':
		mi, ma, consumed = 1, Unbounded, 1
	case '?':
		mi, ma, consumed = 0, 1, 1
	case '*':
		mi, ma, consumed = 0, Unbounded, 1
	case '{':
		mi, ma, consumed, err = p.parseBraces(i)
		if err != nil || consumed == 0 {
			return 1, 1, false, 0, err
		}
	default:
		return 1, 1, false, 0, nil
	}

	if i+consumed < len(p.re) && p.re[i+consumed] == '?' {
		lazy = true
		consumed++
	}
	return mi, ma, lazy, consumed, nil
}

// parseBraces returns consumed == 0 if re[i:] is not a well formed {m}, {m,} or {m,n}.
func (p *parser) parseBraces(i int) (mi int, ma int, consumed int, err error) {
	endIdx := strings.IndexByte(p.re[i:], '}')
	if endIdx == -1 {
		return 0, 0, 0, nil
	}

	// inside '{...}'
	inner := p.re[i+1 : i+endIdx]
	numStrs := strings.SplitN(inner, ",", 2)
	if !isDecimal(numStrs[0]) {
		return 0, 0, 0, nil
	}

	occMin, err := strconv.Atoi(numStrs[0])
	if err != nil {
		return 0, 0, 0, p.errorf(i, err, "failed to convert to number")
	}

	if len(numStrs) == 1 {
		return occMin, occMin, endIdx + 1, nil
	}
	if numStrs[1] == "" {
		return occMin, Unbounded, endIdx + 1, nil
	}
	if !isDecimal(numStrs[1]) {
		return 0, 0, 0, nil
	}

	occMax, err := strconv.Atoi(numStrs[1])
	if err != nil {
		return 0, 0, 0, p.errorf(i, err, "failed to convert to number")
	}
	if occMax < occMin {
		return 0, 0, 0, p.errorf(i, nil, "numbers out of order in {} quantifier")
	}

	return occMin, occMax, endIdx + 1, nil
}

// countCaptures counts capturing groups up front, \N is only a reference if group N exists somewhere.
func countCaptures(re string) int {
	count := 0
	inClass := false
	for i := 0; i < len(re); i++ {
		switch re[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '(':
			if inClass {
				continue
			}
			rest := re[i+1:]
			if !strings.HasPrefix(rest, "?") ||
				(strings.HasPrefix(rest, "?<") && !strings.HasPrefix(rest, "?<=") && !strings.HasPrefix(rest, "?<!")) {
				count++
			}
		}
	}
	return count
}

func parseHex(s string, i, n int) (rune, bool) {
	if i+n > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[i:i+n], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

// parseOctal reads a legacy octal escape of up to three digits, at most \377.
func parseOctal(s string, i int) (rune, int) {
	v := rune(0)
	j := i
	for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
		next := v*8 + rune(s[j]-'0')
		if next > 0377 {
			break
		}
		v = next
		j++
	}
	return v, j
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isASCIILetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func validGroupName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_' || c == '$' || c >= utf8.RuneSelf:
		case c < utf8.RuneSelf && isASCIILetter(byte(c)):
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// parse an escape sequence from c if there is one (e.g. '\t', '\n', ...)
// if c isn't an escape sequence, return c
// should be called if the character preceding c in the input string is '\'
func escapedChar(c rune) rune {
	switch c {
	case 'f':
		return '\f'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'v':
		return '\v'
	}
	return c
}

// IsSyntaxError reports whether err was caused by a malformed pattern.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
