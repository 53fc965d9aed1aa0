package charset

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"
)

// Category is a named unicode category, script or binary property, e.g. \p{L} or \P{Greek}.
type Category struct {
	Name    string
	Negated bool
}

func (c Category) String() string {
	if c.Negated {
		return `\P{` + c.Name + `}`
	}
	return `\p{` + c.Name + `}`
}

// Groups is a character requirement: the set of code points a single
// consumption step accepts.
//
// A code point c is a member iff Negated XOR (c in Ranges OR c in any of the Categories).
type Groups struct {
	Negated    bool
	Ranges     Set
	Categories []Category
}

// Empty is the requirement nothing can satisfy.
var Empty = Groups{}

// All is the requirement every code point satisfies.
var All = Groups{Negated: true}

func FromRanges(ranges ...Range) Groups {
	return Groups{Ranges: NewSet(ranges...)}
}

// IsEmpty reports whether g is definitely empty.
func (g Groups) IsEmpty() bool {
	return !g.Negated && len(g.Ranges) == 0 && len(g.Categories) == 0
}

func (g Groups) Contains(c rune) bool {
	in := g.Ranges.Contains(c)
	if !in {
		for _, cat := range g.Categories {
			if inCategory(cat.Name, c) != cat.Negated {
				in = true
				break
			}
		}
	}
	return in != g.Negated
}

// Union adds o's members to g. Both must share the same negation unless one of them is empty.
func (g Groups) Union(o Groups) Groups {
	switch {
	case o.IsEmpty():
		return g
	case g.IsEmpty():
		return o
	case g.Negated == o.Negated && !g.Negated:
		return Groups{
			Ranges:     g.Ranges.Union(o.Ranges),
			Categories: mergeCategories(g.Categories, o.Categories),
		}
	}
	return Groups{Ranges: g.Resolve().Union(o.Resolve())}
}

// Negate returns the complement of g.
func (g Groups) Negate() Groups {
	return Groups{Negated: !g.Negated, Ranges: g.Ranges, Categories: g.Categories}
}

// Intersect returns the requirement satisfied by the code points both g and o accept.
func (g Groups) Intersect(o Groups) Groups {
	if g.Equal(o) {
		return g
	}
	if g.IsEmpty() || o.IsEmpty() {
		return Empty
	}
	if len(g.Categories) > 0 || len(o.Categories) > 0 {
		return Groups{Ranges: g.Resolve().Intersect(o.Resolve())}
	}

	switch {
	case !g.Negated && !o.Negated:
		return Groups{Ranges: g.Ranges.Intersect(o.Ranges)}
	case g.Negated && !o.Negated:
		return Groups{Ranges: o.Ranges.Subtract(g.Ranges)}
	case !g.Negated && o.Negated:
		return Groups{Ranges: g.Ranges.Subtract(o.Ranges)}
	}

	union := g.Ranges.Union(o.Ranges)
	if union.IsUniverse() {
		return Empty
	}
	return Groups{Negated: true, Ranges: union}
}

// Resolve materializes g into a plain set of code points.
func (g Groups) Resolve() Set {
	set := g.Ranges
	for _, cat := range g.Categories {
		table := categorySet(cat.Name)
		if cat.Negated {
			table = table.Complement()
		}
		set = set.Union(table)
	}
	if g.Negated {
		return set.Complement()
	}
	return set
}

func (g Groups) Equal(o Groups) bool {
	if g.Negated != o.Negated || !g.Ranges.Equal(o.Ranges) {
		return false
	}
	return slices.Equal(g.Categories, o.Categories)
}

func (g Groups) String() string {
	if g.Negated && len(g.Ranges) == 0 && len(g.Categories) == 0 {
		return "[^]"
	}
	if !g.Negated && len(g.Categories) == 0 && len(g.Ranges) == 1 && g.Ranges[0].Lo == g.Ranges[0].Hi {
		return describe(g.Ranges[0].Lo)
	}
	var sb strings.Builder
	sb.WriteByte('[')
	if g.Negated {
		sb.WriteByte('^')
	}
	sb.WriteString(g.Ranges.String())
	for _, cat := range g.Categories {
		sb.WriteString(cat.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

func mergeCategories(a, b []Category) []Category {
	out := slices.Clone(a)
	for _, c := range b {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(x, y Category) int {
		if x.Name != y.Name {
			return strings.Compare(x.Name, y.Name)
		}
		if x.Negated == y.Negated {
			return 0
		}
		if x.Negated {
			return 1
		}
		return -1
	})
	return out
}

// LookupCategory resolves a property name the way \p{...} accepts it:
// general categories, scripts, binary properties and the
// General_Category= / gc= / Script= / sc= / Script_Extensions= / scx= forms.
func LookupCategory(name string) (*unicode.RangeTable, bool) {
	if key, value, ok := strings.Cut(name, "="); ok {
		switch key {
		case "General_Category", "gc":
			return lookupIn(value, unicode.Categories, generalCategoryAliases)
		case "Script", "sc", "Script_Extensions", "scx":
			t, ok := unicode.Scripts[value]
			return t, ok
		}
		return nil, false
	}
	if t, ok := lookupIn(name, unicode.Categories, generalCategoryAliases); ok {
		return t, true
	}
	if t, ok := unicode.Scripts[name]; ok {
		return t, true
	}
	if name == "Any" {
		return anyTable, true
	}
	if name == "ASCII" {
		return asciiTable, true
	}
	t, ok := unicode.Properties[name]
	return t, ok
}

func lookupIn(name string, tables map[string]*unicode.RangeTable, aliases map[string]string) (*unicode.RangeTable, bool) {
	if t, ok := tables[name]; ok {
		return t, true
	}
	if short, ok := aliases[name]; ok {
		t, ok := tables[short]
		return t, ok
	}
	return nil, false
}

var generalCategoryAliases = map[string]string{
	"Letter":                "L",
	"Cased_Letter":          "LC",
	"Uppercase_Letter":      "Lu",
	"Lowercase_Letter":      "Ll",
	"Titlecase_Letter":      "Lt",
	"Modifier_Letter":       "Lm",
	"Other_Letter":          "Lo",
	"Mark":                  "M",
	"Combining_Mark":        "M",
	"Nonspacing_Mark":       "Mn",
	"Spacing_Mark":          "Mc",
	"Enclosing_Mark":        "Me",
	"Number":                "N",
	"Decimal_Number":        "Nd",
	"digit":                 "Nd",
	"Letter_Number":         "Nl",
	"Other_Number":          "No",
	"Punctuation":           "P",
	"punct":                 "P",
	"Connector_Punctuation": "Pc",
	"Dash_Punctuation":      "Pd",
	"Open_Punctuation":      "Ps",
	"Close_Punctuation":     "Pe",
	"Initial_Punctuation":   "Pi",
	"Final_Punctuation":     "Pf",
	"Other_Punctuation":     "Po",
	"Symbol":                "S",
	"Math_Symbol":           "Sm",
	"Currency_Symbol":       "Sc",
	"Modifier_Symbol":       "Sk",
	"Other_Symbol":          "So",
	"Separator":             "Z",
	"Space_Separator":       "Zs",
	"Line_Separator":        "Zl",
	"Paragraph_Separator":   "Zp",
	"Other":                 "C",
	"Control":               "Cc",
	"cntrl":                 "Cc",
	"Format":                "Cf",
	"Surrogate":             "Cs",
	"Private_Use":           "Co",
}

var anyTable = &unicode.RangeTable{R32: []unicode.Range32{{Lo: 0, Hi: uint32(MaxCodePoint), Stride: 1}}}

var asciiTable = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0, Hi: 0x7F, Stride: 1}}, LatinOffset: 1}

func inCategory(name string, c rune) bool {
	t, ok := LookupCategory(name)
	if !ok {
		return false
	}
	return unicode.Is(t, c)
}

var (
	tableMu    sync.Mutex
	tableCache = map[string]Set{}
)

// categorySet converts a unicode range table to a Set. Conversions are
// pure functions of the name, so they are cached for the process lifetime.
func categorySet(name string) Set {
	tableMu.Lock()
	defer tableMu.Unlock()
	if s, ok := tableCache[name]; ok {
		return s
	}
	t, ok := LookupCategory(name)
	if !ok {
		panic(fmt.Sprintf("charset: unknown category %q", name))
	}
	s := FromTable(t)
	tableCache[name] = s
	return s
}

// FromTable converts a unicode range table into a Set.
func FromTable(t *unicode.RangeTable) Set {
	var ranges []Range
	for _, r := range t.R16 {
		ranges = appendStrided(ranges, rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	for _, r := range t.R32 {
		ranges = appendStrided(ranges, rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	return NewSet(ranges...)
}

func appendStrided(ranges []Range, lo, hi, stride rune) []Range {
	if stride == 1 {
		return append(ranges, Range{Lo: lo, Hi: hi})
	}
	for c := lo; c <= hi; c += stride {
		ranges = append(ranges, Range{Lo: c, Hi: c})
	}
	return ranges
}
