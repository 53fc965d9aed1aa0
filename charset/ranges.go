package charset

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// MaxCodePoint is the upper bound of the code point universe.
const MaxCodePoint = unicode.MaxRune

// Range is a closed interval of code points.
type Range struct {
	Lo rune
	Hi rune
}

func (r Range) Contains(c rune) bool {
	return c >= r.Lo && c <= r.Hi
}

// Intersect returns the shared part of r and o, false if they don't overlap.
func (r Range) Intersect(o Range) (Range, bool) {
	lo := max(r.Lo, o.Lo)
	hi := min(r.Hi, o.Hi)
	if lo > hi {
		return Range{}, false
	}
	return Range{Lo: lo, Hi: hi}, true
}

// Subtract returns what is left of r once o is removed: zero, one or two ranges.
func (r Range) Subtract(o Range) []Range {
	shared, ok := r.Intersect(o)
	if !ok {
		return []Range{r}
	}
	var out []Range
	if r.Lo < shared.Lo {
		out = append(out, Range{Lo: r.Lo, Hi: shared.Lo - 1})
	}
	if shared.Hi < r.Hi {
		out = append(out, Range{Lo: shared.Hi + 1, Hi: r.Hi})
	}
	return out
}

func (r Range) String() string {
	if r.Lo == r.Hi {
		return describe(r.Lo)
	}
	if r.Lo+1 == r.Hi {
		return describe(r.Lo) + describe(r.Hi)
	}
	return describe(r.Lo) + "-" + describe(r.Hi)
}

// Set is a sorted list of non-overlapping, non-adjacent ranges.
// The zero value is the empty set.
type Set []Range

// NewSet normalizes ranges into a Set.
func NewSet(ranges ...Range) Set {
	if len(ranges) == 0 {
		return nil
	}
	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b Range) int {
		if a.Lo != b.Lo {
			return int(a.Lo - b.Lo)
		}
		return int(a.Hi - b.Hi)
	})

	out := make(Set, 0, len(sorted))
	for _, r := range sorted {
		if r.Lo > r.Hi {
			continue
		}
		if len(out) == 0 {
			out = append(out, r)
			continue
		}
		last := &out[len(out)-1]
		if r.Lo <= last.Hi+1 {
			last.Hi = max(last.Hi, r.Hi)
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (s Set) IsEmpty() bool {
	return len(s) == 0
}

func (s Set) Contains(c rune) bool {
	lo, hi := 0, len(s)
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		r := s[m]
		if r.Contains(c) {
			return true
		}
		if c < r.Lo {
			hi = m
		} else {
			lo = m + 1
		}
	}
	return false
}

func (s Set) Union(o Set) Set {
	if len(o) == 0 {
		return s
	}
	if len(s) == 0 {
		return o
	}
	return NewSet(append(slices.Clone(s), o...)...)
}

func (s Set) Intersect(o Set) Set {
	var out Set
	i, j := 0, 0
	for i < len(s) && j < len(o) {
		if shared, ok := s[i].Intersect(o[j]); ok {
			out = append(out, shared)
		}
		if s[i].Hi < o[j].Hi {
			i++
		} else {
			j++
		}
	}
	return out
}

// Subtract returns the code points of s that are not in o.
func (s Set) Subtract(o Set) Set {
	var out Set
	j := 0
	for _, r := range s {
		for j < len(o) && o[j].Hi < r.Lo {
			j++
		}
		k := j
		for k < len(o) && o[k].Lo <= r.Hi {
			if o[k].Lo > r.Lo {
				out = append(out, Range{Lo: r.Lo, Hi: o[k].Lo - 1})
			}
			if o[k].Hi >= r.Hi {
				r.Lo = r.Hi + 1
				break
			}
			r.Lo = o[k].Hi + 1
			k++
		}
		if r.Lo <= r.Hi {
			out = append(out, r)
		}
	}
	return out
}

// Complement returns every code point of the universe not in s.
func (s Set) Complement() Set {
	return Set{{Lo: 0, Hi: MaxCodePoint}}.Subtract(s)
}

// IsUniverse reports whether s holds every code point.
func (s Set) IsUniverse() bool {
	return len(s) == 1 && s[0].Lo == 0 && s[0].Hi == MaxCodePoint
}

func (s Set) Equal(o Set) bool {
	return slices.Equal(s, o)
}

func (s Set) String() string {
	var sb strings.Builder
	for _, r := range s {
		sb.WriteString(r.String())
	}
	return sb.String()
}

func describe(c rune) string {
	switch c {
	case '\\', ']', '[', '-', '^':
		return `\` + string(c)
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	}
	if c > ' ' && c <= '~' {
		return string(c)
	}
	if c <= 0xFFFF {
		return fmt.Sprintf(`\u%04X`, c)
	}
	return fmt.Sprintf(`\u{%X}`, c)
}
