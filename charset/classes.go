package charset

import "unicode"

// folding whole ranges is only done below this size; larger ranges are kept as is.
const maxFoldRange = 0x400

var (
	digitSet = NewSet(Range{'0', '9'})
	wordSet  = NewSet(Range{'a', 'z'}, Range{'A', 'Z'}, Range{'0', '9'}, Range{'_', '_'})
	spaceSet = NewSet(
		Range{'\t', '\r'},
		Range{' ', ' '},
		Range{0xA0, 0xA0},
		Range{0x1680, 0x1680},
		Range{0x2000, 0x200A},
		Range{0x2028, 0x2029},
		Range{0x202F, 0x202F},
		Range{0x205F, 0x205F},
		Range{0x3000, 0x3000},
		Range{0xFEFF, 0xFEFF},
	)
	lineTerminators = NewSet(Range{'\n', '\n'}, Range{'\r', '\r'}, Range{0x2028, 0x2029})
)

// Literal is the requirement matching exactly c, or every case variant of c when ignoreCase is set.
func Literal(c rune, ignoreCase bool) Groups {
	if !ignoreCase {
		return FromRanges(Range{c, c})
	}
	return Groups{Ranges: Fold(NewSet(Range{c, c}))}
}

func Digit(negated bool) Groups {
	return Groups{Negated: negated, Ranges: digitSet}
}

func Word(negated bool) Groups {
	return Groups{Negated: negated, Ranges: wordSet}
}

func Space(negated bool) Groups {
	return Groups{Negated: negated, Ranges: spaceSet}
}

// Any is the requirement of a wildcard; without dotAll it rejects line terminators.
func Any(dotAll bool) Groups {
	if dotAll {
		return All
	}
	return Groups{Negated: true, Ranges: lineTerminators}
}

// Fold adds every simple case variant of the members of s.
func Fold(s Set) Set {
	var extra []Range
	for _, r := range s {
		if r.Hi-r.Lo > maxFoldRange {
			continue
		}
		for c := r.Lo; c <= r.Hi; c++ {
			for f := unicode.SimpleFold(c); f != c; f = unicode.SimpleFold(f) {
				extra = append(extra, Range{f, f})
			}
		}
	}
	if len(extra) == 0 {
		return s
	}
	return s.Union(NewSet(extra...))
}
