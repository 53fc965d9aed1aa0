package detector

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mfroeh/redoscheck/regex"
)

func TestUnbounded(t *testing.T) {
	tests := map[string]struct {
		givenRe    string
		givenFlags regex.Flags
		// keyed by the source offset of the consuming node
		want map[int]bool
	}{
		"last character":       {givenRe: "ab", want: map[int]bool{0: false, 1: true}},
		"end anchor":           {givenRe: "a$", want: map[int]bool{0: false}},
		"multiline end":        {givenRe: "a$", givenFlags: regex.Flags{Multiline: true}, want: map[int]bool{0: true}},
		"optional suffix":      {givenRe: "a+b?", want: map[int]bool{0: true, 2: true}},
		"anchored optionals":   {givenRe: "a*b?a*$", want: map[int]bool{0: false, 2: false, 4: false}},
		"nested stars":         {givenRe: "(a*)*", want: map[int]bool{1: true}},
		"lookahead is skipped": {givenRe: "a(?=b)", want: map[int]bool{0: true, 4: true}},
		"alternatives":         {givenRe: "a|bc", want: map[int]bool{0: true, 2: false, 3: true}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// given
			p := mustParse(t, tt.givenRe, tt.givenFlags)
			root := annotated{inner: newResolver(newStream(newCompiler(p.Flags), p.Root), regex.NewIndex(p))}

			// when
			got := map[int]bool{}
			var walk func(c cursor, n int)
			walk = func(c cursor, n int) {
				if n > maxPathEvents {
					return
				}
				ev, next, err := c.next()
				if err != nil {
					t.Fatal(err)
				}
				switch ev.kind {
				case eventSplit:
					walk(ev.branch, n+1)
					walk(next, n+1)
				case eventGroups:
					start, _ := ev.node.Span()
					if prev, seen := got[start]; seen && prev != ev.unbounded.get() {
						t.Errorf("offset %d is both bounded and unbounded", start)
					}
					got[start] = ev.unbounded.get()
					walk(next, n+1)
				case eventNull, eventStart, eventReference:
					walk(next, n+1)
				}
			}
			walk(root, 0)

			// then
			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("diff (-want +got):\n%s", d)
			}
		})
	}
}
