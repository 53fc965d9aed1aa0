package detector

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mfroeh/redoscheck/regex"
)

const maxPathEvents = 50

// paths follows every split of c and renders each path: consumed source text,
// ^ for start, $ for a bounded end, . for an open end and ! for an abort.
func paths(t *testing.T, p *regex.Pattern, c cursor) ([]string, error) {
	t.Helper()
	var out []string
	var walk func(c cursor, prefix string, n int) error
	walk = func(c cursor, prefix string, n int) error {
		if n > maxPathEvents {
			out = append(out, prefix+"…")
			return nil
		}
		ev, next, err := c.next()
		if err != nil {
			return err
		}
		switch ev.kind {
		case eventSplit:
			if err := walk(ev.branch, prefix, n+1); err != nil {
				return err
			}
			return walk(next, prefix, n+1)
		case eventGroups:
			start, end := ev.node.Span()
			text := p.Source[start:end]
			if len(ev.backrefs) > 0 {
				text = "{" + text + "}"
			}
			return walk(next, prefix+text, n+1)
		case eventReference:
			return walk(next, prefix+"&", n+1)
		case eventStart:
			return walk(next, prefix+"^", n+1)
		case eventNull:
			return walk(next, prefix, n+1)
		case eventEnd:
			if ev.bounded {
				out = append(out, prefix+"$")
			} else {
				out = append(out, prefix+".")
			}
		case eventAbort:
			out = append(out, prefix+"!")
		case eventDone:
			out = append(out, prefix)
		}
		return nil
	}
	err := walk(c, "", 0)
	slices.Sort(out)
	return out, err
}

func mustParse(t *testing.T, re string, flags regex.Flags) *regex.Pattern {
	t.Helper()
	p, err := regex.Parse(re, flags)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestStructuralStream(t *testing.T) {
	tests := map[string]struct {
		givenRe    string
		givenFlags regex.Flags
		want       []string
	}{
		"literal":               {givenRe: "ab", want: []string{"ab."}},
		"alternation":           {givenRe: "a|b|c", want: []string{"a.", "b.", "c."}},
		"optional":              {givenRe: "a?b", want: []string{"ab.", "b."}},
		"counted":               {givenRe: "a{2,3}", want: []string{"aa.", "aaa."}},
		"anchors":               {givenRe: "^a$", want: []string{"^a$"}},
		"multiline anchors":     {givenRe: "^a$", givenFlags: regex.Flags{Multiline: true}, want: []string{"a."}},
		"end stops the stream":  {givenRe: "a$b", want: []string{"a$"}},
		"word boundary":         {givenRe: `\ba\b`, want: []string{"a."}},
		"lookahead":             {givenRe: "(?=a)b", want: []string{"a.", "b."}},
		"negative lookbehind":   {givenRe: "(?<!a)b", want: []string{"a.", "b."}},
		"group":                 {givenRe: "(a(?:b|c))", want: []string{"ab.", "ac."}},
		"class":                 {givenRe: "[a-c]x", want: []string{"[a-c]x."}},
		"reference":             {givenRe: `(a)\1`, want: []string{"a&."}},
		"empty iterations stop": {givenRe: "()*", want: []string{".", ".", "."}},
		"empty pattern":         {givenRe: "", want: []string{"."}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// given
			p := mustParse(t, tt.givenRe, tt.givenFlags)

			// when
			got, err := paths(t, p, newStream(newCompiler(p.Flags), p.Root))

			// then
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("diff (-want +got):\n%s", d)
			}
		})
	}
}

func TestStructuralStreamIsPersistent(t *testing.T) {
	p := mustParse(t, "a|b", regex.Flags{})
	root := newStream(newCompiler(p.Flags), p.Root)

	first, _, err := root.next()
	if err != nil {
		t.Fatal(err)
	}
	again, _, err := root.next()
	if err != nil {
		t.Fatal(err)
	}
	if first.kind != eventSplit || again.kind != eventSplit {
		t.Fatalf("expected a split twice, got %v and %v", first.kind, again.kind)
	}

	a, _, _ := first.branch.next()
	b, _, _ := again.branch.next()
	if a.node != b.node {
		t.Errorf("advancing the same cursor twice diverged")
	}
}

func TestQuantifierFrames(t *testing.T) {
	p := mustParse(t, "(?:a{2,})b", regex.Flags{})
	c := newStream(newCompiler(p.Flags), p.Root)

	// follow the path that takes three iterations
	var got []string
	for len(got) < 3 {
		ev, next, err := c.next()
		if err != nil {
			t.Fatal(err)
		}
		switch ev.kind {
		case eventSplit:
			next = ev.branch
		case eventGroups:
			var sb strings.Builder
			for _, f := range ev.stack.quantifiers() {
				sb.WriteString(strings.Repeat("+", f.iteration))
				if f.optional {
					sb.WriteString("?")
				}
			}
			got = append(got, sb.String())
		}
		c = next
	}

	if d := cmp.Diff([]string{"", "+", "++?"}, got); d != "" {
		t.Errorf("diff (-want +got):\n%s", d)
	}
}

func TestResolver(t *testing.T) {
	tests := map[string]struct {
		givenRe string
		want    []string
		wantErr error
	}{
		"replays the capture":           {givenRe: `(a)\1`, want: []string{"a{a}."}},
		"replays the alternative":       {givenRe: `(a|b)\1`, want: []string{"a{a}.", "b{b}."}},
		"replays every character":       {givenRe: `(ab)x\1`, want: []string{"abx{a}{b}."}},
		"unset group is empty":          {givenRe: `(a)?\1b`, want: []string{"a{a}b.", "b."}},
		"reference inside its group":    {givenRe: `(a\1)`, want: []string{"a."}},
		"negative lookahead capture":    {givenRe: `(?!(a))\1b`, want: []string{"a.", "b."}},
		"nested replay":                 {givenRe: `(a)(\1)\2`, want: []string{"a{a}{a}."}},
		"later iteration wins":          {givenRe: `(?:(a)|b){2}\1`, want: []string{"aa{a}.", "ab.", "ba{a}.", "bb."}},
		"empty repeated reference":      {givenRe: `()\1*`, want: []string{"!", ".", "."}},
		"empty capture may match again": {givenRe: `(a?)\1`, want: []string{".", ".", "a{a}.", "{a}."}},
		"lookahead capture":             {givenRe: `(?=(a))\1`, wantErr: ErrUnsupportedPattern},
		"unbounded capture":             {givenRe: `(a+)\1`, wantErr: ErrUnsupportedPattern},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// given
			p := mustParse(t, tt.givenRe, regex.Flags{})
			c := newResolver(newStream(newCompiler(p.Flags), p.Root), regex.NewIndex(p))

			// when
			got, err := paths(t, p, c)

			// then
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				var ue *UnsupportedError
				if !errors.As(err, &ue) || ue.Ref == nil {
					t.Errorf("expected an UnsupportedError naming the reference, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("diff (-want +got):\n%s", d)
			}
		})
	}
}

func TestResolverReplayIsVerbatim(t *testing.T) {
	p := mustParse(t, `([x-z])\1`, regex.Flags{IgnoreCase: true})
	c := newResolver(newStream(newCompiler(p.Flags), p.Root), regex.NewIndex(p))

	var got []event
	for len(got) < 2 {
		ev, next, err := c.next()
		if err != nil {
			t.Fatal(err)
		}
		if ev.kind == eventGroups {
			got = append(got, ev)
		}
		if ev.kind == eventDone || ev.kind == eventEnd {
			break
		}
		c = next
	}
	if len(got) != 2 {
		t.Fatalf("expected two character requirements, got %d", len(got))
	}

	recorded, replayed := got[0], got[1]
	if !recorded.groups.Equal(replayed.groups) {
		t.Errorf("replay changed the requirement: %v != %v", recorded.groups, replayed.groups)
	}
	if recorded.node != replayed.node {
		t.Errorf("replay changed the node")
	}
	if len(recorded.backrefs) != 0 || len(replayed.backrefs) != 1 {
		t.Errorf("unexpected backreference stacks %v and %v", recorded.backrefs, replayed.backrefs)
	}
}
