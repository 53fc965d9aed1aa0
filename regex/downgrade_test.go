package regex

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDowngrade(t *testing.T) {
	tests := map[string]struct {
		givenRe     string
		wantSource  string
		wantChanged bool
		wantAtomic  []int
	}{
		"atomic idiom": {
			givenRe:     `(?=(a+))\1b`,
			wantSource:  `(?:a+)b`,
			wantChanged: true,
			wantAtomic:  []int{0},
		},
		"atomic idiom after prefix": {
			givenRe:     `x(?=(a+))\1`,
			wantSource:  `x(?:a+)`,
			wantChanged: true,
			wantAtomic:  []int{1},
		},
		"atomic idiom renumbers later groups": {
			givenRe:     `(?=(a))\1(b)\2`,
			wantSource:  `(?:a)(b)\1`,
			wantChanged: true,
			wantAtomic:  []int{0},
		},
		"reference into lookahead": {
			givenRe:     `a(?=(b))c\1`,
			wantSource:  `a(?=(b))c(?:b)`,
			wantChanged: true,
		},
		"reference to unbounded group": {
			givenRe:     `(a+)x\1`,
			wantSource:  `(a+)x(?:a+)`,
			wantChanged: true,
		},
		"named reference to unbounded group": {
			givenRe:     `(?<x>a*)\k<x>`,
			wantSource:  `(?<x>a*)(?:a*)`,
			wantChanged: true,
		},
		"copy drops self reference": {
			givenRe:     `(a+\1)b\1`,
			wantSource:  `(a+\1)b(?:a+(?:))`,
			wantChanged: true,
		},
		"bounded group": {
			givenRe:    `(a)\1`,
			wantSource: `(a)\1`,
		},
		"negative lookahead": {
			givenRe:    `(?!(a))\1b`,
			wantSource: `(?!(a))\1b`,
		},
		"reference inside its own group": {
			givenRe:    `(a\1)+`,
			wantSource: `(a\1)+`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// given
			p, err := Parse(tt.givenRe, Flags{})
			if err != nil {
				t.Fatal(err)
			}

			// when
			got, err := Downgrade(p)

			// then
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d := cmp.Diff(tt.wantSource, got.Pattern.Source); d != "" {
				t.Errorf("source diff (-want +got):\n%s", d)
			}
			if d := cmp.Diff(tt.wantChanged, got.Changed); d != "" {
				t.Errorf("changed diff (-want +got):\n%s", d)
			}
			if d := cmp.Diff(tt.wantAtomic, got.AtomicOffsets); d != "" {
				t.Errorf("atomic offsets diff (-want +got):\n%s", d)
			}

			idx := NewIndex(got.Pattern)
			for _, off := range got.AtomicOffsets {
				g, ok := idx.GroupAt(off)
				if !ok || g.Kind != GroupNonCapture {
					t.Errorf("expected a non-capturing group at offset %d of %q", off, got.Pattern.Source)
				}
			}
		})
	}
}

func TestDowngradeKeepsFlags(t *testing.T) {
	p, err := Parse(`(\p{L}+)\1`, Flags{Unicode: true, IgnoreCase: true})
	if err != nil {
		t.Fatal(err)
	}

	got, err := Downgrade(p)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(p.Flags, got.Pattern.Flags); d != "" {
		t.Errorf("flags diff (-want +got):\n%s", d)
	}
	if d := cmp.Diff(`(\p{L}+)(?:\p{L}+)`, got.Pattern.Source); d != "" {
		t.Errorf("source diff (-want +got):\n%s", d)
	}
}
