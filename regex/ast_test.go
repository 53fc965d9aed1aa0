package regex

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMatchesEmptyAndConsumes(t *testing.T) {
	tests := map[string]struct {
		givenRe          string
		wantMatchesEmpty bool
		wantConsumes     bool
	}{
		"char":              {givenRe: "a", wantConsumes: true},
		"optional":          {givenRe: "a?", wantMatchesEmpty: true, wantConsumes: true},
		"star in sequence":  {givenRe: "a*b*", wantMatchesEmpty: true, wantConsumes: true},
		"plus":              {givenRe: "a+", wantConsumes: true},
		"empty alternative": {givenRe: "a|", wantMatchesEmpty: true, wantConsumes: true},
		"empty group":       {givenRe: "()", wantMatchesEmpty: true},
		"anchors":           {givenRe: `^\b$`, wantMatchesEmpty: true},
		"lookahead":         {givenRe: "(?=a)", wantMatchesEmpty: true},
		"never repeated":    {givenRe: "a{0}", wantMatchesEmpty: true},
		"reference":         {givenRe: `(a)\1`, wantConsumes: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// given
			p, err := Parse(tt.givenRe, Flags{})
			if err != nil {
				t.Fatal(err)
			}

			// when
			matchesEmpty, consumes := MatchesEmpty(p.Root), Consumes(p.Root)

			// then
			if d := cmp.Diff(tt.wantMatchesEmpty, matchesEmpty); d != "" {
				t.Errorf("MatchesEmpty diff (-want +got):\n%s", d)
			}
			if d := cmp.Diff(tt.wantConsumes, consumes); d != "" {
				t.Errorf("Consumes diff (-want +got):\n%s", d)
			}
		})
	}
}
