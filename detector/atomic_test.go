package detector

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mfroeh/redoscheck/regex"
)

func TestSyncAtomicsSameGroupsStayInSync(t *testing.T) {
	groups := []*regex.Group{{}, {}, {}, {}}
	atomic := map[*regex.Group]bool{}
	for _, g := range groups {
		atomic[g] = true
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for round := range 200 {
		var left, right atomics
		for step := range 20 {
			// the same random set of open groups on both sides
			var s *stack
			for _, g := range groups {
				if rng.IntN(2) == 0 {
					s = s.push(frame{kind: frameGroup, group: g})
				}
			}
			var ls, rs map[*regex.Group]presence
			ls, left = left.observe(atomic, s)
			rs, right = right.observe(atomic, s)
			if _, ok := syncAtomics(ls, rs); !ok {
				t.Fatalf("round %d step %d: identical sides went out of sync", round, step)
			}
		}
	}
}

func TestSyncAtomics(t *testing.T) {
	g, h := &regex.Group{}, &regex.Group{}
	tests := map[string]struct {
		givenLeft, givenRight map[*regex.Group]presence
		wantOK                bool
	}{
		"both inside":          {givenLeft: map[*regex.Group]presence{g: present}, givenRight: map[*regex.Group]presence{g: present}, wantOK: true},
		"both left":            {givenLeft: map[*regex.Group]presence{g: wasPresent}, givenRight: map[*regex.Group]presence{g: wasPresent}, wantOK: true},
		"left exited":          {givenLeft: map[*regex.Group]presence{g: wasPresent}, givenRight: map[*regex.Group]presence{g: present}},
		"right exited":         {givenLeft: map[*regex.Group]presence{g: present}, givenRight: map[*regex.Group]presence{g: wasPresent}},
		"one side not entered": {givenLeft: map[*regex.Group]presence{g: present}, givenRight: map[*regex.Group]presence{}, wantOK: true},
		"other group exited":   {givenLeft: map[*regex.Group]presence{g: present, h: wasPresent}, givenRight: map[*regex.Group]presence{g: present, h: present}},
		"nothing atomic":       {wantOK: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, got := syncAtomics(tt.givenLeft, tt.givenRight)
			if d := cmp.Diff(tt.wantOK, got); d != "" {
				t.Errorf("diff (-want +got):\n%s", d)
			}
		})
	}
}

func TestAtomicsObserve(t *testing.T) {
	g := &regex.Group{}
	atomic := map[*regex.Group]bool{g: true}
	inside := (*stack)(nil).push(frame{kind: frameGroup, group: g})

	var seen atomics
	states, after := seen.observe(atomic, inside)
	if len(states) != 1 || states[g] != present {
		t.Errorf("inside: got %v, want the group present", states)
	}
	if len(seen) != 0 {
		t.Errorf("observing changed the previous history")
	}

	states, _ = after.observe(atomic, nil)
	if len(states) != 1 || states[g] != wasPresent {
		t.Errorf("after: got %v, want the group left", states)
	}
}
