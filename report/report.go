package report

import (
	"strconv"
	"strings"

	"github.com/mfroeh/redoscheck/detector"
	"github.com/mfroeh/redoscheck/regex"
)

// maxSeeds bounds how many trails start a family search.
const maxSeeds = 64

type Settings struct {
	MaxBacktracks int
}

// Score approximates how often a matcher backtracks on the worst input.
type Score struct {
	Infinite bool `json:"infinite"`
	Value    int  `json:"value"`
}

func (s Score) String() string {
	if s.Infinite {
		return "infinite"
	}
	return strconv.Itoa(s.Value)
}

// Report is the verdict for one pattern.
type Report struct {
	// Pattern is the source as given.
	Pattern string
	Flags   regex.Flags
	// Checked is the source the detector ran on, which differs from Pattern after a downgrade.
	Checked    string
	Downgraded bool

	Status detector.Status
	Steps  int
	Score  Score
	Safe   bool
	Trails []detector.Trail
	Err    error
}

// Aggregate deduplicates the trails of res and scores them.
func Aggregate(original string, checked *regex.Pattern, res *detector.Result, s Settings) *Report {
	r := &Report{
		Pattern:    original,
		Flags:      checked.Flags,
		Checked:    checked.Source,
		Downgraded: original != checked.Source,
		Status:     res.Status,
		Steps:      res.Steps,
		Trails:     dedup(res.Trails),
	}
	if res.Status == detector.StatusInfiniteLoop {
		r.Score = Score{Infinite: true}
	} else {
		r.Score = Score{Value: largestFamily(r.Trails)}
	}
	r.Safe = res.Status == detector.StatusOK && r.Score.Value <= s.MaxBacktracks
	return r
}

// Failed reports a pattern that could not be checked.
func Failed(original string, flags regex.Flags, err error) *Report {
	return &Report{Pattern: original, Flags: flags, Checked: original, Err: err}
}

func dedup(trails []detector.Trail) []detector.Trail {
	seen := map[string]bool{}
	var out []detector.Trail
	for _, t := range trails {
		k := trailKey(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

func trailKey(t detector.Trail) string {
	var sb strings.Builder
	for _, e := range t {
		sb.WriteString(e.Left.String())
		sb.WriteByte('/')
		sb.WriteString(e.Right.String())
		sb.WriteByte(';')
	}
	return sb.String()
}

// compatible reports whether one input can drive both trails: every shared position must overlap.
func compatible(a, b detector.Trail) bool {
	for i := range min(len(a), len(b)) {
		if a[i].Intersection.Intersect(b[i].Intersection).IsEmpty() {
			return false
		}
	}
	return true
}

// largestFamily greedily grows a family of pairwise compatible trails from each of the first seeds
// and returns the size of the largest.
func largestFamily(trails []detector.Trail) int {
	n := len(trails)
	if n == 0 {
		return 0
	}

	memo := make(map[[2]int]bool)
	ok := func(i, j int) bool {
		if i > j {
			i, j = j, i
		}
		k := [2]int{i, j}
		v, found := memo[k]
		if !found {
			v = compatible(trails[i], trails[j])
			memo[k] = v
		}
		return v
	}

	best := 0
	for seed := range min(n, maxSeeds) {
		family := []int{seed}
		for j := range n {
			if j == seed {
				continue
			}
			fits := true
			for _, m := range family {
				if !ok(m, j) {
					fits = false
					break
				}
			}
			if fits {
				family = append(family, j)
			}
		}
		best = max(best, len(family))
		if best == n {
			break
		}
	}
	return best
}
