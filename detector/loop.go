package detector

import "slices"

type sidePair struct {
	left, right string
}

// loopTracker is the history of side pairs a path went through. Adding never changes the receiver.
type loopTracker struct {
	pairs []sidePair
}

func (t loopTracker) add(p sidePair) loopTracker {
	return loopTracker{pairs: append(slices.Clip(t.pairs), p)}
}

// isLooping reports whether the history ends in some block repeated twice in a row.
func (t loopTracker) isLooping() bool {
	n := len(t.pairs)
	for size := 1; size*2 <= n; size++ {
		if slices.Equal(t.pairs[n-size:], t.pairs[n-2*size:n-size]) {
			return true
		}
	}
	return false
}
