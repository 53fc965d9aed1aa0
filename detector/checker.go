package detector

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mfroeh/redoscheck/charset"
	"github.com/mfroeh/redoscheck/regex"
)

const (
	DefaultMaxSteps = 20000
	DefaultTimeout  = 10 * time.Second
	DefaultMaxStack = 1000
)

// Status is how a check ended.
type Status int

const (
	StatusOK Status = iota
	StatusHitMaxSteps
	StatusStackOverflow
	StatusTimedOut
	StatusInfiniteLoop
)

var statusNames = [...]string{"ok", "hitMaxSteps", "stackOverflow", "timedOut", "infiniteLoop"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Options bound a check. Zero values select the defaults.
type Options struct {
	MaxSteps int
	Timeout  time.Duration
	MaxStack int
	// AtomicOffsets are source offsets of groups that never give characters back.
	AtomicOffsets []int
	Logger        *slog.Logger
}

// Result holds the trails found so far and why the search stopped.
// Trails are partial unless Status is StatusOK.
type Result struct {
	Trails []Trail
	Status Status
	Steps  int
}

// Check searches p for input that two different derivations of the pattern can both consume.
func Check(ctx context.Context, p *regex.Pattern, opts Options) (*Result, error) {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxStack <= 0 {
		opts.MaxStack = DefaultMaxStack
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	idx := regex.NewIndex(p)
	atomic := map[*regex.Group]bool{}
	for _, off := range opts.AtomicOffsets {
		g, ok := idx.GroupAt(off)
		if !ok {
			logger.Debug("no group at atomic offset", "pattern", p.Source, "offset", off)
			continue
		}
		atomic[g] = true
	}

	root := annotated{inner: newResolver(newStream(newCompiler(p.Flags), p.Root), idx)}
	c := &checker{
		opts:    opts,
		atomic:  atomic,
		eq:      newEquality(),
		emitted: map[int][]Trail{},
	}

	status, err := c.run(ctx, root)
	if err != nil {
		logger.Debug("check failed", "pattern", p.Source, "steps", c.steps, "err", err)
		return nil, err
	}
	if status != StatusOK {
		logger.Debug("check stopped early", "pattern", p.Source, "status", status, "steps", c.steps)
	}
	logger.Debug("check finished", "pattern", p.Source, "status", status, "steps", c.steps, "trails", len(c.trails))

	return &Result{Trails: c.trails, Status: status, Steps: c.steps}, nil
}

type checker struct {
	opts   Options
	atomic map[*regex.Group]bool
	eq     *equality

	steps   int
	trails  []Trail
	emitted map[int][]Trail
}

// side is the progress of one derivation within a work frame.
type side struct {
	cur    cursor
	starts int
	seen   atomics

	// fetched memoizes the next event so a frame never advances a cursor twice.
	fetched bool
	ev      event
	rest    cursor
}

// work is a frame of the explicit search stack.
type work struct {
	left, right side
	trail       Trail
	loops       loopTracker
	// equal is set while every entry of trail has equal sides.
	equal bool
}

func (c *checker) run(ctx context.Context, root cursor) (Status, error) {
	stack := []work{{left: side{cur: root}, right: side{cur: root}, equal: true}}

	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if c.steps >= c.opts.MaxSteps {
			return StatusHitMaxSteps, nil
		}
		if ctx.Err() != nil {
			return StatusTimedOut, nil
		}
		if len(stack)+len(w.trail) > c.opts.MaxStack {
			return StatusStackOverflow, nil
		}
		c.steps++

		if err := w.left.fetch(); err != nil {
			return 0, err
		}
		if w.left.ev.kind == eventSplit {
			stack = append(stack, w.fork(true)...)
			continue
		}
		if err := w.right.fetch(); err != nil {
			return 0, err
		}
		if w.right.ev.kind == eventSplit {
			stack = append(stack, w.fork(false)...)
			continue
		}

		next, status, ok := c.step(w)
		if status != StatusOK {
			return status, nil
		}
		if ok {
			stack = append(stack, next)
		}
	}
	return StatusOK, nil
}

// fetch reads the next event that needs comparing, counting start anchors on the way.
func (s *side) fetch() error {
	if s.fetched {
		return nil
	}
	cur := s.cur
	for {
		ev, next, err := cur.next()
		if err != nil {
			return err
		}
		switch ev.kind {
		case eventNull:
			cur = next
			continue
		case eventStart:
			s.starts++
			cur = next
			continue
		}
		s.cur = cur
		s.ev = ev
		s.rest = next
		s.fetched = true
		return nil
	}
}

// fork replaces the split fetched by one side with its two continuations, the branch explored last.
func (w work) fork(left bool) []work {
	s := w.right
	if left {
		s = w.left
	}
	main, branch := w, w
	stop := side{cur: s.rest, starts: s.starts, seen: s.seen}
	enter := side{cur: s.ev.branch, starts: s.starts, seen: s.seen}
	if left {
		main.left, branch.left = stop, enter
	} else {
		main.right, branch.right = stop, enter
	}
	return []work{branch, main}
}

// step compares the two fetched events. It returns the frame continuing past them, if any.
func (c *checker) step(w work) (work, Status, bool) {
	l, r := w.left.ev, w.right.ev
	if l.terminal() || r.terminal() {
		return work{}, StatusOK, false
	}
	if l.kind != eventGroups || r.kind != eventGroups {
		panic(fmt.Sprintf("detector: comparing %v with %v", l.kind, r.kind))
	}

	if w.left.starts != w.right.starts {
		return work{}, StatusOK, false
	}
	if !slices.Equal(l.stack.lookarounds(), r.stack.lookarounds()) {
		return work{}, StatusOK, false
	}

	ls, rs := newSide(l), newSide(r)
	lopt, ropt := optionalQuantifiers(ls), optionalQuantifiers(rs)
	if w.equal && overlaps(lopt, ropt) {
		return work{}, StatusOK, false
	}

	equal := w.equal && c.eq.equal(ls, rs)
	if !equal {
		// both derivations could stop matching here, so nothing before this point is ever retried
		if l.unbounded.get() && r.unbounded.get() {
			return work{}, StatusOK, false
		}
		// consecutive loops sharing a run only move the point where one hands over to the other
		if w.equal && consecutiveLoops(ls, rs) {
			return work{}, StatusOK, false
		}
	}

	loops := w.loops
	if len(lopt) == 0 && len(ropt) == 0 {
		loops = loopTracker{}
	}
	pair := sidePair{left: ls.key(), right: rs.key()}
	loops = loops.add(pair)
	if loops.isLooping() {
		// sides that only differ in how often an optional iteration ran are not two derivations
		if ls.Node == rs.Node && pair.left != pair.right {
			return work{}, StatusInfiniteLoop, false
		}
		return work{}, StatusOK, false
	}

	shared := l.groups.Intersect(r.groups)
	if shared.IsEmpty() {
		return work{}, StatusOK, false
	}

	lstates, lseen := w.left.seen.observe(c.atomic, l.stack)
	rstates, rseen := w.right.seen.observe(c.atomic, r.stack)
	if _, ok := syncAtomics(lstates, rstates); !ok {
		return work{}, StatusOK, false
	}

	trail := append(slices.Clip(w.trail), TrailEntry{Intersection: shared, Left: ls, Right: rs})
	if !equal && !c.duplicate(trail) {
		c.emit(trail)
	}

	return work{
		left:  side{cur: w.left.rest, starts: w.left.starts, seen: lseen},
		right: side{cur: w.right.rest, starts: w.right.starts, seen: rseen},
		trail: trail,
		loops: loops,
		equal: equal,
	}, StatusOK, true
}

func (c *checker) emit(t Trail) {
	c.trails = append(c.trails, t)
	c.emitted[len(t)] = append(c.emitted[len(t)], t)
}

// duplicate reports whether t was already emitted with left and right swapped.
func (c *checker) duplicate(t Trail) bool {
	for _, other := range c.emitted[len(t)] {
		swapped := true
		for i := range t {
			if !c.eq.equal(t[i].Left, other[i].Right) || !c.eq.equal(t[i].Right, other[i].Left) {
				swapped = false
				break
			}
		}
		if swapped {
			return true
		}
	}
	return false
}

func optionalQuantifiers(s *Side) []*regex.Quantifier {
	var out []*regex.Quantifier
	for _, q := range s.Quantifiers {
		if q.Optional {
			out = append(out, q.Quantifier)
		}
	}
	return out
}

// consecutiveLoops reports whether both sides repeat inside unbounded quantifiers and no such
// quantifier encloses both.
func consecutiveLoops(a, b *Side) bool {
	la, lb := unboundedQuantifiers(a), unboundedQuantifiers(b)
	return len(la) > 0 && len(lb) > 0 && !overlaps(la, lb)
}

func unboundedQuantifiers(s *Side) []*regex.Quantifier {
	var out []*regex.Quantifier
	for _, q := range s.Quantifiers {
		if q.Quantifier.IsUnbounded() {
			out = append(out, q.Quantifier)
		}
	}
	return out
}

func overlaps(a, b []*regex.Quantifier) bool {
	for _, q := range a {
		if slices.Contains(b, q) {
			return true
		}
	}
	return false
}

// Intersections returns the character requirement of every entry of t.
func (t Trail) Intersections() []charset.Groups {
	out := make([]charset.Groups, len(t))
	for i, e := range t {
		out[i] = e.Intersection
	}
	return out
}
