package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/mfroeh/redoscheck/detector"
)

// maxTextTrails is how many trails WriteText shows per pattern.
const maxTextTrails = 5

type palette struct {
	safe, unsafe, failed *color.Color
	left, right, both    *color.Color
	dim                  *color.Color
}

func newPalette(colored bool) palette {
	p := palette{
		safe:   color.New(color.FgGreen, color.Bold),
		unsafe: color.New(color.FgRed, color.Bold),
		failed: color.New(color.FgYellow, color.Bold),
		left:   color.New(color.FgRed),
		right:  color.New(color.FgCyan),
		both:   color.New(color.FgMagenta),
		dim:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.safe, p.unsafe, p.failed, p.left, p.right, p.both, p.dim} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// WriteText writes a human readable verdict for r. Each trail shows the pattern with the left
// derivation and the right derivation highlighted in different colors.
func WriteText(w io.Writer, r *Report, colored bool) error {
	p := newPalette(colored)
	var sb strings.Builder

	fmt.Fprintf(&sb, "/%s/%s: ", r.Pattern, r.Flags)
	switch {
	case r.Err != nil:
		p.failed.Fprint(&sb, "error")
		fmt.Fprintf(&sb, ": %v\n", r.Err)
		_, err := io.WriteString(w, sb.String())
		return err
	case r.Safe:
		p.safe.Fprint(&sb, "safe")
	default:
		p.unsafe.Fprint(&sb, "unsafe")
	}
	fmt.Fprintf(&sb, " (score %s, %s after %d steps)\n", r.Score, r.Status, r.Steps)

	if r.Downgraded {
		p.dim.Fprintf(&sb, "  checked as /%s/\n", r.Checked)
	}
	for i, t := range r.Trails {
		if i == maxTextTrails {
			p.dim.Fprintf(&sb, "  ... %d more trails\n", len(r.Trails)-maxTextTrails)
			break
		}
		fmt.Fprintf(&sb, "  trail %d:\n", i+1)
		for _, e := range t {
			fmt.Fprintf(&sb, "    %-12s %s\n", e.Intersection, p.highlight(r.Checked, e))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// highlight colors the nodes of both sides of e within src.
func (p palette) highlight(src string, e detector.TrailEntry) string {
	marks := make([]byte, len(src))
	mark := func(s *detector.Side, bit byte) {
		start, end := s.Node.Span()
		for i := max(start, 0); i < min(end, len(src)); i++ {
			marks[i] |= bit
		}
	}
	mark(e.Left, 1)
	mark(e.Right, 2)

	var sb strings.Builder
	for i := 0; i < len(src); {
		j := i
		for j < len(src) && marks[j] == marks[i] {
			j++
		}
		switch marks[i] {
		case 0:
			sb.WriteString(src[i:j])
		case 1:
			p.left.Fprint(&sb, src[i:j])
		case 2:
			p.right.Fprint(&sb, src[i:j])
		default:
			p.both.Fprint(&sb, src[i:j])
		}
		i = j
	}
	return sb.String()
}
