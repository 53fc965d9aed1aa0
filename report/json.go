package report

import (
	"encoding/json"
	"io"

	"github.com/mfroeh/redoscheck/detector"
	"github.com/mfroeh/redoscheck/regex"
)

type jsonReport struct {
	Pattern    string          `json:"pattern"`
	Flags      regex.Flags     `json:"flags"`
	Checked    string          `json:"checked,omitempty"`
	Safe       bool            `json:"safe"`
	Score      *Score          `json:"score,omitempty"`
	Status     detector.Status `json:"status"`
	Steps      int             `json:"steps"`
	Trails     [][]jsonEntry   `json:"trails,omitempty"`
	Error      string          `json:"error,omitempty"`
	Downgraded bool            `json:"downgraded,omitempty"`
}

type jsonEntry struct {
	Intersection string   `json:"intersection"`
	Left         jsonSide `json:"left"`
	Right        jsonSide `json:"right"`
}

type jsonSide struct {
	Span           [2]int          `json:"span"`
	Quantifiers    []jsonIteration `json:"quantifiers,omitempty"`
	Backreferences []int           `json:"backreferences,omitempty"`
}

type jsonIteration struct {
	Offset    int  `json:"offset"`
	Iteration int  `json:"iteration"`
	Optional  bool `json:"optional,omitempty"`
}

func (r *Report) MarshalJSON() ([]byte, error) {
	out := jsonReport{
		Pattern:    r.Pattern,
		Flags:      r.Flags,
		Safe:       r.Safe,
		Status:     r.Status,
		Steps:      r.Steps,
		Downgraded: r.Downgraded,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
		return json.Marshal(out)
	}
	if r.Downgraded {
		out.Checked = r.Checked
	}
	out.Score = &r.Score
	for _, t := range r.Trails {
		entries := make([]jsonEntry, len(t))
		for i, e := range t {
			entries[i] = jsonEntry{
				Intersection: e.Intersection.String(),
				Left:         newJSONSide(e.Left),
				Right:        newJSONSide(e.Right),
			}
		}
		out.Trails = append(out.Trails, entries)
	}
	return json.Marshal(out)
}

func newJSONSide(s *detector.Side) jsonSide {
	start, end := s.Node.Span()
	out := jsonSide{Span: [2]int{start, end}}
	for _, q := range s.Quantifiers {
		off, _ := q.Quantifier.Span()
		out.Quantifiers = append(out.Quantifiers, jsonIteration{Offset: off, Iteration: q.Iteration, Optional: q.Optional})
	}
	for _, ref := range s.Backreferences {
		off, _ := ref.Span()
		out.Backreferences = append(out.Backreferences, off)
	}
	return out
}

// WriteJSON writes reports as an indented JSON array.
func WriteJSON(w io.Writer, reports []*Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
