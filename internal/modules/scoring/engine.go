// README: Scoring engine ranks a quote batch with an ordered rule list and picks a winner.
package scoring

import (
	"sort"

	"ridebroker/internal/modules/quote"
)

type RuleScore struct {
	Rule   string  `json:"rule"`
	Group  Group   `json:"group"`
	Points float64 `json:"points"`
}

type Scored struct {
	Quote     quote.Quote `json:"quote"`
	Score     float64     `json:"score"`
	Breakdown []RuleScore `json:"breakdown"`
}

// groupPoints sums the breakdown per reason group.
func (s Scored) groupPoints() map[Group]float64 {
	out := make(map[Group]float64, len(groupOrder))
	for _, r := range s.Breakdown {
		out[r.Group] += r.Points
	}
	return out
}

type Selection struct {
	Selected *quote.Quote `json:"selected,omitempty"`
	Reason   string       `json:"reason"`
	// Ranked is every quote by descending score, ties in input order.
	Ranked []Scored `json:"ranked"`
}

type Engine struct {
	rules []Rule
}

// NewEngine builds an engine from rules; no rules means DefaultRules.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

func (e *Engine) Score(q quote.Quote, in Input) Scored {
	s := Scored{Quote: q, Score: BaseScore, Breakdown: make([]RuleScore, 0, len(e.rules))}
	for _, r := range e.rules {
		d := r.Apply(q, in)
		s.Score += d.Points
		s.Breakdown = append(s.Breakdown, RuleScore{Rule: r.Name, Group: d.Group, Points: d.Points})
	}
	return s
}

// Rank scores every quote against the batch and sorts by descending score.
func (e *Engine) Rank(quotes []quote.Quote, c Constraints) []Scored {
	in := Input{Constraints: c, MinMid: minMid(quotes)}
	ranked := make([]Scored, 0, len(quotes))
	for _, q := range quotes {
		ranked = append(ranked, e.Score(q, in))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Select ranks quotes and explains the winner. The result depends only on its inputs.
func (e *Engine) Select(quotes []quote.Quote, c Constraints) Selection {
	ranked := e.Rank(quotes, c)
	switch len(ranked) {
	case 0:
		return Selection{Reason: ReasonNoQuotes, Ranked: ranked}
	case 1:
		q := ranked[0].Quote
		return Selection{Selected: &q, Reason: ReasonOnlyOption, Ranked: ranked}
	}
	q := ranked[0].Quote
	return Selection{Selected: &q, Reason: explain(ranked[0], ranked[1]), Ranked: ranked}
}

func minMid(quotes []quote.Quote) int64 {
	var low int64
	for i, q := range quotes {
		if m := q.Price.Mid(); i == 0 || m < low {
			low = m
		}
	}
	return low
}
