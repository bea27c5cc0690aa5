// README: Templated selection reasons derived from the winner's per-group lead.
package scoring

import "fmt"

const (
	ReasonNoQuotes    = "no quotes available"
	ReasonOnlyOption  = "only option available"
	ReasonCheapest    = "cheapest option"
	ReasonReliable    = "most reliable option"
	ReasonComfortable = "most comfortable option"
	ReasonBestValue   = "best overall value"
)

// explain picks the group where winner leads runnerUp by the widest positive margin.
// Equal margins resolve in groupOrder.
func explain(winner, runnerUp Scored) string {
	w, r := winner.groupPoints(), runnerUp.groupPoints()
	best, lead := Group(""), 0.0
	for _, g := range groupOrder {
		if m := w[g] - r[g]; m > lead {
			best, lead = g, m
		}
	}
	switch best {
	case GroupPrice:
		return ReasonCheapest
	case GroupPickup:
		return fmt.Sprintf("fastest pickup (%d min)", winner.Quote.PickupETAMin)
	case GroupReliability:
		return ReasonReliable
	case GroupComfort:
		return ReasonComfortable
	default:
		return ReasonBestValue
	}
}
