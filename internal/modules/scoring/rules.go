// README: Scoring rules. Each rule is a pure function of one quote and the batch input.
package scoring

import (
	"math"

	"ridebroker/internal/modules/quote"
)

const (
	BaseScore = 100.0

	maxPricePenalty    = 30.0
	pricePenaltySlope  = 60.0
	constraintPenalty  = 50.0
	pickupBonusCeiling = 15.0
	levelBonus         = 10.0
	confidenceBonus    = 5.0
	occasionBonus      = 15.0
	reliabilityBonus   = 10.0
	comfortBonus       = 15.0
)

// Group is the reason bucket a rule's points are credited to.
type Group string

const (
	GroupPrice       Group = "price"
	GroupPickup      Group = "pickup"
	GroupReliability Group = "reliability"
	GroupComfort     Group = "comfort"
)

// groupOrder breaks margin ties when picking the reason.
var groupOrder = []Group{GroupPrice, GroupPickup, GroupReliability, GroupComfort}

// Constraints are caller preferences. Zero values mean "no constraint".
type Constraints struct {
	MaxPrice          int64 `json:"maxPrice,omitempty"`
	MaxPickupETAMin   int   `json:"maxPickupEtaMin,omitempty"`
	IsDateContext     bool  `json:"isDateContext,omitempty"`
	PreferReliability bool  `json:"preferReliability,omitempty"`
	PreferComfort     bool  `json:"preferComfort,omitempty"`
}

// Input is what every rule sees besides the quote itself.
type Input struct {
	Constraints
	// MinMid is the lowest price midpoint in the batch.
	MinMid int64
}

type Delta struct {
	Points float64
	Group  Group
}

type Rule struct {
	Name  string
	Apply func(q quote.Quote, in Input) Delta
}

// DefaultRules returns the rule list in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "price", Apply: priceRule},
		{Name: "pickup", Apply: pickupRule},
		{Name: "availability", Apply: availabilityRule},
		{Name: "price-confidence", Apply: confidenceRule},
		{Name: "occasion", Apply: occasionRule},
		{Name: "reliability", Apply: reliabilityRule},
		{Name: "comfort", Apply: comfortRule},
	}
}

func priceRule(q quote.Quote, in Input) Delta {
	mid := q.Price.Mid()
	var penalty float64
	if in.MinMid > 0 && mid > in.MinMid {
		penalty = math.Min(maxPricePenalty, pricePenaltySlope*float64(mid-in.MinMid)/float64(in.MinMid))
	}
	if in.IsDateContext {
		penalty /= 2
	}
	points := -penalty
	if in.MaxPrice > 0 && mid > in.MaxPrice {
		points -= constraintPenalty
	}
	return Delta{Points: points, Group: GroupPrice}
}

func pickupRule(q quote.Quote, in Input) Delta {
	points := math.Max(0, pickupBonusCeiling-float64(q.PickupETAMin))
	if in.MaxPickupETAMin > 0 && q.PickupETAMin > in.MaxPickupETAMin {
		points -= constraintPenalty
	}
	return Delta{Points: points, Group: GroupPickup}
}

func availabilityRule(q quote.Quote, _ Input) Delta {
	return Delta{Points: levelPoints(q.Availability, levelBonus), Group: GroupReliability}
}

func confidenceRule(q quote.Quote, _ Input) Delta {
	return Delta{Points: levelPoints(q.Price.Confidence, confidenceBonus), Group: GroupReliability}
}

// occasionRule credits reliable quotes to reliability and premium-only quotes to comfort.
func occasionRule(q quote.Quote, in Input) Delta {
	if !in.IsDateContext {
		return Delta{Group: GroupReliability}
	}
	switch {
	case q.HasTag(quote.TagMostReliable):
		return Delta{Points: occasionBonus, Group: GroupReliability}
	case q.HasTag(quote.TagPremium):
		return Delta{Points: occasionBonus, Group: GroupComfort}
	}
	return Delta{Group: GroupReliability}
}

func reliabilityRule(q quote.Quote, in Input) Delta {
	if !in.PreferReliability {
		return Delta{Group: GroupReliability}
	}
	var points float64
	if q.Availability == quote.LevelHigh {
		points += reliabilityBonus
	}
	if q.HasTag(quote.TagMostReliable) {
		points += reliabilityBonus
	}
	return Delta{Points: points, Group: GroupReliability}
}

func comfortRule(q quote.Quote, in Input) Delta {
	if in.PreferComfort && q.HasTag(quote.TagPremium) {
		return Delta{Points: comfortBonus, Group: GroupComfort}
	}
	return Delta{Group: GroupComfort}
}

func levelPoints(l quote.Level, bonus float64) float64 {
	switch l {
	case quote.LevelHigh:
		return bonus
	case quote.LevelLow:
		return -bonus
	}
	return 0
}
