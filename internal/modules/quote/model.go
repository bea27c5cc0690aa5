// README: Quote value object: a single-use, time-limited price/ETA offer from one provider.
package quote

import (
	"time"

	"ridebroker/internal/types"
)

type Tier string

const (
	TierEconomy         Tier = "economy"
	TierComfort         Tier = "comfort"
	TierPremium         Tier = "premium"
	TierTaxi            Tier = "taxi"
	TierRideHailEconomy Tier = "ride_hail_economy"
	TierRideHailPremium Tier = "ride_hail_premium"
)

type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

type Tag string

const (
	TagCheapest      Tag = "cheapest"
	TagFastestPickup Tag = "fastest-pickup"
	TagMostReliable  Tag = "most-reliable"
	TagPremium       Tag = "premium"
	TagMetered       Tag = "metered"
	TagSurge         Tag = "surge"
	TagDemo          Tag = "demo"
)

// DemoDisclaimer is attached to every quote and booking from a simulated provider.
const DemoDisclaimer = "Simulated ride: prices and drivers are illustrative and no real vehicle will be dispatched."

// DefaultTTL is how long an issued quote can be accepted.
const DefaultTTL = 5 * time.Minute

type PriceEstimate struct {
	Min        int64  `json:"min"`
	Max        int64  `json:"max"`
	Currency   string `json:"currency"`
	Confidence Level  `json:"confidence"`
	Display    string `json:"display"`
}

// Mid is the midpoint of the estimate band.
func (p PriceEstimate) Mid() int64 {
	return (p.Min + p.Max) / 2
}

// Refresh recomputes Display from the current bounds and currency.
func (p *PriceEstimate) Refresh() {
	p.Display = types.FormatRange(
		types.Money{Amount: p.Min, Currency: p.Currency},
		types.Money{Amount: p.Max, Currency: p.Currency},
	)
}

type Quote struct {
	ID             types.ID      `json:"id"`
	ProviderID     string        `json:"providerId"`
	ProviderName   string        `json:"providerName"`
	Market         string        `json:"market"`
	Tier           Tier          `json:"tier"`
	Price          PriceEstimate `json:"price"`
	PickupETAMin   int           `json:"pickupEtaMin"`
	DurationMin    int           `json:"durationMin"`
	DistanceKm     float64       `json:"distanceKm"`
	Pickup         types.Point   `json:"pickup"`
	Dropoff        types.Point   `json:"dropoff"`
	PickupAddress  string        `json:"pickupAddress,omitempty"`
	DropoffAddress string        `json:"dropoffAddress,omitempty"`
	Availability   Level         `json:"availability"`
	Tags           []Tag         `json:"tags"`
	DeepLink       string        `json:"deepLink,omitempty"`
	IsDemo         bool          `json:"isDemo"`
	Disclaimer     string        `json:"disclaimer,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	ExpiresAt      time.Time     `json:"expiresAt"`
}

func (q Quote) HasTag(tag Tag) bool {
	for _, t := range q.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (q Quote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// Request is what a caller asks providers to quote.
type Request struct {
	Pickup         types.Point
	Dropoff        types.Point
	PickupAddress  string
	DropoffAddress string
	Market         string
	RequestedAt    time.Time
}
