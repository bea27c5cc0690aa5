// README: Pricing service computes fare estimates from static market curves.
package pricing

import (
	"errors"
	"math"
)

// Variance is the half-width of the displayed price band around the computed fare.
const Variance = 0.10

var ErrBadRequest = errors.New("invalid pricing request")

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Market(code string) (Market, error) {
	if s.store == nil {
		return Market{}, ErrUnknownMarket
	}
	return s.store.GetMarket(code)
}

func (s *Service) Markets() []Market {
	if s.store == nil {
		return nil
	}
	return s.store.List()
}

// Estimate is a pure function of the request: no store lookups, no clock reads.
func Estimate(req PricingRequest) (PricingResult, error) {
	if req.DistanceKm < 0 || req.DurationMin < 0 {
		return PricingResult{}, ErrBadRequest
	}
	tier := req.TierFactor
	if tier <= 0 {
		tier = 1
	}
	minFactor := req.MinimumFactor
	if minFactor <= 0 {
		minFactor = 1
	}
	c := req.Curve

	base := float64(c.BaseFare)
	distance := req.DistanceKm * float64(c.PerKm)
	duration := req.DurationMin * float64(c.PerMinute)
	raw := (base + distance + duration) * tier

	multiplier := 1.0
	surge, night := false, false
	if w, ok := req.Market.rushWindow(req.RequestTime); ok {
		multiplier = dampen(w.Multiplier, req.RushSensitivity)
		surge = multiplier > 1
	} else if req.Market.IsNight(req.RequestTime) {
		multiplier = dampen(req.Market.Night.Multiplier, req.NightSensitivity)
		night = multiplier > 1
	}

	step := req.Market.RoundTo
	if step <= 0 {
		step = 1
	}
	floor := roundTo(float64(c.MinimumFare)*minFactor, step)
	fare := roundTo(raw*multiplier, step)
	if fare < floor {
		fare = floor
	}
	low := roundTo(float64(fare)*(1-Variance), step)
	if low < floor {
		low = floor
	}
	high := roundTo(float64(fare)*(1+Variance), step)

	return PricingResult{
		TotalAmount: fare,
		Low:         low,
		High:        high,
		Currency:    req.Market.Currency,
		Multiplier:  multiplier,
		Surge:       surge,
		Night:       night,
		Breakdown: map[string]int64{
			"base":     int64(math.Round(base * tier)),
			"distance": int64(math.Round(distance * tier)),
			"duration": int64(math.Round(duration * tier)),
			"minimum":  floor,
		},
	}, nil
}

func dampen(multiplier, sensitivity float64) float64 {
	if multiplier <= 1 || sensitivity <= 0 {
		return 1
	}
	if sensitivity > 1 {
		sensitivity = 1
	}
	return 1 + (multiplier-1)*sensitivity
}

func roundTo(v float64, step int64) int64 {
	return int64(math.Round(v/float64(step))) * step
}
