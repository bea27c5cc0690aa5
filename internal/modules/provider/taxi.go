// README: Metered taxi adapter: street-hail only, night tariff, no in-app booking.
package provider

import (
	"context"

	"ridebroker/internal/modules/pricing"
	"ridebroker/internal/modules/quote"
)

const (
	taxiPickupETA = 8
	taxiRushExtra = 4
)

type Taxi struct {
	base
	bookingUnsupported
}

func NewTaxi(m pricing.Market, opts ...Option) *Taxi {
	t := &Taxi{}
	t.init("taxi-"+m.Code, "Metered Taxi", m, opts)
	return t
}

func (t *Taxi) IsDemo() bool { return false }

// DeepLink is always empty: taxis are hailed on the street.
func (t *Taxi) DeepLink(quote.Quote) string { return "" }

func (t *Taxi) Quotes(ctx context.Context, req quote.Request) ([]quote.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !t.serves(req) {
		return nil, nil
	}
	at := t.requestTime(req)
	trip := pricing.EstimateTrip(t.market, req.Pickup, req.Dropoff, at)
	res, err := pricing.Estimate(pricing.PricingRequest{
		Market:           t.market,
		Curve:            t.market.TaxiCurve,
		DistanceKm:       trip.DistanceKm,
		DurationMin:      trip.DurationMin,
		RequestTime:      at,
		NightSensitivity: 1,
	})
	if err != nil {
		return nil, err
	}

	eta := taxiPickupETA
	if trip.RushHour {
		eta += taxiRushExtra
	}
	q := t.newQuote(req, trip, offer{
		tier:         quote.TierTaxi,
		price:        res,
		pickupETA:    eta,
		confidence:   quote.LevelMedium,
		availability: quote.LevelMedium,
		tags:         []quote.Tag{quote.TagMostReliable, quote.TagMetered},
	})
	return []quote.Quote{q}, nil
}
