// README: Simulated in-app provider: three tiers and a fully local booking lifecycle.
package provider

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"ridebroker/internal/modules/booking"
	"ridebroker/internal/modules/pricing"
	"ridebroker/internal/modules/quote"
	"ridebroker/internal/types"
)

type demoTier struct {
	tier      quote.Tier
	factor    float64
	pickupETA int
	tags      []quote.Tag
}

var demoTiers = []demoTier{
	{quote.TierEconomy, 1.0, 4, []quote.Tag{quote.TagCheapest, quote.TagFastestPickup, quote.TagDemo}},
	{quote.TierComfort, 1.35, 6, []quote.Tag{quote.TagDemo}},
	{quote.TierPremium, 1.9, 8, []quote.Tag{quote.TagPremium, quote.TagDemo}},
}

type Demo struct {
	base
	engine *booking.Engine
}

func NewDemo(m pricing.Market, engine *booking.Engine, opts ...Option) *Demo {
	d := &Demo{engine: engine}
	d.init("inapp-demo-"+m.Code, "RideBroker Demo", m, opts)
	return d
}

func (d *Demo) IsDemo() bool { return true }

func (d *Demo) SupportsBooking() bool { return true }

func (d *Demo) DeepLink(q quote.Quote) string {
	u := url.URL{Scheme: "ridebroker", Host: "book", RawQuery: url.Values{"quote": {string(q.ID)}}.Encode()}
	return u.String()
}

func (d *Demo) Quotes(ctx context.Context, req quote.Request) ([]quote.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.serves(req) {
		return nil, nil
	}
	at := d.requestTime(req)
	trip := pricing.EstimateTrip(d.market, req.Pickup, req.Dropoff, at)

	out := make([]quote.Quote, 0, len(demoTiers))
	for _, t := range demoTiers {
		res, err := pricing.Estimate(pricing.PricingRequest{
			Market:           d.market,
			Curve:            d.market.Curve,
			DistanceKm:       trip.DistanceKm,
			DurationMin:      trip.DurationMin,
			RequestTime:      at,
			TierFactor:       t.factor,
			MinimumFactor:    t.factor,
			RushSensitivity:  1,
			NightSensitivity: 1,
		})
		if err != nil {
			return nil, fmt.Errorf("price %s tier: %w", t.tier, err)
		}
		q := d.newQuote(req, trip, offer{
			tier:         t.tier,
			price:        res,
			pickupETA:    t.pickupETA,
			confidence:   quote.LevelHigh,
			availability: quote.LevelHigh,
			tags:         append([]quote.Tag(nil), t.tags...),
		})
		q.IsDemo = true
		q.Disclaimer = quote.DemoDisclaimer
		q.DeepLink = d.DeepLink(q)
		out = append(out, q)
	}
	return out, nil
}

func (d *Demo) RequestRide(ctx context.Context, q quote.Quote, req booking.RideRequest) (*booking.Booking, booking.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, booking.Event{}, err
	}
	if q.ProviderID != d.id {
		return nil, booking.Event{}, fmt.Errorf("%w: quote %s belongs to %s", ErrNotFound, q.ID, q.ProviderID)
	}
	b, ev := d.engine.Open(types.ID(uuid.NewString()), q, req)
	return b, ev, nil
}

func (d *Demo) Status(_ context.Context, b *booking.Booking) (booking.Event, bool, error) {
	ev, moved := d.engine.Advance(b)
	return ev, moved, nil
}

func (d *Demo) Cancel(_ context.Context, b *booking.Booking, reason string) (booking.Event, error) {
	return d.engine.Cancel(b, reason)
}
