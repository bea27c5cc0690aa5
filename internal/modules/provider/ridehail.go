// README: Ride-hail adapters (economy, premium): surge-aware pricing with universal deep links.
package provider

import (
	"context"
	"net/url"
	"strconv"

	"ridebroker/internal/modules/pricing"
	"ridebroker/internal/modules/quote"
)

const deepLinkHost = "rides.example.com"

type rideHailProfile struct {
	product string
	tier    quote.Tier

	tierFactor       float64
	minimumFactor    float64
	surgeSensitivity float64

	pickupETA int
	rushExtra int

	tags []quote.Tag
	// scarceAtNight drops availability to low inside the market's night window.
	scarceAtNight bool
}

var (
	economyProfile = rideHailProfile{
		product:          "economy",
		tier:             quote.TierRideHailEconomy,
		tierFactor:       1,
		minimumFactor:    1,
		surgeSensitivity: 1,
		pickupETA:        3,
		rushExtra:        3,
		tags:             []quote.Tag{quote.TagCheapest, quote.TagFastestPickup},
		scarceAtNight:    true,
	}
	premiumProfile = rideHailProfile{
		product:          "premium",
		tier:             quote.TierRideHailPremium,
		tierFactor:       1.9,
		minimumFactor:    2,
		surgeSensitivity: 0.5,
		pickupETA:        6,
		tags:             []quote.Tag{quote.TagPremium, quote.TagMostReliable},
	}
)

type RideHail struct {
	base
	bookingUnsupported
	profile rideHailProfile
}

func NewEconomy(m pricing.Market, opts ...Option) *RideHail {
	return newRideHail("ridehail-economy-"+m.Code, "Ride-hail Economy", m, economyProfile, opts)
}

func NewPremium(m pricing.Market, opts ...Option) *RideHail {
	return newRideHail("ridehail-premium-"+m.Code, "Ride-hail Premium", m, premiumProfile, opts)
}

func newRideHail(id, name string, m pricing.Market, p rideHailProfile, opts []Option) *RideHail {
	r := &RideHail{profile: p}
	r.init(id, name, m, opts)
	return r
}

func (r *RideHail) IsDemo() bool { return false }

func (r *RideHail) DeepLink(q quote.Quote) string {
	v := url.Values{}
	v.Set("action", "setPickup")
	v.Set("product", r.profile.product)
	v.Set("pickup[latitude]", formatCoord(q.Pickup.Lat))
	v.Set("pickup[longitude]", formatCoord(q.Pickup.Lng))
	v.Set("dropoff[latitude]", formatCoord(q.Dropoff.Lat))
	v.Set("dropoff[longitude]", formatCoord(q.Dropoff.Lng))
	if q.DropoffAddress != "" {
		v.Set("dropoff[formatted_address]", q.DropoffAddress)
	}
	u := url.URL{Scheme: "https", Host: deepLinkHost, Path: "/ul/", RawQuery: v.Encode()}
	return u.String()
}

func (r *RideHail) Quotes(ctx context.Context, req quote.Request) ([]quote.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.serves(req) {
		return nil, nil
	}
	p := r.profile
	at := r.requestTime(req)
	trip := pricing.EstimateTrip(r.market, req.Pickup, req.Dropoff, at)
	res, err := pricing.Estimate(pricing.PricingRequest{
		Market:           r.market,
		Curve:            r.market.Curve,
		DistanceKm:       trip.DistanceKm,
		DurationMin:      trip.DurationMin,
		RequestTime:      at,
		TierFactor:       p.tierFactor,
		MinimumFactor:    p.minimumFactor,
		RushSensitivity:  p.surgeSensitivity,
		NightSensitivity: p.surgeSensitivity,
	})
	if err != nil {
		return nil, err
	}

	eta := p.pickupETA
	if trip.RushHour {
		eta += p.rushExtra
	}
	confidence := quote.LevelHigh
	tags := append([]quote.Tag(nil), p.tags...)
	if res.Surge {
		confidence = quote.LevelMedium
		tags = append(tags, quote.TagSurge)
	}
	availability := quote.LevelHigh
	if p.scarceAtNight && r.market.IsNight(at) {
		availability = quote.LevelLow
	}

	q := r.newQuote(req, trip, offer{
		tier:         p.tier,
		price:        res,
		pickupETA:    eta,
		confidence:   confidence,
		availability: availability,
		tags:         tags,
	})
	q.DeepLink = r.DeepLink(q)
	return []quote.Quote{q}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
