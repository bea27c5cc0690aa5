// README: Market fare curves and pricing request/result types.
package pricing

import "time"

// Curve is a static fare curve. All amounts are in the market's smallest currency unit.
type Curve struct {
	BaseFare    int64
	PerKm       int64
	PerMinute   int64
	MinimumFare int64
}

// HourWindow is a local-time window [Start, End) that may wrap past midnight.
type HourWindow struct {
	Start      int
	End        int
	Multiplier float64
}

func (w HourWindow) Contains(hour int) bool {
	if w.Start == w.End {
		return false
	}
	if w.Start < w.End {
		return hour >= w.Start && hour < w.End
	}
	return hour >= w.Start || hour < w.End
}

type Market struct {
	Code     string
	Name     string
	Currency string
	Location *time.Location

	// Curve prices app-dispatched rides; TaxiCurve is the metered street-hail tariff.
	Curve     Curve
	TaxiCurve Curve

	RushWindows []HourWindow
	Night       HourWindow

	AvgSpeedKmh  float64
	RushSpeedKmh float64

	// RoundTo is the increment fares are rounded to (1 cent, 10 yen).
	RoundTo int64
}

// LocalHour returns the hour of t in the market's timezone.
func (m Market) LocalHour(t time.Time) int {
	if m.Location == nil {
		return t.UTC().Hour()
	}
	return t.In(m.Location).Hour()
}

// IsRushHour reports whether t falls inside one of the market's rush windows.
func (m Market) IsRushHour(t time.Time) bool {
	_, ok := m.rushWindow(t)
	return ok
}

// IsNight reports whether t falls inside the market's night window.
func (m Market) IsNight(t time.Time) bool {
	return m.Night.Contains(m.LocalHour(t))
}

func (m Market) rushWindow(t time.Time) (HourWindow, bool) {
	h := m.LocalHour(t)
	for _, w := range m.RushWindows {
		if w.Contains(h) {
			return w, true
		}
	}
	return HourWindow{}, false
}

type PricingRequest struct {
	Market      Market
	Curve       Curve
	DistanceKm  float64
	DurationMin float64
	RequestTime time.Time

	// TierFactor scales the raw fare; MinimumFactor scales the minimum fare.
	TierFactor    float64
	MinimumFactor float64

	// RushSensitivity and NightSensitivity dampen the time-of-day multipliers:
	// effective = 1 + (multiplier-1) * sensitivity.
	RushSensitivity  float64
	NightSensitivity float64
}

type PricingResult struct {
	TotalAmount int64
	Low         int64
	High        int64
	Currency    string
	Multiplier  float64
	Surge       bool
	Night       bool
	Breakdown   map[string]int64
}

// TripEstimate is the straight-line based distance and duration of a trip.
type TripEstimate struct {
	DistanceKm  float64
	DurationMin float64
	RushHour    bool
}
