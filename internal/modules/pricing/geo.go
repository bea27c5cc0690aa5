// README: Great-circle distance and road-length/duration approximations.
package pricing

import (
	"math"
	"time"

	"ridebroker/internal/types"
)

const (
	earthRadiusKm = 6371.0
	// RoadFactor inflates straight-line distance to approximate real route length.
	RoadFactor = 1.3
)

// haversineKm returns the great-circle distance in kilometres between two points.
func haversineKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RoadDistanceKm approximates the driving distance between two points.
func RoadDistanceKm(a, b types.Point) float64 {
	return haversineKm(a, b) * RoadFactor
}

// EstimateTrip derives distance and duration for a trip starting at t in market m.
func EstimateTrip(m Market, pickup, dropoff types.Point, t time.Time) TripEstimate {
	km := RoadDistanceKm(pickup, dropoff)
	rush := m.IsRushHour(t)
	speed := m.AvgSpeedKmh
	if rush && m.RushSpeedKmh > 0 {
		speed = m.RushSpeedKmh
	}
	if speed <= 0 {
		speed = 25
	}
	return TripEstimate{
		DistanceKm:  km,
		DurationMin: km / speed * 60,
		RushHour:    rush,
	}
}

// Offset moves p by the given metres north and east. Good enough for short hops.
func Offset(p types.Point, northM, eastM float64) types.Point {
	dLat := northM / 1000 / earthRadiusKm * 180 / math.Pi
	dLng := eastM / 1000 / (earthRadiusKm * math.Cos(degreesToRadians(p.Lat))) * 180 / math.Pi
	return types.Point{Lat: p.Lat + dLat, Lng: p.Lng + dLng}
}
