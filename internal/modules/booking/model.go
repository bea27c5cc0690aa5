// README: Booking aggregate, status definitions and the lifecycle transition table.
package booking

import (
	"time"

	"ridebroker/internal/modules/quote"
	"ridebroker/internal/types"
)

type Status string

const (
	StatusNone           Status = "none"
	StatusRequested      Status = "requested"
	StatusDriverAssigned Status = "driver_assigned"
	StatusArriving       Status = "arriving"
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
	StatusFailed         Status = "failed"
)

type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Color string `json:"color"`
	Plate string `json:"plate"`
}

type Driver struct {
	Name    string  `json:"name"`
	Rating  float64 `json:"rating"`
	Vehicle Vehicle `json:"vehicle"`
}

type Booking struct {
	ID           types.ID   `json:"id"`
	QuoteID      types.ID   `json:"quoteId"`
	ProviderID   string     `json:"providerId"`
	ProviderName string     `json:"providerName"`
	Market       string     `json:"market"`
	Tier         quote.Tier `json:"tier"`

	Status        Status `json:"status"`
	StatusMessage string `json:"statusMessage"`
	Version       int    `json:"version"`

	Driver         *Driver      `json:"driver,omitempty"`
	DriverPosition *types.Point `json:"driverPosition,omitempty"`
	DriverETAMin   *int         `json:"driverEtaMin,omitempty"`

	Price          quote.PriceEstimate `json:"price"`
	Pickup         types.Point         `json:"pickup"`
	Dropoff        types.Point         `json:"dropoff"`
	PickupAddress  string              `json:"pickupAddress,omitempty"`
	DropoffAddress string              `json:"dropoffAddress,omitempty"`
	DistanceKm     float64             `json:"distanceKm"`
	DurationMin    int                 `json:"durationMin"`
	PickupETAMin   int                 `json:"pickupEtaMin"`

	PassengerName  string `json:"passengerName"`
	PassengerPhone string `json:"passengerPhone,omitempty"`
	Notes          string `json:"notes,omitempty"`
	TripID         string `json:"tripId,omitempty"`
	StepIndex      *int   `json:"stepIndex,omitempty"`

	IsDemo     bool   `json:"isDemo"`
	Disclaimer string `json:"disclaimer,omitempty"`

	RequestedAt      time.Time  `json:"requestedAt"`
	DriverAssignedAt *time.Time `json:"driverAssignedAt,omitempty"`
	PickupAt         *time.Time `json:"pickupAt,omitempty"`
	DropoffAt        *time.Time `json:"dropoffAt,omitempty"`
	CancelledAt      *time.Time `json:"cancelledAt,omitempty"`
	CancelReason     string     `json:"cancelReason,omitempty"`
	FailureReason    string     `json:"failureReason,omitempty"`
	LastTransitionAt time.Time  `json:"lastTransitionAt"`
}

// RideRequest carries the passenger details supplied when a quote is accepted.
type RideRequest struct {
	QuoteID        types.ID
	PassengerName  string
	PassengerPhone string
	Notes          string
	TripID         string
	StepIndex      *int
}

type Event struct {
	ID         int64     `json:"id"`
	BookingID  types.ID  `json:"bookingId"`
	FromStatus Status    `json:"fromStatus"`
	ToStatus   Status    `json:"toStatus"`
	ActorType  string    `json:"actorType"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AllowedTransitions represents the booking state flow (diagram) as code.
var AllowedTransitions = map[Status][]Status{
	StatusNone:           {StatusRequested},
	StatusRequested:      {StatusDriverAssigned, StatusCancelled, StatusFailed},
	StatusDriverAssigned: {StatusArriving, StatusCancelled, StatusFailed},
	StatusArriving:       {StatusInProgress, StatusCancelled, StatusFailed},
	StatusInProgress:     {StatusCompleted, StatusFailed},
}

// happyPath is the time-gated progression order.
var happyPath = map[Status]Status{
	StatusRequested:      StatusDriverAssigned,
	StatusDriverAssigned: StatusArriving,
	StatusArriving:       StatusInProgress,
	StatusInProgress:     StatusCompleted,
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// Cancellable reports whether a passenger may still cancel.
func (s Status) Cancellable() bool {
	return CanTransition(s, StatusCancelled)
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	cp := *b
	if b.Driver != nil {
		d := *b.Driver
		cp.Driver = &d
	}
	cp.DriverPosition = clonePtr(b.DriverPosition)
	cp.DriverETAMin = clonePtr(b.DriverETAMin)
	cp.StepIndex = clonePtr(b.StepIndex)
	cp.DriverAssignedAt = clonePtr(b.DriverAssignedAt)
	cp.PickupAt = clonePtr(b.PickupAt)
	cp.DropoffAt = clonePtr(b.DropoffAt)
	cp.CancelledAt = clonePtr(b.CancelledAt)
	return &cp
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
