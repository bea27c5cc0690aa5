// README: Booking transition fan-out: event log append plus optional broker publication.
package broker

import (
	"context"

	"go.uber.org/zap"

	"ridebroker/internal/modules/booking"
)

// Publisher delivers a payload under a routing key. infra.AMQPPublisher implements it.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// BookingEvent is the published message for one lifecycle transition.
type BookingEvent struct {
	Event   booking.Event    `json:"event"`
	Booking *booking.Booking `json:"booking"`
}

func RoutingKey(s booking.Status) string {
	return "booking." + string(s)
}

func (s *Service) record(ctx context.Context, b *booking.Booking, ev booking.Event) {
	if err := s.bookings.AppendEvent(ctx, &ev); err != nil {
		s.log.Warn("append booking event",
			zap.String("booking", string(b.ID)),
			zap.String("to", string(ev.ToStatus)),
			zap.Error(err),
		)
	}
	if s.publisher == nil {
		return
	}
	msg := BookingEvent{Event: ev, Booking: b}
	if err := s.publisher.Publish(ctx, RoutingKey(ev.ToStatus), msg); err != nil {
		s.log.Warn("publish booking event",
			zap.String("booking", string(b.ID)),
			zap.String("to", string(ev.ToStatus)),
			zap.Error(err),
		)
	}
}
