// README: Booking store backed by PostgreSQL with optimistic status versioning.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridebroker/internal/modules/quote"
	"ridebroker/internal/types"
)

const bookingColumns = `
	id, quote_id, provider_id, provider_name, market, tier,
	status, status_message, status_version,
	driver, driver_lat, driver_lng, driver_eta_min,
	price_min, price_max, currency, price_confidence, price_display,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, pickup_address, dropoff_address,
	distance_km, duration_min, pickup_eta_min,
	passenger_name, passenger_phone, notes, trip_id, step_index,
	is_demo, disclaimer,
	requested_at, driver_assigned_at, pickup_at, dropoff_at, cancelled_at,
	cancel_reason, failure_reason, last_transition_at`

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, b *Booking) error {
	driver, err := marshalDriver(b.Driver)
	if err != nil {
		return err
	}
	lat, lng := splitPoint(b.DriverPosition)
	_, err = s.db.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24,
			$25, $26, $27,
			$28, $29, $30, $31, $32,
			$33, $34,
			$35, $36, $37, $38, $39,
			$40, $41, $42
		)`,
		string(b.ID), string(b.QuoteID), b.ProviderID, b.ProviderName, b.Market, string(b.Tier),
		string(b.Status), b.StatusMessage, b.Version,
		driver, lat, lng, b.DriverETAMin,
		b.Price.Min, b.Price.Max, b.Price.Currency, string(b.Price.Confidence), b.Price.Display,
		b.Pickup.Lat, b.Pickup.Lng, b.Dropoff.Lat, b.Dropoff.Lng, b.PickupAddress, b.DropoffAddress,
		b.DistanceKm, b.DurationMin, b.PickupETAMin,
		b.PassengerName, b.PassengerPhone, b.Notes, b.TripID, b.StepIndex,
		b.IsDemo, b.Disclaimer,
		b.RequestedAt, b.DriverAssignedAt, b.PickupAt, b.DropoffAt, b.CancelledAt,
		b.CancelReason, b.FailureReason, b.LastTransitionAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PGStore) Update(ctx context.Context, b *Booking, version int) (bool, error) {
	driver, err := marshalDriver(b.Driver)
	if err != nil {
		return false, err
	}
	lat, lng := splitPoint(b.DriverPosition)
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
			status_message = $2,
			status_version = status_version + 1,
			driver = $3,
			driver_lat = $4,
			driver_lng = $5,
			driver_eta_min = $6,
			driver_assigned_at = $7,
			pickup_at = $8,
			dropoff_at = $9,
			cancelled_at = $10,
			cancel_reason = $11,
			failure_reason = $12,
			last_transition_at = $13
		WHERE id = $14 AND status_version = $15`,
		string(b.Status),
		b.StatusMessage,
		driver,
		lat, lng,
		b.DriverETAMin,
		b.DriverAssignedAt,
		b.PickupAt,
		b.DropoffAt,
		b.CancelledAt,
		b.CancelReason,
		b.FailureReason,
		b.LastTransitionAt,
		string(b.ID),
		version,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}
	b.Version = version + 1
	return true, nil
}

func (s *PGStore) ListByTrip(ctx context.Context, tripID string) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE trip_id = $1
		ORDER BY requested_at, id`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO booking_events (
			booking_id, from_status, to_status, actor_type, message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		string(e.BookingID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		e.Message,
		e.CreatedAt,
	).Scan(&e.ID)
}

func (s *PGStore) Events(ctx context.Context, id types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, booking_id, from_status, to_status, actor_type, message, created_at
		FROM booking_events
		WHERE booking_id = $1
		ORDER BY id`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var bookingID, from, to string
		if err := rows.Scan(&e.ID, &bookingID, &from, &to, &e.ActorType, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.BookingID = types.ID(bookingID)
		e.FromStatus = Status(from)
		e.ToStatus = Status(to)
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var id, quoteID, tier, status, confidence string
	var driver []byte
	var driverLat, driverLng *float64
	var driverAssignedAt, pickupAt, dropoffAt, cancelledAt *time.Time

	err := row.Scan(
		&id, &quoteID, &b.ProviderID, &b.ProviderName, &b.Market, &tier,
		&status, &b.StatusMessage, &b.Version,
		&driver, &driverLat, &driverLng, &b.DriverETAMin,
		&b.Price.Min, &b.Price.Max, &b.Price.Currency, &confidence, &b.Price.Display,
		&b.Pickup.Lat, &b.Pickup.Lng, &b.Dropoff.Lat, &b.Dropoff.Lng, &b.PickupAddress, &b.DropoffAddress,
		&b.DistanceKm, &b.DurationMin, &b.PickupETAMin,
		&b.PassengerName, &b.PassengerPhone, &b.Notes, &b.TripID, &b.StepIndex,
		&b.IsDemo, &b.Disclaimer,
		&b.RequestedAt, &driverAssignedAt, &pickupAt, &dropoffAt, &cancelledAt,
		&b.CancelReason, &b.FailureReason, &b.LastTransitionAt,
	)
	if err != nil {
		return nil, err
	}

	b.ID = types.ID(id)
	b.QuoteID = types.ID(quoteID)
	b.Tier = quote.Tier(tier)
	b.Status = Status(status)
	b.Price.Confidence = quote.Level(confidence)
	if len(driver) > 0 {
		var d Driver
		if err := json.Unmarshal(driver, &d); err != nil {
			return nil, fmt.Errorf("decode driver for booking %s: %w", id, err)
		}
		b.Driver = &d
	}
	if driverLat != nil && driverLng != nil {
		b.DriverPosition = &types.Point{Lat: *driverLat, Lng: *driverLng}
	}
	b.DriverAssignedAt = driverAssignedAt
	b.PickupAt = pickupAt
	b.DropoffAt = dropoffAt
	b.CancelledAt = cancelledAt
	return &b, nil
}

func marshalDriver(d *Driver) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode driver: %w", err)
	}
	return raw, nil
}

func splitPoint(p *types.Point) (*float64, *float64) {
	if p == nil {
		return nil, nil
	}
	lat, lng := p.Lat, p.Lng
	return &lat, &lng
}
