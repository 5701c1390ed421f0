package repository

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Names of the partial unique indexes backing seat uniqueness and the
// one-booking-per-rider rule (see scripts/schema.sql).
const (
	constraintSeatUnique  = "bookings_seat_unique_live"
	constraintOnePerRider = "bookings_one_per_rider_live"
	pgUniqueViolation     = "23505"
)

type BookingRepository interface {
	// CreateConfirmed atomically checks capacity, seat uniqueness and the
	// one-booking-per-rider rule against a row lock on the ride, then
	// inserts the booking and its pending payment. The booking either
	// exists confirmed or not at all.
	CreateConfirmed(ctx context.Context, booking *models.Booking, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByRideID(ctx context.Context, rideID string) ([]models.Booking, error)
	ListByRiderID(ctx context.Context, riderID string) ([]models.Booking, error)
	ListByDriverID(ctx context.Context, driverID string) ([]models.Booking, error)
	BookedSeats(ctx context.Context, rideID string) (int, error)
	// TransitionStatus applies status from -> to only if the booking is
	// still in from; reports whether a row was updated.
	TransitionStatus(ctx context.Context, id, from, to string) (bool, error)
	UpdatePickup(ctx context.Context, id string, pickupTime *time.Time, pickupLocation *string) (*models.Booking, error)
	// RequestAmount marks a pending additional-amount request if the
	// booking is confirmed and no request is pending.
	RequestAmount(ctx context.Context, id string, amount float64) (bool, error)
	// AcceptAmount resolves a pending request and adds the requested
	// amount to the linked payment, in one transaction.
	AcceptAmount(ctx context.Context, id string) (bool, error)
	// DeclineAmount resolves a pending request, cancels the booking, and
	// refunds a completed payment, in one transaction.
	DeclineAmount(ctx context.Context, id string) (bool, error)
	// ForceCancel cancels a booking regardless of sub-state and refunds a
	// completed payment. Used to repair bookings caught mid-decline.
	ForceCancel(ctx context.Context, id string) error
}

type bookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) CreateConfirmed(ctx context.Context, booking *models.Booking, payment *models.Payment) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Status = models.BookingStatusConfirmed

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.ErrUnavailable
	}
	defer tx.Rollback()

	// Lock the ride row: concurrent bookings for the same ride serialize
	// on this lock, so the capacity read below cannot go stale.
	var ride models.Ride
	err = tx.GetContext(ctx, &ride, `SELECT * FROM rides WHERE id = $1 FOR UPDATE`, booking.RideID)
	if err == sql.ErrNoRows {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return err
	}

	if ride.Status != models.RideStatusActive {
		return apperrors.ErrRideNotActive
	}

	// FOR SHARE holds capacity steady until commit: a concurrent seat
	// shrink locks the driver row FOR UPDATE and must wait for us.
	var capacity int
	err = tx.GetContext(ctx, &capacity,
		`SELECT available_seats FROM drivers WHERE user_id = $1 FOR SHARE`, ride.DriverID)
	if err == sql.ErrNoRows {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return err
	}

	var booked int
	err = tx.GetContext(ctx, &booked,
		`SELECT COALESCE(SUM(seats), 0) FROM bookings WHERE ride_id = $1 AND status <> $2`,
		booking.RideID, models.BookingStatusCancelled)
	if err != nil {
		return err
	}

	if booked+booking.Seats > capacity {
		return apperrors.ErrInsufficientSeats
	}

	var duplicate int
	err = tx.GetContext(ctx, &duplicate,
		`SELECT COUNT(*) FROM bookings WHERE ride_id = $1 AND rider_id = $2 AND status <> $3`,
		booking.RideID, booking.RiderID, models.BookingStatusCancelled)
	if err != nil {
		return err
	}
	if duplicate > 0 {
		return apperrors.ErrDuplicateBooking
	}

	if booking.SeatNumber != nil {
		var taken int
		err = tx.GetContext(ctx, &taken,
			`SELECT COUNT(*) FROM bookings WHERE ride_id = $1 AND seat_number = $2 AND status <> $3`,
			booking.RideID, *booking.SeatNumber, models.BookingStatusCancelled)
		if err != nil {
			return err
		}
		if taken > 0 {
			return apperrors.ErrSeatTaken
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (id, ride_id, rider_id, seats, seat_number,
			pickup_location, pickup_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		booking.ID, booking.RideID, booking.RiderID, booking.Seats, booking.SeatNumber,
		booking.PickupLocation, booking.PickupTime, booking.Status,
		booking.CreatedAt, booking.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	payment.BookingID = booking.ID
	payment.Status = models.PaymentStatusPending
	payment.CreatedAt = now
	payment.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, booking_id, amount, method, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		payment.ID, payment.BookingID, payment.Amount, payment.Method, payment.Status,
		payment.CreatedAt, payment.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// mapUniqueViolation translates the schema's partial unique indexes into
// business errors, as a backstop behind the in-transaction checks.
func mapUniqueViolation(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pgUniqueViolation {
		switch pqErr.Constraint {
		case constraintSeatUnique:
			return apperrors.ErrSeatTaken
		case constraintOnePerRider:
			return apperrors.ErrDuplicateBooking
		}
	}
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT * FROM bookings WHERE id = $1`
	err := r.db.GetContext(ctx, &booking, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &booking, err
}

func (r *bookingRepository) ListByRideID(ctx context.Context, rideID string) ([]models.Booking, error) {
	var bookings []models.Booking
	query := `SELECT * FROM bookings WHERE ride_id = $1 ORDER BY created_at`
	err := r.db.SelectContext(ctx, &bookings, query, rideID)
	return bookings, err
}

func (r *bookingRepository) ListByRiderID(ctx context.Context, riderID string) ([]models.Booking, error) {
	var bookings []models.Booking
	query := `SELECT * FROM bookings WHERE rider_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &bookings, query, riderID)
	return bookings, err
}

func (r *bookingRepository) ListByDriverID(ctx context.Context, driverID string) ([]models.Booking, error) {
	var bookings []models.Booking
	query := `
		SELECT b.* FROM bookings b
		JOIN rides r ON r.id = b.ride_id
		WHERE r.driver_id = $1
		ORDER BY b.created_at DESC
	`
	err := r.db.SelectContext(ctx, &bookings, query, driverID)
	return bookings, err
}

func (r *bookingRepository) BookedSeats(ctx context.Context, rideID string) (int, error) {
	var booked int
	query := `SELECT COALESCE(SUM(seats), 0) FROM bookings WHERE ride_id = $1 AND status <> $2`
	err := r.db.GetContext(ctx, &booked, query, rideID, models.BookingStatusCancelled)
	return booked, err
}

func (r *bookingRepository) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, time.Now(), id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *bookingRepository) UpdatePickup(ctx context.Context, id string, pickupTime *time.Time, pickupLocation *string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.GetContext(ctx, &booking, `
		UPDATE bookings
		SET pickup_time = COALESCE($1, pickup_time),
			pickup_location = COALESCE($2, pickup_location),
			updated_at = $3
		WHERE id = $4
		RETURNING *
	`, pickupTime, pickupLocation, time.Now(), id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &booking, err
}

func (r *bookingRepository) RequestAmount(ctx context.Context, id string, amount float64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET additional_amount = $1, additional_amount_status = $2, updated_at = $3
		WHERE id = $4 AND status = $5
			AND (additional_amount_status IS NULL OR additional_amount_status <> $2)
	`, amount, models.AmountRequestPending, time.Now(), id, models.BookingStatusConfirmed)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *bookingRepository) AcceptAmount(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, apperrors.ErrUnavailable
	}
	defer tx.Rollback()

	// Lock the booking so only one response wins.
	var booking models.Booking
	err = tx.GetContext(ctx, &booking, `SELECT * FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if booking.Status != models.BookingStatusConfirmed || !booking.HasPendingAmountRequest() {
		return false, nil
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE bookings SET additional_amount_status = $1, updated_at = $2 WHERE id = $3`,
		models.AmountRequestAccepted, now, id)
	if err != nil {
		return false, err
	}

	// The accepted amount is added onto the payment, not replacing it.
	_, err = tx.ExecContext(ctx,
		`UPDATE payments SET amount = amount + $1, updated_at = $2 WHERE booking_id = $3`,
		*booking.AdditionalAmount, now, id)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *bookingRepository) DeclineAmount(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, apperrors.ErrUnavailable
	}
	defer tx.Rollback()

	var booking models.Booking
	err = tx.GetContext(ctx, &booking, `SELECT * FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if booking.Status != models.BookingStatusConfirmed || !booking.HasPendingAmountRequest() {
		return false, nil
	}

	// Decline cancels the booking in the same commit: there is never a
	// committed state where the sub-state reads declined but the booking
	// is still confirmed.
	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE bookings
		SET additional_amount_status = $1, status = $2, updated_at = $3
		WHERE id = $4
	`, models.AmountRequestDeclined, models.BookingStatusCancelled, now, id)
	if err != nil {
		return false, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE payments SET status = $1, updated_at = $2 WHERE booking_id = $3 AND status = $4`,
		models.PaymentStatusRefunded, now, id, models.PaymentStatusCompleted)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *bookingRepository) ForceCancel(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.ErrUnavailable
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3`,
		models.BookingStatusCancelled, now, id)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE payments SET status = $1, updated_at = $2 WHERE booking_id = $3 AND status = $4`,
		models.PaymentStatusRefunded, now, id, models.PaymentStatusCompleted)
	if err != nil {
		return err
	}

	return tx.Commit()
}
