package repository

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id string) (*models.Ride, error)
	ListActive(ctx context.Context) ([]models.Ride, error)
	ListByDriverID(ctx context.Context, driverID string) ([]models.Ride, error)
	// UpdateAndSettle patches the ride under a row lock. Settlement (bulk
	// booking completion plus the earnings credit) runs only on the
	// transition into completed; re-sending a terminal status is rejected.
	UpdateAndSettle(ctx context.Context, id string, patch *models.UpdateRideRequest) (*models.SettlementResult, error)
	// DeleteCascade cancels every live booking on the ride, refunds their
	// completed payments, and marks the ride cancelled, in one
	// transaction. The ride row stays so bookings never dangle.
	DeleteCascade(ctx context.Context, id string) (*models.CascadeResult, error)
}

type rideRepository struct {
	db *sqlx.DB
}

func NewRideRepository(db *sqlx.DB) RideRepository {
	return &rideRepository{db: db}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	if ride.ID == "" {
		ride.ID = uuid.New().String()
	}
	ride.CreatedAt = time.Now()
	ride.UpdatedAt = time.Now()
	ride.Status = models.RideStatusActive

	query := `
		INSERT INTO rides (id, driver_id, destination, departure_at, price_per_seat, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		ride.ID, ride.DriverID, ride.Destination, ride.DepartureAt,
		ride.PricePerSeat, ride.Status, ride.CreatedAt, ride.UpdatedAt)
	return err
}

func (r *rideRepository) GetByID(ctx context.Context, id string) (*models.Ride, error) {
	var ride models.Ride
	query := `SELECT * FROM rides WHERE id = $1`
	err := r.db.GetContext(ctx, &ride, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &ride, err
}

func (r *rideRepository) ListActive(ctx context.Context) ([]models.Ride, error) {
	var rides []models.Ride
	query := `SELECT * FROM rides WHERE status = $1 ORDER BY departure_at`
	err := r.db.SelectContext(ctx, &rides, query, models.RideStatusActive)
	return rides, err
}

func (r *rideRepository) ListByDriverID(ctx context.Context, driverID string) ([]models.Ride, error) {
	var rides []models.Ride
	query := `SELECT * FROM rides WHERE driver_id = $1 ORDER BY departure_at DESC`
	err := r.db.SelectContext(ctx, &rides, query, driverID)
	return rides, err
}

func (r *rideRepository) UpdateAndSettle(ctx context.Context, id string, patch *models.UpdateRideRequest) (*models.SettlementResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperrors.ErrUnavailable
	}
	defer tx.Rollback()

	// The previous status is read under the lock: the active->completed
	// edge is detected here and can fire at most once per ride.
	var ride models.Ride
	err = tx.GetContext(ctx, &ride, `SELECT * FROM rides WHERE id = $1 FOR UPDATE`, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	prevStatus := ride.Status

	if patch.Status != nil && *patch.Status != prevStatus {
		if !ride.CanTransitionTo(*patch.Status) {
			return nil, apperrors.ErrInvalidTransition
		}
		ride.Status = *patch.Status
	} else if patch.Status != nil && prevStatus != models.RideStatusActive {
		// Re-sending a terminal status is rejected outright rather than
		// silently no-opped, so a double-settle cannot hide behind it.
		return nil, apperrors.ErrInvalidTransition
	}

	if patch.Destination != nil {
		ride.Destination = *patch.Destination
	}
	if patch.DepartureAt != nil {
		ride.DepartureAt = *patch.DepartureAt
	}
	if patch.PricePerSeat != nil {
		ride.PricePerSeat = *patch.PricePerSeat
	}
	ride.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
		UPDATE rides
		SET destination = $1, departure_at = $2, price_per_seat = $3, status = $4, updated_at = $5
		WHERE id = $6
	`, ride.Destination, ride.DepartureAt, ride.PricePerSeat, ride.Status, ride.UpdatedAt, ride.ID)
	if err != nil {
		return nil, err
	}

	result := &models.SettlementResult{Ride: &ride}

	settling := prevStatus == models.RideStatusActive && ride.Status == models.RideStatusCompleted
	if settling {
		res, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = $1, updated_at = $2 WHERE ride_id = $3 AND status = $4`,
			models.BookingStatusCompleted, ride.UpdatedAt, ride.ID, models.BookingStatusConfirmed)
		if err != nil {
			return nil, err
		}
		completed, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		result.CompletedBookings = int(completed)

		// Accepted additional amounts are already folded into each
		// payment's amount, so summing payments covers them.
		var earnings float64
		err = tx.GetContext(ctx, &earnings, `
			SELECT COALESCE(SUM(p.amount), 0)
			FROM payments p
			JOIN bookings b ON b.id = p.booking_id
			WHERE b.ride_id = $1 AND b.status = $2 AND p.status = $3
		`, ride.ID, models.BookingStatusCompleted, models.PaymentStatusCompleted)
		if err != nil {
			return nil, err
		}

		if earnings > 0 {
			_, err = tx.ExecContext(ctx,
				`UPDATE drivers SET total_earnings = total_earnings + $1, updated_at = $2 WHERE user_id = $3`,
				earnings, ride.UpdatedAt, ride.DriverID)
			if err != nil {
				return nil, err
			}
		}

		result.Settled = true
		result.SettledEarnings = earnings
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *rideRepository) DeleteCascade(ctx context.Context, id string) (*models.CascadeResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperrors.ErrUnavailable
	}
	defer tx.Rollback()

	var ride models.Ride
	err = tx.GetContext(ctx, &ride, `SELECT * FROM rides WHERE id = $1 FOR UPDATE`, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()

	// Refund before cancelling: the refund predicate selects the bookings
	// that are still live at this point.
	res, err := tx.ExecContext(ctx, `
		UPDATE payments SET status = $1, updated_at = $2
		WHERE status = $3 AND booking_id IN (
			SELECT id FROM bookings WHERE ride_id = $4 AND status <> $5
		)
	`, models.PaymentStatusRefunded, now, models.PaymentStatusCompleted,
		id, models.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	refunded, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = $2 WHERE ride_id = $3 AND status <> $1`,
		models.BookingStatusCancelled, now, id)
	if err != nil {
		return nil, err
	}
	cancelled, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE rides SET status = $1, updated_at = $2 WHERE id = $3`,
		models.RideStatusCancelled, now, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.CascadeResult{
		CancelledBookings: int(cancelled),
		RefundedPayments:  int(refunded),
	}, nil
}
