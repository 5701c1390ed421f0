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

type DriverRepository interface {
	Create(ctx context.Context, driver *models.Driver) error
	GetByUserID(ctx context.Context, userID string) (*models.Driver, error)
	GetByID(ctx context.Context, id string) (*models.Driver, error)
	SetApproved(ctx context.Context, id string, approved bool) error
	// UpdateAvailableSeats sets the driver's capacity, refusing to shrink
	// it below seats already sold on an active ride; reports whether the
	// update applied. The driver row is locked for the duration so a
	// concurrent booking cannot slip in between the check and the write.
	UpdateAvailableSeats(ctx context.Context, userID string, seats int) (bool, error)
}

type driverRepository struct {
	db *sqlx.DB
}

func NewDriverRepository(db *sqlx.DB) DriverRepository {
	return &driverRepository{db: db}
}

func (r *driverRepository) Create(ctx context.Context, driver *models.Driver) error {
	if driver.ID == "" {
		driver.ID = uuid.New().String()
	}
	driver.CreatedAt = time.Now()
	driver.UpdatedAt = time.Now()

	query := `
		INSERT INTO drivers (id, user_id, vehicle_number, available_seats, is_approved, total_earnings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		driver.ID, driver.UserID, driver.VehicleNumber, driver.AvailableSeats,
		driver.IsApproved, driver.TotalEarnings, driver.CreatedAt, driver.UpdatedAt)
	return err
}

func (r *driverRepository) GetByUserID(ctx context.Context, userID string) (*models.Driver, error) {
	var driver models.Driver
	query := `SELECT * FROM drivers WHERE user_id = $1`
	err := r.db.GetContext(ctx, &driver, query, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &driver, err
}

func (r *driverRepository) GetByID(ctx context.Context, id string) (*models.Driver, error) {
	var driver models.Driver
	query := `SELECT * FROM drivers WHERE id = $1`
	err := r.db.GetContext(ctx, &driver, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &driver, err
}

func (r *driverRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	query := `UPDATE drivers SET is_approved = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, approved, time.Now(), id)
	return err
}

func (r *driverRepository) UpdateAvailableSeats(ctx context.Context, userID string, seats int) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, apperrors.ErrUnavailable
	}
	defer tx.Rollback()

	// Lock the driver row: bookings read it FOR SHARE, so an in-flight
	// booking finishes before the capacity check below runs.
	var id string
	err = tx.GetContext(ctx, &id,
		`SELECT id FROM drivers WHERE user_id = $1 FOR UPDATE`, userID)
	if err == sql.ErrNoRows {
		return false, apperrors.ErrNotFound
	}
	if err != nil {
		return false, err
	}

	var maxBooked int
	err = tx.GetContext(ctx, &maxBooked, `
		SELECT COALESCE(MAX(t.total), 0) FROM (
			SELECT SUM(b.seats) AS total
			FROM bookings b
			JOIN rides r ON r.id = b.ride_id
			WHERE r.driver_id = $1 AND r.status = $2 AND b.status <> $3
			GROUP BY b.ride_id
		) t
	`, userID, models.RideStatusActive, models.BookingStatusCancelled)
	if err != nil {
		return false, err
	}
	if seats < maxBooked {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE drivers SET available_seats = $1, updated_at = $2 WHERE user_id = $3`,
		seats, time.Now(), userID)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}
