package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/aditya/go-carpool/internal/models"
	"github.com/jmoiron/sqlx"
)

// Payments are created inside the booking transaction (BookingRepository),
// never on their own; this repository only reads and advances them.
type PaymentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.Payment, error)
	// MarkCompleted records the payment fact; only a pending payment can
	// complete, so a double record is a no-op for the second caller.
	MarkCompleted(ctx context.Context, id, method string) (bool, error)
}

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	query := `SELECT * FROM payments WHERE id = $1`
	err := r.db.GetContext(ctx, &payment, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	var payment models.Payment
	query := `SELECT * FROM payments WHERE booking_id = $1`
	err := r.db.GetContext(ctx, &payment, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) MarkCompleted(ctx context.Context, id, method string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = $1, method = $2, updated_at = $3 WHERE id = $4 AND status = $5`,
		models.PaymentStatusCompleted, method, time.Now(), id, models.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
