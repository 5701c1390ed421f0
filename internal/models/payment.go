package models

import (
	"time"
)

// Payment status constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"
)

// Payment methods
const (
	PaymentMethodCash   = "cash"
	PaymentMethodWallet = "wallet"
	PaymentMethodCard   = "card"
	PaymentMethodUPI    = "upi"
)

// Payment is a recorded fact, one-to-one with its booking. No gateway is
// involved: completing a payment records that the rider paid, and refunds
// are status flips driven by the cancellation paths.
type Payment struct {
	ID        string    `db:"id" json:"id"`
	BookingID string    `db:"booking_id" json:"booking_id"`
	Amount    float64   `db:"amount" json:"amount"`
	Method    string    `db:"method" json:"method"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type RecordPaymentRequest struct {
	Method string `json:"method" validate:"required,oneof=cash wallet card upi"`
}

type PaymentResponse struct {
	ID        string  `json:"id"`
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Status    string  `json:"status"`
}

func (p *Payment) ToResponse() *PaymentResponse {
	return &PaymentResponse{
		ID:        p.ID,
		BookingID: p.BookingID,
		Amount:    p.Amount,
		Method:    p.Method,
		Status:    p.Status,
	}
}
