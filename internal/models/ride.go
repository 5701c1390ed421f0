package models

import (
	"time"
)

// Ride status constants
const (
	RideStatusActive    = "active"
	RideStatusCompleted = "completed"
	RideStatusCancelled = "cancelled"
)

// Valid ride state transitions
var ValidRideTransitions = map[string][]string{
	RideStatusActive:    {RideStatusCompleted, RideStatusCancelled},
	RideStatusCompleted: {},
	RideStatusCancelled: {},
}

type Ride struct {
	ID           string    `db:"id" json:"id"`
	DriverID     string    `db:"driver_id" json:"driver_id"`
	Destination  string    `db:"destination" json:"destination"`
	DepartureAt  time.Time `db:"departure_at" json:"departure_at"`
	PricePerSeat float64   `db:"price_per_seat" json:"price_per_seat"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type CreateRideRequest struct {
	Destination  string    `json:"destination" validate:"required,min=2,max=200"`
	DepartureAt  time.Time `json:"departure_at" validate:"required"`
	PricePerSeat float64   `json:"price_per_seat" validate:"required,gt=0"`
}

// UpdateRideRequest patches a ride; unspecified fields are left unchanged.
// Setting Status to "completed" triggers settlement.
type UpdateRideRequest struct {
	Destination  *string    `json:"destination,omitempty" validate:"omitempty,min=2,max=200"`
	DepartureAt  *time.Time `json:"departure_at,omitempty"`
	PricePerSeat *float64   `json:"price_per_seat,omitempty" validate:"omitempty,gt=0"`
	Status       *string    `json:"status,omitempty" validate:"omitempty,oneof=active completed"`
}

type RideResponse struct {
	ID             string    `json:"id"`
	DriverID       string    `json:"driver_id"`
	Destination    string    `json:"destination"`
	DepartureAt    time.Time `json:"departure_at"`
	PricePerSeat   float64   `json:"price_per_seat"`
	Status         string    `json:"status"`
	AvailableSeats int       `json:"available_seats"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SettlementResult reports what a ride update actually settled, so callers
// and tests can observe the credited amount without re-querying the driver.
type SettlementResult struct {
	Ride              *Ride   `json:"ride"`
	Settled           bool    `json:"settled"`
	CompletedBookings int     `json:"completed_bookings"`
	SettledEarnings   float64 `json:"settled_earnings"`
}

// CascadeResult reports what a ride deletion unwound.
type CascadeResult struct {
	CancelledBookings int `json:"cancelled_bookings"`
	RefundedPayments  int `json:"refunded_payments"`
}

// CanTransitionTo checks if the ride can move to a new status
func (r *Ride) CanTransitionTo(newStatus string) bool {
	validNextStates, exists := ValidRideTransitions[r.Status]
	if !exists {
		return false
	}

	for _, state := range validNextStates {
		if state == newStatus {
			return true
		}
	}
	return false
}

// IsActive returns true if the ride still accepts bookings
func (r *Ride) IsActive() bool {
	return r.Status == RideStatusActive
}

func (r *Ride) ToResponse(availableSeats int) *RideResponse {
	return &RideResponse{
		ID:             r.ID,
		DriverID:       r.DriverID,
		Destination:    r.Destination,
		DepartureAt:    r.DepartureAt,
		PricePerSeat:   r.PricePerSeat,
		Status:         r.Status,
		AvailableSeats: availableSeats,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
