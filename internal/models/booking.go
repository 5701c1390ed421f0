package models

import (
	"time"
)

// Booking status constants
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// Additional-amount request status constants
const (
	AmountRequestPending  = "pending"
	AmountRequestAccepted = "accepted"
	AmountRequestDeclined = "declined"
)

// Valid booking state transitions. A booking is born confirmed: the seat
// check and the insert succeed together or the row never exists.
var ValidBookingTransitions = map[string][]string{
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

type Booking struct {
	ID                     string     `db:"id" json:"id"`
	RideID                 string     `db:"ride_id" json:"ride_id"`
	RiderID                string     `db:"rider_id" json:"rider_id"`
	Seats                  int        `db:"seats" json:"seats"`
	SeatNumber             *int       `db:"seat_number" json:"seat_number,omitempty"`
	PickupLocation         *string    `db:"pickup_location" json:"pickup_location,omitempty"`
	PickupTime             *time.Time `db:"pickup_time" json:"pickup_time,omitempty"`
	Status                 string     `db:"status" json:"status"`
	AdditionalAmount       *float64   `db:"additional_amount" json:"additional_amount,omitempty"`
	AdditionalAmountStatus *string    `db:"additional_amount_status" json:"additional_amount_status,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

type CreateBookingRequest struct {
	RideID         string     `json:"ride_id" validate:"required,uuid"`
	Seats          int        `json:"seats" validate:"required,min=1"`
	SeatNumber     *int       `json:"seat_number,omitempty" validate:"omitempty,min=1"`
	PickupLocation string     `json:"pickup_location,omitempty"`
	PickupTime     *time.Time `json:"pickup_time,omitempty"`
}

type UpdateBookingRequest struct {
	PickupLocation *string    `json:"pickup_location,omitempty"`
	PickupTime     *time.Time `json:"pickup_time,omitempty"`
}

type AmountRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type AmountResponse struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
}

// PickupUpdate is one entry of a bulk pickup-time amendment.
type PickupUpdate struct {
	BookingID      string    `json:"booking_id" validate:"required,uuid"`
	PickupTime     time.Time `json:"pickup_time" validate:"required"`
	PickupLocation string    `json:"pickup_location,omitempty"`
}

type UpdatePickupTimesRequest struct {
	Updates []PickupUpdate `json:"updates" validate:"required,min=1,dive"`
}

// PickupBatchResult reports which bookings a bulk pickup update actually
// touched. Entries referencing bookings outside the ride are listed in
// SkippedIDs so the caller can diff against what it sent.
type PickupBatchResult struct {
	Updated    []Booking `json:"updated"`
	SkippedIDs []string  `json:"skipped_ids"`
}

// CanTransitionTo checks if the booking can move to a new status
func (b *Booking) CanTransitionTo(newStatus string) bool {
	validNextStates, exists := ValidBookingTransitions[b.Status]
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

// IsActive returns true while the booking holds seats on its ride
func (b *Booking) IsActive() bool {
	return b.Status != BookingStatusCancelled
}

// HasPendingAmountRequest reports whether the driver's additional-amount
// request is awaiting the rider's response.
func (b *Booking) HasPendingAmountRequest() bool {
	return b.AdditionalAmountStatus != nil && *b.AdditionalAmountStatus == AmountRequestPending
}

// NeedsRepair detects the crash window where the sub-state reached declined
// but the cancellation that must accompany it was never committed. Such a
// booking is reconciled by force-cancelling it on the next read.
func (b *Booking) NeedsRepair() bool {
	return b.Status == BookingStatusConfirmed &&
		b.AdditionalAmountStatus != nil && *b.AdditionalAmountStatus == AmountRequestDeclined
}
