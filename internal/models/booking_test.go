package models

import "testing"

func TestBookingCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"confirmed to completed", BookingStatusConfirmed, BookingStatusCompleted, true},
		{"confirmed to cancelled", BookingStatusConfirmed, BookingStatusCancelled, true},
		{"completed is terminal", BookingStatusCompleted, BookingStatusCancelled, false},
		{"cancelled is terminal", BookingStatusCancelled, BookingStatusConfirmed, false},
		{"no self loop on completed", BookingStatusCompleted, BookingStatusCompleted, false},
		{"unknown status", "limbo", BookingStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{Status: tt.from}
			if got := b.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%q -> %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestRideCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"active to completed", RideStatusActive, RideStatusCompleted, true},
		{"active to cancelled", RideStatusActive, RideStatusCancelled, true},
		{"completed is terminal", RideStatusCompleted, RideStatusCancelled, false},
		{"cancelled is terminal", RideStatusCancelled, RideStatusActive, false},
		{"no re-complete", RideStatusCompleted, RideStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Ride{Status: tt.from}
			if got := r.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%q -> %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestBookingAmountRequestState(t *testing.T) {
	pending := AmountRequestPending
	declined := AmountRequestDeclined

	b := &Booking{Status: BookingStatusConfirmed}
	if b.HasPendingAmountRequest() {
		t.Error("fresh booking must not have a pending request")
	}

	b.AdditionalAmountStatus = &pending
	if !b.HasPendingAmountRequest() {
		t.Error("expected a pending request")
	}

	// A declined sub-state on a still-confirmed booking marks a row that
	// missed its cancellation and needs repair.
	b.AdditionalAmountStatus = &declined
	if !b.NeedsRepair() {
		t.Error("declined but confirmed booking must need repair")
	}
	b.Status = BookingStatusCancelled
	if b.NeedsRepair() {
		t.Error("cancelled booking needs no repair")
	}
}
