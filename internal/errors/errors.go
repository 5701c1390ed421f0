package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("storage unavailable")

	// Business errors
	ErrInsufficientSeats = errors.New("not enough available seats")
	ErrSeatTaken         = errors.New("seat already taken")
	ErrDuplicateBooking  = errors.New("rider already has a booking for this ride")
	ErrRideNotActive     = errors.New("ride is not active")
	ErrPendingRequest    = errors.New("an additional amount request is already pending")
	ErrNoPendingRequest  = errors.New("no pending additional amount request")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrDriverNotApproved = errors.New("driver is not approved")
	ErrAccountSuspended  = errors.New("account is suspended")
)

// APIError represents a structured API error
type APIError struct {
	Code       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Common API errors
func NotFound(resource string) *APIError {
	return NewAPIError("not_found", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func BadRequest(message string) *APIError {
	return NewAPIError("bad_request", message, http.StatusBadRequest)
}

func Conflict(message string) *APIError {
	return NewAPIError("conflict", message, http.StatusConflict)
}

func Unauthorized(message string) *APIError {
	return NewAPIError("unauthorized", message, http.StatusUnauthorized)
}

func Forbidden(message string) *APIError {
	return NewAPIError("forbidden", message, http.StatusForbidden)
}

func InternalError(message string) *APIError {
	return NewAPIError("internal_error", message, http.StatusInternalServerError)
}

func Unavailable() *APIError {
	return NewAPIError("unavailable", "storage is temporarily unavailable, no changes were made", http.StatusServiceUnavailable)
}

// Every rejection names the invariant it protects; the calling UI surfaces
// these messages directly.

func InsufficientSeats(requested, remaining int) *APIError {
	return NewAPIError("insufficient_seats",
		fmt.Sprintf("not enough available seats: requested %d, %d remaining", requested, remaining),
		http.StatusConflict)
}

func SeatTaken(seat int) *APIError {
	return NewAPIError("seat_taken",
		fmt.Sprintf("seat %d is already taken on this ride", seat),
		http.StatusConflict)
}

func DuplicateBooking() *APIError {
	return NewAPIError("duplicate_booking",
		"you already have a confirmed booking for this ride",
		http.StatusConflict)
}

func RideNotActive() *APIError {
	return NewAPIError("ride_not_active", "this ride is no longer active", http.StatusConflict)
}

func ConflictingRequest() *APIError {
	return NewAPIError("conflicting_request",
		"an additional amount request is already pending on this booking",
		http.StatusConflict)
}

func NoPendingRequest() *APIError {
	return NewAPIError("no_pending_request",
		"there is no pending additional amount request on this booking",
		http.StatusConflict)
}

func InvalidTransition(from, to string) *APIError {
	return NewAPIError("invalid_transition",
		fmt.Sprintf("cannot transition from %s to %s", from, to),
		http.StatusBadRequest)
}

func DriverNotApproved() *APIError {
	return NewAPIError("driver_not_approved", "driver is not approved to publish rides", http.StatusForbidden)
}

func AccountSuspended() *APIError {
	return NewAPIError("account_suspended", "your account is suspended", http.StatusForbidden)
}
