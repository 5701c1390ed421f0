package service

import (
	"context"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/repository"
)

// NegotiationService runs the additional-amount handshake: the driver
// proposes an extra charge on a confirmed booking, the rider accepts or
// declines. Declining unwinds the booking instead of leaving it in limbo.
type NegotiationService interface {
	RequestAdditionalAmount(ctx context.Context, p models.Principal, bookingID string, amount float64) (*models.Booking, error)
	RespondToAdditionalAmount(ctx context.Context, p models.Principal, bookingID string, accept bool) (*models.Booking, error)
}

type negotiationService struct {
	bookingRepo repository.BookingRepository
	rideRepo    repository.RideRepository
}

func NewNegotiationService(
	bookingRepo repository.BookingRepository,
	rideRepo repository.RideRepository,
) NegotiationService {
	return &negotiationService{
		bookingRepo: bookingRepo,
		rideRepo:    rideRepo,
	}
}

func (s *negotiationService) RequestAdditionalAmount(ctx context.Context, p models.Principal, bookingID string, amount float64) (*models.Booking, error) {
	if p.Suspended {
		return nil, apperrors.AccountSuspended()
	}
	if amount <= 0 {
		return nil, apperrors.BadRequest("amount must be greater than zero")
	}

	booking, err := loadBooking(ctx, s.bookingRepo, bookingID)
	if err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}
	if ride.DriverID != p.UserID && !p.IsAdmin() {
		return nil, apperrors.Unauthorized("only the ride's driver may request an additional amount")
	}

	if booking.Status != models.BookingStatusConfirmed {
		return nil, apperrors.InvalidTransition(booking.Status, models.BookingStatusConfirmed)
	}
	if booking.HasPendingAmountRequest() {
		return nil, apperrors.ConflictingRequest()
	}

	ok, err := s.bookingRepo.RequestAmount(ctx, bookingID, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race: either another request landed first or the
		// booking left confirmed in the meantime.
		return nil, apperrors.ConflictingRequest()
	}

	return loadBooking(ctx, s.bookingRepo, bookingID)
}

func (s *negotiationService) RespondToAdditionalAmount(ctx context.Context, p models.Principal, bookingID string, accept bool) (*models.Booking, error) {
	if p.Suspended {
		return nil, apperrors.AccountSuspended()
	}

	booking, err := loadBooking(ctx, s.bookingRepo, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.RiderID != p.UserID && !p.IsAdmin() {
		return nil, apperrors.Unauthorized("only the booking owner may respond to an amount request")
	}

	if booking.Status != models.BookingStatusConfirmed || !booking.HasPendingAmountRequest() {
		return nil, apperrors.NoPendingRequest()
	}

	var ok bool
	if accept {
		ok, err = s.bookingRepo.AcceptAmount(ctx, bookingID)
	} else {
		ok, err = s.bookingRepo.DeclineAmount(ctx, bookingID)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent response already resolved the request.
		return nil, apperrors.NoPendingRequest()
	}

	return loadBooking(ctx, s.bookingRepo, bookingID)
}
