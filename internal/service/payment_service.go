package service

import (
	"context"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/repository"
)

type PaymentService interface {
	RecordPayment(ctx context.Context, p models.Principal, bookingID string, req *models.RecordPaymentRequest) (*models.PaymentResponse, error)
	GetPayment(ctx context.Context, p models.Principal, bookingID string) (*models.PaymentResponse, error)
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	bookingRepo repository.BookingRepository
	rideRepo    repository.RideRepository
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	bookingRepo repository.BookingRepository,
	rideRepo repository.RideRepository,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		rideRepo:    rideRepo,
	}
}

func (s *paymentService) RecordPayment(ctx context.Context, p models.Principal, bookingID string, req *models.RecordPaymentRequest) (*models.PaymentResponse, error) {
	if p.Suspended {
		return nil, apperrors.AccountSuspended()
	}

	booking, err := loadBooking(ctx, s.bookingRepo, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.RiderID != p.UserID && !p.IsAdmin() {
		return nil, apperrors.Unauthorized("only the rider may record a payment")
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, apperrors.Conflict("cannot record payment for a cancelled booking")
	}

	payment, err := s.paymentRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperrors.NotFound("payment")
	}

	switch payment.Status {
	case models.PaymentStatusCompleted:
		// Already collected; report the existing record rather than failing.
		return payment.ToResponse(), nil
	case models.PaymentStatusRefunded:
		return nil, apperrors.Conflict("payment was already refunded")
	}

	ok, err := s.paymentRepo.MarkCompleted(ctx, payment.ID, req.Method)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Raced with a refund or another collection attempt.
		current, err := s.paymentRepo.GetByID(ctx, payment.ID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Status == models.PaymentStatusCompleted {
			return current.ToResponse(), nil
		}
		return nil, apperrors.Conflict("payment is no longer pending")
	}

	payment.Status = models.PaymentStatusCompleted
	payment.Method = req.Method
	return payment.ToResponse(), nil
}

func (s *paymentService) GetPayment(ctx context.Context, p models.Principal, bookingID string) (*models.PaymentResponse, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.NotFound("booking")
	}

	if booking.RiderID != p.UserID && !p.IsAdmin() {
		ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
		if err != nil {
			return nil, err
		}
		if ride == nil || ride.DriverID != p.UserID {
			return nil, apperrors.Unauthorized("not a party to this booking")
		}
	}

	payment, err := s.paymentRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperrors.NotFound("payment")
	}
	return payment.ToResponse(), nil
}
