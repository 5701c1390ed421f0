package service

import (
	"context"
	"log"

	"github.com/aditya/go-carpool/internal/cache"
	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/repository"
)

type BookingService interface {
	CreateBooking(ctx context.Context, p models.Principal, req *models.CreateBookingRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, p models.Principal, id string) (*models.Booking, error)
	ListRiderBookings(ctx context.Context, p models.Principal) ([]models.Booking, error)
	ListRideBookings(ctx context.Context, p models.Principal, rideID string) ([]models.Booking, error)
	ListDriverBookings(ctx context.Context, p models.Principal) ([]models.Booking, error)
	CancelBooking(ctx context.Context, p models.Principal, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, p models.Principal, id string, req *models.UpdateBookingRequest) (*models.Booking, error)
	UpdatePickupTimes(ctx context.Context, p models.Principal, rideID string, updates []models.PickupUpdate) (*models.PickupBatchResult, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	rideRepo    repository.RideRepository
	driverRepo  repository.DriverRepository
	seatCache   cache.SeatAvailabilityCache
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	seatCache cache.SeatAvailabilityCache,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		rideRepo:    rideRepo,
		driverRepo:  driverRepo,
		seatCache:   seatCache,
	}
}

// loadBooking fetches a booking and repairs one caught in the declined but
// still-confirmed crash window before handing it to callers.
func loadBooking(ctx context.Context, repo repository.BookingRepository, id string) (*models.Booking, error) {
	booking, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.NotFound("booking")
	}

	if booking.NeedsRepair() {
		if err := repo.ForceCancel(ctx, booking.ID); err != nil {
			return nil, err
		}
		booking.Status = models.BookingStatusCancelled
	}

	return booking, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, p models.Principal, req *models.CreateBookingRequest) (*models.Booking, error) {
	if p.Suspended {
		return nil, apperrors.AccountSuspended()
	}

	// Fast fail; the booking transaction re-checks under the ride lock.
	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}
	if !ride.IsActive() {
		return nil, apperrors.RideNotActive()
	}

	booking := &models.Booking{
		RideID:     req.RideID,
		RiderID:    p.UserID,
		Seats:      req.Seats,
		SeatNumber: req.SeatNumber,
		PickupTime: req.PickupTime,
	}
	if req.PickupLocation != "" {
		booking.PickupLocation = &req.PickupLocation
	}

	payment := &models.Payment{
		Amount: float64(req.Seats) * ride.PricePerSeat,
		Method: models.PaymentMethodCash,
	}

	if err := s.bookingRepo.CreateConfirmed(ctx, booking, payment); err != nil {
		return nil, s.mapCreateError(ctx, ride, req, err)
	}

	s.invalidateSeats(ctx, req.RideID)
	return booking, nil
}

func (s *bookingService) mapCreateError(ctx context.Context, ride *models.Ride, req *models.CreateBookingRequest, err error) error {
	switch err {
	case apperrors.ErrInsufficientSeats:
		remaining := 0
		if driver, derr := s.driverRepo.GetByUserID(ctx, ride.DriverID); derr == nil && driver != nil {
			if booked, berr := s.bookingRepo.BookedSeats(ctx, ride.ID); berr == nil {
				remaining = driver.AvailableSeats - booked
			}
		}
		return apperrors.InsufficientSeats(req.Seats, remaining)
	case apperrors.ErrSeatTaken:
		seat := 0
		if req.SeatNumber != nil {
			seat = *req.SeatNumber
		}
		return apperrors.SeatTaken(seat)
	case apperrors.ErrDuplicateBooking:
		return apperrors.DuplicateBooking()
	case apperrors.ErrRideNotActive:
		return apperrors.RideNotActive()
	case apperrors.ErrNotFound:
		return apperrors.NotFound("ride")
	}
	return err
}

func (s *bookingService) GetBooking(ctx context.Context, p models.Principal, id string) (*models.Booking, error) {
	booking, err := loadBooking(ctx, s.bookingRepo, id)
	if err != nil {
		return nil, err
	}

	if booking.RiderID != p.UserID && !p.IsAdmin() {
		ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
		if err != nil {
			return nil, err
		}
		if ride == nil || ride.DriverID != p.UserID {
			return nil, apperrors.Unauthorized("you are not a party to this booking")
		}
	}

	return booking, nil
}

func (s *bookingService) ListRiderBookings(ctx context.Context, p models.Principal) ([]models.Booking, error) {
	return s.bookingRepo.ListByRiderID(ctx, p.UserID)
}

func (s *bookingService) ListRideBookings(ctx context.Context, p models.Principal, rideID string) ([]models.Booking, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}
	if ride.DriverID != p.UserID && !p.IsAdmin() {
		return nil, apperrors.Unauthorized("only the ride's driver may list its bookings")
	}

	return s.bookingRepo.ListByRideID(ctx, rideID)
}

func (s *bookingService) ListDriverBookings(ctx context.Context, p models.Principal) ([]models.Booking, error) {
	return s.bookingRepo.ListByDriverID(ctx, p.UserID)
}

func (s *bookingService) CancelBooking(ctx context.Context, p models.Principal, id string) (*models.Booking, error) {
	booking, err := loadBooking(ctx, s.bookingRepo, id)
	if err != nil {
		return nil, err
	}

	if booking.RiderID != p.UserID && !p.IsAdmin() {
		return nil, apperrors.Unauthorized("only the booking owner may cancel it")
	}

	if !booking.CanTransitionTo(models.BookingStatusCancelled) {
		return nil, apperrors.InvalidTransition(booking.Status, models.BookingStatusCancelled)
	}

	// Direct cancellation never refunds on its own: refunds are automatic
	// only on the amount-decline and ride-cascade paths.
	ok, err := s.bookingRepo.TransitionStatus(ctx, id,
		models.BookingStatusConfirmed, models.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		booking, err = loadBooking(ctx, s.bookingRepo, id)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidTransition(booking.Status, models.BookingStatusCancelled)
	}

	s.invalidateSeats(ctx, booking.RideID)

	booking.Status = models.BookingStatusCancelled
	return booking, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, p models.Principal, id string, req *models.UpdateBookingRequest) (*models.Booking, error) {
	booking, err := loadBooking(ctx, s.bookingRepo, id)
	if err != nil {
		return nil, err
	}

	if booking.RiderID != p.UserID && !p.IsAdmin() {
		return nil, apperrors.Unauthorized("only the booking owner may update it")
	}

	if booking.Status != models.BookingStatusConfirmed {
		return nil, apperrors.InvalidTransition(booking.Status, booking.Status)
	}

	if req.PickupLocation == nil && req.PickupTime == nil {
		return nil, apperrors.BadRequest("no fields to update")
	}

	updated, err := s.bookingRepo.UpdatePickup(ctx, id, req.PickupTime, req.PickupLocation)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.NotFound("booking")
	}
	return updated, nil
}

func (s *bookingService) UpdatePickupTimes(ctx context.Context, p models.Principal, rideID string, updates []models.PickupUpdate) (*models.PickupBatchResult, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}
	if ride.DriverID != p.UserID && !p.IsAdmin() {
		return nil, apperrors.Unauthorized("only the ride's driver may set pickup times")
	}

	bookings, err := s.bookingRepo.ListByRideID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	onRide := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		onRide[b.ID] = true
	}

	// Batch semantics: entries referencing a booking outside this ride
	// are skipped, not errored, and reported back in SkippedIDs.
	result := &models.PickupBatchResult{
		Updated:    make([]models.Booking, 0, len(updates)),
		SkippedIDs: make([]string, 0),
	}
	for _, u := range updates {
		if !onRide[u.BookingID] {
			result.SkippedIDs = append(result.SkippedIDs, u.BookingID)
			continue
		}

		pickupTime := u.PickupTime
		var loc *string
		if u.PickupLocation != "" {
			loc = &u.PickupLocation
		}
		updated, err := s.bookingRepo.UpdatePickup(ctx, u.BookingID, &pickupTime, loc)
		if err != nil {
			return nil, err
		}
		if updated == nil {
			result.SkippedIDs = append(result.SkippedIDs, u.BookingID)
			continue
		}
		result.Updated = append(result.Updated, *updated)
	}

	return result, nil
}

func (s *bookingService) invalidateSeats(ctx context.Context, rideID string) {
	if s.seatCache == nil {
		return
	}
	if err := s.seatCache.Invalidate(ctx, rideID); err != nil {
		log.Printf("failed to invalidate seat cache for ride %s: %v", rideID, err)
	}
}
