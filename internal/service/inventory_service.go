package service

import (
	"context"
	"log"

	"github.com/aditya/go-carpool/internal/cache"
	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/repository"
)

// InventoryService is the seat ledger: remaining capacity is derived from
// the driver's vehicle capacity minus the seats of live bookings. The
// authoritative check-and-reserve happens inside the booking transaction;
// this service only answers reads.
type InventoryService interface {
	AvailableSeats(ctx context.Context, rideID string) (int, error)
}

type inventoryService struct {
	rideRepo    repository.RideRepository
	driverRepo  repository.DriverRepository
	bookingRepo repository.BookingRepository
	seatCache   cache.SeatAvailabilityCache
}

func NewInventoryService(
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	bookingRepo repository.BookingRepository,
	seatCache cache.SeatAvailabilityCache,
) InventoryService {
	return &inventoryService{
		rideRepo:    rideRepo,
		driverRepo:  driverRepo,
		bookingRepo: bookingRepo,
		seatCache:   seatCache,
	}
}

func (s *inventoryService) AvailableSeats(ctx context.Context, rideID string) (int, error) {
	if s.seatCache != nil {
		if seats, ok, err := s.seatCache.Get(ctx, rideID); err == nil && ok {
			return seats, nil
		}
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return 0, err
	}
	if ride == nil {
		return 0, apperrors.NotFound("ride")
	}

	driver, err := s.driverRepo.GetByUserID(ctx, ride.DriverID)
	if err != nil {
		return 0, err
	}
	if driver == nil {
		return 0, apperrors.NotFound("driver")
	}

	booked, err := s.bookingRepo.BookedSeats(ctx, rideID)
	if err != nil {
		return 0, err
	}

	available := driver.AvailableSeats - booked
	if available < 0 {
		available = 0
	}

	if s.seatCache != nil {
		if err := s.seatCache.Set(ctx, rideID, available); err != nil {
			log.Printf("failed to cache seat availability: %v", err)
		}
	}

	return available, nil
}
