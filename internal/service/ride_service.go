package service

import (
	"context"
	"log"
	"time"

	"github.com/aditya/go-carpool/internal/cache"
	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/repository"
)

type RideService interface {
	CreateRide(ctx context.Context, p models.Principal, req *models.CreateRideRequest) (*models.Ride, error)
	GetRide(ctx context.Context, id string) (*models.RideResponse, error)
	ListRides(ctx context.Context) ([]models.Ride, error)
	ListDriverRides(ctx context.Context, p models.Principal) ([]models.Ride, error)
	UpdateRide(ctx context.Context, p models.Principal, id string, req *models.UpdateRideRequest) (*models.SettlementResult, error)
	CompleteRide(ctx context.Context, p models.Principal, id string) (*models.SettlementResult, error)
	DeleteRide(ctx context.Context, p models.Principal, id string) (*models.CascadeResult, error)
}

type rideService struct {
	rideRepo   repository.RideRepository
	driverRepo repository.DriverRepository
	inventory  InventoryService
	seatCache  cache.SeatAvailabilityCache
}

func NewRideService(
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	inventory InventoryService,
	seatCache cache.SeatAvailabilityCache,
) RideService {
	return &rideService{
		rideRepo:   rideRepo,
		driverRepo: driverRepo,
		inventory:  inventory,
		seatCache:  seatCache,
	}
}

func (s *rideService) CreateRide(ctx context.Context, p models.Principal, req *models.CreateRideRequest) (*models.Ride, error) {
	if p.Suspended {
		return nil, apperrors.AccountSuspended()
	}
	if p.Role != models.RoleDriver && !p.IsAdmin() {
		return nil, apperrors.Unauthorized("only drivers may publish rides")
	}

	driver, err := s.driverRepo.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, apperrors.NotFound("driver profile")
	}
	if !driver.IsApproved {
		return nil, apperrors.DriverNotApproved()
	}

	if req.DepartureAt.Before(time.Now()) {
		return nil, apperrors.BadRequest("departure must be in the future")
	}

	ride := &models.Ride{
		DriverID:     p.UserID,
		Destination:  req.Destination,
		DepartureAt:  req.DepartureAt,
		PricePerSeat: req.PricePerSeat,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	return ride, nil
}

func (s *rideService) GetRide(ctx context.Context, id string) (*models.RideResponse, error) {
	ride, err := s.rideRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}

	available, err := s.inventory.AvailableSeats(ctx, id)
	if err != nil {
		log.Printf("failed to read seat availability for ride %s: %v", id, err)
		available = 0
	}

	return ride.ToResponse(available), nil
}

func (s *rideService) ListRides(ctx context.Context) ([]models.Ride, error) {
	return s.rideRepo.ListActive(ctx)
}

func (s *rideService) ListDriverRides(ctx context.Context, p models.Principal) ([]models.Ride, error) {
	return s.rideRepo.ListByDriverID(ctx, p.UserID)
}

func (s *rideService) UpdateRide(ctx context.Context, p models.Principal, id string, req *models.UpdateRideRequest) (*models.SettlementResult, error) {
	if p.Suspended {
		return nil, apperrors.AccountSuspended()
	}

	ride, err := s.rideRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}
	if ride.DriverID != p.UserID && !p.IsAdmin() {
		return nil, apperrors.Unauthorized("only the ride's driver may update it")
	}

	result, err := s.rideRepo.UpdateAndSettle(ctx, id, req)
	if err != nil {
		switch err {
		case apperrors.ErrNotFound:
			return nil, apperrors.NotFound("ride")
		case apperrors.ErrInvalidTransition:
			to := ride.Status
			if req.Status != nil {
				to = *req.Status
			}
			return nil, apperrors.InvalidTransition(ride.Status, to)
		}
		return nil, err
	}

	s.invalidateSeats(ctx, id)
	return result, nil
}

// CompleteRide is the settlement entry point: a status-only update that
// flips confirmed bookings to completed and credits the driver exactly once.
func (s *rideService) CompleteRide(ctx context.Context, p models.Principal, id string) (*models.SettlementResult, error) {
	completed := models.RideStatusCompleted
	return s.UpdateRide(ctx, p, id, &models.UpdateRideRequest{Status: &completed})
}

func (s *rideService) DeleteRide(ctx context.Context, p models.Principal, id string) (*models.CascadeResult, error) {
	if p.Suspended {
		return nil, apperrors.AccountSuspended()
	}

	ride, err := s.rideRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}
	if ride.DriverID != p.UserID && !p.IsAdmin() {
		return nil, apperrors.Unauthorized("only the ride's driver may withdraw it")
	}
	if !ride.CanTransitionTo(models.RideStatusCancelled) {
		return nil, apperrors.InvalidTransition(ride.Status, models.RideStatusCancelled)
	}

	result, err := s.rideRepo.DeleteCascade(ctx, id)
	if err != nil {
		if err == apperrors.ErrNotFound {
			return nil, apperrors.NotFound("ride")
		}
		return nil, err
	}

	s.invalidateSeats(ctx, id)
	return result, nil
}

func (s *rideService) invalidateSeats(ctx context.Context, rideID string) {
	if s.seatCache == nil {
		return
	}
	if err := s.seatCache.Invalidate(ctx, rideID); err != nil {
		log.Printf("failed to invalidate seat cache for ride %s: %v", rideID, err)
	}
}
