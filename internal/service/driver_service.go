package service

import (
	"context"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/repository"
)

type DriverService interface {
	CreateDriver(ctx context.Context, p models.Principal, req *models.CreateDriverRequest) (*models.Driver, error)
	GetProfile(ctx context.Context, p models.Principal) (*models.DriverResponse, error)
	Approve(ctx context.Context, p models.Principal, driverID string) (*models.Driver, error)
	UpdateAvailableSeats(ctx context.Context, p models.Principal, req *models.UpdateSeatsRequest) (*models.Driver, error)
}

type driverService struct {
	driverRepo repository.DriverRepository
	userRepo   repository.UserRepository
}

func NewDriverService(
	driverRepo repository.DriverRepository,
	userRepo repository.UserRepository,
) DriverService {
	return &driverService{
		driverRepo: driverRepo,
		userRepo:   userRepo,
	}
}

func (s *driverService) CreateDriver(ctx context.Context, p models.Principal, req *models.CreateDriverRequest) (*models.Driver, error) {
	if p.Suspended {
		return nil, apperrors.AccountSuspended()
	}
	if p.Role != models.RoleDriver {
		return nil, apperrors.Unauthorized("only driver accounts may register a vehicle")
	}

	existing, err := s.driverRepo.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("driver profile already exists")
	}

	driver := &models.Driver{
		UserID:         p.UserID,
		VehicleNumber:  req.VehicleNumber,
		AvailableSeats: req.AvailableSeats,
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}

	return driver, nil
}

func (s *driverService) GetProfile(ctx context.Context, p models.Principal) (*models.DriverResponse, error) {
	driver, err := s.driverRepo.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, apperrors.NotFound("driver profile")
	}
	return driver.ToResponse(), nil
}

func (s *driverService) Approve(ctx context.Context, p models.Principal, driverID string) (*models.Driver, error) {
	if !p.IsAdmin() {
		return nil, apperrors.Forbidden("only admins may approve drivers")
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, apperrors.NotFound("driver")
	}
	if driver.IsApproved {
		return driver, nil
	}

	if err := s.driverRepo.SetApproved(ctx, driverID, true); err != nil {
		return nil, err
	}
	driver.IsApproved = true
	return driver, nil
}

func (s *driverService) UpdateAvailableSeats(ctx context.Context, p models.Principal, req *models.UpdateSeatsRequest) (*models.Driver, error) {
	if p.Suspended {
		return nil, apperrors.AccountSuspended()
	}

	driver, err := s.driverRepo.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, apperrors.NotFound("driver profile")
	}

	// The repository refuses, under a driver row lock, to shrink capacity
	// below seats already sold on an open ride.
	ok, err := s.driverRepo.UpdateAvailableSeats(ctx, driver.UserID, req.AvailableSeats)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Conflict("cannot reduce seats below existing bookings")
	}
	driver.AvailableSeats = req.AvailableSeats
	return driver, nil
}
