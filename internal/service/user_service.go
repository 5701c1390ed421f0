package service

import (
	"context"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/repository"
)

type UserService interface {
	Register(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.UserResponse, error)
	Suspend(ctx context.Context, p models.Principal, id string, suspended bool) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	existing, err := s.userRepo.GetByPhone(ctx, req.Phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("phone number already registered")
	}

	user := &models.User{
		Phone: req.Phone,
		Name:  req.Name,
		Role:  req.Role,
	}
	if req.Email != "" {
		user.Email = &req.Email
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}
	return user.ToResponse(), nil
}

func (s *userService) Suspend(ctx context.Context, p models.Principal, id string, suspended bool) error {
	if !p.IsAdmin() {
		return apperrors.Forbidden("only admins may suspend accounts")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFound("user")
	}

	return s.userRepo.SetSuspended(ctx, id, suspended)
}
