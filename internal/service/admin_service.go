package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/campushub/campushub-api/internal/authz"
	"github.com/campushub/campushub-api/internal/dto"
	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/repository"
)

// AdminService orchestrates principal administration. Every mutation is
// gated by the authorization matrix against the target's current role.
type AdminService interface {
	ListUsers(ctx context.Context, actor models.User, limit, offset int) ([]dto.UserResponse, error)
	ToggleSuspension(ctx context.Context, actor models.User, targetID uint) (dto.SuspensionResponse, error)
	DeleteUser(ctx context.Context, actor models.User, targetID uint) error
	CreateReviewer(ctx context.Context, actor models.User, payload dto.CreateReviewerRequest) (dto.UserResponse, error)
}

type adminService struct {
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminService constructs the admin service.
func NewAdminService(users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) AdminService {
	return &adminService{
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "admin_service").Logger(),
	}
}

func (s *adminService) ListUsers(ctx context.Context, actor models.User, limit, offset int) ([]dto.UserResponse, error) {
	if !actor.IsReviewer() {
		return nil, ErrForbidden
	}

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewUserResponseSlice(users), nil
}

func (s *adminService) ToggleSuspension(ctx context.Context, actor models.User, targetID uint) (dto.SuspensionResponse, error) {
	target, err := s.loadTarget(ctx, targetID)
	if err != nil {
		return dto.SuspensionResponse{}, err
	}

	if !authz.CanPerform(actor.Role, authz.ActionSuspendUser, target.Role) {
		return dto.SuspensionResponse{}, ErrForbidden
	}

	suspended := !target.Suspended
	if err := s.users.SetSuspended(ctx, targetID, suspended); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SuspensionResponse{}, ErrNotFound
		}
		return dto.SuspensionResponse{}, err
	}

	s.logger.Info().
		Uint("actor_id", actor.ID).
		Uint("target_id", targetID).
		Bool("suspended", suspended).
		Msg("suspension toggled")

	return dto.SuspensionResponse{ID: targetID, Suspended: suspended}, nil
}

func (s *adminService) DeleteUser(ctx context.Context, actor models.User, targetID uint) error {
	target, err := s.loadTarget(ctx, targetID)
	if err != nil {
		return err
	}

	if !authz.CanPerform(actor.Role, authz.ActionDeleteUser, target.Role) {
		return ErrForbidden
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.logger.Info().Uint("actor_id", actor.ID).Uint("target_id", targetID).Msg("principal deleted")
	return nil
}

func (s *adminService) CreateReviewer(ctx context.Context, actor models.User, payload dto.CreateReviewerRequest) (dto.UserResponse, error) {
	if !authz.CanPerform(actor.Role, authz.ActionCreateReviewer, models.RoleAdmin) {
		return dto.UserResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	reviewer := models.User{
		Name:         payload.Name,
		Email:        payload.Email,
		RollNumber:   payload.RollNumber,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}

	if err := s.users.Create(ctx, &reviewer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("actor_id", actor.ID).Uint("reviewer_id", reviewer.ID).Msg("reviewer account created")

	return dto.NewUserResponse(reviewer), nil
}

func (s *adminService) loadTarget(ctx context.Context, targetID uint) (models.User, error) {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return target, nil
}
