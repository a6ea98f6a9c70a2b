package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/campushub/campushub-api/internal/dto"
	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/repository"
)

// ErrEmailTaken indicates the registration email or roll number collides
// with an existing account.
var ErrEmailTaken = errors.New("account already exists")

// AuthService issues tokens and resolves principals from presented tokens.
// Role and suspension state are always re-read from the user store; the
// role embedded in a token is informational only.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	// ResolvePrincipal verifies the token and loads the current principal.
	// It fails with ErrInvalidCredential, ErrUnknownPrincipal or
	// ErrAccountSuspended; on success the caller may trust the returned
	// user for the duration of the request or connection.
	ResolvePrincipal(ctx context.Context, token string) (models.User, error)
}

type authService struct {
	users     repository.UserRepository
	secret    []byte
	tokenTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the identity and session guard.
func NewAuthService(users repository.UserRepository, secret string, tokenTTL time.Duration, validate *validator.Validate, logger zerolog.Logger) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	return &authService{
		users:     users,
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:         payload.Name,
		Email:        payload.Email,
		RollNumber:   payload.RollNumber,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AuthResponse{}, ErrEmailTaken
		}
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("account registered")

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredential
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredential
	}

	if user.Suspended {
		return dto.AuthResponse{}, ErrAccountSuspended
	}

	return s.issue(user)
}

func (s *authService) ResolvePrincipal(ctx context.Context, token string) (models.User, error) {
	subject, err := s.verify(token)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUnknownPrincipal
		}
		return models.User{}, err
	}

	if user.Suspended {
		return models.User{}, ErrAccountSuspended
	}

	return user, nil
}

func (s *authService) issue(user models.User) (dto.AuthResponse, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return dto.AuthResponse{
		Token: signed,
		User:  dto.NewUserResponse(user),
	}, nil
}

func (s *authService) verify(token string) (uint, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidCredential
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidCredential
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return 0, ErrInvalidCredential
	}

	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidCredential
	}

	return uint(id), nil
}
