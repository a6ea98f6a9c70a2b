package dto

import (
	"time"

	"github.com/campushub/campushub-api/internal/models"
)

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=255"`
	Email      string `json:"email" validate:"required,email"`
	RollNumber string `json:"roll_number" validate:"required,min=4,max=64"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public projection of a principal. The credential
// hash is never serialized.
type UserResponse struct {
	ID         uint        `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	RollNumber string      `json:"roll_number"`
	Role       models.Role `json:"role"`
	Suspended  bool        `json:"suspended"`
	CreatedAt  time.Time   `json:"created_at"`
}

// AuthResponse carries a signed token alongside the authenticated user.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// NewUserResponse converts a User model into its public projection.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:         model.ID,
		Name:       model.Name,
		Email:      model.Email,
		RollNumber: model.RollNumber,
		Role:       model.Role,
		Suspended:  model.Suspended,
		CreatedAt:  model.CreatedAt,
	}
}

// NewUserResponseSlice converts a list of users.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}
	return responses
}
