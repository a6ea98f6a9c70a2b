package dto

// CreateReviewerRequest is the payload for provisioning a reviewer account.
type CreateReviewerRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=255"`
	Email      string `json:"email" validate:"required,email"`
	RollNumber string `json:"roll_number" validate:"required,min=4,max=64"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
}

// SuspensionResponse reports the target's suspension state after a toggle.
type SuspensionResponse struct {
	ID        uint `json:"id"`
	Suspended bool `json:"suspended"`
}
