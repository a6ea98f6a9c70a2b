package dto

import (
	"time"

	"github.com/campushub/campushub-api/internal/models"
)

// DocumentSubmitRequest describes the multipart classification fields for a
// document submission. Branch is validated separately: it is required when
// the program is MTECH.
type DocumentSubmitRequest struct {
	Program    string `form:"program" validate:"required,oneof=BTECH MTECH"`
	Department string `form:"department" validate:"required,min=2,max=64"`
	Branch     string `form:"branch" validate:"omitempty,min=2,max=64"`
	Subject    string `form:"subject" validate:"required,min=2,max=128"`
	Semester   int    `form:"semester" validate:"required,gte=1,lte=10"`
	Year       int    `form:"year" validate:"required,gte=1990,lte=2100"`
}

// DocumentFilter narrows public browsing of approved documents.
type DocumentFilter struct {
	Program    string `query:"program" validate:"omitempty,oneof=BTECH MTECH"`
	Department string `query:"department"`
	Branch     string `query:"branch"`
	Subject    string `query:"subject"`
	Semester   int    `query:"semester" validate:"omitempty,gte=1,lte=10"`
	Year       int    `query:"year" validate:"omitempty,gte=1990,lte=2100"`
}

// RejectRequest carries the optional reviewer-supplied rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=512"`
}

// DocumentResponse is returned when viewing a submitted document.
type DocumentResponse struct {
	ID              uint                  `json:"id"`
	Kind            models.DocumentKind   `json:"kind"`
	Program         string                `json:"program"`
	Department      string                `json:"department"`
	Branch          string                `json:"branch,omitempty"`
	Subject         string                `json:"subject"`
	Semester        int                   `json:"semester"`
	Year            int                   `json:"year"`
	FileURL         string                `json:"file_url"`
	Status          models.DocumentStatus `json:"status"`
	RejectionReason string                `json:"rejection_reason,omitempty"`
	SubmitterID     uint                  `json:"submitter_id"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// NewDocumentResponse converts a Document model into a DTO.
func NewDocumentResponse(model models.Document) DocumentResponse {
	return DocumentResponse{
		ID:              model.ID,
		Kind:            model.Kind,
		Program:         model.Program,
		Department:      model.Department,
		Branch:          model.Branch,
		Subject:         model.Subject,
		Semester:        model.Semester,
		Year:            model.Year,
		FileURL:         model.FileURL,
		Status:          model.Status,
		RejectionReason: model.RejectionReason,
		SubmitterID:     model.SubmitterID,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewDocumentResponseSlice converts a list of documents.
func NewDocumentResponseSlice(documents []models.Document) []DocumentResponse {
	responses := make([]DocumentResponse, 0, len(documents))
	for _, document := range documents {
		responses = append(responses, NewDocumentResponse(document))
	}
	return responses
}
