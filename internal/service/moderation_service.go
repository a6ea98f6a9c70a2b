package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/campushub/campushub-api/internal/authz"
	"github.com/campushub/campushub-api/internal/dto"
	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/observability"
	"github.com/campushub/campushub-api/internal/repository"
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ModerationService governs the document lifecycle for one content kind.
// Two instances run side by side, one for question papers and one for
// notes, sharing the same transition rules.
type ModerationService interface {
	Submit(ctx context.Context, submitter models.User, payload dto.DocumentSubmitRequest, file *multipart.FileHeader) (dto.DocumentResponse, error)
	Approve(ctx context.Context, id uint, reviewer models.User) (dto.DocumentResponse, error)
	Reject(ctx context.Context, id uint, reviewer models.User, reason string) (dto.DocumentResponse, error)
	ListPending(ctx context.Context, reviewer models.User, limit, offset int) ([]dto.DocumentResponse, error)
	ListApproved(ctx context.Context, filter dto.DocumentFilter, limit, offset int) ([]dto.DocumentResponse, error)
}

type moderationService struct {
	kind      models.DocumentKind
	repo      repository.DocumentRepository
	validator *validator.Validate
	uploader  FileUploader
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewModerationService constructs a moderation service for one document kind.
func NewModerationService(kind models.DocumentKind, repo repository.DocumentRepository, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) ModerationService {
	return &moderationService{
		kind:      kind,
		repo:      repo,
		validator: validate,
		uploader:  uploader,
		logger:    logger.With().Str("component", "moderation_service").Str("kind", string(kind)).Logger(),
		tracer:    otel.Tracer("github.com/campushub/campushub-api/internal/service/moderation"),
	}
}

func (s *moderationService) Submit(ctx context.Context, submitter models.User, payload dto.DocumentSubmitRequest, file *multipart.FileHeader) (dto.DocumentResponse, error) {
	if !authz.CanPerform(submitter.Role, authz.ActionSubmitDocument, "") {
		return dto.DocumentResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.DocumentResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	// Branch is part of the classification only for the program that has
	// branches.
	branch := strings.TrimSpace(payload.Branch)
	if payload.Program == models.ProgramMTech && branch == "" {
		return dto.DocumentResponse{}, fmt.Errorf("%w: branch is required for program %s", ErrValidation, models.ProgramMTech)
	}
	if payload.Program != models.ProgramMTech {
		branch = ""
	}

	if file == nil {
		return dto.DocumentResponse{}, fmt.Errorf("%w: document file is required", ErrValidation)
	}

	if err := validateDocumentFile(file); err != nil {
		return dto.DocumentResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.DocumentResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	fileURL, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.DocumentResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}

	document := models.Document{
		Kind:        s.kind,
		Program:     payload.Program,
		Department:  strings.TrimSpace(payload.Department),
		Branch:      branch,
		Subject:     strings.TrimSpace(payload.Subject),
		Semester:    payload.Semester,
		Year:        payload.Year,
		FileURL:     fileURL,
		Status:      models.DocumentPending,
		SubmitterID: submitter.ID,
	}

	if err := s.repo.Create(ctx, &document); err != nil {
		return dto.DocumentResponse{}, err
	}

	s.logger.Info().Uint("document_id", document.ID).Uint("submitter_id", submitter.ID).Msg("document submitted for review")

	return dto.NewDocumentResponse(document), nil
}

func (s *moderationService) Approve(ctx context.Context, id uint, reviewer models.User) (dto.DocumentResponse, error) {
	return s.decide(ctx, id, reviewer, models.ReviewApprove, "")
}

func (s *moderationService) Reject(ctx context.Context, id uint, reviewer models.User, reason string) (dto.DocumentResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = models.DefaultRejectionReason
	}
	return s.decide(ctx, id, reviewer, models.ReviewReject, reason)
}

// decide applies a review action. The transition is written conditionally on
// the pending status so a concurrent decision cannot be overwritten; a
// failed transition leaves the record untouched.
func (s *moderationService) decide(ctx context.Context, id uint, reviewer models.User, action models.ReviewAction, reason string) (dto.DocumentResponse, error) {
	if !authz.CanPerform(reviewer.Role, authz.ActionReviewDocument, "") {
		return dto.DocumentResponse{}, ErrForbidden
	}

	spanCtx, span := s.tracer.Start(ctx, "moderation.decide", trace.WithAttributes(
		attribute.String("document.kind", string(s.kind)),
		attribute.Int("document.id", int(id)),
		attribute.String("document.action", string(action)),
	))
	defer span.End()

	document, err := s.repo.GetByID(spanCtx, s.kind, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentResponse{}, ErrNotFound
		}
		return dto.DocumentResponse{}, err
	}

	to, ok := models.NextStatus(document.Status, action)
	if !ok {
		return dto.DocumentResponse{}, fmt.Errorf("%w: cannot %s a %s document", ErrInvalidTransition, action, document.Status)
	}

	if err := s.repo.Transition(spanCtx, id, document.Status, to, reason); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			// Another reviewer decided first.
			return dto.DocumentResponse{}, fmt.Errorf("%w: document already decided", ErrInvalidTransition)
		}
		span.RecordError(err)
		return dto.DocumentResponse{}, err
	}

	document.Status = to
	document.RejectionReason = reason

	observability.ModerationDecisions().WithLabelValues(string(s.kind), string(action)).Inc()
	s.logger.Info().
		Uint("document_id", id).
		Uint("reviewer_id", reviewer.ID).
		Str("decision", string(action)).
		Msg("moderation decision recorded")

	return dto.NewDocumentResponse(document), nil
}

func (s *moderationService) ListPending(ctx context.Context, reviewer models.User, limit, offset int) ([]dto.DocumentResponse, error) {
	if !authz.CanPerform(reviewer.Role, authz.ActionReviewDocument, "") {
		return nil, ErrForbidden
	}

	documents, err := s.repo.ListPending(ctx, s.kind, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewDocumentResponseSlice(documents), nil
}

func (s *moderationService) ListApproved(ctx context.Context, filter dto.DocumentFilter, limit, offset int) ([]dto.DocumentResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	documents, err := s.repo.ListApproved(ctx, s.kind, repository.DocumentFilter{
		Program:    filter.Program,
		Department: filter.Department,
		Branch:     filter.Branch,
		Subject:    filter.Subject,
		Semester:   filter.Semester,
		Year:       filter.Year,
	}, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewDocumentResponseSlice(documents), nil
}

func validateDocumentFile(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "image/png", "image/jpeg", "application/zip", "application/x-zip-compressed"}
	for _, candidate := range allowed {
		if mime.Is(candidate) {
			return nil
		}
	}

	return fmt.Errorf("%w: file type %s is not allowed", ErrValidation, mime.String())
}
