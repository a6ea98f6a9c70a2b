package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/campushub/campushub-api/internal/models"
)

// DocumentFilter narrows listings of approved documents.
type DocumentFilter struct {
	Program    string
	Department string
	Branch     string
	Subject    string
	Semester   int
	Year       int
}

// DocumentRepository persists moderated documents for both content kinds.
type DocumentRepository interface {
	Create(ctx context.Context, document *models.Document) error
	GetByID(ctx context.Context, kind models.DocumentKind, id uint) (models.Document, error)
	ListPending(ctx context.Context, kind models.DocumentKind, limit, offset int) ([]models.Document, error)
	ListApproved(ctx context.Context, kind models.DocumentKind, filter DocumentFilter, limit, offset int) ([]models.Document, error)
	Transition(ctx context.Context, id uint, from, to models.DocumentStatus, reason string) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository constructs a GORM-backed document repository.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, document *models.Document) error {
	return r.db.WithContext(ctx).Create(document).Error
}

func (r *documentRepository) GetByID(ctx context.Context, kind models.DocumentKind, id uint) (models.Document, error) {
	var document models.Document
	if err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		First(&document, id).Error; err != nil {
		return models.Document{}, err
	}
	return document, nil
}

func (r *documentRepository) ListPending(ctx context.Context, kind models.DocumentKind, limit, offset int) ([]models.Document, error) {
	limit, offset = clampPage(limit, offset)

	var documents []models.Document
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND status = ?", kind, models.DocumentPending).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&documents).Error; err != nil {
		return nil, err
	}

	return documents, nil
}

func (r *documentRepository) ListApproved(ctx context.Context, kind models.DocumentKind, filter DocumentFilter, limit, offset int) ([]models.Document, error) {
	limit, offset = clampPage(limit, offset)

	query := r.db.WithContext(ctx).
		Where("kind = ? AND status = ?", kind, models.DocumentApproved)

	if program := strings.TrimSpace(filter.Program); program != "" {
		query = query.Where("program = ?", program)
	}
	if department := strings.TrimSpace(filter.Department); department != "" {
		query = query.Where("department = ?", department)
	}
	if branch := strings.TrimSpace(filter.Branch); branch != "" {
		query = query.Where("branch = ?", branch)
	}
	if subject := strings.TrimSpace(filter.Subject); subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if filter.Semester > 0 {
		query = query.Where("semester = ?", filter.Semester)
	}
	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}

	var documents []models.Document
	if err := query.
		Order("year DESC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&documents).Error; err != nil {
		return nil, err
	}

	return documents, nil
}

// Transition applies a status change conditionally on the current status so
// that a decided document can never be re-decided, even under concurrent
// reviewers. Zero affected rows means the precondition no longer held.
func (r *documentRepository) Transition(ctx context.Context, id uint, from, to models.DocumentStatus, reason string) error {
	result := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":           to,
			"rejection_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleRecord
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
