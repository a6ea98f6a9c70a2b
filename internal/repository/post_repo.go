package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campushub/campushub-api/internal/models"
)

// ErrStaleRecord indicates a conditional write matched no rows because the
// record changed since it was read. Callers may re-read and retry.
var ErrStaleRecord = errors.New("record changed since read")

// PostRepository persists posts, reactions and comments.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uint) (models.Post, error)
	ListVisible(ctx context.Context, limit, offset int) ([]models.Post, error)
	// UpdateReactions writes the reaction sets conditionally on the version
	// read by the caller; ErrStaleRecord signals a lost race.
	UpdateReactions(ctx context.Context, id, version uint, reactions models.ReactionMap) error
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository constructs a GORM-backed post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetPost(ctx context.Context, id uint) (models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return models.Post{}, err
	}
	return post, nil
}

func (r *postRepository) ListVisible(ctx context.Context, limit, offset int) ([]models.Post, error) {
	limit, offset = clampPage(limit, offset)

	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Where("visible = ?", true).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *postRepository) UpdateReactions(ctx context.Context, id, version uint, reactions models.ReactionMap) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"reactions": datatypes.NewJSONType(reactions),
			"version":   version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleRecord
	}
	return nil
}

// CreateComment inserts the comment and bumps the parent's counter inside a
// single transaction so the two writes are never separately observable.
func (r *postRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Post{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *postRepository) ListComments(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, err
	}

	return comments, nil
}
