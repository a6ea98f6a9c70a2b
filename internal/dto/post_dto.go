package dto

import (
	"time"

	"github.com/campushub/campushub-api/internal/models"
)

// PostCreateRequest is the payload for authoring a post.
type PostCreateRequest struct {
	Body     string `json:"body" validate:"required,min=1"`
	Category string `json:"category" validate:"required,min=2,max=64"`
	Link     string `json:"link" validate:"omitempty,url,max=512"`
}

// ReactionRequest selects a reaction kind; an empty kind withdraws the
// actor's reaction.
type ReactionRequest struct {
	Kind string `json:"kind" validate:"omitempty,oneof=like love sad angry"`
}

// CommentCreateRequest is the payload for appending a comment to a post.
type CommentCreateRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// PostResponse is returned to API clients when viewing posts.
type PostResponse struct {
	ID            uint               `json:"id"`
	AuthorID      uint               `json:"author_id"`
	Body          string             `json:"body"`
	Category      string             `json:"category"`
	Link          string             `json:"link,omitempty"`
	Reactions     models.ReactionMap `json:"reactions"`
	CommentsCount int64              `json:"comments_count"`
	Visible       bool               `json:"visible"`
	CreatedAt     time.Time          `json:"created_at"`
}

// CommentAuthor is the minimal author projection embedded in comment output.
type CommentAuthor struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// CommentResponse serializes a single comment.
type CommentResponse struct {
	ID        uint          `json:"id"`
	PostID    uint          `json:"post_id"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
	Author    CommentAuthor `json:"author"`
}

// NewPostResponse converts a Post model into a DTO.
func NewPostResponse(model models.Post) PostResponse {
	return PostResponse{
		ID:            model.ID,
		AuthorID:      model.AuthorID,
		Body:          model.Body,
		Category:      model.Category,
		Link:          model.Link,
		Reactions:     model.Reactions.Data().Normalized(),
		CommentsCount: model.CommentsCount,
		Visible:       model.Visible,
		CreatedAt:     model.CreatedAt,
	}
}

// NewPostResponseSlice converts a list of posts.
func NewPostResponseSlice(posts []models.Post) []PostResponse {
	responses := make([]PostResponse, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, NewPostResponse(post))
	}
	return responses
}

// NewCommentResponse converts a Comment model into a DTO.
func NewCommentResponse(model models.Comment) CommentResponse {
	return CommentResponse{
		ID:        model.ID,
		PostID:    model.PostID,
		Text:      model.Text,
		CreatedAt: model.CreatedAt,
		Author: CommentAuthor{
			ID:   model.Author.ID,
			Name: model.Author.Name,
		},
	}
}

// NewCommentResponseSlice converts a list of comments.
func NewCommentResponseSlice(comments []models.Comment) []CommentResponse {
	responses := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, NewCommentResponse(comment))
	}
	return responses
}

// ReactionChangedEvent is broadcast when a post's reaction sets change.
type ReactionChangedEvent struct {
	PostID    uint               `json:"postId"`
	Reactions models.ReactionMap `json:"reactions"`
	ActorID   uint               `json:"actorId"`
}

// CommentAddedEvent is broadcast when a comment is appended to a post.
type CommentAddedEvent struct {
	CommentID uint          `json:"commentId"`
	PostID    uint          `json:"postId"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"createdAt"`
	Author    CommentAuthor `json:"author"`
}
