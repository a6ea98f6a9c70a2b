package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campushub/campushub-api/internal/authz"
	"github.com/campushub/campushub-api/internal/dto"
	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/realtime"
	"github.com/campushub/campushub-api/internal/repository"
)

// Realtime event types emitted by the engagement engine.
const (
	EventReactionChanged = "reaction-changed"
	EventCommentAdded    = "comment-added"
)

// reactionRetries bounds the optimistic-concurrency loop for reaction
// toggles before the conflict is surfaced.
const reactionRetries = 3

// EngagementService manages posts, reactions and comments, fanning out
// events to room subscribers after each successful write.
type EngagementService interface {
	CreatePost(ctx context.Context, author models.User, payload dto.PostCreateRequest) (dto.PostResponse, error)
	ListPosts(ctx context.Context, limit, offset int) ([]dto.PostResponse, error)
	// SetReaction atomically replaces the actor's reaction; an empty kind
	// withdraws it. The returned map is the full post-write state.
	SetReaction(ctx context.Context, postID uint, actor models.User, kind string) (models.ReactionMap, error)
	AddComment(ctx context.Context, postID uint, actor models.User, text string) (dto.CommentResponse, error)
	ListComments(ctx context.Context, postID uint, limit, offset int) ([]dto.CommentResponse, error)
}

type engagementService struct {
	repo        repository.PostRepository
	broadcaster realtime.Broadcaster
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewEngagementService constructs the engagement engine. The broadcaster is
// injected so tests can substitute a fake transport.
func NewEngagementService(repo repository.PostRepository, broadcaster realtime.Broadcaster, validate *validator.Validate, logger zerolog.Logger) EngagementService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	return &engagementService{
		repo:        repo,
		broadcaster: broadcaster,
		validator:   validate,
		sanitizer:   policy,
		logger:      logger.With().Str("component", "engagement_service").Logger(),
		tracer:      otel.Tracer("github.com/campushub/campushub-api/internal/service/engagement"),
	}
}

func (s *engagementService) CreatePost(ctx context.Context, author models.User, payload dto.PostCreateRequest) (dto.PostResponse, error) {
	if !authz.CanPerform(author.Role, authz.ActionCreatePost, "") {
		return dto.PostResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.PostResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if body == "" {
		return dto.PostResponse{}, fmt.Errorf("%w: post body empty after sanitization", ErrValidation)
	}

	post := models.Post{
		AuthorID:  author.ID,
		Body:      body,
		Category:  strings.TrimSpace(payload.Category),
		Link:      strings.TrimSpace(payload.Link),
		Reactions: datatypes.NewJSONType(models.NewReactionMap()),
		Visible:   true,
	}

	if err := s.repo.CreatePost(ctx, &post); err != nil {
		return dto.PostResponse{}, err
	}

	s.logger.Info().Uint("post_id", post.ID).Uint("author_id", author.ID).Msg("post created")

	return dto.NewPostResponse(post), nil
}

func (s *engagementService) ListPosts(ctx context.Context, limit, offset int) ([]dto.PostResponse, error) {
	posts, err := s.repo.ListVisible(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewPostResponseSlice(posts), nil
}

func (s *engagementService) SetReaction(ctx context.Context, postID uint, actor models.User, kind string) (models.ReactionMap, error) {
	if !authz.CanPerform(actor.Role, authz.ActionReact, "") {
		return nil, ErrForbidden
	}

	reaction := models.ReactionKind(strings.ToLower(strings.TrimSpace(kind)))
	if reaction != "" && !reaction.Valid() {
		return nil, fmt.Errorf("%w: unknown reaction kind %q", ErrValidation, kind)
	}

	spanCtx, span := s.tracer.Start(ctx, "engagement.set_reaction", trace.WithAttributes(
		attribute.Int("post.id", int(postID)),
		attribute.Int("actor.id", int(actor.ID)),
		attribute.String("reaction.kind", string(reaction)),
	))
	defer span.End()

	// Read-modify-write under optimistic concurrency: the conditional write
	// fails when another actor toggled in between, in which case the state
	// is re-read and the replace recomputed.
	var reactions models.ReactionMap
	var err error
	for attempt := 0; attempt < reactionRetries; attempt++ {
		reactions, err = s.applyReaction(spanCtx, postID, actor.ID, reaction)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrStaleRecord) {
			span.RecordError(err)
			return nil, err
		}
	}
	if errors.Is(err, repository.ErrStaleRecord) {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: reaction update contended", ErrConflict)
	}

	event := dto.ReactionChangedEvent{
		PostID:    postID,
		Reactions: reactions,
		ActorID:   actor.ID,
	}
	s.fanOut(spanCtx, EventReactionChanged, realtime.RoomForPost(postID), event)

	return reactions, nil
}

func (s *engagementService) applyReaction(ctx context.Context, postID, actorID uint, kind models.ReactionKind) (models.ReactionMap, error) {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	reactions := post.Reactions.Data().Normalized()
	reactions.Apply(actorID, kind)

	if err := s.repo.UpdateReactions(ctx, post.ID, post.Version, reactions); err != nil {
		return nil, err
	}

	return reactions, nil
}

func (s *engagementService) AddComment(ctx context.Context, postID uint, actor models.User, text string) (dto.CommentResponse, error) {
	if !authz.CanPerform(actor.Role, authz.ActionComment, "") {
		return dto.CommentResponse{}, ErrForbidden
	}

	clean := strings.TrimSpace(s.sanitizer.Sanitize(text))
	if clean == "" {
		return dto.CommentResponse{}, fmt.Errorf("%w: comment text is required", ErrValidation)
	}

	spanCtx, span := s.tracer.Start(ctx, "engagement.add_comment", trace.WithAttributes(
		attribute.Int("post.id", int(postID)),
		attribute.Int("actor.id", int(actor.ID)),
	))
	defer span.End()

	if _, err := s.repo.GetPost(spanCtx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CommentResponse{}, ErrNotFound
		}
		return dto.CommentResponse{}, err
	}

	comment := models.Comment{
		PostID:   postID,
		AuthorID: actor.ID,
		Text:     clean,
	}

	if err := s.repo.CreateComment(spanCtx, &comment); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CommentResponse{}, ErrNotFound
		}
		span.RecordError(err)
		return dto.CommentResponse{}, err
	}

	comment.Author = actor
	response := dto.NewCommentResponse(comment)

	event := dto.CommentAddedEvent{
		CommentID: comment.ID,
		PostID:    postID,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
		Author:    response.Author,
	}
	s.fanOut(spanCtx, EventCommentAdded, realtime.RoomForPost(postID), event)

	return response, nil
}

func (s *engagementService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]dto.CommentResponse, error) {
	comments, err := s.repo.ListComments(ctx, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewCommentResponseSlice(comments), nil
}

// fanOut publishes after the write has been persisted. Publish failures are
// logged and swallowed: persistence is authoritative, delivery best-effort.
func (s *engagementService) fanOut(ctx context.Context, eventType, room string, payload interface{}) {
	if s.broadcaster == nil {
		return
	}

	event, err := realtime.NewEvent(eventType, room, payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to build realtime event")
		return
	}

	if err := s.broadcaster.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Str("room", room).Msg("failed to publish realtime event")
	}
}
