package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campushub/campushub-api/internal/dto"
	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/realtime"
	"github.com/campushub/campushub-api/internal/repository"
)

type stubPostRepo struct {
	nextPostID    uint
	nextCommentID uint
	posts         map[uint]models.Post
	comments      map[uint][]models.Comment
	// staleWrites forces that many UpdateReactions calls to fail as stale
	// before one succeeds, simulating contention.
	staleWrites int
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{
		posts:    make(map[uint]models.Post),
		comments: make(map[uint][]models.Comment),
	}
}

func (s *stubPostRepo) CreatePost(_ context.Context, post *models.Post) error {
	s.nextPostID++
	post.ID = s.nextPostID
	s.posts[post.ID] = *post
	return nil
}

func (s *stubPostRepo) GetPost(_ context.Context, id uint) (models.Post, error) {
	post, ok := s.posts[id]
	if !ok {
		return models.Post{}, gorm.ErrRecordNotFound
	}
	return post, nil
}

func (s *stubPostRepo) ListVisible(_ context.Context, _, _ int) ([]models.Post, error) {
	var posts []models.Post
	for _, post := range s.posts {
		if post.Visible {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (s *stubPostRepo) UpdateReactions(_ context.Context, id, version uint, reactions models.ReactionMap) error {
	post, ok := s.posts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if s.staleWrites > 0 {
		s.staleWrites--
		// Mirror a concurrent writer winning the race.
		post.Version++
		s.posts[id] = post
		return repository.ErrStaleRecord
	}
	if post.Version != version {
		return repository.ErrStaleRecord
	}
	post.Reactions = datatypes.NewJSONType(reactions)
	post.Version++
	s.posts[id] = post
	return nil
}

func (s *stubPostRepo) CreateComment(_ context.Context, comment *models.Comment) error {
	post, ok := s.posts[comment.PostID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.nextCommentID++
	comment.ID = s.nextCommentID
	s.comments[comment.PostID] = append(s.comments[comment.PostID], *comment)
	post.CommentsCount++
	s.posts[comment.PostID] = post
	return nil
}

func (s *stubPostRepo) ListComments(_ context.Context, postID uint, _, _ int) ([]models.Comment, error) {
	return s.comments[postID], nil
}

type recordingBroadcaster struct {
	events []realtime.Event
	fail   bool
}

func (b *recordingBroadcaster) Publish(_ context.Context, event realtime.Event) error {
	if b.fail {
		return errors.New("transport down")
	}
	b.events = append(b.events, event)
	return nil
}

func newTestEngagementService(repo repository.PostRepository, broadcaster realtime.Broadcaster) EngagementService {
	return NewEngagementService(repo, broadcaster, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func createTestPost(t *testing.T, svc EngagementService) dto.PostResponse {
	t.Helper()
	post, err := svc.CreatePost(context.Background(), models.User{ID: 1, Role: models.RoleStudent}, dto.PostCreateRequest{
		Body:     "Sharing my OS unit 3 summary",
		Category: "notes",
	})
	require.NoError(t, err)
	return post
}

func TestEngagementCreatePostSanitizesBody(t *testing.T) {
	repo := newStubPostRepo()
	svc := newTestEngagementService(repo, &recordingBroadcaster{})

	post, err := svc.CreatePost(context.Background(), models.User{ID: 1, Role: models.RoleStudent}, dto.PostCreateRequest{
		Body:     "<script>alert(1)</script>hello",
		Category: "general",
	})
	require.NoError(t, err)
	require.Equal(t, "hello", post.Body)

	_, err = svc.CreatePost(context.Background(), models.User{ID: 1, Role: models.RoleStudent}, dto.PostCreateRequest{
		Body:     "<script>alert(1)</script>",
		Category: "general",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestEngagementReactionIsMutuallyExclusive(t *testing.T) {
	repo := newStubPostRepo()
	broadcaster := &recordingBroadcaster{}
	svc := newTestEngagementService(repo, broadcaster)
	post := createTestPost(t, svc)
	actor := models.User{ID: 9, Role: models.RoleStudent}

	reactions, err := svc.SetReaction(context.Background(), post.ID, actor, "like")
	require.NoError(t, err)
	require.True(t, reactions.Contains(models.ReactionLike, actor.ID))

	// Switching replaces, never accumulates.
	reactions, err = svc.SetReaction(context.Background(), post.ID, actor, "love")
	require.NoError(t, err)
	require.True(t, reactions.Contains(models.ReactionLove, actor.ID))
	require.False(t, reactions.Contains(models.ReactionLike, actor.ID))

	total := 0
	for _, users := range reactions {
		total += len(users)
	}
	require.Equal(t, 1, total)
}

func TestEngagementReactionIdempotentAndWithdraw(t *testing.T) {
	repo := newStubPostRepo()
	svc := newTestEngagementService(repo, &recordingBroadcaster{})
	post := createTestPost(t, svc)
	actor := models.User{ID: 9, Role: models.RoleStudent}

	first, err := svc.SetReaction(context.Background(), post.ID, actor, "like")
	require.NoError(t, err)
	second, err := svc.SetReaction(context.Background(), post.ID, actor, "like")
	require.NoError(t, err)
	require.Equal(t, first, second)

	withdrawn, err := svc.SetReaction(context.Background(), post.ID, actor, "")
	require.NoError(t, err)
	for kind, users := range withdrawn {
		require.Emptyf(t, users, "kind %s should be empty after withdrawal", kind)
	}
}

func TestEngagementReactionUnknownKind(t *testing.T) {
	repo := newStubPostRepo()
	svc := newTestEngagementService(repo, &recordingBroadcaster{})
	post := createTestPost(t, svc)

	_, err := svc.SetReaction(context.Background(), post.ID, models.User{ID: 9, Role: models.RoleStudent}, "meh")
	require.ErrorIs(t, err, ErrValidation)
}

func TestEngagementReactionRetriesOnContention(t *testing.T) {
	repo := newStubPostRepo()
	svc := newTestEngagementService(repo, &recordingBroadcaster{})
	post := createTestPost(t, svc)

	repo.staleWrites = 2
	reactions, err := svc.SetReaction(context.Background(), post.ID, models.User{ID: 9, Role: models.RoleStudent}, "sad")
	require.NoError(t, err)
	require.True(t, reactions.Contains(models.ReactionSad, 9))
}

func TestEngagementReactionConflictWhenRetriesExhausted(t *testing.T) {
	repo := newStubPostRepo()
	svc := newTestEngagementService(repo, &recordingBroadcaster{})
	post := createTestPost(t, svc)

	repo.staleWrites = reactionRetries
	_, err := svc.SetReaction(context.Background(), post.ID, models.User{ID: 9, Role: models.RoleStudent}, "sad")
	require.ErrorIs(t, err, ErrConflict)
}

func TestEngagementReactionFansOutEvent(t *testing.T) {
	repo := newStubPostRepo()
	broadcaster := &recordingBroadcaster{}
	svc := newTestEngagementService(repo, broadcaster)
	post := createTestPost(t, svc)

	_, err := svc.SetReaction(context.Background(), post.ID, models.User{ID: 9, Role: models.RoleStudent}, "angry")
	require.NoError(t, err)

	require.Len(t, broadcaster.events, 1)
	require.Equal(t, EventReactionChanged, broadcaster.events[0].Type)
	require.Equal(t, realtime.RoomForPost(post.ID), broadcaster.events[0].Room)
}

func TestEngagementWriteSucceedsWhenPublishFails(t *testing.T) {
	repo := newStubPostRepo()
	svc := newTestEngagementService(repo, &recordingBroadcaster{fail: true})
	post := createTestPost(t, svc)

	reactions, err := svc.SetReaction(context.Background(), post.ID, models.User{ID: 9, Role: models.RoleStudent}, "like")
	require.NoError(t, err)
	require.True(t, reactions.Contains(models.ReactionLike, 9))

	stored, err := repo.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	require.True(t, stored.Reactions.Data().Contains(models.ReactionLike, 9))
}

func TestEngagementAddComment(t *testing.T) {
	repo := newStubPostRepo()
	broadcaster := &recordingBroadcaster{}
	svc := newTestEngagementService(repo, broadcaster)
	post := createTestPost(t, svc)
	actor := models.User{ID: 9, Name: "Ravi", Role: models.RoleStudent}

	comment, err := svc.AddComment(context.Background(), post.ID, actor, "  great summary <b>thanks</b>  ")
	require.NoError(t, err)
	require.Equal(t, post.ID, comment.PostID)
	require.Equal(t, "Ravi", comment.Author.Name)

	stored, err := repo.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), stored.CommentsCount)

	require.Len(t, broadcaster.events, 1)
	require.Equal(t, EventCommentAdded, broadcaster.events[0].Type)
}

func TestEngagementAddCommentValidation(t *testing.T) {
	repo := newStubPostRepo()
	svc := newTestEngagementService(repo, &recordingBroadcaster{})
	post := createTestPost(t, svc)
	actor := models.User{ID: 9, Role: models.RoleStudent}

	_, err := svc.AddComment(context.Background(), post.ID, actor, "   ")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddComment(context.Background(), post.ID, actor, "<script>window.close()</script>")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddComment(context.Background(), 404, actor, "hello")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEngagementReactionOnUnknownPost(t *testing.T) {
	repo := newStubPostRepo()
	svc := newTestEngagementService(repo, &recordingBroadcaster{})

	_, err := svc.SetReaction(context.Background(), 404, models.User{ID: 9, Role: models.RoleStudent}, "like")
	require.ErrorIs(t, err, ErrNotFound)
}
