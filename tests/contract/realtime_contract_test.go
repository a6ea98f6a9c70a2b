package contract_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-api/internal/dto"
	"github.com/campushub/campushub-api/internal/models"
)

func TestReactionChangedEventContract(t *testing.T) {
	schema := compileSchema(t, "reaction_changed_event.schema.json")

	reactions := models.NewReactionMap()
	reactions.Apply(9, models.ReactionLove)

	event := dto.ReactionChangedEvent{
		PostID:    4,
		Reactions: reactions,
		ActorID:   9,
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestCommentAddedEventContract(t *testing.T) {
	schema := compileSchema(t, "comment_added_event.schema.json")

	event := dto.CommentAddedEvent{
		CommentID: 31,
		PostID:    4,
		Text:      "very helpful, thanks",
		CreatedAt: time.Now().UTC(),
		Author:    dto.CommentAuthor{ID: 9, Name: "Ravi"},
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NoError(t, schema.Validate(payload))
}

type openAPISpec struct {
	Paths      map[string]map[string]json.RawMessage `json:"paths"`
	Components struct {
		Schemas map[string]json.RawMessage `json:"schemas"`
	} `json:"components"`
}

func TestSpecificationCoversCoreEndpoints(t *testing.T) {
	spec := loadSpec(t, "docs/api/core.json")

	requiredPaths := []string{
		"/api/v1/auth/register",
		"/api/v1/auth/login",
		"/api/v1/pyq",
		"/api/v1/pyq/pending",
		"/api/v1/pyq/{id}/approve",
		"/api/v1/pyq/{id}/reject",
		"/api/v1/notes",
		"/api/v1/posts",
		"/api/v1/posts/{id}/reaction",
		"/api/v1/posts/{id}/comments",
		"/api/v1/admin/users",
		"/api/v1/admin/reviewers",
		"/api/v1/realtime/ws",
	}

	for _, path := range requiredPaths {
		if _, ok := spec.Paths[path]; !ok {
			t.Fatalf("expected specification to contain path %s", path)
		}
	}

	for _, schema := range []string{"User", "Document", "Post", "Comment"} {
		if _, ok := spec.Components.Schemas[schema]; !ok {
			t.Fatalf("expected specification to contain schema %s", schema)
		}
	}
}

func loadSpec(t *testing.T, relative string) openAPISpec {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("failed to resolve caller")
	}
	base := filepath.Join(filepath.Dir(filename), "..", "..")
	fullPath := filepath.Join(base, relative)

	raw, err := os.ReadFile(fullPath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", fullPath, err)
	}
	var spec openAPISpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		t.Fatalf("failed to unmarshal %s: %v", fullPath, err)
	}
	return spec
}
