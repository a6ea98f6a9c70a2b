package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campushub/campushub-api/internal/dto"
	"github.com/campushub/campushub-api/internal/middleware"
	"github.com/campushub/campushub-api/internal/service"
	"github.com/campushub/campushub-api/internal/utils"
)

// PostHandler wires engagement endpoints for posts, reactions and comments.
type PostHandler struct {
	service      service.EngagementService
	authenticate fiber.Handler
	logger       zerolog.Logger
}

// NewPostHandler creates a post handler instance.
func NewPostHandler(service service.EngagementService, authenticate fiber.Handler, logger zerolog.Logger) *PostHandler {
	return &PostHandler{
		service:      service,
		authenticate: authenticate,
		logger:       logger.With().Str("component", "post_handler").Logger(),
	}
}

// Register binds engagement routes under the provided router group. Reads
// are public; writes require authentication.
func (h *PostHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.authenticate, h.create)
	router.Put("/:id/reaction", h.authenticate, h.setReaction)
	router.Get("/:id/comments", h.listComments)
	router.Post("/:id/comments", h.authenticate, h.addComment)
}

func (h *PostHandler) list(c *fiber.Ctx) error {
	responses, err := h.service.ListPosts(c.UserContext(), parseQueryInt(c, "limit"), parseQueryInt(c, "offset"))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "posts", responses)
}

func (h *PostHandler) create(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.PostCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.CreatePost(c.UserContext(), principal, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "post created", response)
}

func (h *PostHandler) setReaction(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid post id")
	}

	var payload dto.ReactionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	reactions, err := h.service.SetReaction(c.UserContext(), id, principal, payload.Kind)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "reaction updated", reactions)
}

func (h *PostHandler) addComment(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid post id")
	}

	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.AddComment(c.UserContext(), id, principal, payload.Text)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment added", response)
}

func (h *PostHandler) listComments(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid post id")
	}

	responses, err := h.service.ListComments(c.UserContext(), id, parseQueryInt(c, "limit"), parseQueryInt(c, "offset"))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "comments", responses)
}
