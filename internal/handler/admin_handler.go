package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campushub/campushub-api/internal/dto"
	"github.com/campushub/campushub-api/internal/middleware"
	"github.com/campushub/campushub-api/internal/service"
	"github.com/campushub/campushub-api/internal/utils"
)

// AdminHandler wires principal administration endpoints.
type AdminHandler struct {
	service service.AdminService
	logger  zerolog.Logger
}

// NewAdminHandler creates an admin handler instance.
func NewAdminHandler(service service.AdminService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register binds admin routes under the provided router group. The group is
// expected to be wrapped with the authentication middleware; per-action
// authorization happens in the service against the target's current role.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Get("/users", middleware.RequireReviewer(), h.listUsers)
	router.Patch("/users/:id/suspension", h.toggleSuspension)
	router.Delete("/users/:id", h.deleteUser)
	router.Post("/reviewers", h.createReviewer)
}

func (h *AdminHandler) listUsers(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	responses, err := h.service.ListUsers(c.UserContext(), principal, parseQueryInt(c, "limit"), parseQueryInt(c, "offset"))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "users", responses)
}

func (h *AdminHandler) toggleSuspension(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	response, err := h.service.ToggleSuspension(c.UserContext(), principal, id)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "suspension updated", response)
}

func (h *AdminHandler) deleteUser(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.service.DeleteUser(c.UserContext(), principal, id); err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "user deleted", nil)
}

func (h *AdminHandler) createReviewer(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.CreateReviewerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.CreateReviewer(c.UserContext(), principal, payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reviewer created", response)
}
