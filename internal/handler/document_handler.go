package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campushub/campushub-api/internal/dto"
	"github.com/campushub/campushub-api/internal/middleware"
	"github.com/campushub/campushub-api/internal/service"
	"github.com/campushub/campushub-api/internal/utils"
)

// DocumentHandler wires the moderation endpoints for one content kind.
// The same handler type is mounted once for question papers and once for
// notes.
type DocumentHandler struct {
	service      service.ModerationService
	authenticate fiber.Handler
	logger       zerolog.Logger
}

// NewDocumentHandler creates a document handler instance.
func NewDocumentHandler(service service.ModerationService, authenticate fiber.Handler, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service:      service,
		authenticate: authenticate,
		logger:       logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register binds moderation routes under the provided router group. Listing
// approved documents is public; everything else requires authentication and
// the review endpoints additionally require a reviewer.
func (h *DocumentHandler) Register(router fiber.Router) {
	router.Get("", h.listApproved)
	router.Post("", h.authenticate, h.submit)
	router.Get("/pending", h.authenticate, middleware.RequireReviewer(), h.listPending)
	router.Patch("/:id/approve", h.authenticate, middleware.RequireReviewer(), h.approve)
	router.Patch("/:id/reject", h.authenticate, middleware.RequireReviewer(), h.reject)
}

func (h *DocumentHandler) submit(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.DocumentSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid form payload")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "document file is required")
	}

	response, err := h.service.Submit(c.UserContext(), principal, payload, file)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "document submitted for review", response)
}

func (h *DocumentHandler) listPending(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	responses, err := h.service.ListPending(c.UserContext(), principal, parseQueryInt(c, "limit"), parseQueryInt(c, "offset"))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "pending documents", responses)
}

func (h *DocumentHandler) listApproved(c *fiber.Ctx) error {
	var filter dto.DocumentFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	responses, err := h.service.ListApproved(c.UserContext(), filter, parseQueryInt(c, "limit"), parseQueryInt(c, "offset"))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "approved documents", responses)
}

func (h *DocumentHandler) approve(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid document id")
	}

	response, err := h.service.Approve(c.UserContext(), id, principal)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "document approved", response)
}

func (h *DocumentHandler) reject(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid document id")
	}

	var payload dto.RejectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	response, err := h.service.Reject(c.UserContext(), id, principal, payload.Reason)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "document rejected", response)
}
