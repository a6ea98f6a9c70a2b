package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/campushub/campushub-api/internal/middleware"
	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/realtime"
)

// closeUnauthorized is the application close code sent when an upgraded
// connection carries no resolved principal.
const closeUnauthorized = 4401

// RealtimeHandler wires the websocket upgrade for live post events.
type RealtimeHandler struct {
	hub    *realtime.Hub
	logger zerolog.Logger
}

// NewRealtimeHandler creates a realtime handler instance.
func NewRealtimeHandler(hub *realtime.Hub, logger zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:    hub,
		logger: logger.With().Str("component", "realtime_handler").Logger(),
	}
}

// Register binds the websocket endpoint under the provided router group. The
// group must already carry the authentication middleware so unauthenticated
// handshakes are rejected with 401 before the upgrade completes.
func (h *RealtimeHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *RealtimeHandler) handleConnection(conn *websocket.Conn) {
	principal, ok := conn.Locals(middleware.PrincipalKey).(models.User)
	if !ok {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(closeUnauthorized, "authentication required"))
		_ = conn.Close()
		return
	}

	h.logger.Info().Uint("user_id", principal.ID).Msg("realtime websocket connected")
	h.hub.ServeConnection(conn, principal)
	h.logger.Info().Uint("user_id", principal.ID).Msg("realtime websocket disconnected")
}
