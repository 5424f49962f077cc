package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/uptask/project-system/internal/realtime"
)

// RealtimeHandler upgrades authenticated requests to websocket sessions
// attached to the broadcast hub.
type RealtimeHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, frontendURL string, log zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == frontendURL
			},
		},
		log: log,
	}
}

// Connect handles GET /ws. The Auth middleware runs first, so the request
// carries a verified user identity; browsers pass the JWT via the token
// query parameter.
func (h *RealtimeHandler) Connect(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the handshake error response.
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return nil
	}

	session := realtime.NewSession(h.hub, conn, userID, h.log)
	h.log.Debug().Str("session", session.ID()).Str("user_id", userID).Msg("websocket session opened")
	session.Run()
	return nil
}
