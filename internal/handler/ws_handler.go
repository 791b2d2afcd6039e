package handler

import (
	"log"
	"net/http"
	"strings"

	"taskboard/internal/auth"
	"taskboard/internal/middleware"
	"taskboard/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades authenticated requests to live update connections.
type WSHandler struct {
	hub       *realtime.Hub
	tokens    *auth.Tokens
	authorize realtime.Authorizer
	upgrader  websocket.Upgrader
}

// NewWSHandler accepts any origin; the token is what guards the socket.
func NewWSHandler(hub *realtime.Hub, tokens *auth.Tokens, authorize realtime.Authorizer) *WSHandler {
	return &WSHandler{
		hub:       hub,
		tokens:    tokens,
		authorize: authorize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve godoc
// @Summary Live update socket
// @Description Browsers pass the token as ?token=, other clients may use the Authorization header.
// @Tags Live
// @Param token query string false "JWT"
// @Success 101
// @Failure 401 {object} map[string]string
// @Router /ws [get]
func (h *WSHandler) Serve(c *gin.Context) {
	raw := c.Query("token")
	if raw == "" {
		raw = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is required"})
		return
	}
	userID, ok := middleware.Authenticate(c, h.tokens, raw)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	realtime.NewClient(h.hub, conn, userID, h.authorize).Run()
}
