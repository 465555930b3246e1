package realtime

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/models"
	"go.uber.org/zap"
)

const writeTimeout = 10 * time.Second

// TokenValidator resolves a bearer token to a user. Satisfied by
// auth.Service.
type TokenValidator interface {
	ValidateToken(token string) (*models.User, error)
}

// Handler exposes the change feed over a websocket. Clients authenticate
// with a JWT passed either as the token query parameter or an Authorization
// header, then receive LeadChange events for their own rows in publish
// order.
type Handler struct {
	hub  *Hub
	auth TokenValidator
}

// NewHandler creates a websocket handler on top of a hub.
func NewHandler(hub *Hub, auth TokenValidator) *Handler {
	return &Handler{hub: hub, auth: auth}
}

// HandleWebSocket upgrades the connection and streams the user's change
// feed. A missing or invalid token is a silent no-op from the feed's point
// of view: the client keeps working through plain fetches.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		header := c.GetHeader("Authorization")
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	user, err := h.auth.ValidateToken(token)
	if err != nil {
		logger.Log.Warn("websocket auth failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Log.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sub := h.hub.Subscribe(user.ID)
	defer sub.Close()

	logger.Log.Info("change feed connected", logger.WithUserID(user.ID))

	ctx := c.Request.Context()

	// Discard inbound frames so pings and client close frames are serviced.
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-sub.C:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, change)
			cancel()
			if err != nil {
				logger.Log.Debug("change feed write failed, closing",
					logger.WithUserID(user.ID),
					zap.Error(err),
				)
				return
			}
		}
	}
}

// HandleMetrics reports hub metrics.
func (h *Handler) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.GetMetrics())
}
