package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/smilebright/booking-api/internal/handler"
	"github.com/smilebright/booking-api/internal/middleware"
	"github.com/smilebright/booking-api/internal/realtime"
	"github.com/smilebright/booking-api/pkg/logger"
)

type Handler struct {
	hub      *realtime.Hub
	auth     *middleware.AuthMiddleware
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *realtime.Hub, auth *middleware.AuthMiddleware, log *logger.Logger) *Handler {
	return &Handler{
		hub:    hub,
		auth:   auth,
		logger: log.WithComponent("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin is enforced by the CORS layer, the upgrade
			// itself accepts any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/realtime", h.auth.Authenticate(), h.Connect)
}

// Connect upgrades the request to a websocket and attaches it to the
// hub as a session for the authenticated user.
func (h *Handler) Connect(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error(err, "websocket upgrade failed", "user_id", user.ID.String())
		return
	}

	h.hub.ServeConn(conn, user.ID)
}
