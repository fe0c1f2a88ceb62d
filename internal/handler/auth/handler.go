package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smilebright/booking-api/internal/authz"
	"github.com/smilebright/booking-api/internal/handler"
	"github.com/smilebright/booking-api/internal/middleware"
	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/internal/service/auth"
)

type Handler struct {
	service *auth.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *auth.Service, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.POST("/create-admin",
			h.auth.Authenticate(),
			h.auth.RequireAction(authz.ActionCreateAdmin),
			h.CreateAdmin,
		)
		users.GET("/me", h.auth.Authenticate(), h.Me)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(resp))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) CreateAdmin(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	resp, err := h.service.RegisterAdmin(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(resp))
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(middleware.CurrentUser(c)))
}
