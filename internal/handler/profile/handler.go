package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smilebright/booking-api/internal/handler"
	"github.com/smilebright/booking-api/internal/middleware"
	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/internal/service/user"
)

type Handler struct {
	service *user.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *user.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	profile := r.Group("/profile")
	profile.Use(h.auth.Authenticate())
	{
		profile.PUT("", h.UpdateProfile)
		profile.PUT("/change-password", h.ChangePassword)
	}
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.CurrentUser(c)
	updated, err := h.service.UpdateProfile(c.Request.Context(), actor.ID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.CurrentUser(c)
	if err := h.service.ChangePassword(c.Request.Context(), actor.ID, &req); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
