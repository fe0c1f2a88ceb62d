package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/smilebright/booking-api/internal/handler"
	apperrors "github.com/smilebright/booking-api/pkg/errors"
)

// ErrorHandler maps errors attached to the context onto the response
// envelope. Application errors keep their message and status, anything
// else becomes an opaque 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("request error")
		}

		lastErr := c.Errors.Last().Err
		if appErr, ok := apperrors.As(lastErr); ok {
			c.JSON(appErr.StatusCode(), handler.NewErrorResponse(appErr.Message))
			return
		}

		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("internal server error"))
	}
}
