package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/smilebright/booking-api/pkg/errors"
)

// RespondError writes an error response with the status carried by the
// application error, or 500 for anything unrecognized.
func RespondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		c.JSON(appErr.StatusCode(), NewErrorResponse(appErr.Message))
		return
	}
	c.Error(err)
	c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
}
