package middleware

import (
	"fmt"
	"net/http"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error added to the context as a JSON envelope. Errors not
// classified by errdef are reported as internal errors without their message.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil || c.Writer.Written() {
			return
		}

		if capacityErr, ok := errdef.AsCapacityExceeded(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success":       false,
				"message":       capacityErr.Error(),
				"capacity":      capacityErr.Capacity,
				"attendeeCount": capacityErr.AttendeeCount,
				"remaining":     capacityErr.Remaining(),
			})
			return
		}

		status := statusOf(err)
		message := err.Error()
		if status == http.StatusInternalServerError {
			id, _ := GetCorrelationID(c.Request.Context())
			message = fmt.Sprintf("something went wrong. We'll look into it if you send us the id %q :)", id)
		}

		c.JSON(status, gin.H{"success": false, "message": message})
	}
}

func statusOf(err error) int {
	switch {
	case errdef.IsBadRequest(err):
		return http.StatusBadRequest
	case errdef.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errdef.IsForbidden(err):
		return http.StatusForbidden
	case errdef.IsNotFound(err):
		return http.StatusNotFound
	case errdef.IsUnsupportedMediaType(err):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}
