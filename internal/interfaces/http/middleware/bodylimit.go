package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/travelagency/backoffice/internal/interfaces/http/dto"
)

// BodyLimit rejects requests whose declared body is larger than maxBytes.
// Bodies sent without a Content-Length are cut off at maxBytes while the
// handler reads them; HandleBindError turns that into the same 413.
// A maxBytes of 0 or less disables the check.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				getRequestID(c),
			))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
