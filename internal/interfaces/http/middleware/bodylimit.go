package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wims/backend/internal/interfaces/http/dto"
)

// BodyLimit refuses requests whose declared Content-Length exceeds maxBytes
// and caps undeclared bodies with http.MaxBytesReader, which then fails
// during binding. maxBytes <= 0 turns the limit off.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodePayloadTooLarge), dto.NewErrorResponseWithRequestID(
				dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size", GetRequestID(c)))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
