package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
)

// BodyLimit caps request bodies. URL-encoded forms get formLimit, every other body jsonLimit.
// Requests that declare a larger Content-Length are rejected before the handler runs.
func BodyLimit(jsonLimit, formLimit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		limit := jsonLimit
		if c.ContentType() == gin.MIMEPOSTForm {
			limit = formLimit
		}

		if c.Request.ContentLength > limit {
			HandleAPIError(c, apperrors.NewCustomError(apperrors.ErrPayloadTooLarge, "Request body too large"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
