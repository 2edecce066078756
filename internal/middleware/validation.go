package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
)

// BindRequest decodes the JSON or URL-encoded body into obj according to the Content-Type.
// An empty body leaves obj at its zero value so that field validation reports every missing field.
func BindRequest(c *gin.Context, obj interface{}) error {
	err := c.ShouldBind(obj)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewCustomError(apperrors.ErrPayloadTooLarge, "Request body too large")
	}

	return apperrors.NewBadRequestError("Invalid request body")
}
