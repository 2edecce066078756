package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/studentauth/internal/app/models/dto"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
	"github.com/yigit/studentauth/internal/pkg/logger"
)

// --- Central Error Handling Middleware/Function ---

// StatusForError maps an application error to its HTTP status code
func StatusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInternal), errors.Is(err, apperrors.ErrTokenSigning):
		return http.StatusInternalServerError
	case apperrors.Is(err, apperrors.ErrValidationFailed, apperrors.ErrBadRequest):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrInvalidCredentials, apperrors.ErrTokenInvalid, apperrors.ErrTokenExpired, apperrors.ErrTokenNotFound):
		return http.StatusUnauthorized
	case apperrors.Is(err, apperrors.ErrStudentNotFound, apperrors.ErrResourceNotFound):
		return http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrEmailAlreadyExists, apperrors.ErrUsnAlreadyExists, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// defaultMessage is used for errors that carry no client-facing message of their own
func defaultMessage(err error, status int) string {
	switch {
	case status == http.StatusInternalServerError:
		return "Internal server error"
	case errors.Is(err, apperrors.ErrValidationFailed):
		return "Validation failed"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, apperrors.ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, apperrors.ErrTokenNotFound), errors.Is(err, apperrors.ErrTokenInvalid):
		return "Unauthorized request"
	case errors.Is(err, apperrors.ErrStudentNotFound):
		return "Student not found"
	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		return "Student with email already exists"
	case errors.Is(err, apperrors.ErrUsnAlreadyExists):
		return "Student with usn already exists"
	case errors.Is(err, apperrors.ErrPayloadTooLarge):
		return "Request body too large"
	default:
		return http.StatusText(status)
	}
}

// HandleAPIError writes the error envelope for err and aborts the request
func HandleAPIError(c *gin.Context, err error) {
	status := StatusForError(err)
	message := defaultMessage(err, status)

	var fields []apperrors.FieldError
	var custom *apperrors.CustomError
	if errors.As(err, &custom) {
		if custom.Message != "" {
			message = custom.Message
		}
		fields = custom.Fields
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed with internal error")
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(status, message).WithFields(fields))
}

// ErrorHandler renders the last error attached with ctx.Error when no response was written
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		HandleAPIError(c, c.Errors.Last().Err)
	}
}

// Recovery turns a panic into a 500 envelope
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
		HandleAPIError(c, apperrors.ErrInternal)
	})
}
