package dto

import "github.com/yigit/studentauth/internal/pkg/apperrors"

// ErrorResponse is the envelope of every failed response
type ErrorResponse struct {
	StatusCode int                    `json:"statusCode" example:"400"`
	Message    string                 `json:"message" example:"All required fields must be provided"`
	Success    bool                   `json:"success" example:"false"`
	Errors     []apperrors.FieldError `json:"errors,omitempty"`
}

// NewErrorResponse creates a standard error response
func NewErrorResponse(statusCode int, message string) ErrorResponse {
	return ErrorResponse{
		StatusCode: statusCode,
		Message:    message,
		Success:    false,
	}
}

// WithFields attaches per-field validation failures
func (e ErrorResponse) WithFields(fields []apperrors.FieldError) ErrorResponse {
	e.Errors = fields
	return e
}
