package dto

// APIResponse is the envelope of every successful response
type APIResponse struct {
	StatusCode int         `json:"statusCode" example:"200"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message" example:"Student logged in successfully"`
	Success    bool        `json:"success" example:"true"`
}

// NewAPIResponse builds a success envelope. Success is derived from the status code.
func NewAPIResponse(statusCode int, data interface{}, message string) APIResponse {
	if data == nil {
		data = struct{}{}
	}
	return APIResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    statusCode < 400,
	}
}
