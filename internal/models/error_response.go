package models

// Error codes carried in the "error" field of every failed API response.
const (
	CodeValidationError   = "ValidationError"
	CodeUnauthorized      = "Unauthorized"
	CodeNotFound          = "NotFound"
	CodeProductUnresolved = "ProductUnresolved"
	CodeRateLimited       = "RateLimited"
	CodeUnavailable       = "Unavailable"
	CodeInternalError     = "InternalError"
)

// ErrorResponse is the JSON body of a failed API request.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}
