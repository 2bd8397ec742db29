package errors

import "fmt"

// ErrorType represents different types of errors that can occur while
// talking to the profile source
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a profile source error with type information
type Error struct {
	Type     ErrorType
	Message  string
	Code     int
	Username string
}

func (e *Error) Error() string {
	if e.Username != "" {
		return fmt.Sprintf("%s error for '%s' (code %d): %s", e.Type, e.Username, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsRetryable checks if an error type should be retried. A missing profile
// will stay missing, so only connection-class failures are worth another
// attempt.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing:
		return false
	default:
		return false
	}
}
