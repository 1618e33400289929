package datasource

import (
	"errors"
)

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "network_error")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap returns the underlying error.
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the error's code.
func (e DataSourceError) Is(target error) bool {
	sentinel, ok := codeSentinels[e.Code]
	return ok && target == sentinel
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeEmptyPayload      = "empty_payload"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
	ErrCodeCircuitOpen       = "circuit_open"
	ErrCodeUnknown           = "unknown"
)

// Sentinel errors matched with errors.Is
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrEmptyPayload      = errors.New("no data returned by upstream")
	ErrInvalidData       = errors.New("invalid data format")
	ErrNetworkError      = errors.New("network error")
	ErrServerError       = errors.New("server error")
	ErrCircuitOpen       = errors.New("circuit breaker open")
)

var codeSentinels = map[string]error{
	ErrCodeRateLimitExceeded: ErrRateLimitExceeded,
	ErrCodeEmptyPayload:      ErrEmptyPayload,
	ErrCodeInvalidData:       ErrInvalidData,
	ErrCodeNetworkError:      ErrNetworkError,
	ErrCodeServerError:       ErrServerError,
	ErrCodeCircuitOpen:       ErrCircuitOpen,
}

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
