package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of an error
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeProvider
	ErrorTypeTransport
	ErrorTypeResponse
	ErrorTypeRateLimit
	ErrorTypeInvalidInput
)

// LLMError represents a failure of the completion gateway.
type LLMError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *LLMError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.TypeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.TypeString(), e.Message)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

func (e *LLMError) TypeString() string {
	switch e.Type {
	case ErrorTypeProvider:
		return "ProviderError"
	case ErrorTypeTransport:
		return "TransportError"
	case ErrorTypeResponse:
		return "ResponseError"
	case ErrorTypeRateLimit:
		return "RateLimitError"
	case ErrorTypeInvalidInput:
		return "InvalidInputError"
	default:
		return "UnknownError"
	}
}

// NewLLMError creates a new LLMError
func NewLLMError(errType ErrorType, message string, err error) *LLMError {
	return &LLMError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// rateLimitMarkers are matched case-insensitively against error text.
var rateLimitMarkers = []string{"rate limit", "resource exhausted", "resource_exhausted"}

// IsRateLimitMessage reports whether msg reads like a throttling error.
func IsRateLimitMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range rateLimitMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// IsRateLimit reports whether err is a throttling error, either typed or
// recognised from its text.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var llmErr *LLMError
	if errors.As(err, &llmErr) && llmErr.Type == ErrorTypeRateLimit {
		return true
	}
	return IsRateLimitMessage(err.Error())
}
