package optimizer

import (
	"errors"
	"fmt"

	"github.com/teilomillet/promptstorm/document"
	"github.com/teilomillet/promptstorm/llm"
)

// ErrorType classifies optimizer failures.
type ErrorType int

const (
	ErrorTypeCompletionFailed ErrorType = iota + 1
	ErrorTypeRateLimited
	ErrorTypeRepairFailed
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeCompletionFailed:
		return "CompletionFailed"
	case ErrorTypeRateLimited:
		return "RateLimited"
	case ErrorTypeRepairFailed:
		return "RepairFailed"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is.
var (
	ErrCompletionFailed = errors.New("completion failed")
	ErrRateLimited      = errors.New("rate limited")
	ErrRepairFailed     = errors.New("repair failed")
)

const rateLimitGuidance = "Rate limit exceeded for model. Please wait a few minutes and try again, " +
	"or consider upgrading your API plan for higher rate limits."

// Error is returned by Optimize, Format and Repair.
type Error struct {
	Type    ErrorType
	Message string
	// Remaining holds the problems left after a failed repair.
	Remaining []document.ValidationError
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Remaining) > 0 {
		msg += ":\n" + document.FormatErrors(e.Remaining)
	}
	if e.Err != nil && e.Type != ErrorTypeRateLimited {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrCompletionFailed:
		return e.Type == ErrorTypeCompletionFailed
	case ErrRateLimited:
		return e.Type == ErrorTypeRateLimited
	case ErrRepairFailed:
		return e.Type == ErrorTypeRepairFailed
	}
	return false
}

// classifyError turns a gateway failure into RateLimited or
// CompletionFailed.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	var optErr *Error
	if errors.As(err, &optErr) {
		return err
	}
	if llm.IsRateLimit(err) {
		return &Error{Type: ErrorTypeRateLimited, Message: rateLimitGuidance, Err: err}
	}
	return &Error{
		Type:    ErrorTypeCompletionFailed,
		Message: fmt.Sprintf("error processing %s completion", op),
		Err:     err,
	}
}
