// internal/common/errors/handler.go
package errors

import (
	"time"
)

// ErrorHandler normalizes and logs pipeline errors in a consistent shape.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err to a StandardError, logs it with operation context,
// and returns the normalized error for the caller to propagate.
func (h *ErrorHandler) Handle(operation string, err error) *StandardError {
	stdErr := h.normalizeError(err)
	h.logError(operation, stdErr)
	return stdErr
}

// ShouldRetry reports whether the error is worth retrying and how many
// attempts remain sensible for it.
func (h *ErrorHandler) ShouldRetry(err error) (bool, int) {
	stdErr := h.normalizeError(err)
	retries := GetRetryCount(stdErr.Code)
	return stdErr.Retryable && retries > 0, retries
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(operation string, stdErr *StandardError) {
	h.logger.Error("Operation failed", map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"retries":       GetRetryCount(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
}
