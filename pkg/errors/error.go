// Package errors provides error types for PushRelay
package errors

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// PushError represents a PushRelay error with structured information
type PushError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Channel string    `json:"channel,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	// Cause holds the original error, not serialized
	Cause error `json:"-"`

	Retryable    bool `json:"retryable"`
	AttemptCount int  `json:"attempt_count,omitempty"`
}

// Error implements the error interface
func (e *PushError) Error() string {
	if e.Channel != "" {
		return fmt.Sprintf("%s: %s (channel: %s)", e.Code, e.Message, e.Channel)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error for errors.Is/As chains
func (e *PushError) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same error code
func (e *PushError) Is(target error) bool {
	var pe *PushError
	if errors.As(target, &pe) {
		return e.Code == pe.Code
	}
	return false
}

// WithCause adds a cause error
func (e *PushError) WithCause(cause error) *PushError {
	e.Cause = cause
	return e
}

// WithChannel sets the channel the error originated from
func (e *PushError) WithChannel(channel string) *PushError {
	e.Channel = channel
	return e
}

// WithAttempts records how many attempts were made before giving up
func (e *PushError) WithAttempts(attempts int) *PushError {
	e.AttemptCount = attempts
	return e
}

// IsRetryable returns whether the error is retryable
func (e *PushError) IsRetryable() bool {
	return e.Retryable
}

// New creates a new PushError with the given code and message
func New(code ErrorCode, message string) *PushError {
	return &PushError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Retryable: IsRetryable(code),
	}
}

// Newf creates a new PushError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PushError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a PushError
func Wrap(err error, code ErrorCode, message string) *PushError {
	return New(code, message).WithCause(err)
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PushError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Convenience constructors

// NewConfigError creates a configuration error
func NewConfigError(message string) *PushError {
	return New(ErrInvalidConfig, message)
}

// NewChannelError creates a channel-scoped transport error
func NewChannelError(channel, message string) *PushError {
	return New(ErrChannelRejected, message).WithChannel(channel)
}

// NewTransportError classifies a transport-level failure from an HTTP round trip
func NewTransportError(channel string, err error) *PushError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Wrap(err, ErrNetworkTimeout, "request timed out").WithChannel(channel)
	}
	return Wrapf(err, ErrConnectionFailed, "request failed: %v", err).WithChannel(channel)
}

// NewInvalidChannelError creates an invalid channel error
func NewInvalidChannelError(method string) *PushError {
	return Newf(ErrInvalidChannel, "unknown channel %q, expected one of pushplus, telegram, wxpusher, dingtalk", method)
}

// Predicates

// IsInvalidChannel checks if the error is an invalid channel error
func IsInvalidChannel(err error) bool {
	return hasCode(err, ErrInvalidChannel)
}

// IsConfigError checks if the error is a configuration error
func IsConfigError(err error) bool {
	var pe *PushError
	if errors.As(err, &pe) {
		return GetCategory(pe.Code) == "configuration" || pe.Code == ErrChannelNotConfigured
	}
	return false
}

// IsRetryableError checks if error is retryable
func IsRetryableError(err error) bool {
	var pe *PushError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return false
}

func hasCode(err error, code ErrorCode) bool {
	var pe *PushError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
