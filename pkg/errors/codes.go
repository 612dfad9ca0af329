// Package errors provides error codes for PushRelay
package errors

// ErrorCode represents a PushRelay error code
type ErrorCode string

// Configuration Error Codes
const (
	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig ErrorCode = "INVALID_CONFIG"

	// ErrMissingCredentials indicates missing authentication credentials
	ErrMissingCredentials ErrorCode = "MISSING_CREDENTIALS"
)

// Dispatch Error Codes
const (
	// ErrInvalidChannel indicates an unknown notification channel
	ErrInvalidChannel ErrorCode = "INVALID_CHANNEL"

	// ErrChannelNotConfigured indicates a known channel with no credentials supplied
	ErrChannelNotConfigured ErrorCode = "CHANNEL_NOT_CONFIGURED"

	// ErrEmptyMessage indicates an empty message
	ErrEmptyMessage ErrorCode = "EMPTY_MESSAGE"
)

// Transport Error Codes
const (
	// ErrConnectionFailed indicates connection failure
	ErrConnectionFailed ErrorCode = "CONNECTION_FAILED"

	// ErrNetworkTimeout indicates a network timeout
	ErrNetworkTimeout ErrorCode = "NETWORK_TIMEOUT"

	// ErrChannelRejected indicates the provider answered with a non-2xx status
	ErrChannelRejected ErrorCode = "CHANNEL_REJECTED"

	// ErrProviderError indicates an HTTP success carrying a provider failure code
	ErrProviderError ErrorCode = "PROVIDER_ERROR"
)

// System Error Codes
const (
	// ErrInternal indicates an internal error
	ErrInternal ErrorCode = "INTERNAL_ERROR"

	// ErrCancelled indicates the operation was cancelled by the caller
	ErrCancelled ErrorCode = "CANCELLED"
)

// ErrorCodeInfo provides information about an error code
type ErrorCodeInfo struct {
	Code        ErrorCode `json:"code"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Retryable   bool      `json:"retryable"`
	UserFacing  bool      `json:"user_facing"`
}

// Error code information mapping. Transport failures and provider rejections
// are retried identically: the upstream services wrap most permanent failures
// in transient-looking responses, so no 4xx/5xx distinction is made.
var errorCodeInfoMap = map[ErrorCode]ErrorCodeInfo{
	ErrInvalidConfig: {
		Code: ErrInvalidConfig, Category: "configuration", Description: "Invalid configuration provided",
		Retryable: false, UserFacing: true,
	},
	ErrMissingCredentials: {
		Code: ErrMissingCredentials, Category: "configuration", Description: "Required channel credentials are missing",
		Retryable: false, UserFacing: true,
	},
	ErrInvalidChannel: {
		Code: ErrInvalidChannel, Category: "dispatch", Description: "Unknown notification channel",
		Retryable: false, UserFacing: true,
	},
	ErrChannelNotConfigured: {
		Code: ErrChannelNotConfigured, Category: "dispatch", Description: "Channel is known but not configured",
		Retryable: false, UserFacing: true,
	},
	ErrEmptyMessage: {
		Code: ErrEmptyMessage, Category: "dispatch", Description: "Message has no content",
		Retryable: false, UserFacing: true,
	},
	ErrConnectionFailed: {
		Code: ErrConnectionFailed, Category: "transport", Description: "Failed to reach the provider endpoint",
		Retryable: true, UserFacing: false,
	},
	ErrNetworkTimeout: {
		Code: ErrNetworkTimeout, Category: "transport", Description: "Network operation timed out",
		Retryable: true, UserFacing: false,
	},
	ErrChannelRejected: {
		Code: ErrChannelRejected, Category: "transport", Description: "Provider rejected the request",
		Retryable: true, UserFacing: true,
	},
	ErrProviderError: {
		Code: ErrProviderError, Category: "provider", Description: "Provider reported a logical failure",
		Retryable: true, UserFacing: true,
	},
	ErrInternal: {
		Code: ErrInternal, Category: "system", Description: "Internal error",
		Retryable: false, UserFacing: false,
	},
	ErrCancelled: {
		Code: ErrCancelled, Category: "system", Description: "Operation cancelled",
		Retryable: false, UserFacing: false,
	},
}

// GetErrorCodeInfo returns information about an error code
func GetErrorCodeInfo(code ErrorCode) ErrorCodeInfo {
	info, exists := errorCodeInfoMap[code]
	if !exists {
		return ErrorCodeInfo{
			Code:        code,
			Category:    "unknown",
			Description: "Unknown error code",
			Retryable:   false,
			UserFacing:  false,
		}
	}
	return info
}

// IsRetryable checks if an error code is retryable
func IsRetryable(code ErrorCode) bool {
	return GetErrorCodeInfo(code).Retryable
}

// GetCategory returns the category of an error code
func GetCategory(code ErrorCode) string {
	return GetErrorCodeInfo(code).Category
}

// GetAllErrorCodes returns all defined error codes
func GetAllErrorCodes() []ErrorCode {
	codes := make([]ErrorCode, 0, len(errorCodeInfoMap))
	for code := range errorCodeInfoMap {
		codes = append(codes, code)
	}
	return codes
}
