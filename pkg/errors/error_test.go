package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushError_Error(t *testing.T) {
	err := New(ErrChannelRejected, "status 500")
	assert.Equal(t, "CHANNEL_REJECTED: status 500", err.Error())

	err = err.WithChannel("pushplus")
	assert.Equal(t, "CHANNEL_REJECTED: status 500 (channel: pushplus)", err.Error())
}

func TestPushError_RetryableMatchesCodeTable(t *testing.T) {
	assert.True(t, New(ErrConnectionFailed, "dial refused").IsRetryable())
	assert.True(t, New(ErrNetworkTimeout, "deadline").IsRetryable())
	assert.True(t, New(ErrChannelRejected, "429").IsRetryable())
	assert.True(t, New(ErrProviderError, "errcode 1").IsRetryable())

	assert.False(t, New(ErrInvalidChannel, "nope").IsRetryable())
	assert.False(t, New(ErrMissingCredentials, "no token").IsRetryable())
	assert.False(t, New(ErrCancelled, "ctx done").IsRetryable())
}

func TestPushError_WrapAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(cause, ErrConnectionFailed, "request failed")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, err.IsRetryable())
}

func TestPushError_IsComparesCodes(t *testing.T) {
	err := Newf(ErrInvalidChannel, "unknown channel %q", "sms")
	assert.True(t, stderrors.Is(err, New(ErrInvalidChannel, "other message")))
	assert.False(t, stderrors.Is(err, New(ErrConnectionFailed, "other code")))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsInvalidChannel(NewInvalidChannelError("sms")))
	assert.False(t, IsInvalidChannel(New(ErrInternal, "boom")))
	assert.False(t, IsInvalidChannel(fmt.Errorf("plain error")))

	assert.True(t, IsConfigError(New(ErrMissingCredentials, "no token")))
	assert.True(t, IsConfigError(New(ErrChannelNotConfigured, "dingtalk")))
	assert.False(t, IsConfigError(New(ErrChannelRejected, "500")))

	assert.True(t, IsRetryableError(New(ErrProviderError, "errcode 1")))
	assert.False(t, IsRetryableError(fmt.Errorf("plain error")))
}

func TestNewTransportError(t *testing.T) {
	err := NewTransportError("telegram", fmt.Errorf("connection refused"))
	assert.Equal(t, ErrConnectionFailed, err.Code)
	assert.Equal(t, "telegram", err.Channel)
	assert.True(t, err.IsRetryable())

	timeoutErr := NewTransportError("telegram", timeoutError{})
	assert.Equal(t, ErrNetworkTimeout, timeoutErr.Code)
	assert.True(t, timeoutErr.IsRetryable())
}

// timeoutError implements net.Error with Timeout() == true
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestGetErrorCodeInfo_Unknown(t *testing.T) {
	info := GetErrorCodeInfo("NO_SUCH_CODE")
	assert.Equal(t, "unknown", info.Category)
	assert.False(t, info.Retryable)
}
