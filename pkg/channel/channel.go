// Package channel defines the closed set of notification channels and the
// sender contract every channel implementation must follow.
package channel

import (
	"context"
	"time"

	"github.com/kart-io/pushrelay/pkg/errors"
	"github.com/kart-io/pushrelay/pkg/message"
)

// Channel identifies one of the supported push services.
type Channel string

const (
	PushPlus Channel = "pushplus"
	Telegram Channel = "telegram"
	WxPusher Channel = "wxpusher"
	DingTalk Channel = "dingtalk"
)

// All returns every supported channel.
func All() []Channel {
	return []Channel{PushPlus, Telegram, WxPusher, DingTalk}
}

// String returns the string representation of the channel.
func (c Channel) String() string {
	return string(c)
}

// IsValid reports whether the channel is one of the supported services.
func (c Channel) IsValid() bool {
	switch c {
	case PushPlus, Telegram, WxPusher, DingTalk:
		return true
	default:
		return false
	}
}

// Parse converts a method string into a Channel. Unknown methods yield an
// INVALID_CHANNEL error; no network activity happens for them.
func Parse(method string) (Channel, error) {
	c := Channel(method)
	if !c.IsValid() {
		return "", errors.NewInvalidChannelError(method)
	}
	return c, nil
}

// Sender is the contract a channel implementation fulfills. A sender owns its
// provider's URL construction, authentication, payload shape and retry
// behavior. Send never returns a Go error for delivery failure; the outcome,
// including exhausted retries, is reported through the SendResult.
type Sender interface {
	// Name returns the channel name
	Name() string

	// Send delivers the message, blocking through any retry backoff
	Send(ctx context.Context, msg *message.Message) *SendResult

	// IsHealthy reports whether the sender is configured and ready
	IsHealthy(ctx context.Context) error

	// Close releases sender resources
	Close() error
}

// Attempt records one delivery attempt. Attempts are ephemeral: they live in
// the SendResult of a single call and are not retained.
type Attempt struct {
	Number    int           `json:"number"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// SendResult is the uniform outcome of a delivery on one channel.
type SendResult struct {
	Channel   Channel       `json:"channel"`
	MessageID string        `json:"message_id,omitempty"`
	Success   bool          `json:"success"`
	Response  string        `json:"response,omitempty"`
	Error     string        `json:"error,omitempty"`
	Attempts  []Attempt     `json:"attempts"`
	Duration  time.Duration `json:"duration"`
}

// NewSendResult creates a result for the given channel and message.
func NewSendResult(c Channel, msg *message.Message) *SendResult {
	r := &SendResult{Channel: c}
	if msg != nil {
		r.MessageID = msg.ID
	}
	return r
}

// RecordAttempt appends an attempt record and returns its number.
func (r *SendResult) RecordAttempt(startedAt time.Time, err error) int {
	a := Attempt{
		Number:    len(r.Attempts) + 1,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
	}
	if err != nil {
		a.Error = err.Error()
	}
	r.Attempts = append(r.Attempts, a)
	return a.Number
}

// Fail marks the result as failed with the given final error.
func (r *SendResult) Fail(err error) *SendResult {
	r.Success = false
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
