// Package pushrelay is a unified notification dispatcher: it delivers a text
// message to exactly one of several third-party push services (PushPlus,
// Telegram, WxPusher, DingTalk), applying each provider's authentication,
// payload shape and retry behavior.
//
// Basic usage:
//
//	client, err := pushrelay.New(
//		pushrelay.WithEnvDefaults(),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	result, err := client.PushMethod(ctx, "task finished", "dingtalk")
package pushrelay

import (
	"context"

	"github.com/kart-io/pushrelay/pkg/channel"
	"github.com/kart-io/pushrelay/pkg/channels/dingtalk"
	"github.com/kart-io/pushrelay/pkg/channels/pushplus"
	"github.com/kart-io/pushrelay/pkg/channels/telegram"
	"github.com/kart-io/pushrelay/pkg/channels/wxpusher"
	"github.com/kart-io/pushrelay/pkg/config"
	"github.com/kart-io/pushrelay/pkg/core"
	"github.com/kart-io/pushrelay/pkg/errors"
	"github.com/kart-io/pushrelay/pkg/logger"
	"github.com/kart-io/pushrelay/pkg/message"
	"github.com/kart-io/pushrelay/pkg/observability"
)

// Re-exported options so callers only import the root package for common setups.
var (
	WithPushPlus    = config.WithPushPlus
	WithTelegram    = config.WithTelegram
	WithWxPusher    = config.WithWxPusher
	WithDingTalk    = config.WithDingTalk
	WithEnvDefaults = config.WithEnvDefaults
	WithLogger      = config.WithLogger
	WithTimeout     = config.WithTimeout
	WithTelemetry   = config.WithTelemetry
)

// ParseChannel resolves a channel identifier string, re-exported for callers
// that only import the root package.
var ParseChannel = channel.Parse

// Client is the public entry point. It is safe for concurrent use; every Push
// call is independent and blocks its caller through the sender's network
// attempts and backoff sleeps.
type Client struct {
	cfg        *config.Config
	dispatcher core.Dispatcher
	telemetry  *observability.TelemetryProvider
}

// New constructs a Client from functional options. Credentials are injected
// here once per process lifetime; channels without configuration stay
// unregistered and dispatching to them fails fast without network activity.
func New(opts ...config.Option) (*Client, error) {
	cfg, err := config.New(opts...)
	if err != nil {
		return nil, err
	}

	telemetry, err := observability.NewTelemetryProvider(cfg.Telemetry)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidConfig, "failed to initialize telemetry")
	}

	dispatcher := core.NewDispatcher(cfg, telemetry)

	if cfg.PushPlus != nil {
		dispatcher.RegisterChannel(channel.PushPlus, func(c *config.Config, log logger.Logger) (channel.Sender, error) {
			return pushplus.New(c.PushPlus, log)
		})
	}
	if cfg.Telegram != nil {
		dispatcher.RegisterChannel(channel.Telegram, func(c *config.Config, log logger.Logger) (channel.Sender, error) {
			return telegram.New(c.Telegram, log)
		})
	}
	if cfg.WxPusher != nil {
		dispatcher.RegisterChannel(channel.WxPusher, func(c *config.Config, log logger.Logger) (channel.Sender, error) {
			return wxpusher.New(c.WxPusher, log)
		})
	}
	if cfg.DingTalk != nil {
		dispatcher.RegisterChannel(channel.DingTalk, func(c *config.Config, log logger.Logger) (channel.Sender, error) {
			return dingtalk.New(c.DingTalk, log)
		})
	}

	return &Client{
		cfg:        cfg,
		dispatcher: dispatcher,
		telemetry:  telemetry,
	}, nil
}

// Push delivers bare text content through the given channel. The outcome of
// the delivery, including per-attempt records, is in the SendResult; a Go
// error is returned only for invalid or unconfigured channels, empty content,
// or caller cancellation.
func (c *Client) Push(ctx context.Context, content string, ch channel.Channel) (*channel.SendResult, error) {
	return c.Send(ctx, message.NewText("", content), ch)
}

// PushMethod mirrors the classic push(content, method) entry point with a
// string channel identifier. Unknown methods return an INVALID_CHANNEL error
// synchronously with zero HTTP calls.
func (c *Client) PushMethod(ctx context.Context, content, method string) (*channel.SendResult, error) {
	ch, err := channel.Parse(method)
	if err != nil {
		return nil, err
	}
	return c.Push(ctx, content, ch)
}

// Send delivers a full message through the given channel.
func (c *Client) Send(ctx context.Context, msg *message.Message, ch channel.Channel) (*channel.SendResult, error) {
	return c.dispatcher.Dispatch(ctx, msg, ch)
}

// Health reports the health of every sender instantiated so far.
func (c *Client) Health(ctx context.Context) map[channel.Channel]error {
	return c.dispatcher.Health(ctx)
}

// Close shuts down all senders and flushes telemetry.
func (c *Client) Close() error {
	err := c.dispatcher.Close()
	if terr := c.telemetry.Shutdown(context.Background()); terr != nil && err == nil {
		err = terr
	}
	return err
}
