// Package config provides configuration management for PushRelay
package config

import (
	"time"

	"github.com/kart-io/pushrelay/pkg/errors"
	"github.com/kart-io/pushrelay/pkg/logger"
)

// Production endpoints. Each per-channel config carries its endpoint so tests
// and self-hosted gateways can override it.
const (
	DefaultPushPlusURL     = "https://www.pushplus.plus/send"
	DefaultTelegramAPIBase = "https://api.telegram.org"
	DefaultWxPusherURL     = "https://wxpusher.zjiecode.com/api/send/message"
)

// Retry defaults mirror the providers' failure characteristics: PushPlus and
// WxPusher tolerate long random backoff, DingTalk rate-limits on short windows.
const (
	DefaultPushPlusTimeout = 10 * time.Second
	DefaultTelegramTimeout = 30 * time.Second
	DefaultWxPusherTimeout = 10 * time.Second
	DefaultDingTalkTimeout = 15 * time.Second

	DefaultLongRetryAttempts = 5
	DefaultLongRetryMinDelay = 180 * time.Second
	DefaultLongRetryMaxDelay = 360 * time.Second

	DefaultShortRetryAttempts = 3
	DefaultShortRetryMinDelay = 2 * time.Second
	DefaultShortRetryMaxDelay = 5 * time.Second
)

// Config is the process-wide PushRelay configuration. Credentials are supplied
// once at construction and are immutable afterwards.
type Config struct {
	PushPlus *PushPlusConfig
	Telegram *TelegramConfig
	WxPusher *WxPusherConfig
	DingTalk *DingTalkConfig

	DefaultTimeout time.Duration
	Logger         logger.Logger
	Telemetry      *TelemetryConfig
}

// PushPlusConfig holds PushPlus channel configuration
type PushPlusConfig struct {
	Token         string        `json:"token"`
	Title         string        `json:"title"`
	URL           string        `json:"url"`
	Timeout       time.Duration `json:"timeout"`
	MaxAttempts   int           `json:"max_attempts"`
	RetryMinDelay time.Duration `json:"retry_min_delay"`
	RetryMaxDelay time.Duration `json:"retry_max_delay"`
}

// TelegramConfig holds Telegram channel configuration
type TelegramConfig struct {
	BotToken string        `json:"bot_token"`
	ChatID   string        `json:"chat_id"`
	APIBase  string        `json:"api_base"`
	Timeout  time.Duration `json:"timeout"`
}

// WxPusherConfig holds WxPusher channel configuration
type WxPusherConfig struct {
	SPT           string        `json:"spt"`
	URL           string        `json:"url"`
	Timeout       time.Duration `json:"timeout"`
	MaxAttempts   int           `json:"max_attempts"`
	RetryMinDelay time.Duration `json:"retry_min_delay"`
	RetryMaxDelay time.Duration `json:"retry_max_delay"`
}

// DingTalkConfig holds DingTalk channel configuration
type DingTalkConfig struct {
	WebhookURL    string        `json:"webhook_url"`
	Secret        string        `json:"secret"`
	Title         string        `json:"title"`
	Timeout       time.Duration `json:"timeout"`
	MaxAttempts   int           `json:"max_attempts"`
	RetryMinDelay time.Duration `json:"retry_min_delay"`
	RetryMaxDelay time.Duration `json:"retry_max_delay"`
}

// TelemetryConfig controls the optional OpenTelemetry integration
type TelemetryConfig struct {
	Enabled        bool              `json:"enabled"`
	ServiceName    string            `json:"service_name"`
	ServiceVersion string            `json:"service_version"`
	Environment    string            `json:"environment"`
	OTLPEndpoint   string            `json:"otlp_endpoint"`
	OTLPHeaders    map[string]string `json:"otlp_headers,omitempty"`
	SampleRate     float64           `json:"sample_rate"`
}

// Option configures a Config
type Option func(*Config) error

// New creates a validated Config from the given options
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		DefaultTimeout: 30 * time.Second,
		Logger:         logger.New(),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.PushPlus != nil {
		p := c.PushPlus
		if p.URL == "" {
			p.URL = DefaultPushPlusURL
		}
		if p.Timeout <= 0 {
			p.Timeout = DefaultPushPlusTimeout
		}
		if p.MaxAttempts <= 0 {
			p.MaxAttempts = DefaultLongRetryAttempts
		}
		if p.RetryMinDelay <= 0 {
			p.RetryMinDelay = DefaultLongRetryMinDelay
		}
		if p.RetryMaxDelay <= 0 {
			p.RetryMaxDelay = DefaultLongRetryMaxDelay
		}
	}

	if c.Telegram != nil {
		t := c.Telegram
		if t.APIBase == "" {
			t.APIBase = DefaultTelegramAPIBase
		}
		if t.Timeout <= 0 {
			t.Timeout = DefaultTelegramTimeout
		}
	}

	if c.WxPusher != nil {
		w := c.WxPusher
		if w.URL == "" {
			w.URL = DefaultWxPusherURL
		}
		if w.Timeout <= 0 {
			w.Timeout = DefaultWxPusherTimeout
		}
		if w.MaxAttempts <= 0 {
			w.MaxAttempts = DefaultLongRetryAttempts
		}
		if w.RetryMinDelay <= 0 {
			w.RetryMinDelay = DefaultLongRetryMinDelay
		}
		if w.RetryMaxDelay <= 0 {
			w.RetryMaxDelay = DefaultLongRetryMaxDelay
		}
	}

	if c.DingTalk != nil {
		d := c.DingTalk
		if d.Timeout <= 0 {
			d.Timeout = DefaultDingTalkTimeout
		}
		if d.MaxAttempts <= 0 {
			d.MaxAttempts = DefaultShortRetryAttempts
		}
		if d.RetryMinDelay <= 0 {
			d.RetryMinDelay = DefaultShortRetryMinDelay
		}
		if d.RetryMaxDelay <= 0 {
			d.RetryMaxDelay = DefaultShortRetryMaxDelay
		}
	}

	if c.Logger == nil {
		c.Logger = logger.Discard
	}
}

// Validate checks that every configured channel carries usable credentials
func (c *Config) Validate() error {
	if c.PushPlus != nil && c.PushPlus.Token == "" {
		return errors.New(errors.ErrMissingCredentials, "pushplus token is required").WithChannel("pushplus")
	}

	if c.Telegram != nil {
		if c.Telegram.BotToken == "" {
			return errors.New(errors.ErrMissingCredentials, "telegram bot token is required").WithChannel("telegram")
		}
		if c.Telegram.ChatID == "" {
			return errors.New(errors.ErrMissingCredentials, "telegram chat id is required").WithChannel("telegram")
		}
	}

	if c.WxPusher != nil && c.WxPusher.SPT == "" {
		return errors.New(errors.ErrMissingCredentials, "wxpusher simple push token is required").WithChannel("wxpusher")
	}

	if c.DingTalk != nil && c.DingTalk.WebhookURL == "" {
		return errors.New(errors.ErrMissingCredentials, "dingtalk webhook is required").WithChannel("dingtalk")
	}

	if c.Telemetry != nil && c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		return errors.NewConfigError("telemetry enabled without an OTLP endpoint")
	}

	return nil
}
