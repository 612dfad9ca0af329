// Package config provides functional options for unified configuration management
package config

import (
	"os"
	"time"

	"github.com/kart-io/pushrelay/pkg/errors"
	"github.com/kart-io/pushrelay/pkg/logger"
)

// Core options

// WithTimeout sets the default timeout for channels that do not override it
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *Config) error {
		if timeout <= 0 {
			return errors.NewConfigError("timeout must be positive")
		}
		cfg.DefaultTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger instance
func WithLogger(log logger.Logger) Option {
	return func(cfg *Config) error {
		cfg.Logger = log
		return nil
	}
}

// WithTelemetry enables the OpenTelemetry integration
func WithTelemetry(telemetryCfg TelemetryConfig) Option {
	return func(cfg *Config) error {
		cfg.Telemetry = &telemetryCfg
		return nil
	}
}

// Channel options

// WithPushPlus configures the PushPlus channel with just a token
func WithPushPlus(token string) Option {
	return func(cfg *Config) error {
		cfg.PushPlus = &PushPlusConfig{Token: token}
		return nil
	}
}

// WithPushPlusConfig configures the PushPlus channel with full control
func WithPushPlusConfig(pushPlusCfg PushPlusConfig) Option {
	return func(cfg *Config) error {
		cfg.PushPlus = &pushPlusCfg
		return nil
	}
}

// WithTelegram configures the Telegram channel
func WithTelegram(botToken, chatID string) Option {
	return func(cfg *Config) error {
		cfg.Telegram = &TelegramConfig{BotToken: botToken, ChatID: chatID}
		return nil
	}
}

// WithTelegramConfig configures the Telegram channel with full control
func WithTelegramConfig(telegramCfg TelegramConfig) Option {
	return func(cfg *Config) error {
		cfg.Telegram = &telegramCfg
		return nil
	}
}

// WithWxPusher configures the WxPusher channel with a simple push token
func WithWxPusher(spt string) Option {
	return func(cfg *Config) error {
		cfg.WxPusher = &WxPusherConfig{SPT: spt}
		return nil
	}
}

// WithWxPusherConfig configures the WxPusher channel with full control
func WithWxPusherConfig(wxPusherCfg WxPusherConfig) Option {
	return func(cfg *Config) error {
		cfg.WxPusher = &wxPusherCfg
		return nil
	}
}

// WithDingTalk configures the DingTalk channel with webhook and shared secret
func WithDingTalk(webhookURL, secret string) Option {
	return func(cfg *Config) error {
		cfg.DingTalk = &DingTalkConfig{WebhookURL: webhookURL, Secret: secret}
		return nil
	}
}

// WithDingTalkConfig configures the DingTalk channel with full control
func WithDingTalkConfig(dingTalkCfg DingTalkConfig) Option {
	return func(cfg *Config) error {
		cfg.DingTalk = &dingTalkCfg
		return nil
	}
}

// WithEnvDefaults loads channel credentials from the conventional environment
// variables. A channel is configured only when its variables are present, so
// this option composes with explicit options that take precedence when applied
// after it.
//
//	PUSHPLUS_TOKEN
//	TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID
//	WXPUSHER_SPT
//	DINGTALK_WEBHOOK, DINGTALK_SECRET
func WithEnvDefaults() Option {
	return func(cfg *Config) error {
		if token := os.Getenv("PUSHPLUS_TOKEN"); token != "" {
			if cfg.PushPlus == nil {
				cfg.PushPlus = &PushPlusConfig{}
			}
			cfg.PushPlus.Token = token
		}

		botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
		chatID := os.Getenv("TELEGRAM_CHAT_ID")
		if botToken != "" && chatID != "" {
			if cfg.Telegram == nil {
				cfg.Telegram = &TelegramConfig{}
			}
			cfg.Telegram.BotToken = botToken
			cfg.Telegram.ChatID = chatID
		}

		if spt := os.Getenv("WXPUSHER_SPT"); spt != "" {
			if cfg.WxPusher == nil {
				cfg.WxPusher = &WxPusherConfig{}
			}
			cfg.WxPusher.SPT = spt
		}

		if webhook := os.Getenv("DINGTALK_WEBHOOK"); webhook != "" {
			if cfg.DingTalk == nil {
				cfg.DingTalk = &DingTalkConfig{}
			}
			cfg.DingTalk.WebhookURL = webhook
			if secret := os.Getenv("DINGTALK_SECRET"); secret != "" {
				cfg.DingTalk.Secret = secret
			}
		}

		return nil
	}
}
