// Package telegram provides the Telegram channel sender for PushRelay.
// The Bot API is often reachable only through a proxy from restrictive
// networks, yet the proxy itself tends to be the flaky link. The sender
// therefore tries a proxied connection first and falls back to exactly one
// direct attempt, rather than retrying the same path.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kart-io/pushrelay/pkg/channel"
	"github.com/kart-io/pushrelay/pkg/config"
	"github.com/kart-io/pushrelay/pkg/errors"
	"github.com/kart-io/pushrelay/pkg/logger"
	"github.com/kart-io/pushrelay/pkg/message"
)

// Sender implements the channel.Sender interface for Telegram
type Sender struct {
	cfg          config.TelegramConfig
	proxyClient  *http.Client
	directClient *http.Client
	logger       logger.Logger
}

// payload is the sendMessage request body
type payload struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// New creates a new Telegram sender. The proxied client honors the
// conventional http_proxy/https_proxy environment variables; the direct
// client bypasses any proxy.
func New(cfg *config.TelegramConfig, log logger.Logger) (channel.Sender, error) {
	if cfg == nil || cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, errors.New(errors.ErrMissingCredentials, "telegram bot token and chat id are required").WithChannel("telegram")
	}
	if log == nil {
		log = logger.Discard
	}

	return &Sender{
		cfg: *cfg,
		proxyClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
		directClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &http.Transport{Proxy: nil},
		},
		logger: log,
	}, nil
}

// Name returns the channel name
func (s *Sender) Name() string {
	return channel.Telegram.String()
}

// Send delivers the message: one proxied attempt, then on any failure one
// direct attempt. Both attempts are recorded in the result.
func (s *Sender) Send(ctx context.Context, msg *message.Message) *channel.SendResult {
	result := channel.NewSendResult(channel.Telegram, msg)
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	attemptStart := time.Now()
	body, err := s.post(ctx, s.proxyClient, msg)
	result.RecordAttempt(attemptStart, err)
	if err == nil {
		s.logger.Info("telegram response", "via", "proxy", "body", body)
		result.Response = body
		result.Success = true
		return result
	}

	s.logger.Error("telegram proxied attempt failed, trying direct connection", "error", err)

	attemptStart = time.Now()
	body, err = s.post(ctx, s.directClient, msg)
	result.RecordAttempt(attemptStart, err)
	if err != nil {
		s.logger.Error("telegram direct attempt failed", "error", err)
		return result.Fail(err)
	}

	s.logger.Info("telegram response", "via", "direct", "body", body)
	result.Response = body
	result.Success = true
	return result
}

// post performs one sendMessage round trip with the given client
func (s *Sender) post(ctx context.Context, client *http.Client, msg *message.Message) (string, error) {
	data, err := json.Marshal(payload{
		ChatID: s.cfg.ChatID,
		Text:   msg.Body,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to marshal telegram payload").WithChannel(s.Name())
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.cfg.APIBase, s.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to create telegram request").WithChannel(s.Name())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", errors.NewTransportError(s.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrConnectionFailed, "failed to read telegram response").WithChannel(s.Name())
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf(errors.ErrChannelRejected, "telegram returned status %d: %s", resp.StatusCode, string(body)).WithChannel(s.Name())
	}

	return string(body), nil
}

// IsHealthy reports whether the sender is configured and ready
func (s *Sender) IsHealthy(ctx context.Context) error {
	if s.cfg.BotToken == "" || s.cfg.ChatID == "" {
		return errors.New(errors.ErrMissingCredentials, "telegram credentials are not configured").WithChannel(s.Name())
	}
	return nil
}

// Close releases sender resources
func (s *Sender) Close() error {
	s.proxyClient.CloseIdleConnections()
	s.directClient.CloseIdleConnections()
	return nil
}
