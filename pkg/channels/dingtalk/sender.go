// Package dingtalk provides the DingTalk robot webhook sender for PushRelay.
// Every attempt is signed with a fresh millisecond timestamp and an
// HMAC-SHA256 signature over "{timestamp}\n{secret}" appended to the webhook
// URL as query parameters.
package dingtalk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kart-io/pushrelay/pkg/channel"
	"github.com/kart-io/pushrelay/pkg/config"
	"github.com/kart-io/pushrelay/pkg/errors"
	"github.com/kart-io/pushrelay/pkg/logger"
	"github.com/kart-io/pushrelay/pkg/message"
	"github.com/kart-io/pushrelay/pkg/utils/crypto"
)

// Sender implements the channel.Sender interface for DingTalk robot webhooks
type Sender struct {
	cfg      config.DingTalkConfig
	signer   *crypto.DingTalkSigner
	client   *http.Client
	executor *errors.RetryExecutor
	logger   logger.Logger
}

// markdownMessage is the DingTalk markdown webhook payload
type markdownMessage struct {
	MsgType  string          `json:"msgtype"`
	Markdown markdownContent `json:"markdown"`
}

type markdownContent struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// response is the DingTalk API response body
type response struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// New creates a new DingTalk sender. The webhook precondition is checked at
// send time so a misconfigured channel fails fast without network activity.
func New(cfg *config.DingTalkConfig, log logger.Logger) (channel.Sender, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrMissingCredentials, "dingtalk configuration is required").WithChannel("dingtalk")
	}
	if log == nil {
		log = logger.Discard
	}

	policy := errors.NewRandomDelayPolicy(cfg.RetryMinDelay, cfg.RetryMaxDelay, cfg.MaxAttempts)

	return &Sender{
		cfg:    *cfg,
		signer: crypto.NewDingTalkSigner(cfg.Secret),
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		executor: errors.NewRetryExecutor(policy, log),
		logger:   log,
	}, nil
}

// Name returns the channel name
func (s *Sender) Name() string {
	return channel.DingTalk.String()
}

// Send delivers the message. Success requires both an HTTP 2xx status and
// errcode 0 in the response body; everything else is retried on short random
// backoff, matching the robot API's rate-limit windows.
func (s *Sender) Send(ctx context.Context, msg *message.Message) *channel.SendResult {
	result := channel.NewSendResult(channel.DingTalk, msg)

	if s.cfg.WebhookURL == "" {
		err := errors.New(errors.ErrMissingCredentials, "dingtalk webhook is not configured").WithChannel(s.Name())
		s.logger.Error("dingtalk delivery aborted", "error", err)
		return result.Fail(err)
	}

	start := time.Now()
	err := s.executor.Execute(ctx, func(attempt int) error {
		attemptStart := time.Now()
		body, sendErr := s.post(ctx, msg)
		result.RecordAttempt(attemptStart, sendErr)

		if sendErr != nil {
			s.logger.Error("dingtalk delivery failed", "attempt", attempt, "error", sendErr)
			return sendErr
		}

		result.Response = body
		s.logger.Info("dingtalk delivery succeeded", "attempt", attempt)
		return nil
	})

	result.Duration = time.Since(start)
	if err != nil {
		return result.Fail(err)
	}
	result.Success = true
	return result
}

// post performs one signed round trip to the webhook
func (s *Sender) post(ctx context.Context, msg *message.Message) (string, error) {
	requestURL, err := s.signedURL()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(s.buildMessage(msg))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to marshal dingtalk payload").WithChannel(s.Name())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewBuffer(payload))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to create dingtalk request").WithChannel(s.Name())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.NewTransportError(s.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrConnectionFailed, "failed to read dingtalk response").WithChannel(s.Name())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Newf(errors.ErrChannelRejected, "dingtalk returned status %d: %s", resp.StatusCode, string(body)).WithChannel(s.Name())
	}

	var apiResp response
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", errors.Wrapf(err, errors.ErrProviderError, "unparsable dingtalk response: %s", string(body)).WithChannel(s.Name())
	}
	if apiResp.ErrCode != 0 {
		return "", errors.Newf(errors.ErrProviderError, "dingtalk error (code %d): %s", apiResp.ErrCode, apiResp.ErrMsg).WithChannel(s.Name())
	}

	return string(body), nil
}

// buildMessage wraps the content in a markdown heading under the configured title
func (s *Sender) buildMessage(msg *message.Message) *markdownMessage {
	title := msg.Title
	if title == "" {
		title = s.cfg.Title
	}
	if title == "" {
		title = message.DefaultTitle
	}

	return &markdownMessage{
		MsgType: "markdown",
		Markdown: markdownContent{
			Title: title,
			Text:  fmt.Sprintf("### %s\n%s", title, msg.Body),
		},
	}
}

// signedURL appends a fresh timestamp and signature to the webhook URL.
// DingTalk expects milliseconds and rejects stale timestamps, so the pair is
// regenerated for every attempt.
func (s *Sender) signedURL() (string, error) {
	if s.cfg.Secret == "" {
		return s.cfg.WebhookURL, nil
	}

	timestamp := time.Now().UnixMilli()
	sign := s.signer.Sign(timestamp)

	u, err := url.Parse(s.cfg.WebhookURL)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInvalidConfig, "invalid dingtalk webhook URL").WithChannel(s.Name())
	}

	query := u.Query()
	query.Set("timestamp", strconv.FormatInt(timestamp, 10))
	query.Set("sign", sign)
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// IsHealthy reports whether the sender is configured and ready
func (s *Sender) IsHealthy(ctx context.Context) error {
	if s.cfg.WebhookURL == "" {
		return errors.New(errors.ErrMissingCredentials, "dingtalk webhook is not configured").WithChannel(s.Name())
	}
	return nil
}

// Close releases sender resources
func (s *Sender) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
