// Package pushplus provides the PushPlus channel sender for PushRelay.
// PushPlus takes a JSON POST carrying the account token, a title and the
// message content, and is retried on long random backoff because the service
// degrades for minutes at a time.
package pushplus

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/kart-io/pushrelay/pkg/channel"
	"github.com/kart-io/pushrelay/pkg/config"
	"github.com/kart-io/pushrelay/pkg/errors"
	"github.com/kart-io/pushrelay/pkg/logger"
	"github.com/kart-io/pushrelay/pkg/message"
)

// Sender implements the channel.Sender interface for PushPlus
type Sender struct {
	cfg      config.PushPlusConfig
	client   *http.Client
	executor *errors.RetryExecutor
	logger   logger.Logger
}

// payload is the PushPlus send request body
type payload struct {
	Token   string `json:"token"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// New creates a new PushPlus sender
func New(cfg *config.PushPlusConfig, log logger.Logger) (channel.Sender, error) {
	if cfg == nil || cfg.Token == "" {
		return nil, errors.New(errors.ErrMissingCredentials, "pushplus token is required").WithChannel("pushplus")
	}
	if log == nil {
		log = logger.Discard
	}

	policy := errors.NewRandomDelayPolicy(cfg.RetryMinDelay, cfg.RetryMaxDelay, cfg.MaxAttempts)

	return &Sender{
		cfg: *cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		executor: errors.NewRetryExecutor(policy, log),
		logger:   log,
	}, nil
}

// Name returns the channel name
func (s *Sender) Name() string {
	return channel.PushPlus.String()
}

// Send delivers the message, retrying every failure alike. PushPlus wraps most
// of its permanent errors in transient-looking responses, so transport errors
// and non-2xx statuses share one retry path.
func (s *Sender) Send(ctx context.Context, msg *message.Message) *channel.SendResult {
	result := channel.NewSendResult(channel.PushPlus, msg)
	start := time.Now()

	err := s.executor.Execute(ctx, func(attempt int) error {
		attemptStart := time.Now()
		body, sendErr := s.post(ctx, msg)
		result.RecordAttempt(attemptStart, sendErr)

		if sendErr != nil {
			s.logger.Error("pushplus delivery failed", "attempt", attempt, "error", sendErr)
			return sendErr
		}

		result.Response = body
		s.logger.Info("pushplus response", "attempt", attempt, "body", body)
		return nil
	})

	result.Duration = time.Since(start)
	if err != nil {
		return result.Fail(err)
	}
	result.Success = true
	return result
}

// post performs one HTTP round trip to the PushPlus endpoint
func (s *Sender) post(ctx context.Context, msg *message.Message) (string, error) {
	data, err := json.Marshal(payload{
		Token:   s.cfg.Token,
		Title:   s.title(msg),
		Content: msg.Body,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to marshal pushplus payload").WithChannel(s.Name())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewBuffer(data))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to create pushplus request").WithChannel(s.Name())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.NewTransportError(s.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrConnectionFailed, "failed to read pushplus response").WithChannel(s.Name())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Newf(errors.ErrChannelRejected, "pushplus returned status %d: %s", resp.StatusCode, string(body)).WithChannel(s.Name())
	}

	return string(body), nil
}

func (s *Sender) title(msg *message.Message) string {
	if msg.Title != "" {
		return msg.Title
	}
	if s.cfg.Title != "" {
		return s.cfg.Title
	}
	return message.DefaultTitle
}

// IsHealthy reports whether the sender is configured and ready
func (s *Sender) IsHealthy(ctx context.Context) error {
	if s.cfg.Token == "" {
		return errors.New(errors.ErrMissingCredentials, "pushplus token is not configured").WithChannel(s.Name())
	}
	return nil
}

// Close releases sender resources
func (s *Sender) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
