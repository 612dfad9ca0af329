// Package wxpusher provides the WxPusher channel sender for PushRelay.
// WxPusher's simple-push API takes a single GET with the push token and the
// percent-encoded content embedded in the URL path.
package wxpusher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kart-io/pushrelay/pkg/channel"
	"github.com/kart-io/pushrelay/pkg/config"
	"github.com/kart-io/pushrelay/pkg/errors"
	"github.com/kart-io/pushrelay/pkg/logger"
	"github.com/kart-io/pushrelay/pkg/message"
)

// Sender implements the channel.Sender interface for WxPusher
type Sender struct {
	cfg      config.WxPusherConfig
	client   *http.Client
	executor *errors.RetryExecutor
	logger   logger.Logger
}

// New creates a new WxPusher sender
func New(cfg *config.WxPusherConfig, log logger.Logger) (channel.Sender, error) {
	if cfg == nil || cfg.SPT == "" {
		return nil, errors.New(errors.ErrMissingCredentials, "wxpusher simple push token is required").WithChannel("wxpusher")
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
	return channel.WxPusher.String()
}

// Send delivers the message under the same retry policy as PushPlus: every
// failure is retried alike on long random backoff.
func (s *Sender) Send(ctx context.Context, msg *message.Message) *channel.SendResult {
	result := channel.NewSendResult(channel.WxPusher, msg)
	start := time.Now()

	err := s.executor.Execute(ctx, func(attempt int) error {
		attemptStart := time.Now()
		body, sendErr := s.get(ctx, msg)
		result.RecordAttempt(attemptStart, sendErr)

		if sendErr != nil {
			s.logger.Error("wxpusher delivery failed", "attempt", attempt, "error", sendErr)
			return sendErr
		}

		result.Response = body
		s.logger.Info("wxpusher response", "attempt", attempt, "body", body)
		return nil
	})

	result.Duration = time.Since(start)
	if err != nil {
		return result.Fail(err)
	}
	result.Success = true
	return result
}

// get performs one simple-push round trip. The content travels in the URL
// path, so it is percent-encoded here.
func (s *Sender) get(ctx context.Context, msg *message.Message) (string, error) {
	requestURL := fmt.Sprintf("%s/%s/%s", s.cfg.URL, s.cfg.SPT, url.PathEscape(msg.Body))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to create wxpusher request").WithChannel(s.Name())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.NewTransportError(s.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrConnectionFailed, "failed to read wxpusher response").WithChannel(s.Name())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Newf(errors.ErrChannelRejected, "wxpusher returned status %d: %s", resp.StatusCode, string(body)).WithChannel(s.Name())
	}

	return string(body), nil
}

// IsHealthy reports whether the sender is configured and ready
func (s *Sender) IsHealthy(ctx context.Context) error {
	if s.cfg.SPT == "" {
		return errors.New(errors.ErrMissingCredentials, "wxpusher simple push token is not configured").WithChannel(s.Name())
	}
	return nil
}

// Close releases sender resources
func (s *Sender) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
