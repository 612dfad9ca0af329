// Package core provides the message dispatcher for PushRelay.
// The calling chain is deliberately flat: Client -> Dispatcher -> Sender.
package core

import (
	"context"
	"sync"
	"time"

	"github.com/kart-io/pushrelay/pkg/channel"
	"github.com/kart-io/pushrelay/pkg/config"
	"github.com/kart-io/pushrelay/pkg/errors"
	"github.com/kart-io/pushrelay/pkg/logger"
	"github.com/kart-io/pushrelay/pkg/message"
	"github.com/kart-io/pushrelay/pkg/observability"
)

// SenderCreator builds a sender for one channel from the process configuration
type SenderCreator func(cfg *config.Config, log logger.Logger) (channel.Sender, error)

// Dispatcher selects the sender for a channel and invokes it
type Dispatcher interface {
	// RegisterChannel registers a sender creator (dispatcher-level, not global)
	RegisterChannel(ch channel.Channel, creator SenderCreator)

	// Dispatch sends a message through the given channel
	Dispatch(ctx context.Context, msg *message.Message, ch channel.Channel) (*channel.SendResult, error)

	// Health checks the health of all instantiated senders
	Health(ctx context.Context) map[channel.Channel]error

	// Close gracefully shuts down all senders
	Close() error
}

// dispatcher implements Dispatcher with a lazily populated sender cache.
// Senders are stateless after construction, so a cached instance is shared by
// concurrent Dispatch calls.
type dispatcher struct {
	creators  map[channel.Channel]SenderCreator
	senders   map[channel.Channel]channel.Sender
	cfg       *config.Config
	logger    logger.Logger
	telemetry *observability.TelemetryProvider
	mu        sync.RWMutex
}

// NewDispatcher creates a dispatcher bound to the given configuration
func NewDispatcher(cfg *config.Config, telemetry *observability.TelemetryProvider) Dispatcher {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard
	}
	return &dispatcher{
		creators:  make(map[channel.Channel]SenderCreator),
		senders:   make(map[channel.Channel]channel.Sender),
		cfg:       cfg,
		logger:    log,
		telemetry: telemetry,
	}
}

// RegisterChannel registers a sender creator for a channel
func (d *dispatcher) RegisterChannel(ch channel.Channel, creator SenderCreator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.creators[ch] = creator
	d.logger.Debug("channel registered", "channel", ch)
}

// Dispatch validates the channel, resolves its sender and delegates the send.
// Validation failures return a Go error without any network activity; delivery
// outcomes are reported through the SendResult.
func (d *dispatcher) Dispatch(ctx context.Context, msg *message.Message, ch channel.Channel) (*channel.SendResult, error) {
	if !ch.IsValid() {
		return nil, errors.NewInvalidChannelError(ch.String())
	}
	if msg == nil || msg.IsEmpty() {
		return nil, errors.New(errors.ErrEmptyMessage, "message has no content").WithChannel(ch.String())
	}

	sender, err := d.sender(ch)
	if err != nil {
		return nil, err
	}

	ctx, span := d.telemetry.StartDispatchSpan(ctx, ch.String(), msg.ID)
	defer span.End()

	start := time.Now()
	d.logger.Debug("dispatching message", "channel", ch, "message_id", msg.ID)

	result := sender.Send(ctx, msg)

	d.telemetry.RecordDispatch(ctx, ch.String(), result.Success, time.Since(start))
	if result.Success {
		d.logger.Info("message delivered", "channel", ch, "message_id", msg.ID, "attempts", len(result.Attempts))
	} else {
		d.logger.Error("message delivery failed", "channel", ch, "message_id", msg.ID,
			"attempts", len(result.Attempts), "error", result.Error)
	}

	return result, nil
}

// sender returns the cached sender for a channel, creating it on first use
func (d *dispatcher) sender(ch channel.Channel) (channel.Sender, error) {
	d.mu.RLock()
	if s, ok := d.senders[ch]; ok {
		d.mu.RUnlock()
		return s, nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if s, ok := d.senders[ch]; ok {
		return s, nil
	}

	creator, ok := d.creators[ch]
	if !ok {
		return nil, errors.Newf(errors.ErrChannelNotConfigured,
			"channel %s has no credentials configured", ch).WithChannel(ch.String())
	}

	s, err := creator(d.cfg, d.logger)
	if err != nil {
		d.logger.Error("failed to create sender", "channel", ch, "error", err)
		return nil, err
	}

	d.senders[ch] = s
	d.logger.Debug("sender created", "channel", ch)
	return s, nil
}

// Health checks the health of all instantiated senders
func (d *dispatcher) Health(ctx context.Context) map[channel.Channel]error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	health := make(map[channel.Channel]error, len(d.senders))
	for ch, s := range d.senders {
		health[ch] = s.IsHealthy(ctx)
	}
	return health
}

// Close closes all instantiated senders
func (d *dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var lastErr error
	for ch, s := range d.senders {
		if err := s.Close(); err != nil {
			d.logger.Error("failed to close sender", "channel", ch, "error", err)
			lastErr = err
		}
	}
	d.senders = make(map[channel.Channel]channel.Sender)
	return lastErr
}
