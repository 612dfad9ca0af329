package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/pushrelay/pkg/channel"
	"github.com/kart-io/pushrelay/pkg/config"
	"github.com/kart-io/pushrelay/pkg/errors"
	"github.com/kart-io/pushrelay/pkg/logger"
	"github.com/kart-io/pushrelay/pkg/message"
)

// fakeSender records calls and returns a canned result
type fakeSender struct {
	name      string
	sendCalls int32
	healthErr error
	closed    int32
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(ctx context.Context, msg *message.Message) *channel.SendResult {
	atomic.AddInt32(&f.sendCalls, 1)
	result := channel.NewSendResult(channel.Channel(f.name), msg)
	result.Success = true
	return result
}

func (f *fakeSender) IsHealthy(ctx context.Context) error { return f.healthErr }

func (f *fakeSender) Close() error {
	atomic.AddInt32(&f.closed, 1)
	return nil
}

func newTestDispatcher(t *testing.T) Dispatcher {
	t.Helper()
	cfg, err := config.New(config.WithLogger(logger.Discard))
	require.NoError(t, err)
	return NewDispatcher(cfg, nil)
}

func TestDispatch_InvalidChannel(t *testing.T) {
	d := newTestDispatcher(t)

	result, err := d.Dispatch(context.Background(), message.NewText("", "hi"), channel.Channel("sms"))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsInvalidChannel(err))
}

func TestDispatch_UnconfiguredChannel(t *testing.T) {
	d := newTestDispatcher(t)

	result, err := d.Dispatch(context.Background(), message.NewText("", "hi"), channel.PushPlus)
	require.Error(t, err)
	assert.Nil(t, result)

	var pushErr *errors.PushError
	require.ErrorAs(t, err, &pushErr)
	assert.Equal(t, errors.ErrChannelNotConfigured, pushErr.Code)
}

func TestDispatch_EmptyMessage(t *testing.T) {
	d := newTestDispatcher(t)
	fake := &fakeSender{name: "pushplus"}
	d.RegisterChannel(channel.PushPlus, func(cfg *config.Config, log logger.Logger) (channel.Sender, error) {
		return fake, nil
	})

	for _, msg := range []*message.Message{nil, message.NewText("", "")} {
		result, err := d.Dispatch(context.Background(), msg, channel.PushPlus)
		require.Error(t, err)
		assert.Nil(t, result)

		var pushErr *errors.PushError
		require.ErrorAs(t, err, &pushErr)
		assert.Equal(t, errors.ErrEmptyMessage, pushErr.Code)
	}
	assert.Zero(t, atomic.LoadInt32(&fake.sendCalls), "validation failures must not reach the sender")
}

func TestDispatch_DelegatesToSender(t *testing.T) {
	d := newTestDispatcher(t)
	fake := &fakeSender{name: "dingtalk"}
	d.RegisterChannel(channel.DingTalk, func(cfg *config.Config, log logger.Logger) (channel.Sender, error) {
		return fake, nil
	})

	result, err := d.Dispatch(context.Background(), message.NewText("t", "b"), channel.DingTalk)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.sendCalls))
}

func TestDispatch_SenderIsCreatedOnceUnderConcurrency(t *testing.T) {
	d := newTestDispatcher(t)
	var created int32
	d.RegisterChannel(channel.WxPusher, func(cfg *config.Config, log logger.Logger) (channel.Sender, error) {
		atomic.AddInt32(&created, 1)
		return &fakeSender{name: "wxpusher"}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Dispatch(context.Background(), message.NewText("", "hi"), channel.WxPusher)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&created), "sender must be created exactly once")
}

func TestDispatch_CreatorErrorIsReturned(t *testing.T) {
	d := newTestDispatcher(t)
	wantErr := errors.New(errors.ErrMissingCredentials, "no token")
	d.RegisterChannel(channel.Telegram, func(cfg *config.Config, log logger.Logger) (channel.Sender, error) {
		return nil, wantErr
	})

	result, err := d.Dispatch(context.Background(), message.NewText("", "hi"), channel.Telegram)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, wantErr)
}

func TestHealth_ReportsInstantiatedSendersOnly(t *testing.T) {
	d := newTestDispatcher(t)
	healthy := &fakeSender{name: "pushplus"}
	unhealthy := &fakeSender{
		name:      "dingtalk",
		healthErr: errors.New(errors.ErrMissingCredentials, "webhook missing"),
	}
	d.RegisterChannel(channel.PushPlus, func(cfg *config.Config, log logger.Logger) (channel.Sender, error) {
		return healthy, nil
	})
	d.RegisterChannel(channel.DingTalk, func(cfg *config.Config, log logger.Logger) (channel.Sender, error) {
		return unhealthy, nil
	})
	// Registered but never dispatched; must not appear in the report.
	d.RegisterChannel(channel.WxPusher, func(cfg *config.Config, log logger.Logger) (channel.Sender, error) {
		return &fakeSender{name: "wxpusher"}, nil
	})

	_, err := d.Dispatch(context.Background(), message.NewText("", "hi"), channel.PushPlus)
	require.NoError(t, err)
	_, err = d.Dispatch(context.Background(), message.NewText("", "hi"), channel.DingTalk)
	require.NoError(t, err)

	health := d.Health(context.Background())
	require.Len(t, health, 2)
	assert.NoError(t, health[channel.PushPlus])
	assert.Error(t, health[channel.DingTalk])
}

func TestClose_ClosesAllSenders(t *testing.T) {
	d := newTestDispatcher(t)
	fake := &fakeSender{name: "pushplus"}
	d.RegisterChannel(channel.PushPlus, func(cfg *config.Config, log logger.Logger) (channel.Sender, error) {
		return fake, nil
	})

	_, err := d.Dispatch(context.Background(), message.NewText("", "hi"), channel.PushPlus)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.closed))

	// Senders are rebuilt lazily after Close.
	_, err = d.Dispatch(context.Background(), message.NewText("", "hi"), channel.PushPlus)
	require.NoError(t, err)
}
