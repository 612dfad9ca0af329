package pushplus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kart-io/pushrelay/pkg/config"
	"github.com/kart-io/pushrelay/pkg/errors"
	"github.com/kart-io/pushrelay/pkg/logger"
	"github.com/kart-io/pushrelay/pkg/message"
)

// testConfig returns a config pointed at url with millisecond backoff so
// retry tests finish quickly.
func testConfig(url string) *config.PushPlusConfig {
	return &config.PushPlusConfig{
		Token:         "test-token",
		URL:           url,
		Timeout:       time.Second,
		MaxAttempts:   5,
		RetryMinDelay: time.Millisecond,
		RetryMaxDelay: 2 * time.Millisecond,
	}
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(&config.PushPlusConfig{}, logger.Discard)
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	if !errors.IsConfigError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}

	if _, err := New(nil, logger.Discard); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestSend_Success(t *testing.T) {
	var calls int32
	var got payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"code":200,"msg":"ok"}`))
	}))
	defer server.Close()

	sender, err := New(testConfig(server.URL), logger.Discard)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	result := sender.Send(context.Background(), message.NewText("hello", "world"))
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected 1 HTTP call, got %d", n)
	}
	if len(result.Attempts) != 1 {
		t.Errorf("expected 1 attempt, got %d", len(result.Attempts))
	}
	if got.Token != "test-token" || got.Title != "hello" || got.Content != "world" {
		t.Errorf("unexpected payload: %+v", got)
	}
	if result.Response == "" {
		t.Error("expected provider response body in result")
	}
}

func TestSend_DefaultTitle(t *testing.T) {
	var got payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender, _ := New(testConfig(server.URL), logger.Discard)
	msg := message.New()
	msg.Title = ""
	msg.Body = "content only"

	sender.Send(context.Background(), msg)
	if got.Title != message.DefaultTitle {
		t.Errorf("expected default title %q, got %q", message.DefaultTitle, got.Title)
	}
}

func TestSend_RetriesUntilFirstSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender, _ := New(testConfig(server.URL), logger.Discard)
	result := sender.Send(context.Background(), message.NewText("t", "b"))

	if !result.Success {
		t.Fatalf("expected eventual success, got error %q", result.Error)
	}
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Errorf("expected exactly 4 attempts (3 failures + 1 success), got %d", n)
	}
	if len(result.Attempts) != 4 {
		t.Errorf("expected 4 attempt records, got %d", len(result.Attempts))
	}
}

func TestSend_ExhaustsFiveAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		// A 4xx is retried exactly like a network failure.
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	sender, _ := New(testConfig(server.URL), logger.Discard)
	result := sender.Send(context.Background(), message.NewText("t", "b"))

	if result.Success {
		t.Fatal("expected failure after exhausting retries")
	}
	if n := atomic.LoadInt32(&calls); n != 5 {
		t.Errorf("expected exactly 5 attempts, got %d", n)
	}
	if result.Error == "" {
		t.Error("expected final error in result")
	}
	for i, a := range result.Attempts {
		if a.Error == "" {
			t.Errorf("attempt %d should carry an error", i+1)
		}
	}
}

func TestSend_TransportFailureIsRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	cfg := testConfig(server.URL)
	cfg.MaxAttempts = 2
	sender, _ := New(cfg, logger.Discard)
	result := sender.Send(context.Background(), message.NewText("t", "b"))

	if result.Success {
		t.Fatal("expected failure")
	}
	if len(result.Attempts) != 2 {
		t.Errorf("expected 2 attempts, got %d", len(result.Attempts))
	}
}
