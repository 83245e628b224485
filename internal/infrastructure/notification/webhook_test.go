package notification

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/openbracket/arena/internal/platform/resilience"
	"github.com/openbracket/arena/internal/usecase"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWebhookDispatcherDeliversEvent(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var received []usecase.Event

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hook-secret" {
			t.Errorf("unexpected authorization header: %s", got)
		}

		var event usecase.Event
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&event); err != nil {
			t.Errorf("decode event body: %v", err)
		}
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	dispatcher, err := NewWebhookDispatcher(WebhookConfig{
		URL:            srv.URL,
		AuthToken:      "hook-secret",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, discardLogger())
	if err != nil {
		t.Fatalf("new dispatcher failed: %v", err)
	}

	dispatcher.Publish(context.Background(), usecase.Event{
		Type:          usecase.EventRequestAccepted,
		CompetitionID: "spring-open-2026",
		TeamID:        "spring-nullptr",
		UserID:        "user-ada",
		OccurredAt:    time.Now().UTC(),
	})
	dispatcher.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(received))
	}
	if received[0].Type != usecase.EventRequestAccepted {
		t.Fatalf("unexpected event type: %s", received[0].Type)
	}
	if received[0].TeamID != "spring-nullptr" {
		t.Fatalf("unexpected team id: %s", received[0].TeamID)
	}
}

func TestWebhookDispatcherRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dispatcher, err := NewWebhookDispatcher(WebhookConfig{
		URL:            srv.URL,
		MaxAttempts:    3,
		RetryBackoff:   time.Millisecond,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, discardLogger())
	if err != nil {
		t.Fatalf("new dispatcher failed: %v", err)
	}

	dispatcher.Publish(context.Background(), usecase.Event{Type: usecase.EventApplicationApproved})
	dispatcher.Close()

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 delivery attempts, got %d", got)
	}
}

func TestWebhookDispatcherDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	dispatcher, err := NewWebhookDispatcher(WebhookConfig{
		URL:            srv.URL,
		MaxAttempts:    3,
		RetryBackoff:   time.Millisecond,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, discardLogger())
	if err != nil {
		t.Fatalf("new dispatcher failed: %v", err)
	}

	dispatcher.Publish(context.Background(), usecase.Event{Type: usecase.EventApplicationRejected})
	dispatcher.Close()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single delivery attempt, got %d", got)
	}
}

func TestWebhookDispatcherDropsEventsAfterClose(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dispatcher, err := NewWebhookDispatcher(WebhookConfig{
		URL:            srv.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, discardLogger())
	if err != nil {
		t.Fatalf("new dispatcher failed: %v", err)
	}
	dispatcher.Close()

	dispatcher.Publish(context.Background(), usecase.Event{Type: usecase.EventInviteCreated})

	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no deliveries after close, got %d", got)
	}
}
