package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/metrics"
)

func newParams(t *testing.T, cfg *config.PubSubConfig) PublisherParams {
	return PublisherParams{
		Lc:     fxtest.NewLifecycle(t),
		Ctx:    context.Background(),
		Config: &config.Config{PubSub: cfg},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNewEventPublisher(t *testing.T) {
	t.Run("unconfigured falls back to no-op", func(t *testing.T) {
		publisher, err := NewEventPublisher(newParams(t, nil))
		require.NoError(t, err)
		assert.IsType(t, &noopPublisher{}, publisher)
		assert.NoError(t, publisher.PublishSecurityEvent(context.Background(), &service.SecurityEvent{Type: service.EventLoggedOut}))
	})

	t.Run("local requires an endpoint", func(t *testing.T) {
		_, err := NewEventPublisher(newParams(t, &config.PubSubConfig{Provider: config.PubSubProviderLocal}))
		assert.Error(t, err)
	})

	t.Run("google requires a topic", func(t *testing.T) {
		_, err := NewEventPublisher(newParams(t, &config.PubSubConfig{Provider: config.PubSubProviderGoogle, ProjectID: "erp"}))
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewEventPublisher(newParams(t, &config.PubSubConfig{Provider: "kafka"}))
		assert.ErrorContains(t, err, "unknown pubsub provider")
	})

	t.Run("local publisher", func(t *testing.T) {
		publisher, err := NewEventPublisher(newParams(t, &config.PubSubConfig{
			Provider:      config.PubSubProviderLocal,
			LocalEndpoint: "http://127.0.0.1:8081/push/security-events",
		}))
		require.NoError(t, err)
		assert.IsType(t, &localHTTPPublisher{}, publisher)
		assert.NoError(t, publisher.Close())
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalHTTPPublisher(t *testing.T) {
	var (
		got       PushMessage
		requestID string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-Id")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	publisher := NewLocalHTTPPublisher(srv.URL, discardLogger())
	event := &service.SecurityEvent{
		ID:          "evt-1",
		Type:        service.EventCarrierTampered,
		RequestID:   "req-1",
		PrincipalID: "principal-1",
		Reason:      "session carrier rejected",
		OccurredAt:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, publisher.PublishSecurityEvent(context.Background(), event))
	require.NoError(t, publisher.Close())

	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, "evt-1", got.Message.MessageID)
	assert.Equal(t, "2026-03-02T09:00:00Z", got.Message.PublishTime)
	assert.Equal(t, "carrier.tampered", got.Message.Attributes["event_type"])
	assert.Equal(t, "principal-1", got.Message.Attributes["principal_id"])

	data, err := base64.StdEncoding.DecodeString(got.Message.Data)
	require.NoError(t, err)
	var decoded service.SecurityEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, event.Reason, decoded.Reason)
	assert.True(t, event.OccurredAt.Equal(decoded.OccurredAt))
}

func TestLocalHTTPPublisher_DoesNotWaitForDelivery(t *testing.T) {
	const workerDelay = 500 * time.Millisecond

	delivered := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(workerDelay)
		var msg PushMessage
		_ = json.NewDecoder(r.Body).Decode(&msg)
		delivered <- msg.Message.MessageID
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	publisher := NewLocalHTTPPublisher(srv.URL, discardLogger())

	start := time.Now()
	require.NoError(t, publisher.PublishSecurityEvent(context.Background(), &service.SecurityEvent{ID: "evt-slow", Type: service.EventLoginSucceeded}))
	assert.Less(t, time.Since(start), workerDelay/2)

	require.NoError(t, publisher.Close())
	select {
	case id := <-delivered:
		assert.Equal(t, "evt-slow", id)
	default:
		t.Fatal("Close returned before the queued event was delivered")
	}

	err := publisher.PublishSecurityEvent(context.Background(), &service.SecurityEvent{ID: "evt-late", Type: service.EventLoggedOut})
	assert.ErrorIs(t, err, ErrPublisherClosed)
}

func TestLocalHTTPPublisher_DropsWhenQueueIsFull(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	authMetrics := metrics.New()
	publisher := NewLocalHTTPPublisher(srv.URL, discardLogger(), WithQueueSize(1), WithMetrics(authMetrics))

	// One event can be in flight and one buffered, so three publishes drop at least one.
	var dropped int
	for i := range 3 {
		err := publisher.PublishSecurityEvent(context.Background(), &service.SecurityEvent{ID: fmt.Sprintf("evt-%d", i), Type: service.EventLoginFailed})
		if err != nil {
			assert.ErrorIs(t, err, ErrPublishQueueFull)
			dropped++
		}
	}
	close(release)
	require.NoError(t, publisher.Close())

	assert.GreaterOrEqual(t, dropped, 1)
	rec := httptest.NewRecorder()
	authMetrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), fmt.Sprintf("erp_security_events_dropped_total %d", dropped))
}

func TestLocalHTTPPublisher_NonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	publisher := NewLocalHTTPPublisher(srv.URL, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, publisher.PublishSecurityEvent(context.Background(), &service.SecurityEvent{ID: "evt", Type: service.EventLoggedOut}))
	require.NoError(t, publisher.Close())

	assert.Contains(t, logs.String(), "Failed to deliver event")
	assert.Contains(t, logs.String(), "503")
}
