package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/metrics"
)

const (
	localPublishTimeout   = 5 * time.Second
	defaultLocalQueueSize = 256
)

var (
	// ErrPublishQueueFull is returned when an event is dropped instead of delaying the caller.
	ErrPublishQueueFull = errors.New("security event queue is full")
	// ErrPublisherClosed is returned for events published after Close.
	ErrPublisherClosed = errors.New("security event publisher is closed")
)

// localHTTPPublisher implements EventPublisher by POSTing Pub/Sub push messages
// to a local endpoint. Delivery happens on one background goroutine.
type localHTTPPublisher struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.AuthMetrics

	mu      sync.RWMutex
	closed  bool
	queue   chan localPush
	drained chan struct{}
}

type localPush struct {
	body      []byte
	eventID   string
	eventType string
	requestID string
}

// PushMessage represents the structure of a Pub/Sub push message
// This mimics the format Google Pub/Sub uses when pushing to HTTP endpoints
type PushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// LocalOption configures the local publisher.
type LocalOption func(*localHTTPPublisher)

// WithQueueSize bounds the number of events waiting for delivery.
func WithQueueSize(size int) LocalOption {
	return func(p *localHTTPPublisher) {
		if size > 0 {
			p.queue = make(chan localPush, size)
		}
	}
}

// WithMetrics counts dropped events.
func WithMetrics(m *metrics.AuthMetrics) LocalOption {
	return func(p *localHTTPPublisher) {
		p.metrics = m
	}
}

// NewLocalHTTPPublisher creates a local HTTP publisher for development and starts its delivery loop.
func NewLocalHTTPPublisher(endpoint string, logger *slog.Logger, opts ...LocalOption) service.EventPublisher {
	p := &localHTTPPublisher{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: localPublishTimeout,
		},
		logger:  logger,
		queue:   make(chan localPush, defaultLocalQueueSize),
		drained: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	go p.run()

	return p
}

// PublishSecurityEvent queues the event and returns. A full queue drops the event.
func (p *localHTTPPublisher) PublishSecurityEvent(_ context.Context, event *service.SecurityEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	pushMsg := PushMessage{
		Subscription: "projects/local/subscriptions/security-events",
	}
	pushMsg.Message.Data = base64.StdEncoding.EncodeToString(eventData)
	pushMsg.Message.MessageID = event.ID
	pushMsg.Message.PublishTime = event.OccurredAt.UTC().Format(time.RFC3339)
	pushMsg.Message.Attributes = eventAttributes(event)

	body, err := json.Marshal(pushMsg)
	if err != nil {
		return errors.WithStack(err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- localPush{body: body, eventID: event.ID, eventType: string(event.Type), requestID: event.RequestID}:
		return nil
	default:
		p.metrics.SecurityEventDropped()

		return errors.Wrapf(ErrPublishQueueFull, "drop %s event %s", event.Type, event.ID)
	}
}

func (p *localHTTPPublisher) run() {
	defer close(p.drained)

	for msg := range p.queue {
		if err := p.deliver(msg); err != nil {
			p.logger.Error("[LocalPubSub] Failed to deliver event",
				slog.String("event_id", msg.eventID),
				slog.String("event_type", msg.eventType),
				slog.Any("error", err),
			)

			continue
		}

		p.logger.Debug("[LocalPubSub] Event published successfully",
			slog.String("event_id", msg.eventID),
			slog.String("event_type", msg.eventType),
		)
	}
}

func (p *localHTTPPublisher) deliver(msg localPush) error {
	req, err := http.NewRequest(http.MethodPost, p.endpoint, bytes.NewReader(msg.body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if msg.requestID != "" {
		req.Header.Set("X-Request-Id", msg.requestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("worker returned non-success status: %d", resp.StatusCode)
	}

	return nil
}

// Close stops accepting events and waits until the queued ones are delivered.
func (p *localHTTPPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	<-p.drained

	return nil
}
