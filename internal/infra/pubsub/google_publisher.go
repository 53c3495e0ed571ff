package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
)

// googlePubSubPublisher implements EventPublisher using Google Cloud Pub/Sub
type googlePubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    *slog.Logger
	pending   sync.WaitGroup
}

// NewGooglePubSubPublisher creates a new Google Pub/Sub publisher
func NewGooglePubSubPublisher(ctx context.Context, projectID, topicID string, logger *slog.Logger) (service.EventPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Check if topic exists using TopicAdminClient
	topicPath := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	_, err = client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
		Topic: topicPath,
	})
	if err != nil {
		client.Close()

		return nil, errors.Wrapf(err, "failed to get topic %s", topicID)
	}

	publisher := client.Publisher(topicID)

	logger.Info("Google Pub/Sub publisher initialized",
		slog.String("project_id", projectID),
		slog.String("topic_id", topicID),
	)

	return &googlePubSubPublisher{
		client:    client,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// PublishSecurityEvent queues the event and confirms delivery in the background,
// so the request that produced it is not held up by the broker.
func (p *googlePubSubPublisher) PublishSecurityEvent(ctx context.Context, event *service.SecurityEvent) error {
	// Serialize the event to JSON
	data, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	msg := &pubsub.Message{
		Data:       data,
		Attributes: eventAttributes(event),
	}

	result := p.publisher.Publish(context.WithoutCancel(ctx), msg)

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()

		serverID, err := result.Get(context.Background())
		if err != nil {
			p.logger.Error("[GooglePubSub] Failed to publish event",
				slog.String("event_id", event.ID),
				slog.String("event_type", string(event.Type)),
				slog.Any("error", err),
			)

			return
		}

		p.logger.Debug("[GooglePubSub] Event published successfully",
			slog.String("event_id", event.ID),
			slog.String("server_id", serverID),
		)
	}()

	return nil
}

// Close flushes queued events and releases Pub/Sub client resources
func (p *googlePubSubPublisher) Close() error {
	if p.publisher != nil {
		p.publisher.Stop()
	}
	p.pending.Wait()
	if p.client != nil {
		return errors.WithStack(p.client.Close())
	}

	return nil
}
