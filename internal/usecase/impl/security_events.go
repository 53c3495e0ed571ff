package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
)

// securityEvents stamps and hands events to the publisher. A failed publish is
// logged and never fails the operation that produced the event.
type securityEvents struct {
	publisher service.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func newSecurityEvents(publisher service.EventPublisher, logger *slog.Logger) *securityEvents {
	return &securityEvents{publisher: publisher, logger: logger, now: time.Now}
}

func (e *securityEvents) emit(ctx context.Context, event *service.SecurityEvent) {
	if e == nil || e.publisher == nil {
		return
	}

	event.ID = uuid.NewString()
	event.RequestID = deliverycontext.GetRequestIDFromContext(ctx)
	event.OccurredAt = e.now().UTC()

	if err := e.publisher.PublishSecurityEvent(ctx, event); err != nil {
		deliverycontext.LoggerFrom(ctx, e.logger).Error("Failed to publish security event",
			slog.String("event_type", string(event.Type)),
			slog.Any("error", err),
		)
	}
}
