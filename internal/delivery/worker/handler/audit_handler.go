package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/metrics"
)

// PubSubMessage represents the structure of a Pub/Sub push message
type PubSubMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// AuditHandler receives pushed security events and writes them to the audit log
type AuditHandler struct {
	verifyPushAuth bool
	logger         *slog.Logger
	metrics        *metrics.AuthMetrics
}

// AuditHandlerParams holds dependencies for the AuditHandler
type AuditHandlerParams struct {
	fx.In

	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.AuthMetrics `optional:"true"`
}

// NewAuditHandler creates a new security event push handler
func NewAuditHandler(params AuditHandlerParams) *AuditHandler {
	// Determine if we need to verify push auth based on config
	verifyPushAuth := params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == config.PubSubProviderGoogle &&
		params.Config.Env.Env != config.EnvDevelop

	return &AuditHandler{
		verifyPushAuth: verifyPushAuth,
		logger:         params.Logger,
		metrics:        params.Metrics,
	}
}

// HandlePush handles incoming Pub/Sub push messages.
// Malformed messages are acknowledged with 400 so Pub/Sub does not redeliver them forever.
func (h *AuditHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	// Verify Pub/Sub token in production for Google provider
	if h.verifyPushAuth {
		if err := verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	// Parse Pub/Sub message
	var pushMsg PubSubMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Decode base64 message data
	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	var event service.SecurityEvent
	if err := json.Unmarshal(data, &event); err != nil || event.Type == "" {
		h.logger.Error("[Worker] Failed to parse security event", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Priority: message attributes > event field > existing context > new id
	requestID := pushMsg.Message.Attributes["request_id"]
	if requestID == "" {
		requestID = event.RequestID
	}
	if requestID == "" {
		requestID = deliverycontext.GetRequestIDFromContext(ctx)
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	attrs := []any{
		slog.String("request_id", requestID),
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
		slog.Time("occurred_at", event.OccurredAt),
	}
	for key, value := range map[string]string{
		"principal_id": event.PrincipalID,
		"session_id":   event.SessionID,
		"actor_id":     event.ActorID,
		"email":        event.Email,
		"remote_ip":    event.RemoteIP,
		"reason":       event.Reason,
	} {
		if value != "" {
			attrs = append(attrs, slog.String(key, value))
		}
	}
	if event.Count > 0 {
		attrs = append(attrs, slog.Int("count", event.Count))
	}

	level := slog.LevelInfo
	if isSuspicious(event.Type) {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, "[Worker] Security event", attrs...)
	h.metrics.SecurityEvent(string(event.Type))

	return c.NoContent(http.StatusOK)
}

func isSuspicious(eventType service.SecurityEventType) bool {
	switch eventType {
	case service.EventCarrierTampered, service.EventRefreshRefused, service.EventLoginFailed:
		return true
	default:
		return false
	}
}

// verifyPubSubToken verifies the JWT token from Google Pub/Sub push requests
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request) error {
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return errors.New("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)

	// The audience is the URL of this endpoint
	scheme := "https"
	if req.TLS == nil {
		scheme = "http"
	}
	audience := fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)

	payload, err := idtoken.Validate(req.Context(), token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
