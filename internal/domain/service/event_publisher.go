package service

import (
	"context"
	"time"
)

// SecurityEventType names an authentication event worth auditing.
type SecurityEventType string

const (
	EventLoginSucceeded SecurityEventType = "login.succeeded"
	EventLoginFailed    SecurityEventType = "login.failed"
	EventLoggedOut      SecurityEventType = "session.logged_out"
	EventSessionRevoked SecurityEventType = "session.revoked"
	// EventSessionsRevoked covers sign-out everywhere, by the principal or an administrator.
	EventSessionsRevoked SecurityEventType = "sessions.revoked"
	// EventRefreshRefused is a refresh attempt with a revoked or superseded refresh token.
	EventRefreshRefused  SecurityEventType = "refresh.refused"
	EventCarrierTampered SecurityEventType = "carrier.tampered"
	EventPrincipalGone   SecurityEventType = "principal.gone"
)

// SecurityEvent is published for the audit trail. It never carries tokens or passwords.
type SecurityEvent struct {
	ID          string            `json:"id"`
	Type        SecurityEventType `json:"type"`
	RequestID   string            `json:"request_id,omitempty"` // For distributed tracing
	PrincipalID string            `json:"principal_id,omitempty"`
	SessionID   string            `json:"session_id,omitempty"`
	ActorID     string            `json:"actor_id,omitempty"`
	Email       string            `json:"email,omitempty"`
	RemoteIP    string            `json:"remote_ip,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Count       int               `json:"count,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishSecurityEvent hands the event to the transport. It must not block on delivery.
	PublishSecurityEvent(ctx context.Context, event *SecurityEvent) error

	// Close flushes events already accepted and releases the transport.
	Close() error
}
