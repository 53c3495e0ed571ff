package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	domainerrors "github.com/iconic-inc/iconic-erp-sub003/internal/domain/errors"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase"
)

const defaultRetention = 24 * time.Hour

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	credentials       repository.CredentialRepository
	maxActiveSessions int
	retention         time.Duration
	events            *securityEvents
	logger            *slog.Logger
	now               func() time.Time
}

// SessionServiceParams holds dependencies for SessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	Credentials repository.CredentialRepository
	Config      *config.Config
	Events      service.EventPublisher `optional:"true"`
	Logger      *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	srv := &sessionService{
		credentials: params.Credentials,
		retention:   defaultRetention,
		events:      newSecurityEvents(params.Events, params.Logger),
		logger:      params.Logger,
		now:         time.Now,
	}
	if params.Config != nil {
		if params.Config.Auth != nil {
			srv.maxActiveSessions = params.Config.Auth.MaxActiveSessions
		}
		if params.Config.CredentialStore.Retention > 0 {
			srv.retention = params.Config.CredentialStore.Retention
		}
	}

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.LoggerFrom(ctx, srv.logger)
}

// ListSessions retrieves all active sessions for a principal.
func (srv *sessionService) ListSessions(ctx context.Context, principalID, currentSessionID uuid.UUID) ([]*entity.SessionInfo, error) {
	srv.log(ctx).Debug("Listing active sessions", slog.Any("principal_id", principalID))

	records, err := srv.credentials.ListActiveByPrincipal(ctx, principalID)
	if err != nil {
		return nil, srv.storeError(ctx, "failed to list sessions", err)
	}

	sessions := make([]*entity.SessionInfo, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, &entity.SessionInfo{
			ID:        record.ID,
			SessionID: record.SessionID,
			UserAgent: record.UserAgent,
			RemoteIP:  record.RemoteIP,
			IssuedAt:  record.IssuedAt,
			ExpiresAt: record.ExpiresAt,
			Current:   currentSessionID != uuid.Nil && record.SessionID == currentSessionID,
		})
	}

	return sessions, nil
}

// GetSessionStatistics summarises the active sessions of a principal.
func (srv *sessionService) GetSessionStatistics(ctx context.Context, principalID uuid.UUID) (*entity.SessionStatistics, error) {
	records, err := srv.credentials.ListActiveByPrincipal(ctx, principalID)
	if err != nil {
		return nil, srv.storeError(ctx, "failed to load session statistics", err)
	}

	stats := &entity.SessionStatistics{
		ActiveSessions: len(records),
		MaxSessions:    srv.maxActiveSessions,
	}
	for _, record := range records {
		issued, expires := record.IssuedAt, record.ExpiresAt
		if stats.OldestIssuedAt == nil || issued.Before(*stats.OldestIssuedAt) {
			stats.OldestIssuedAt = &issued
		}
		if stats.NewestIssuedAt == nil || issued.After(*stats.NewestIssuedAt) {
			stats.NewestIssuedAt = &issued
		}
		if stats.NextExpiry == nil || expires.Before(*stats.NextExpiry) {
			stats.NextExpiry = &expires
		}
	}

	return stats, nil
}

// RevokeSession revokes one login family of the principal.
func (srv *sessionService) RevokeSession(ctx context.Context, principalID, sessionID uuid.UUID) error {
	revoked, err := srv.credentials.RevokeSession(ctx, principalID, sessionID)
	if err != nil {
		return srv.storeError(ctx, "failed to revoke session", err)
	}
	if revoked == 0 {
		return errors.Wrap(domainerrors.ErrSessionNotFound, "no active session with that id")
	}
	srv.log(ctx).Info("Session revoked", slog.Any("principal_id", principalID), slog.Any("session_id", sessionID))
	srv.events.emit(ctx, &service.SecurityEvent{
		Type:        service.EventSessionRevoked,
		PrincipalID: principalID.String(),
		SessionID:   sessionID.String(),
		ActorID:     actorID(ctx),
		Count:       revoked,
	})

	return nil
}

// RevokeAllOtherSessions keeps the caller's own login and revokes the rest.
func (srv *sessionService) RevokeAllOtherSessions(ctx context.Context, principalID, currentSessionID uuid.UUID) (int, error) {
	revoked, err := srv.credentials.RevokeAllForPrincipalExcept(ctx, principalID, currentSessionID)
	if err != nil {
		return 0, srv.storeError(ctx, "failed to revoke other sessions", err)
	}
	srv.log(ctx).Info("Other sessions revoked", slog.Any("principal_id", principalID), slog.Int("revoked", revoked))
	if revoked > 0 {
		srv.events.emit(ctx, &service.SecurityEvent{
			Type:        service.EventSessionsRevoked,
			PrincipalID: principalID.String(),
			SessionID:   currentSessionID.String(),
			ActorID:     actorID(ctx),
			Reason:      "others",
			Count:       revoked,
		})
	}

	return revoked, nil
}

// RevokeAllSessions revokes every session of the principal.
func (srv *sessionService) RevokeAllSessions(ctx context.Context, principalID uuid.UUID) (int, error) {
	revoked, err := srv.credentials.RevokeAllForPrincipal(ctx, principalID)
	if err != nil {
		return 0, srv.storeError(ctx, "failed to revoke sessions", err)
	}
	srv.log(ctx).Info("All sessions revoked", slog.Any("principal_id", principalID), slog.Int("revoked", revoked))
	srv.events.emit(ctx, &service.SecurityEvent{
		Type:        service.EventSessionsRevoked,
		PrincipalID: principalID.String(),
		ActorID:     actorID(ctx),
		Count:       revoked,
	})

	return revoked, nil
}

// CleanupExpiredSessions deletes records that ended before the retention window.
func (srv *sessionService) CleanupExpiredSessions(ctx context.Context) (int, error) {
	cutoff := srv.now().Add(-srv.retention)

	deleted, err := srv.credentials.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, srv.storeError(ctx, "failed to clean up sessions", err)
	}
	srv.log(ctx).Info("Expired sessions cleaned up", slog.Int("deleted", deleted), slog.Time("cutoff", cutoff))

	return deleted, nil
}

func (srv *sessionService) storeError(ctx context.Context, msg string, cause error) error {
	srv.log(ctx).Error(msg, slog.Any("error", cause))

	return errors.Wrap(domainerrors.ErrCredentialStoreUnavailable, msg)
}

// actorID is the principal on whose behalf the request runs, empty for background jobs.
func actorID(ctx context.Context) string {
	if principal := deliverycontext.PrincipalFromContext(ctx); principal != nil {
		return principal.ID.String()
	}

	return ""
}
