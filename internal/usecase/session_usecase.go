package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
)

// SessionUsecase defines the interface for session management operations.
type SessionUsecase interface {
	// ListSessions returns the active sessions of the principal, newest first, flagging currentSessionID.
	ListSessions(ctx context.Context, principalID, currentSessionID uuid.UUID) ([]*entity.SessionInfo, error)
	GetSessionStatistics(ctx context.Context, principalID uuid.UUID) (*entity.SessionStatistics, error)
	// RevokeSession fails with ErrSessionNotFound when the principal has no such active session.
	RevokeSession(ctx context.Context, principalID, sessionID uuid.UUID) error
	RevokeAllOtherSessions(ctx context.Context, principalID, currentSessionID uuid.UUID) (int, error)
	RevokeAllSessions(ctx context.Context, principalID uuid.UUID) (int, error)
	// CleanupExpiredSessions deletes records that ended before the retention window.
	CleanupExpiredSessions(ctx context.Context) (int, error)
}
