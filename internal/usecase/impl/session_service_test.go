package impl

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	domainerrors "github.com/iconic-inc/iconic-erp-sub003/internal/domain/errors"
	mockRepo "github.com/iconic-inc/iconic-erp-sub003/internal/mocks/repository"
)

func TestSessionService_ListSessions(t *testing.T) {
	env := newTestEnv(t)
	env.expectPrincipalLookups()
	ctx := context.Background()

	older := env.login(t)
	env.clock.Advance(time.Minute)
	newer := env.login(t)

	sessions, err := env.sessionService().ListSessions(ctx, env.principal.ID, older.SessionID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, newer.SessionID, sessions[0].SessionID)
	assert.False(t, sessions[0].Current)
	assert.Equal(t, older.SessionID, sessions[1].SessionID)
	assert.True(t, sessions[1].Current)
	assert.Equal(t, "Mozilla/5.0", sessions[1].UserAgent)

	others, err := env.sessionService().ListSessions(ctx, uuid.New(), uuid.Nil)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestSessionService_GetSessionStatistics(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Auth.MaxActiveSessions = 5
	})
	env.expectPrincipalLookups()

	start := env.clock.Now()
	env.login(t)
	env.clock.Advance(time.Hour)
	env.login(t)

	stats, err := env.sessionService().GetSessionStatistics(context.Background(), env.principal.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ActiveSessions)
	assert.Equal(t, 5, stats.MaxSessions)
	require.NotNil(t, stats.OldestIssuedAt)
	assert.True(t, start.Equal(*stats.OldestIssuedAt))
	assert.True(t, start.Add(time.Hour).Equal(*stats.NewestIssuedAt))
	assert.True(t, start.Add(7*24*time.Hour).Equal(*stats.NextExpiry))

	empty, err := env.sessionService().GetSessionStatistics(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, empty.ActiveSessions)
	assert.Nil(t, empty.OldestIssuedAt)
}

func TestSessionService_RevokeSession(t *testing.T) {
	env := newTestEnv(t)
	env.expectPrincipalLookups()
	srv := env.sessionService()
	ctx := context.Background()

	target := env.login(t)
	env.login(t)

	require.NoError(t, srv.RevokeSession(ctx, env.principal.ID, target.SessionID))

	err := srv.RevokeSession(ctx, env.principal.ID, target.SessionID)
	assert.ErrorIs(t, err, domainerrors.ErrSessionNotFound)

	err = srv.RevokeSession(ctx, uuid.New(), target.SessionID)
	assert.ErrorIs(t, err, domainerrors.ErrSessionNotFound, "another principal cannot see the session")

	outcome, err := env.gate().Authenticate(ctx, target.Carrier)
	require.NoError(t, err)
	assert.False(t, outcome.Authenticated())
}

func TestSessionService_RevokeAllOtherSessions(t *testing.T) {
	env := newTestEnv(t)
	env.expectPrincipalLookups()
	srv := env.sessionService()
	ctx := context.Background()

	current := env.login(t)
	env.login(t)
	env.login(t)

	revoked, err := srv.RevokeAllOtherSessions(ctx, env.principal.ID, current.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, revoked)

	sessions, err := srv.ListSessions(ctx, env.principal.ID, current.SessionID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Current)

	revoked, err = srv.RevokeAllSessions(ctx, env.principal.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, revoked)
}

func TestSessionService_CleanupExpiredSessions(t *testing.T) {
	env := newTestEnv(t)
	env.expectPrincipalLookups()
	srv := env.sessionService()
	ctx := context.Background()

	out := env.login(t)
	require.NoError(t, env.authService().Logout(ctx, out.Carrier))

	deleted, err := srv.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted, "revoked records are kept for the retention window")

	env.clock.Advance(25 * time.Hour)
	deleted, err = srv.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestSessionService_StoreErrors(t *testing.T) {
	env := newTestEnv(t)
	failing := mockRepo.NewMockCredentialRepository(t)
	failing.EXPECT().ListActiveByPrincipal(mock.Anything, mock.Anything).Return(nil, errors.New("i/o timeout"))
	failing.EXPECT().RevokeSession(mock.Anything, mock.Anything, mock.Anything).Return(0, errors.New("i/o timeout"))
	failing.EXPECT().DeleteExpired(mock.Anything, env.clock.Now().Add(-24*time.Hour)).Return(0, errors.New("i/o timeout"))
	env.credentials = failing
	srv := env.sessionService()
	ctx := context.Background()

	_, err := srv.ListSessions(ctx, uuid.New(), uuid.Nil)
	assert.ErrorIs(t, err, domainerrors.ErrCredentialStoreUnavailable)

	_, err = srv.GetSessionStatistics(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrCredentialStoreUnavailable)

	err = srv.RevokeSession(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrCredentialStoreUnavailable)
	assert.NotErrorIs(t, err, domainerrors.ErrSessionNotFound)

	_, err = srv.CleanupExpiredSessions(ctx)
	assert.ErrorIs(t, err, domainerrors.ErrCredentialStoreUnavailable)
}
