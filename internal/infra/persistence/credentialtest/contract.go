// Package credentialtest holds the behaviour every CredentialRepository driver must share.
package credentialtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
)

// Clock is a manually advanced time source shared by a test and the store under test.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Factory builds an empty store whose notion of "now" follows clock.
type Factory func(t *testing.T, clock *Clock) repository.CredentialRepository

// Run executes the shared suite against the store built by factory.
func Run(t *testing.T, factory Factory) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, repo repository.CredentialRepository, clock *Clock)
	}{
		{"CreateAndFindActive", testCreateAndFindActive},
		{"FindActiveUnknown", testFindActiveUnknown},
		{"DuplicateFingerprint", testDuplicateFingerprint},
		{"ExpiredIsNotActive", testExpiredIsNotActive},
		{"Revoke", testRevoke},
		{"Rotate", testRotate},
		{"RotateExpired", testRotateExpired},
		{"ConcurrentRotateHasOneWinner", testConcurrentRotate},
		{"CreateWithLimit", testCreateWithLimit},
		{"RevokeSession", testRevokeSession},
		{"RevokeAll", testRevokeAll},
		{"ListActiveNewestFirst", testListActive},
		{"DeleteExpired", testDeleteExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clock := NewClock()
			tc.fn(t, factory(t, clock), clock)
		})
	}
}

// NewRecord builds a record issued now and expiring after ttl.
func NewRecord(clock *Clock, principalID, sessionID uuid.UUID, ttl time.Duration) *entity.CredentialRecord {
	now := clock.Now()

	return &entity.CredentialRecord{
		PrincipalID: principalID,
		SessionID:   sessionID,
		Fingerprint: uuid.NewString(),
		UserAgent:   "Mozilla/5.0",
		RemoteIP:    "203.0.113.7",
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}
}

func testCreateAndFindActive(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	ctx := context.Background()
	record := NewRecord(clock, uuid.New(), uuid.New(), time.Hour)

	require.NoError(t, repo.Create(ctx, record))
	require.NotEqual(t, uuid.Nil, record.ID)

	found, err := repo.FindActive(ctx, record.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)
	assert.Equal(t, record.PrincipalID, found.PrincipalID)
	assert.Equal(t, record.SessionID, found.SessionID)
	assert.Equal(t, record.UserAgent, found.UserAgent)
	assert.Equal(t, record.RemoteIP, found.RemoteIP)
	assert.True(t, record.ExpiresAt.Equal(found.ExpiresAt))
	assert.Nil(t, found.RevokedAt)
}

func testFindActiveUnknown(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	_, err := repo.FindActive(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrCredentialNotFound)
}

func testDuplicateFingerprint(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	ctx := context.Background()
	record := NewRecord(clock, uuid.New(), uuid.New(), time.Hour)
	require.NoError(t, repo.Create(ctx, record))

	duplicate := NewRecord(clock, uuid.New(), uuid.New(), time.Hour)
	duplicate.Fingerprint = record.Fingerprint
	assert.ErrorIs(t, repo.Create(ctx, duplicate), repository.ErrCredentialDuplicate)
}

func testExpiredIsNotActive(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	ctx := context.Background()
	record := NewRecord(clock, uuid.New(), uuid.New(), time.Minute)
	require.NoError(t, repo.Create(ctx, record))

	clock.Advance(2 * time.Minute)

	_, err := repo.FindActive(ctx, record.Fingerprint)
	assert.ErrorIs(t, err, repository.ErrCredentialNotFound)
}

func testRevoke(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	ctx := context.Background()
	record := NewRecord(clock, uuid.New(), uuid.New(), time.Hour)
	require.NoError(t, repo.Create(ctx, record))

	require.NoError(t, repo.Revoke(ctx, record.ID))
	_, err := repo.FindActive(ctx, record.Fingerprint)
	assert.ErrorIs(t, err, repository.ErrCredentialNotFound)

	assert.NoError(t, repo.Revoke(ctx, record.ID), "revoking twice is a no-op")
	assert.ErrorIs(t, repo.Revoke(ctx, uuid.New()), repository.ErrCredentialNotFound)
}

func testRotate(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	ctx := context.Background()
	principalID, sessionID := uuid.New(), uuid.New()
	old := NewRecord(clock, principalID, sessionID, time.Hour)
	require.NoError(t, repo.Create(ctx, old))

	clock.Advance(time.Minute)
	next := NewRecord(clock, principalID, sessionID, time.Hour)
	require.NoError(t, repo.Rotate(ctx, old.ID, next))
	require.NotEqual(t, uuid.Nil, next.ID)

	_, err := repo.FindActive(ctx, old.Fingerprint)
	assert.ErrorIs(t, err, repository.ErrCredentialNotFound)

	found, err := repo.FindActive(ctx, next.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, next.ID, found.ID)
	assert.Equal(t, sessionID, found.SessionID)

	again := NewRecord(clock, principalID, sessionID, time.Hour)
	assert.ErrorIs(t, repo.Rotate(ctx, old.ID, again), repository.ErrCredentialSuperseded)
	_, err = repo.FindActive(ctx, again.Fingerprint)
	assert.ErrorIs(t, err, repository.ErrCredentialNotFound)
}

func testRotateExpired(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	ctx := context.Background()
	old := NewRecord(clock, uuid.New(), uuid.New(), time.Minute)
	require.NoError(t, repo.Create(ctx, old))

	clock.Advance(time.Hour)
	next := NewRecord(clock, old.PrincipalID, old.SessionID, time.Hour)
	assert.ErrorIs(t, repo.Rotate(ctx, old.ID, next), repository.ErrCredentialSuperseded)
}

func testConcurrentRotate(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	ctx := context.Background()
	principalID, sessionID := uuid.New(), uuid.New()
	old := NewRecord(clock, principalID, sessionID, time.Hour)
	require.NoError(t, repo.Create(ctx, old))

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []*entity.CredentialRecord
		losses    int
		unexpects []error
	)
	start := make(chan struct{})
	for range workers {
		next := NewRecord(clock, principalID, sessionID, time.Hour)
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := repo.Rotate(ctx, old.ID, next)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, next)
			case errors.Is(err, repository.ErrCredentialSuperseded):
				losses++
			default:
				unexpects = append(unexpects, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, unexpects)
	require.Len(t, winners, 1)
	assert.Equal(t, workers-1, losses)

	active, err := repo.ListActiveByPrincipal(ctx, principalID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, winners[0].ID, active[0].ID)
}

func testCreateWithLimit(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	ctx := context.Background()
	principalID := uuid.New()

	first := NewRecord(clock, principalID, uuid.New(), time.Hour)
	require.NoError(t, repo.CreateWithLimit(ctx, first, 2))
	require.NoError(t, repo.CreateWithLimit(ctx, NewRecord(clock, principalID, uuid.New(), time.Hour), 2))

	err := repo.CreateWithLimit(ctx, NewRecord(clock, principalID, uuid.New(), time.Hour), 2)
	assert.ErrorIs(t, err, repository.ErrSessionLimitReached)

	require.NoError(t, repo.CreateWithLimit(ctx, NewRecord(clock, uuid.New(), uuid.New(), time.Hour), 2),
		"limit is per principal")

	require.NoError(t, repo.Revoke(ctx, first.ID))
	assert.NoError(t, repo.CreateWithLimit(ctx, NewRecord(clock, principalID, uuid.New(), time.Hour), 2))

	assert.NoError(t, repo.CreateWithLimit(ctx, NewRecord(clock, principalID, uuid.New(), time.Hour), 0),
		"zero disables the limit")
}

func testRevokeSession(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	ctx := context.Background()
	principalID, otherPrincipal := uuid.New(), uuid.New()
	sessionID, otherSession := uuid.New(), uuid.New()

	target := NewRecord(clock, principalID, sessionID, time.Hour)
	kept := NewRecord(clock, principalID, otherSession, time.Hour)
	require.NoError(t, repo.Create(ctx, target))
	require.NoError(t, repo.Create(ctx, kept))

	revoked, err := repo.RevokeSession(ctx, otherPrincipal, sessionID)
	require.NoError(t, err)
	assert.Zero(t, revoked, "sessions of another principal are untouched")

	revoked, err = repo.RevokeSession(ctx, principalID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, revoked)

	_, err = repo.FindActive(ctx, target.Fingerprint)
	assert.ErrorIs(t, err, repository.ErrCredentialNotFound)
	_, err = repo.FindActive(ctx, kept.Fingerprint)
	assert.NoError(t, err)
}

func testRevokeAll(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	ctx := context.Background()
	principalID, bystander := uuid.New(), uuid.New()
	current := uuid.New()

	require.NoError(t, repo.Create(ctx, NewRecord(clock, principalID, current, time.Hour)))
	for range 3 {
		require.NoError(t, repo.Create(ctx, NewRecord(clock, principalID, uuid.New(), time.Hour)))
	}
	other := NewRecord(clock, bystander, uuid.New(), time.Hour)
	require.NoError(t, repo.Create(ctx, other))

	revoked, err := repo.RevokeAllForPrincipalExcept(ctx, principalID, current)
	require.NoError(t, err)
	assert.Equal(t, 3, revoked)

	active, err := repo.ListActiveByPrincipal(ctx, principalID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, current, active[0].SessionID)

	revoked, err = repo.RevokeAllForPrincipal(ctx, principalID)
	require.NoError(t, err)
	assert.Equal(t, 1, revoked)

	active, err = repo.ListActiveByPrincipal(ctx, principalID)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = repo.FindActive(ctx, other.Fingerprint)
	assert.NoError(t, err)
}

func testListActive(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	ctx := context.Background()
	principalID := uuid.New()

	var ids []uuid.UUID
	for i := range 3 {
		record := NewRecord(clock, principalID, uuid.New(), time.Hour)
		record.UserAgent = fmt.Sprintf("agent-%d", i)
		require.NoError(t, repo.Create(ctx, record))
		ids = append(ids, record.ID)
		clock.Advance(time.Second)
	}
	revoked := NewRecord(clock, principalID, uuid.New(), time.Hour)
	require.NoError(t, repo.Create(ctx, revoked))
	require.NoError(t, repo.Revoke(ctx, revoked.ID))

	active, err := repo.ListActiveByPrincipal(ctx, principalID)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{active[0].ID, active[1].ID, active[2].ID})
}

func testDeleteExpired(t *testing.T, repo repository.CredentialRepository, clock *Clock) {
	ctx := context.Background()
	principalID := uuid.New()

	expiring := NewRecord(clock, principalID, uuid.New(), time.Minute)
	revoked := NewRecord(clock, principalID, uuid.New(), 48*time.Hour)
	live := NewRecord(clock, principalID, uuid.New(), 48*time.Hour)
	for _, record := range []*entity.CredentialRecord{expiring, revoked, live} {
		require.NoError(t, repo.Create(ctx, record))
	}
	require.NoError(t, repo.Revoke(ctx, revoked.ID))

	clock.Advance(time.Hour)
	deleted, err := repo.DeleteExpired(ctx, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	assert.ErrorIs(t, repo.Revoke(ctx, expiring.ID), repository.ErrCredentialNotFound)
	_, err = repo.FindActive(ctx, live.Fingerprint)
	assert.NoError(t, err)
}
