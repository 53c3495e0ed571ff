// Package memory provides an in-process credential store for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
)

type credentialRepository struct {
	mu            sync.Mutex
	records       map[uuid.UUID]*entity.CredentialRecord
	byFingerprint map[string]uuid.UUID
	now           func() time.Time
}

// Option customises the memory store.
type Option func(*credentialRepository)

// WithClock replaces the wall clock used to judge expiry.
func WithClock(now func() time.Time) Option {
	return func(r *credentialRepository) {
		r.now = now
	}
}

// NewCredentialRepository returns an empty store. State is lost on restart.
func NewCredentialRepository(opts ...Option) repository.CredentialRepository {
	r := &credentialRepository{
		records:       make(map[uuid.UUID]*entity.CredentialRecord),
		byFingerprint: make(map[string]uuid.UUID),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *credentialRepository) Create(ctx context.Context, record *entity.CredentialRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(record)
}

func (r *credentialRepository) CreateWithLimit(ctx context.Context, record *entity.CredentialRecord, maxActive int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if maxActive > 0 && len(r.activeForLocked(record.PrincipalID)) >= maxActive {
		return repository.ErrSessionLimitReached
	}

	return r.insertLocked(record)
}

func (r *credentialRepository) FindActive(ctx context.Context, fingerprint string) (*entity.CredentialRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byFingerprint[fingerprint]
	if !ok {
		return nil, repository.ErrCredentialNotFound
	}
	record := r.records[id]
	if record == nil || !record.IsActiveAt(r.now()) {
		return nil, repository.ErrCredentialNotFound
	}

	return clone(record), nil
}

func (r *credentialRepository) Rotate(ctx context.Context, oldID uuid.UUID, next *entity.CredentialRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.records[oldID]
	if old == nil || !old.IsActiveAt(r.now()) {
		return repository.ErrCredentialSuperseded
	}
	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}
	if _, exists := r.byFingerprint[next.Fingerprint]; exists {
		return repository.ErrCredentialDuplicate
	}

	revokedAt, replacedBy := r.now(), next.ID
	old.RevokedAt = &revokedAt
	old.ReplacedBy = &replacedBy

	return r.insertLocked(next)
}

func (r *credentialRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.records[id]
	if record == nil {
		return repository.ErrCredentialNotFound
	}
	r.revokeLocked(record)

	return nil
}

func (r *credentialRepository) RevokeSession(ctx context.Context, principalID, sessionID uuid.UUID) (int, error) {
	return r.revokeWhere(func(record *entity.CredentialRecord) bool {
		return record.PrincipalID == principalID && record.SessionID == sessionID
	}), nil
}

func (r *credentialRepository) RevokeAllForPrincipal(ctx context.Context, principalID uuid.UUID) (int, error) {
	return r.revokeWhere(func(record *entity.CredentialRecord) bool {
		return record.PrincipalID == principalID
	}), nil
}

func (r *credentialRepository) RevokeAllForPrincipalExcept(ctx context.Context, principalID, keepSessionID uuid.UUID) (int, error) {
	return r.revokeWhere(func(record *entity.CredentialRecord) bool {
		return record.PrincipalID == principalID && record.SessionID != keepSessionID
	}), nil
}

func (r *credentialRepository) ListActiveByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*entity.CredentialRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := r.activeForLocked(principalID)
	out := make([]*entity.CredentialRecord, 0, len(active))
	for _, record := range active {
		out = append(out, clone(record))
	}
	slices.SortFunc(out, func(a, b *entity.CredentialRecord) int {
		return b.IssuedAt.Compare(a.IssuedAt)
	})

	return out, nil
}

func (r *credentialRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, record := range r.records {
		expired := record.ExpiresAt.Before(before)
		revoked := record.RevokedAt != nil && record.RevokedAt.Before(before)
		if !expired && !revoked {
			continue
		}
		delete(r.records, id)
		if r.byFingerprint[record.Fingerprint] == id {
			delete(r.byFingerprint, record.Fingerprint)
		}
		deleted++
	}

	return deleted, nil
}

func (r *credentialRepository) insertLocked(record *entity.CredentialRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if _, exists := r.byFingerprint[record.Fingerprint]; exists {
		return repository.ErrCredentialDuplicate
	}
	if record.IssuedAt.IsZero() {
		record.IssuedAt = r.now()
	}

	r.records[record.ID] = clone(record)
	r.byFingerprint[record.Fingerprint] = record.ID

	return nil
}

func (r *credentialRepository) activeForLocked(principalID uuid.UUID) []*entity.CredentialRecord {
	now := r.now()
	var out []*entity.CredentialRecord
	for _, record := range r.records {
		if record.PrincipalID == principalID && record.IsActiveAt(now) {
			out = append(out, record)
		}
	}

	return out
}

func (r *credentialRepository) revokeWhere(match func(*entity.CredentialRecord) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	revoked := 0
	for _, record := range r.records {
		if record.IsActiveAt(now) && match(record) {
			r.revokeLocked(record)
			revoked++
		}
	}

	return revoked
}

func (r *credentialRepository) revokeLocked(record *entity.CredentialRecord) {
	if record.RevokedAt != nil {
		return
	}
	revokedAt := r.now()
	record.RevokedAt = &revokedAt
}

func clone(record *entity.CredentialRecord) *entity.CredentialRecord {
	out := *record
	if record.RevokedAt != nil {
		revokedAt := *record.RevokedAt
		out.RevokedAt = &revokedAt
	}
	if record.ReplacedBy != nil {
		replacedBy := *record.ReplacedBy
		out.ReplacedBy = &replacedBy
	}

	return &out
}
