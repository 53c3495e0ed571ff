package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	domainerrors "github.com/iconic-inc/iconic-erp-sub003/internal/domain/errors"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/model"
)

const activeCredentialCondition = "revoked_at IS NULL AND expires_at > ?"

// credentialRepository implements repository.CredentialRepository using GORM.
type credentialRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCredentialRepository is the constructor for credentialRepository.
func NewCredentialRepository(db *gorm.DB) repository.CredentialRepository {
	return newCredentialRepository(db, time.Now)
}

func newCredentialRepository(db *gorm.DB, now func() time.Time) *credentialRepository {
	return &credentialRepository{db: db, now: now}
}

func (repo *credentialRepository) Create(ctx context.Context, record *entity.CredentialRecord) error {
	repo.prepare(record)

	return insertCredential(repo.db.WithContext(ctx), record)
}

// CreateWithLimit serialises logins of the same principal with a transaction scoped advisory lock.
func (repo *credentialRepository) CreateWithLimit(ctx context.Context, record *entity.CredentialRecord, maxActive int) error {
	if maxActive <= 0 {
		return repo.Create(ctx, record)
	}
	repo.prepare(record)

	return runInTx(ctx, repo.db, func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", record.PrincipalID.String()).Error; err != nil {
			return errors.Wrap(err, "failed to lock principal sessions")
		}

		var active int64
		err := tx.Model(&model.CredentialModel{}).
			Where("principal_id = ? AND "+activeCredentialCondition, record.PrincipalID, repo.now()).
			Count(&active).Error
		if err != nil {
			return errors.Wrap(err, "failed to count active sessions")
		}
		if active >= int64(maxActive) {
			return repository.ErrSessionLimitReached
		}

		return insertCredential(tx, record)
	})
}

// FindActive reads from the primary so a freshly rotated record is always visible.
func (repo *credentialRepository) FindActive(ctx context.Context, fingerprint string) (*entity.CredentialRecord, error) {
	var credentialM model.CredentialModel
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("fingerprint = ? AND "+activeCredentialCondition, fingerprint, repo.now()).
		First(&credentialM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCredentialNotFound
		}

		return nil, errors.Wrap(err, "failed to find credential by fingerprint")
	}

	return toCredentialDomain(&credentialM), nil
}

// Rotate relies on the row lock taken by the conditional UPDATE: a concurrent
// rotation of the same record waits, re-checks the condition and matches no row.
func (repo *credentialRepository) Rotate(ctx context.Context, oldID uuid.UUID, next *entity.CredentialRecord) error {
	repo.prepare(next)
	now := repo.now()

	return runInTx(ctx, repo.db, func(tx *gorm.DB) error {
		result := tx.Model(&model.CredentialModel{}).
			Where("id = ? AND "+activeCredentialCondition, oldID, now).
			Updates(map[string]any{
				"revoked_at":  now,
				"replaced_by": next.ID,
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to supersede credential")
		}
		if result.RowsAffected != 1 {
			return repository.ErrCredentialSuperseded
		}

		return insertCredential(tx, next)
	})
}

func (repo *credentialRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.CredentialModel{}).
		Where("id = ?", id).
		Update("revoked_at", gorm.Expr("COALESCE(revoked_at, ?)", repo.now()))
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to revoke credential")
	}
	if result.RowsAffected == 0 {
		return repository.ErrCredentialNotFound
	}

	return nil
}

func (repo *credentialRepository) RevokeSession(ctx context.Context, principalID, sessionID uuid.UUID) (int, error) {
	return repo.revokeWhere(ctx, principalID, "session_id = ?", sessionID)
}

func (repo *credentialRepository) RevokeAllForPrincipal(ctx context.Context, principalID uuid.UUID) (int, error) {
	return repo.revokeWhere(ctx, principalID, "")
}

func (repo *credentialRepository) RevokeAllForPrincipalExcept(ctx context.Context, principalID, keepSessionID uuid.UUID) (int, error) {
	return repo.revokeWhere(ctx, principalID, "session_id <> ?", keepSessionID)
}

func (repo *credentialRepository) revokeWhere(ctx context.Context, principalID uuid.UUID, extra string, args ...any) (int, error) {
	now := repo.now()
	query := repo.db.WithContext(ctx).
		Model(&model.CredentialModel{}).
		Where("principal_id = ? AND "+activeCredentialCondition, principalID, now)
	if extra != "" {
		query = query.Where(extra, args...)
	}

	result := query.Update("revoked_at", now)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to revoke credentials")
	}

	return int(result.RowsAffected), nil
}

func (repo *credentialRepository) ListActiveByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*entity.CredentialRecord, error) {
	var credentialModels []*model.CredentialModel
	err := repo.db.WithContext(ctx).
		Where("principal_id = ? AND "+activeCredentialCondition, principalID, repo.now()).
		Order("issued_at DESC").
		Find(&credentialModels).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active credentials")
	}

	records := make([]*entity.CredentialRecord, 0, len(credentialModels))
	for _, credentialM := range credentialModels {
		records = append(records, toCredentialDomain(credentialM))
	}

	return records, nil
}

func (repo *credentialRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", before, before).
		Delete(&model.CredentialModel{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete expired credentials")
	}

	return int(result.RowsAffected), nil
}

func (repo *credentialRepository) prepare(record *entity.CredentialRecord) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.IssuedAt.IsZero() {
		record.IssuedAt = repo.now()
	}
}

func insertCredential(db *gorm.DB, record *entity.CredentialRecord) error {
	if err := db.Create(fromCredentialDomain(record)).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrCredentialDuplicate
		}
		if isNotNullConstraintViolation(err) {
			return errors.Wrap(domainerrors.ErrInvalidRecord, "missing required credential information")
		}

		return domainerrors.NewStoreError("create credential", err)
	}

	return nil
}

// --- Mapper Functions ---

func toCredentialDomain(data *model.CredentialModel) *entity.CredentialRecord {
	if data == nil {
		return nil
	}

	return &entity.CredentialRecord{
		ID:          data.ID,
		PrincipalID: data.PrincipalID,
		SessionID:   data.SessionID,
		Fingerprint: data.Fingerprint,
		UserAgent:   data.UserAgent,
		RemoteIP:    data.RemoteIP,
		IssuedAt:    data.IssuedAt,
		ExpiresAt:   data.ExpiresAt,
		RevokedAt:   data.RevokedAt,
		ReplacedBy:  data.ReplacedBy,
	}
}

func fromCredentialDomain(data *entity.CredentialRecord) *model.CredentialModel {
	if data == nil {
		return nil
	}

	return &model.CredentialModel{
		ID:          data.ID,
		PrincipalID: data.PrincipalID,
		SessionID:   data.SessionID,
		Fingerprint: data.Fingerprint,
		UserAgent:   data.UserAgent,
		RemoteIP:    data.RemoteIP,
		IssuedAt:    data.IssuedAt,
		ExpiresAt:   data.ExpiresAt,
		RevokedAt:   data.RevokedAt,
		ReplacedBy:  data.ReplacedBy,
	}
}
