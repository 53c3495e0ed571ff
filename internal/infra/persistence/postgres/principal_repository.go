package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/model"
)

// principalRepository implements repository.PrincipalRepository on the users table.
type principalRepository struct {
	db *gorm.DB
}

// NewPrincipalRepository is the constructor for principalRepository.
func NewPrincipalRepository(db *gorm.DB) repository.PrincipalRepository {
	return &principalRepository{db: db}
}

// FindByID retrieves a single principal, ignoring soft deleted users.
func (repo *principalRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Principal, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPrincipalNotFound
		}

		return nil, errors.Wrap(err, "failed to find principal by id")
	}

	return toPrincipalDomain(&userM), nil
}

// FindByEmail matches the login email case-insensitively.
func (repo *principalRepository) FindByEmail(ctx context.Context, email string) (*entity.Principal, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("LOWER(email) = ? AND deleted_at IS NULL", strings.ToLower(strings.TrimSpace(email))).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPrincipalNotFound
		}

		return nil, errors.Wrap(err, "failed to find principal by email")
	}

	return toPrincipalDomain(&userM), nil
}

func toPrincipalDomain(data *model.UserModel) *entity.Principal {
	if data == nil {
		return nil
	}

	return &entity.Principal{
		ID:           data.ID,
		Email:        data.Email,
		Name:         data.Name,
		Role:         entity.Role(data.RoleSlug),
		PasswordHash: data.PasswordHash,
		Active:       data.Active,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}
