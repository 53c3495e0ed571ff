package postgres

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/model"
)

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository is the constructor for roleRepository.
func NewRoleRepository(db *gorm.DB) repository.RoleRepository {
	return &roleRepository{db: db}
}

func (repo *roleRepository) List(ctx context.Context) ([]*entity.RoleDefinition, error) {
	var roleModels []*model.RoleModel
	if err := repo.db.WithContext(ctx).Order("slug").Find(&roleModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list roles")
	}

	roles := make([]*entity.RoleDefinition, 0, len(roleModels))
	for _, roleM := range roleModels {
		roles = append(roles, toRoleDomain(roleM))
	}

	return roles, nil
}

func toRoleDomain(data *model.RoleModel) *entity.RoleDefinition {
	return &entity.RoleDefinition{
		Slug: entity.Role(data.Slug),
		Name: data.Name,
	}
}
