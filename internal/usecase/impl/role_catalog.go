package impl

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
)

// RoleCatalogReport compares the stored role table with the roles the policy knows.
type RoleCatalogReport struct {
	// Missing are known roles with no stored definition.
	Missing []entity.Role
	// Unknown are stored roles the policy grants nothing to.
	Unknown []entity.Role
}

// VerifyRoleCatalog logs drift between the roles table and the capability policy.
// Principals holding an unknown role authenticate but are denied every capability.
func VerifyRoleCatalog(ctx context.Context, roles repository.RoleRepository, logger *slog.Logger) (*RoleCatalogReport, error) {
	stored, err := roles.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list role definitions")
	}

	report := &RoleCatalogReport{}
	seen := make(map[entity.Role]struct{}, len(stored))
	for _, def := range stored {
		seen[def.Slug] = struct{}{}
		if !def.Slug.IsValid() {
			report.Unknown = append(report.Unknown, def.Slug)
		}
	}
	for _, role := range entity.KnownRoles() {
		if _, ok := seen[role]; !ok {
			report.Missing = append(report.Missing, role)
		}
	}

	if len(report.Missing) > 0 || len(report.Unknown) > 0 {
		logger.Warn("Role table and capability policy disagree",
			slog.Any("missing", report.Missing),
			slog.Any("unknown", report.Unknown),
		)
	}

	return report, nil
}
