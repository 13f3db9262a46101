package persistence

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/repository"
)

// SeedDefaults upserts the built-in permissions and roles. Safe to run on
// every boot.
func SeedDefaults(ctx context.Context, roles repository.RoleRepository, logger *zap.Logger) error {
	codenames := make([]string, 0, len(domain.DefaultPermissions))
	for codename := range domain.DefaultPermissions {
		codenames = append(codenames, codename)
	}
	sort.Strings(codenames)
	for _, codename := range codenames {
		if err := roles.EnsurePermission(ctx, codename, domain.DefaultPermissions[codename]); err != nil {
			return err
		}
	}

	roleNames := make([]string, 0, len(domain.DefaultRoles))
	for name := range domain.DefaultRoles {
		roleNames = append(roleNames, name)
	}
	sort.Strings(roleNames)
	for _, name := range roleNames {
		if err := roles.EnsureRole(ctx, name, domain.DefaultRoles[name]); err != nil {
			return err
		}
	}

	logger.Info("default roles seeded",
		zap.Int("permissions", len(codenames)),
		zap.Int("roles", len(roleNames)))
	return nil
}
