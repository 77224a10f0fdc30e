package permission

import (
	"context"

	"gorm.io/gorm"

	"github.com/gymstack/rbac/models"
	"github.com/gymstack/rbac/store"
)

// Resolver computes effective permission slugs from the role graph. Org-level
// sets are cached per (org, module); user-level sets are always resolved
// fresh.
type Resolver struct {
	DB    *gorm.DB
	Cache store.PermissionCache
}

func NewResolver(db *gorm.DB, cache store.PermissionCache) *Resolver {
	if cache == nil {
		cache = store.NoopCache{}
	}
	return &Resolver{DB: db, Cache: cache}
}

// OrgSlugs returns every task slug granted through any active role of the org
// for the module. Results are cached; catalog mutations invalidate the key.
func (r *Resolver) OrgSlugs(ctx context.Context, orgID string, module models.Module) ([]string, error) {
	if slugs, ok, err := r.Cache.Get(ctx, orgID, module); err == nil && ok {
		return slugs, nil
	}
	var slugs []string
	err := r.DB.WithContext(ctx).
		Table("tasks").
		Distinct("tasks.slug").
		Joins("JOIN role_tasks ON role_tasks.task_id = tasks.id AND role_tasks.is_active = TRUE").
		Joins("JOIN roles ON roles.id = role_tasks.role_id AND roles.is_active = TRUE").
		Where("roles.org_id = ? AND tasks.module = ?", orgID, module).
		Pluck("tasks.slug", &slugs).Error
	if err != nil {
		return nil, err
	}
	slugs = NormalizeSlugs(slugs)
	if cerr := r.Cache.Put(ctx, orgID, module, slugs); cerr != nil {
		// Cache write failures degrade to uncached reads.
		return slugs, nil
	}
	return slugs, nil
}

// UserSlugs returns the task slugs a user holds through non-deleted role
// assignments to active roles.
func (r *Resolver) UserSlugs(ctx context.Context, orgID, orgUserID string, module models.Module) ([]string, error) {
	var slugs []string
	err := r.DB.WithContext(ctx).
		Table("tasks").
		Distinct("tasks.slug").
		Joins("JOIN role_tasks ON role_tasks.task_id = tasks.id AND role_tasks.is_active = TRUE").
		Joins("JOIN roles ON roles.id = role_tasks.role_id AND roles.is_active = TRUE").
		Joins("JOIN role_users ON role_users.role_id = roles.id AND role_users.is_deleted = FALSE").
		Where("role_users.org_id = ? AND role_users.org_user_id = ? AND tasks.module = ?", orgID, orgUserID, module).
		Pluck("tasks.slug", &slugs).Error
	if err != nil {
		return nil, err
	}
	return NormalizeSlugs(slugs), nil
}

// Has reports whether the user holds the required slug in the module.
func (r *Resolver) Has(ctx context.Context, orgID, orgUserID string, module models.Module, required string) (bool, error) {
	slugs, err := r.UserSlugs(ctx, orgID, orgUserID, module)
	if err != nil {
		return false, err
	}
	return HasSlug(slugs, required), nil
}
