package store

import (
	"context"
	"fmt"

	"github.com/gymstack/rbac/models"
)

// PermissionCache caches the resolved task-slug set per (org, module) and is
// explicitly invalidated after any mutation that changes assignments. Lookups
// miss softly: a cache failure never fails the admin operation that triggered
// the invalidation.
type PermissionCache interface {
	Get(ctx context.Context, orgID string, module models.Module) ([]string, bool, error)
	Put(ctx context.Context, orgID string, module models.Module, slugs []string) error
	Invalidate(ctx context.Context, orgID string, module models.Module) error
	Close()
}

func permCacheKey(prefix, orgID string, module models.Module) string {
	return fmt.Sprintf("%sperm:%s:%s", prefix, orgID, module.Normalize())
}

// NoopCache satisfies PermissionCache for invocations without a cache backend.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, models.Module) ([]string, bool, error) {
	return nil, false, nil
}
func (NoopCache) Put(context.Context, string, models.Module, []string) error { return nil }
func (NoopCache) Invalidate(context.Context, string, models.Module) error    { return nil }
func (NoopCache) Close()                                                     {}
