package provision

import (
	"context"

	"github.com/gymstack/rbac/models"
	"gorm.io/gorm"
)

// CleanupOptions controls one cleanup invocation. The stage flags narrow the
// run: any of the *Only flags restricts cleanup to that stage's entities (and
// whatever depends on them); KeepCategories runs everything except the
// category stage. Interactive confirmation is the caller's concern; by the
// time Cleanup runs the operator has already confirmed or forced.
type CleanupOptions struct {
	OrgID          string // empty means all orgs
	DryRun         bool
	RolesOnly      bool
	TasksOnly      bool
	CategoriesOnly bool
	KeepCategories bool
}

// stages derives which entity stages this invocation touches. Assignments and
// bindings always go when roles go; deleting tasks also deletes bindings.
func (o CleanupOptions) stages() (roles, tasks, categories bool) {
	switch {
	case o.RolesOnly:
		return true, false, false
	case o.TasksOnly:
		return false, true, false
	case o.CategoriesOnly:
		return false, false, true
	default:
		return true, true, !o.KeepCategories
	}
}

// Cleanup deletes a module's RBAC data in strict dependency order:
// role_users -> role_tasks -> roles -> tasks -> categories. Under DryRun it
// reports the counts each stage would delete and mutates nothing. A real run
// commits in one transaction; any failure rolls back every prior deletion.
func (e *Engine) Cleanup(ctx context.Context, module models.Module, opts CleanupOptions) (*CleanupReport, error) {
	if !module.IsValid() {
		return nil, models.ErrInvalidModule
	}
	module = module.Normalize()
	report := &CleanupReport{Module: module, DryRun: opts.DryRun}
	doRoles, doTasks, doCats := opts.stages()

	// Categories and tasks are module-global; an org-scoped cleanup can only
	// touch the org's roles and pivots.
	if opts.OrgID != "" && (doTasks || doCats) {
		if doTasks {
			report.warnf("org-scoped cleanup skips module-global tasks")
		}
		if doCats {
			report.warnf("org-scoped cleanup skips module-global categories")
		}
		doTasks, doCats = false, false
	}

	if opts.DryRun {
		return report, e.cleanupCounts(ctx, e.DB, module, opts, doRoles, doTasks, doCats, report)
	}

	affectedOrgs := map[string]bool{}
	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if doRoles {
			var orgIDs []string
			roleQuery := tx.Model(&models.Role{}).Where("module = ?", module)
			if opts.OrgID != "" {
				roleQuery = roleQuery.Where("org_id = ?", opts.OrgID)
			}
			if err := roleQuery.Distinct().Pluck("org_id", &orgIDs).Error; err != nil {
				return err
			}
			for _, id := range orgIDs {
				affectedOrgs[id] = true
			}

			ru := tx.Where("module = ?", module)
			if opts.OrgID != "" {
				ru = ru.Where("org_id = ?", opts.OrgID)
			}
			res := ru.Delete(&models.RoleUser{})
			if res.Error != nil {
				return res.Error
			}
			report.RoleUsers = res.RowsAffected

			res = tx.Where("role_id IN (?)", roleSubquery(tx, module, opts.OrgID)).Delete(&models.RoleTask{})
			if res.Error != nil {
				return res.Error
			}
			report.RoleTasks = res.RowsAffected

			roles := tx.Where("module = ?", module)
			if opts.OrgID != "" {
				roles = roles.Where("org_id = ?", opts.OrgID)
			}
			res = roles.Delete(&models.Role{})
			if res.Error != nil {
				return res.Error
			}
			report.Roles = res.RowsAffected
		}
		if doTasks {
			// Bindings referencing the module's tasks go first even when the
			// role stage was skipped.
			res := tx.Where("module = ?", module).Delete(&models.RoleTask{})
			if res.Error != nil {
				return res.Error
			}
			report.RoleTasks += res.RowsAffected

			res = tx.Where("module = ?", module).Delete(&models.Task{})
			if res.Error != nil {
				return res.Error
			}
			report.Tasks = res.RowsAffected
		}
		if doCats {
			res := tx.Where("module = ?", module).Delete(&models.Category{})
			if res.Error != nil {
				return res.Error
			}
			report.Categories = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for orgID := range affectedOrgs {
		if cerr := e.Cache.Invalidate(ctx, orgID, module); cerr != nil {
			e.Logger.Printf("[cleanup] cache invalidation failed for org %s: %v", orgID, cerr)
		}
	}
	return report, nil
}

func roleSubquery(tx *gorm.DB, module models.Module, orgID string) *gorm.DB {
	q := tx.Session(&gorm.Session{NewDB: true}).Model(&models.Role{}).Select("id").Where("module = ?", module)
	if orgID != "" {
		q = q.Where("org_id = ?", orgID)
	}
	return q
}

func (e *Engine) cleanupCounts(ctx context.Context, db *gorm.DB, module models.Module, opts CleanupOptions, doRoles, doTasks, doCats bool, report *CleanupReport) error {
	db = db.WithContext(ctx)
	if doRoles {
		ru := db.Model(&models.RoleUser{}).Where("module = ?", module)
		if opts.OrgID != "" {
			ru = ru.Where("org_id = ?", opts.OrgID)
		}
		if err := ru.Count(&report.RoleUsers).Error; err != nil {
			return err
		}
		if err := db.Model(&models.RoleTask{}).Where("role_id IN (?)", roleSubquery(db, module, opts.OrgID)).Count(&report.RoleTasks).Error; err != nil {
			return err
		}
		roles := db.Model(&models.Role{}).Where("module = ?", module)
		if opts.OrgID != "" {
			roles = roles.Where("org_id = ?", opts.OrgID)
		}
		if err := roles.Count(&report.Roles).Error; err != nil {
			return err
		}
	}
	if doTasks {
		if !doRoles {
			if err := db.Model(&models.RoleTask{}).Where("module = ?", module).Count(&report.RoleTasks).Error; err != nil {
				return err
			}
		}
		if err := db.Model(&models.Task{}).Where("module = ?", module).Count(&report.Tasks).Error; err != nil {
			return err
		}
	}
	if doCats {
		if err := db.Model(&models.Category{}).Where("module = ?", module).Count(&report.Categories).Error; err != nil {
			return err
		}
	}
	return nil
}
