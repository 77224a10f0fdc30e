// Package provision implements the bulk workflows that establish and tear
// down a module's permission catalog: categories, tasks, org roles, role-task
// bindings, and admin role-user assignments. Each invocation runs inside a
// single transaction; any error rolls back everything the run did.
package provision

import (
	"context"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/gymstack/rbac/models"
	"github.com/gymstack/rbac/store"
	"gorm.io/gorm"
)

// Options controls one provisioning invocation.
type Options struct {
	OrgID          string // empty means all active orgs
	Force          bool   // delete-then-recreate entities with the same natural key
	SkipCategories bool
	SkipTasks      bool
	SkipRoles      bool
	NoAssignments  bool
	Verbose        bool
}

// Engine runs the bulk workflows against one database handle. Cache and
// Logger may be nil; a noop cache and a discarding logger are substituted.
type Engine struct {
	DB     *gorm.DB
	Cache  store.PermissionCache
	Logger *log.Logger
}

func NewEngine(db *gorm.DB, cache store.PermissionCache, logger *log.Logger) *Engine {
	if cache == nil {
		cache = store.NoopCache{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Engine{DB: db, Cache: cache, Logger: logger}
}

func (e *Engine) verbosef(verbose bool, format string, args ...interface{}) {
	if verbose {
		e.Logger.Printf(format, args...)
	}
}

// Provision establishes the catalog's categories, tasks, roles, bindings and
// admin assignments for the target org (or all active orgs). Re-running with
// identical inputs and Force off creates nothing and reports every entity as
// existing.
func (e *Engine) Provision(ctx context.Context, cat ModuleCatalog, opts Options) (*Report, error) {
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	report := &Report{RunID: uuid.NewString(), Module: cat.Module.Normalize()}
	affectedOrgs := map[string]bool{}

	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catStore := store.NewCategoryStore(tx)
		taskStore := store.NewTaskStore(tx)
		roleStore := store.NewRoleStore(tx)
		ruStore := store.NewRoleUserStore(tx)
		orgStore := store.NewOrgStore(tx)

		if !opts.SkipCategories {
			if err := e.provisionCategories(ctx, catStore, cat, opts, report); err != nil {
				return err
			}
		}
		if !opts.SkipTasks {
			if err := e.provisionTasks(ctx, catStore, taskStore, cat, opts, report); err != nil {
				return err
			}
		}
		if !opts.SkipRoles {
			orgs, err := e.targetOrgs(ctx, orgStore, opts.OrgID)
			if err != nil {
				return err
			}
			for _, org := range orgs {
				affectedOrgs[org.ID] = true
				if err := e.provisionRoles(ctx, taskStore, roleStore, cat, org, opts, report); err != nil {
					return err
				}
			}
		}
		if !opts.NoAssignments {
			if err := e.provisionAssignments(ctx, orgStore, roleStore, ruStore, cat, opts, report, affectedOrgs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Invalidation happens after commit so readers cannot repopulate the
	// cache from the pre-commit state.
	for orgID := range affectedOrgs {
		if cerr := e.Cache.Invalidate(ctx, orgID, cat.Module); cerr != nil {
			e.Logger.Printf("[provision] cache invalidation failed for org %s: %v", orgID, cerr)
		}
	}
	return report, nil
}

func (e *Engine) targetOrgs(ctx context.Context, orgStore *store.OrgStore, orgID string) ([]models.Org, error) {
	if orgID != "" {
		org, err := orgStore.Get(ctx, orgID)
		if err != nil {
			return nil, err
		}
		if org == nil {
			return nil, models.ErrNotFound
		}
		return []models.Org{*org}, nil
	}
	return orgStore.ListActive(ctx)
}

func (e *Engine) provisionCategories(ctx context.Context, catStore *store.CategoryStore, cat ModuleCatalog, opts Options, report *Report) error {
	for _, cd := range cat.Categories {
		existing, err := catStore.GetByName(ctx, cat.Module, cd.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			if !opts.Force {
				report.Categories.Existing++
				e.verbosef(opts.Verbose, "[provision] category %q exists, skipping", cd.Name)
				continue
			}
			if err := catStore.Delete(ctx, cat.Module, existing.ID); err != nil {
				return err
			}
			report.Categories.Forced++
		}
		cats, err := catStore.ListOrdered(ctx, cat.Module)
		if err != nil {
			return err
		}
		if _, err := catStore.CreateAt(ctx, cat.Module, cd.Name, cd.Description, len(cats)+1); err != nil {
			return err
		}
		report.Categories.Created++
		e.verbosef(opts.Verbose, "[provision] created category %q", cd.Name)
	}
	return nil
}

func (e *Engine) provisionTasks(ctx context.Context, catStore *store.CategoryStore, taskStore *store.TaskStore, cat ModuleCatalog, opts Options, report *Report) error {
	for _, cd := range cat.Categories {
		parent, err := catStore.GetByName(ctx, cat.Module, cd.Name)
		if err != nil {
			return err
		}
		if parent == nil {
			report.warnf("category %q not found, skipping its %d tasks", cd.Name, len(cd.Tasks))
			e.Logger.Printf("[provision] warning: category %q not found, skipping its tasks", cd.Name)
			continue
		}
		for _, td := range cd.Tasks {
			slug := td.Slug
			if slug == "" {
				slug = models.Slugify(td.Name)
			}
			existing, err := taskStore.GetBySlug(ctx, cat.Module, slug)
			if err != nil {
				return err
			}
			if existing != nil {
				if !opts.Force {
					report.Tasks.Existing++
					continue
				}
				if err := taskStore.Delete(ctx, cat.Module, existing.ID); err != nil {
					return err
				}
				report.Tasks.Forced++
			}
			if _, err := taskStore.Create(ctx, cat.Module, &parent.ID, td.Name, slug, td.Description); err != nil {
				return err
			}
			report.Tasks.Created++
			e.verbosef(opts.Verbose, "[provision] created task %q (%s)", td.Name, slug)
		}
	}
	return nil
}

func (e *Engine) provisionRoles(ctx context.Context, taskStore *store.TaskStore, roleStore *store.RoleStore, cat ModuleCatalog, org models.Org, opts Options, report *Report) error {
	for i, rd := range cat.Roles {
		existing, err := roleStore.GetByName(ctx, org.ID, cat.Module, rd.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			if !opts.Force {
				report.Roles.Existing++
				continue
			}
			if err := roleStore.Delete(ctx, existing.ID, true); err != nil {
				return err
			}
			report.Roles.Forced++
		}
		taskIDs, err := e.resolveTaskSet(ctx, taskStore, cat.Module, rd, org, report)
		if err != nil {
			return err
		}
		role := models.Role{
			OrgID:      org.ID,
			Name:       rd.Name,
			Module:     cat.Module,
			SortOrder:  i + 1,
			IsActive:   true,
			IsFixed:    rd.IsFixed,
			IsRequired: rd.IsRequired,
		}
		if _, err := roleStore.Create(ctx, role, taskIDs); err != nil {
			return err
		}
		report.Roles.Created++
		report.Bindings += len(taskIDs)
		e.verbosef(opts.Verbose, "[provision] created role %q for org %s with %d bindings", rd.Name, org.ID, len(taskIDs))
	}
	return nil
}

func (e *Engine) resolveTaskSet(ctx context.Context, taskStore *store.TaskStore, module models.Module, rd RoleDef, org models.Org, report *Report) ([]string, error) {
	if rd.AllTasks {
		tasks, err := taskStore.ListByModule(ctx, module)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(tasks))
		for i, t := range tasks {
			ids[i] = t.ID
		}
		return ids, nil
	}
	var ids []string
	for _, slug := range rd.TaskSlugs {
		task, err := taskStore.GetBySlug(ctx, module, slug)
		if err != nil {
			return nil, err
		}
		if task == nil {
			report.Roles.Missing++
			report.warnf("role %q (org %s): task slug %q not found", rd.Name, org.ID, slug)
			e.Logger.Printf("[provision] warning: role %q: task slug %q not found", rd.Name, slug)
			continue
		}
		ids = append(ids, task.ID)
	}
	return ids, nil
}

func (e *Engine) provisionAssignments(ctx context.Context, orgStore *store.OrgStore, roleStore *store.RoleStore, ruStore *store.RoleUserStore, cat ModuleCatalog, opts Options, report *Report, affectedOrgs map[string]bool) error {
	users, err := orgStore.AdminIdentities(ctx, opts.OrgID)
	if err != nil {
		return err
	}
	adminRoles := map[string]*models.Role{} // org id -> admin role
	for _, user := range users {
		role, ok := adminRoles[user.OrgID]
		if !ok {
			role, err = roleStore.GetByName(ctx, user.OrgID, cat.Module, AdminRoleName)
			if err != nil {
				return err
			}
			adminRoles[user.OrgID] = role
		}
		if role == nil {
			report.Assignments.Missing++
			report.warnf("org %s has no %q role; user %s not assigned", user.OrgID, AdminRoleName, user.ID)
			e.Logger.Printf("[provision] warning: org %s has no %q role, skipping user %s", user.OrgID, AdminRoleName, user.ID)
			continue
		}
		_, created, err := ruStore.Assign(ctx, user.OrgID, role.ID, user.ID, cat.Module, opts.Force)
		if err != nil {
			return err
		}
		if created {
			report.Assignments.Created++
		} else {
			report.Assignments.Existing++
		}
		if err := orgStore.SetModuleAccess(ctx, user.ID, cat.Module); err != nil {
			return err
		}
		affectedOrgs[user.OrgID] = true
	}
	return nil
}
