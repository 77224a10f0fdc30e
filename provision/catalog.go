package provision

import (
	"fmt"
	"strings"

	"github.com/gymstack/rbac/models"
)

// TaskDef defines one permission unit inside a category definition.
// An empty Slug is derived from Name at provisioning time.
type TaskDef struct {
	Name        string
	Slug        string
	Description string
}

// CategoryDef defines one ordered category and its tasks. Categories are
// provisioned in definition order, positions 1..N.
type CategoryDef struct {
	Name        string
	Description string
	Tasks       []TaskDef
}

// RoleDef defines one org-scoped role. AllTasks binds every task in the
// module; otherwise TaskSlugs lists the bindings, and slugs that do not
// resolve are reported missing rather than failing the run.
type RoleDef struct {
	Name       string
	AllTasks   bool
	TaskSlugs  []string
	IsFixed    bool
	IsRequired bool
}

// ModuleCatalog is the full provisioning definition of one module.
type ModuleCatalog struct {
	Module     models.Module
	Categories []CategoryDef
	Roles      []RoleDef
}

// Validate rejects definitions with duplicate category names, task slugs, or
// role names before provisioning touches the database.
func (c ModuleCatalog) Validate() error {
	if !c.Module.IsValid() {
		return models.ErrInvalidModule
	}
	catNames := map[string]bool{}
	slugs := map[string]bool{}
	for _, cd := range c.Categories {
		key := strings.ToLower(cd.Name)
		if catNames[key] {
			return fmt.Errorf("catalog %s: duplicate category %q: %w", c.Module, cd.Name, models.ErrDuplicateName)
		}
		catNames[key] = true
		for _, td := range cd.Tasks {
			slug := td.Slug
			if slug == "" {
				slug = models.Slugify(td.Name)
			}
			if slugs[slug] {
				return fmt.Errorf("catalog %s: duplicate task slug %q: %w", c.Module, slug, models.ErrDuplicateSlug)
			}
			slugs[slug] = true
		}
	}
	roleNames := map[string]bool{}
	for _, rd := range c.Roles {
		key := strings.ToLower(rd.Name)
		if roleNames[key] {
			return fmt.Errorf("catalog %s: duplicate role %q: %w", c.Module, rd.Name, models.ErrDuplicateName)
		}
		roleNames[key] = true
	}
	return nil
}

// AdminRoleName is the role the assignment stage binds admins/owners to.
const AdminRoleName = "Admin"

// FOHCatalog is the default front-of-house staff catalog.
func FOHCatalog() ModuleCatalog {
	return ModuleCatalog{
		Module: models.ModuleFOH,
		Categories: []CategoryDef{
			{
				Name:        "Members",
				Description: "Member records and check-in",
				Tasks: []TaskDef{
					{Name: "View Members", Description: "Browse and search member records"},
					{Name: "Edit Members", Description: "Update member details and memberships"},
					{Name: "Check In Members", Description: "Front-desk check-in"},
				},
			},
			{
				Name:        "Billing",
				Description: "Invoices and payments",
				Tasks: []TaskDef{
					{Name: "View Invoices"},
					{Name: "Manage Payments"},
					{Name: "Issue Refunds"},
				},
			},
			{
				Name:        "Reports",
				Description: "Operational reporting",
				Tasks: []TaskDef{
					{Name: "View Reports"},
					{Name: "Export Reports"},
				},
			},
			{
				Name:        "Settings",
				Description: "Org administration",
				Tasks: []TaskDef{
					{Name: "Manage Roles"},
					{Name: "Manage Staff"},
				},
			},
		},
		Roles: []RoleDef{
			{Name: AdminRoleName, AllTasks: true, IsRequired: true},
			{Name: "Sales", TaskSlugs: []string{"view-members", "edit-members", "view-invoices", "manage-payments"}},
			{Name: "Reception", TaskSlugs: []string{"view-members", "check-in-members"}},
		},
	}
}

// PortalCatalog is the default customer-portal catalog.
func PortalCatalog() ModuleCatalog {
	return ModuleCatalog{
		Module: models.ModulePortal,
		Categories: []CategoryDef{
			{
				Name:        "Account",
				Description: "Self-service account management",
				Tasks: []TaskDef{
					{Name: "View Profile"},
					{Name: "Edit Profile"},
				},
			},
			{
				Name:        "Bookings",
				Description: "Class and facility bookings",
				Tasks: []TaskDef{
					{Name: "View Classes"},
					{Name: "Book Classes"},
					{Name: "Cancel Bookings"},
				},
			},
		},
		Roles: []RoleDef{
			{Name: AdminRoleName, AllTasks: true, IsRequired: true},
			{Name: "Member", TaskSlugs: []string{"view-profile", "edit-profile", "view-classes", "book-classes", "cancel-bookings"}},
		},
	}
}

// CatalogFor returns the built-in catalog for a module.
func CatalogFor(module models.Module) (ModuleCatalog, error) {
	switch module.Normalize() {
	case models.ModuleFOH:
		return FOHCatalog(), nil
	case models.ModulePortal:
		return PortalCatalog(), nil
	default:
		return ModuleCatalog{}, models.ErrInvalidModule
	}
}
