package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gymstack/rbac/catalog"
	"github.com/gymstack/rbac/models"
	"gorm.io/gorm"
)

// RoleStore handles org-scoped roles and their task bindings.
type RoleStore struct{ DB *gorm.DB }

func NewRoleStore(db *gorm.DB) *RoleStore { return &RoleStore{DB: db} }

// GetByName finds a role by (name, org, module). Returns nil when absent.
// Uniqueness of this natural key is check-then-create only; there is no DB
// constraint backing it.
func (s *RoleStore) GetByName(ctx context.Context, orgID string, module models.Module, name string) (*models.Role, error) {
	var role models.Role
	err := s.DB.WithContext(ctx).Where("org_id = ? AND module = ? AND name = ?", orgID, module, strings.TrimSpace(name)).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// Get returns a role by id, or nil when absent.
func (s *RoleStore) Get(ctx context.Context, id string) (*models.Role, error) {
	var role models.Role
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// ListByOrg returns an org's roles for a module, ordered by sort order.
func (s *RoleStore) ListByOrg(ctx context.Context, orgID string, module models.Module) ([]models.Role, error) {
	var roles []models.Role
	err := s.DB.WithContext(ctx).Where("org_id = ? AND module = ?", orgID, module).
		Order("sort_order ASC, name ASC").Find(&roles).Error
	return roles, err
}

// Create inserts a role and one active binding per task id, all in one
// transaction.
func (s *RoleStore) Create(ctx context.Context, role models.Role, taskIDs []string) (*models.Role, error) {
	role.Name = strings.TrimSpace(role.Name)
	if role.Name == "" {
		return nil, models.ErrNameRequired
	}
	if !role.Module.IsValid() {
		return nil, models.ErrInvalidModule
	}
	if role.Slug == "" {
		role.Slug = models.Slugify(role.Name)
	}
	role.ID = models.NewID()
	role.Module = role.Module.Normalize()
	role.CreatedAt = time.Now().UTC()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Role{}).Where("org_id = ? AND module = ? AND name = ?", role.OrgID, role.Module, role.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.ErrDuplicateName
		}
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
		for _, taskID := range taskIDs {
			rt := models.RoleTask{
				ID:       models.NewID(),
				RoleID:   role.ID,
				TaskID:   taskID,
				Module:   role.Module,
				IsActive: true,
			}
			if err := tx.Create(&rt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// Delete removes a role together with its task bindings and user assignments.
// Required roles refuse deletion unless force is set (provisioning recreate).
func (s *RoleStore) Delete(ctx context.Context, id string, force bool) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		err := tx.Where("id = ?", id).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrNotFound
		}
		if err != nil {
			return err
		}
		if role.IsRequired && !force {
			return models.ErrRequiredRole
		}
		if err := tx.Where("role_id = ?", id).Delete(&models.RoleUser{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", id).Delete(&models.RoleTask{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Role{}).Error
	})
}

// Rename renames a role; required roles refuse.
func (s *RoleStore) Rename(ctx context.Context, id, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return models.ErrNameRequired
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		err := tx.Where("id = ?", id).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrNotFound
		}
		if err != nil {
			return err
		}
		if role.IsRequired {
			return models.ErrRequiredRole
		}
		var count int64
		if err := tx.Model(&models.Role{}).Where("org_id = ? AND module = ? AND name = ? AND id <> ?", role.OrgID, role.Module, newName, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.ErrDuplicateName
		}
		return tx.Model(&models.Role{}).Where("id = ?", id).
			Updates(map[string]interface{}{"name": newName, "slug": models.Slugify(newName)}).Error
	})
}

// SetTaskActive toggles a role-task binding. The pivot row is preserved on
// deactivation and reused on reactivation; a missing row is created only when
// activating. Fixed roles refuse any toggle.
func (s *RoleStore) SetTaskActive(ctx context.Context, roleID, taskID string, active bool) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		err := tx.Where("id = ?", roleID).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrNotFound
		}
		if err != nil {
			return err
		}
		if role.IsFixed {
			return models.ErrFixedRole
		}
		var rt models.RoleTask
		err = tx.Where("role_id = ? AND task_id = ?", roleID, taskID).First(&rt).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if !active {
				return nil // nothing to deactivate
			}
			rt = models.RoleTask{ID: models.NewID(), RoleID: roleID, TaskID: taskID, Module: role.Module, IsActive: true}
			return tx.Create(&rt).Error
		}
		if err != nil {
			return err
		}
		if rt.IsActive == active {
			return nil
		}
		return tx.Model(&models.RoleTask{}).Where("id = ?", rt.ID).Update("is_active", active).Error
	})
}

// ApplyBindingChanges commits a batch of binding toggles computed by the
// catalog package in one transaction.
func (s *RoleStore) ApplyBindingChanges(ctx context.Context, changes []catalog.BindingChange) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := &RoleStore{DB: tx}
		for _, ch := range changes {
			if err := inner.SetTaskActive(ctx, ch.RoleID, ch.TaskID, ch.Activate); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListTaskBindings returns a role's bindings, active and inactive.
func (s *RoleStore) ListTaskBindings(ctx context.Context, roleID string) ([]models.RoleTask, error) {
	var rts []models.RoleTask
	err := s.DB.WithContext(ctx).Where("role_id = ?", roleID).Find(&rts).Error
	return rts, err
}

// RoleRefs projects an org's roles into the binding-edit validation input.
func (s *RoleStore) RoleRefs(ctx context.Context, orgID string, module models.Module) ([]catalog.RoleRef, error) {
	roles, err := s.ListByOrg(ctx, orgID, module)
	if err != nil {
		return nil, err
	}
	refs := make([]catalog.RoleRef, len(roles))
	for i, r := range roles {
		refs[i] = catalog.RoleRef{ID: r.ID, Name: r.Name, IsFixed: r.IsFixed}
	}
	return refs, nil
}
