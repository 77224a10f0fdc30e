package store

import (
	"context"
	"errors"
	"time"

	"github.com/gymstack/rbac/models"
	"gorm.io/gorm"
)

// RoleUserStore handles soft-deletable role-user assignments.
type RoleUserStore struct{ DB *gorm.DB }

func NewRoleUserStore(db *gorm.DB) *RoleUserStore { return &RoleUserStore{DB: db} }

// Assign binds an org user to a role. An existing row, soft-deleted or not,
// is restored in place (same id); only a genuinely absent tuple creates a new
// row. force deletes and recreates instead, resetting the assignment history.
// The returned bool reports whether a new row was created.
func (s *RoleUserStore) Assign(ctx context.Context, orgID, roleID, orgUserID string, module models.Module, force bool) (*models.RoleUser, bool, error) {
	var out models.RoleUser
	created := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.RoleUser
		err := tx.Where("org_id = ? AND role_id = ? AND org_user_id = ?", orgID, roleID, orgUserID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// fall through to create
		case err != nil:
			return err
		case force:
			if err := tx.Where("id = ?", existing.ID).Delete(&models.RoleUser{}).Error; err != nil {
				return err
			}
		default:
			if existing.IsDeleted {
				existing.Restore()
				if err := tx.Model(&models.RoleUser{}).Where("id = ?", existing.ID).
					Updates(map[string]interface{}{"is_deleted": false, "deleted_at": nil}).Error; err != nil {
					return err
				}
			}
			out = existing
			return nil
		}
		out = models.RoleUser{
			ID:         models.NewID(),
			OrgID:      orgID,
			RoleID:     roleID,
			OrgUserID:  orgUserID,
			Module:     module.Normalize(),
			AssignedAt: time.Now().UTC(),
		}
		created = true
		return tx.Create(&out).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

// Remove soft-deletes an assignment, preserving the row for later restore.
func (s *RoleUserStore) Remove(ctx context.Context, roleID, orgUserID string) error {
	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&models.RoleUser{}).
		Where("role_id = ? AND org_user_id = ? AND is_deleted = ?", roleID, orgUserID, false).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListActiveByRole returns the non-deleted assignments of a role.
func (s *RoleUserStore) ListActiveByRole(ctx context.Context, roleID string) ([]models.RoleUser, error) {
	var rus []models.RoleUser
	err := s.DB.WithContext(ctx).Where("role_id = ? AND is_deleted = ?", roleID, false).Find(&rus).Error
	return rus, err
}

// ListByUser returns all of a user's assignments, deleted included.
func (s *RoleUserStore) ListByUser(ctx context.Context, orgUserID string) ([]models.RoleUser, error) {
	var rus []models.RoleUser
	err := s.DB.WithContext(ctx).Where("org_user_id = ?", orgUserID).Find(&rus).Error
	return rus, err
}
