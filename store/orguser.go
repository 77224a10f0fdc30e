package store

import (
	"context"
	"errors"

	"github.com/gymstack/rbac/models"
	"gorm.io/gorm"
)

// OrgStore reads orgs and org-user identities. The engine never creates
// either; they belong to the membership system.
type OrgStore struct{ DB *gorm.DB }

func NewOrgStore(db *gorm.DB) *OrgStore { return &OrgStore{DB: db} }

// Get returns an org by id, or nil when absent.
func (s *OrgStore) Get(ctx context.Context, id string) (*models.Org, error) {
	var org models.Org
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// ListActive returns active orgs ordered by name.
func (s *OrgStore) ListActive(ctx context.Context) ([]models.Org, error) {
	var orgs []models.Org
	err := s.DB.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&orgs).Error
	return orgs, err
}

// AdminIdentities returns the active, non-deleted org users flagged admin or
// owner; an empty orgID means all orgs.
func (s *OrgStore) AdminIdentities(ctx context.Context, orgID string) ([]models.OrgUser, error) {
	q := s.DB.WithContext(ctx).
		Where("(is_admin = ? OR is_owner = ?)", true, true).
		Where("is_active = ? AND is_deleted = ?", true, false)
	if orgID != "" {
		q = q.Where("org_id = ?", orgID)
	}
	var users []models.OrgUser
	err := q.Order("org_id ASC, email ASC").Find(&users).Error
	return users, err
}

// SetModuleAccess flags an identity as having access to a module's surface.
// Only the foh flag exists today; the write is skipped when already set.
func (s *OrgStore) SetModuleAccess(ctx context.Context, orgUserID string, module models.Module) error {
	if module.Normalize() != models.ModuleFOH {
		return nil
	}
	return s.DB.WithContext(ctx).Model(&models.OrgUser{}).
		Where("id = ? AND is_foh_user = ?", orgUserID, false).
		Update("is_foh_user", true).Error
}
