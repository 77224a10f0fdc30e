package models

import "time"

// Org is a tenant. The RBAC engine never creates orgs; it scopes roles and
// assignments to them.
type Org struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name" json:"name"`
	IsActive  bool      `gorm:"column:is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Org) TableName() string { return "orgs" }

// OrgUser is an org-scoped user identity. The provisioning workflow reads the
// admin/owner flags to pick assignment targets and sets IsFohUser as a side
// effect of granting front-of-house access.
type OrgUser struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	OrgID     string    `gorm:"column:org_id;index" json:"org_id"`
	Email     string    `gorm:"column:email" json:"email"`
	IsAdmin   bool      `gorm:"column:is_admin" json:"is_admin"`
	IsOwner   bool      `gorm:"column:is_owner" json:"is_owner"`
	IsActive  bool      `gorm:"column:is_active" json:"is_active"`
	IsDeleted bool      `gorm:"column:is_deleted" json:"is_deleted"`
	IsFohUser bool      `gorm:"column:is_foh_user" json:"is_foh_user"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (OrgUser) TableName() string { return "org_users" }
