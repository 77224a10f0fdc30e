package models

import "time"

// Role is an org-scoped, module-scoped named bundle of tasks.
// IsFixed freezes task bindings; IsRequired protects against delete/rename.
type Role struct {
	ID         string    `gorm:"column:id;primaryKey" json:"id"`
	OrgID      string    `gorm:"column:org_id;index" json:"org_id"`
	Name       string    `gorm:"column:name" json:"name"`
	Slug       string    `gorm:"column:slug" json:"slug"`
	Module     Module    `gorm:"column:module;index" json:"module"`
	SortOrder  int       `gorm:"column:sort_order" json:"sort_order"`
	IsActive   bool      `gorm:"column:is_active" json:"is_active"`
	IsFixed    bool      `gorm:"column:is_fixed" json:"is_fixed"`
	IsRequired bool      `gorm:"column:is_required" json:"is_required"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Role) TableName() string { return "roles" }

// RoleTask links a role to a task. Deactivation toggles IsActive and never
// deletes the row, so a binding's history survives toggles.
type RoleTask struct {
	ID       string `gorm:"column:id;primaryKey" json:"id"`
	RoleID   string `gorm:"column:role_id;index" json:"role_id"`
	TaskID   string `gorm:"column:task_id;index" json:"task_id"`
	Module   Module `gorm:"column:module" json:"module"`
	IsActive bool   `gorm:"column:is_active" json:"is_active"`
}

func (RoleTask) TableName() string { return "role_tasks" }

// RoleUser links an org user identity to a role. Removal soft-deletes the row
// so a later re-assignment restores the same row instead of creating a twin.
// IsDeleted and DeletedAt are set and cleared together through MarkDeleted and
// Restore; callers must not flip one without the other.
type RoleUser struct {
	ID         string     `gorm:"column:id;primaryKey" json:"id"`
	OrgID      string     `gorm:"column:org_id;index" json:"org_id"`
	RoleID     string     `gorm:"column:role_id;index" json:"role_id"`
	OrgUserID  string     `gorm:"column:org_user_id;index" json:"org_user_id"`
	Module     Module     `gorm:"column:module" json:"module"`
	IsDeleted  bool       `gorm:"column:is_deleted" json:"is_deleted"`
	DeletedAt  *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
	AssignedAt time.Time  `gorm:"column:assigned_at" json:"assigned_at"`
}

func (RoleUser) TableName() string { return "role_users" }

// MarkDeleted transitions the assignment to the deleted state.
func (ru *RoleUser) MarkDeleted(at time.Time) {
	ru.IsDeleted = true
	ru.DeletedAt = &at
}

// Restore transitions the assignment back to active.
func (ru *RoleUser) Restore() {
	ru.IsDeleted = false
	ru.DeletedAt = nil
}
