package models

import "time"

// Task is an atomic permission unit belonging to at most one category.
// Slug is unique per module and derived from Name when not given explicitly.
type Task struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	CategoryID  *string   `gorm:"column:category_id;index" json:"category_id,omitempty"`
	Name        string    `gorm:"column:name" json:"name"`
	Slug        string    `gorm:"column:slug;index" json:"slug"`
	Description string    `gorm:"column:description" json:"description"`
	Module      Module    `gorm:"column:module;index" json:"module"`
	SortOrder   int       `gorm:"column:sort_order" json:"sort_order"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Task) TableName() string { return "tasks" }
