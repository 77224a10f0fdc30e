package models

import "time"

// Category is an ordered grouping of tasks within a module namespace.
// SortOrder values among a module's categories are kept contiguous 1..N by the
// administrative flows; storage itself tolerates gaps.
type Category struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	Module      Module    `gorm:"column:module;index" json:"module"`
	SortOrder   int       `gorm:"column:sort_order" json:"sort_order"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Category) TableName() string { return "categories" }
