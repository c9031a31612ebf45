package model

import "time"

// Category groups websites into a per-owner forest. ParentID forms a
// self-reference; the parent chain is kept acyclic at write time.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Icon        string `gorm:"size:255" json:"icon,omitempty"`

	SortOrder int  `gorm:"not null;default:0" json:"sort_order"`
	IsVisible bool `gorm:"not null;default:true" json:"is_visible"`
	IsPublic  bool `gorm:"not null;default:true" json:"is_public"`

	UserID   uint  `gorm:"not null;index" json:"user_id"`
	ParentID *uint `gorm:"index" json:"parent_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}
