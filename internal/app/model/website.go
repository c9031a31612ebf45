package model

import (
	"net/url"
	"time"
)

// LinkStatus is the last known health of a website's URL. Transitions only
// happen through an explicit check.
type LinkStatus string

const (
	LinkStatusActive   LinkStatus = "active"
	LinkStatusBroken   LinkStatus = "broken"
	LinkStatusChecking LinkStatus = "checking"
	LinkStatusUnknown  LinkStatus = "unknown"
)

// Website is a bookmarked URL owned by a user and filed under a category.
type Website struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	URL         string `gorm:"size:500;not null" json:"url"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Icon        string `gorm:"size:255" json:"icon,omitempty"`
	Keywords    string `gorm:"size:500" json:"keywords,omitempty"`

	IsActive   bool `gorm:"not null;default:true" json:"is_active"`
	IsPublic   bool `gorm:"not null;default:true" json:"is_public"`
	IsFeatured bool `gorm:"not null;default:false" json:"is_featured"`

	SortOrder     int        `gorm:"not null;default:0" json:"sort_order"`
	ClickCount    int64      `gorm:"not null;default:0" json:"click_count"`
	LastClickedAt *time.Time `json:"last_clicked_at,omitempty"`

	LinkStatus     LinkStatus `gorm:"size:16;not null;default:unknown" json:"link_status"`
	LastCheckedAt  *time.Time `json:"last_checked_at,omitempty"`
	CheckCount     int        `gorm:"not null;default:0" json:"check_count"`
	ResponseTimeMS *float64   `json:"response_time_ms,omitempty"`

	UserID     uint `gorm:"not null;index" json:"user_id"`
	CategoryID uint `gorm:"not null;index" json:"category_id"`

	Tags []Tag `gorm:"many2many:website_tags" json:"tags,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Domain extracts the host part of the website URL.
func (w *Website) Domain() string {
	parsed, err := url.Parse(w.URL)
	if err != nil {
		return ""
	}
	return parsed.Host
}
