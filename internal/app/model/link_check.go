package model

import "time"

// LinkCheck is one append-only record of a reachability probe against a
// website's URL. Rows are never updated after insert.
type LinkCheck struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	WebsiteID    uint     `gorm:"not null;index" json:"website_id"`
	URL          string   `gorm:"size:500;not null" json:"url"`
	StatusCode   *int     `json:"status_code,omitempty"`
	ResponseTime *float64 `json:"response_time_ms,omitempty"`
	ErrorMessage string   `gorm:"type:text" json:"error_message,omitempty"`
	IsAccessible bool     `gorm:"not null" json:"is_accessible"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
