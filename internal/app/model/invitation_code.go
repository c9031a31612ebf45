package model

import "time"

// InvitationCode is a single-use registration token. Expiry is computed at
// validation time from ExpiresAt, never materialized as a stored state.
type InvitationCode struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Code   string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	IsUsed bool   `gorm:"not null;default:false" json:"is_used"`

	UsedAt    *time.Time `json:"used_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	CreatorID uint  `gorm:"not null;index" json:"creator_id"`
	UsedByID  *uint `json:"used_by_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// IsValid reports whether the code can still be consumed at the given time.
func (c *InvitationCode) IsValid(now time.Time) bool {
	if c.IsUsed {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}
