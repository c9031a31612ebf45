package model

import "time"

// SettingType selects how a setting's raw value is decoded.
type SettingType string

const (
	SettingTypeString SettingType = "string"
	SettingTypeInt    SettingType = "int"
	SettingTypeBool   SettingType = "bool"
	SettingTypeJSON   SettingType = "json"
)

// Setting is a typed key/value row. Value always stores the serialized form;
// ValueType decides the decoder on read.
type Setting struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Key         string      `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Value       string      `gorm:"type:text" json:"value"`
	ValueType   SettingType `gorm:"size:20;not null;default:string" json:"value_type"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	Category    string      `gorm:"size:50;not null;default:general" json:"category"`
	IsPublic    bool        `gorm:"not null;default:false" json:"is_public"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}
