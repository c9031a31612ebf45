package model

import "time"

// ClickEvent represents one click on a website, published through JetStream
// and persisted to an append-only log by the consumer.
type ClickEvent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	WebsiteID uint      `gorm:"not null;index" json:"website_id"`
	IP        string    `gorm:"size:45" json:"ip"`
	UserAgent string    `gorm:"size:500" json:"user_agent"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-logger"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
