package model

import (
	"time"

	"gorm.io/gorm"
)

// Event 活动表，对应 events
// 同一时刻至多一个 IsActive=true（部分唯一索引 uniq_events_single_active）
type Event struct {
	EventID   string    `gorm:"type:uuid;primaryKey"       json:"event_id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	EventDate time.Time `gorm:"type:date;not null"         json:"event_date"`
	IsActive  bool      `gorm:"not null;default:false"     json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Event) TableName() string { return "events" }

func (e *Event) BeforeCreate(*gorm.DB) error {
	ensureID(&e.EventID)
	return nil
}
