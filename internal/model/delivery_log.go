package model

import (
	"time"

	"gorm.io/gorm"
)

// Delivery statuses recorded for each voicemail handled by a cycle
const (
	DeliveryMarkedRead     = "marked_read"
	DeliveryNotifyFailed   = "notify_failed"
	DeliveryMarkReadFailed = "mark_read_failed"
)

// DeliveryLog is an audit row for a notification attempt. It is never read
// back to decide whether a voicemail should be delivered.
type DeliveryLog struct {
	ID               uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	CycleID          string         `json:"cycle_id" gorm:"type:varchar(64);index"`
	MessageID        string         `json:"message_id" gorm:"type:varchar(255);not null;index"`
	CallerName       string         `json:"caller_name" gorm:"type:varchar(255)"`
	CallerNumber     string         `json:"caller_number" gorm:"type:varchar(64)"`
	CreationTime     string         `json:"creation_time" gorm:"type:varchar(64)"`
	HasTranscription bool           `json:"has_transcription"`
	Status           string         `json:"status" gorm:"type:varchar(50);not null"`
	ErrorMsg         string         `json:"error_msg" gorm:"type:text"`
	CreatedAt        time.Time      `json:"created_at"`
	DeletedAt        gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for DeliveryLog
func (DeliveryLog) TableName() string {
	return "delivery_logs"
}
