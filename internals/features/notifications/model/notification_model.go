package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Constants ===================== */

const (
	TypeVisitApproved      = "visit_approved"
	TypeVisitRejected      = "visit_rejected"
	TypeVisitConfirmed     = "visit_confirmed"
	TypeVisitCancelled     = "visit_cancelled"
	TypeVisitCheckedIn     = "visit_checked_in"
	TypeVisitReminder      = "visit_reminder"
	TypePaymentSuccess     = "payment_success"
	TypePaymentFailed      = "payment_failed"
	TypePaymentRefunded    = "payment_refunded"
	TypeSystemAnnouncement = "system_announcement"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Kanal pengiriman. Saat ini hanya in_app yang benar-benar dikirim;
// email/sms disimpan di kolom yang sama bila nanti diaktifkan.
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

/* ===================== Model ===================== */

type NotificationModel struct {
	NotificationID     uuid.UUID `gorm:"column:notification_id;type:uuid;primaryKey" json:"notification_id"`
	NotificationUserID uuid.UUID `gorm:"column:notification_user_id;type:uuid;not null;index:idx_notifications_user_read" json:"notification_user_id"`

	NotificationType    string `gorm:"column:notification_type;type:varchar(30);not null;index" json:"notification_type"`
	NotificationTitle   string `gorm:"column:notification_title;size:150;not null" json:"notification_title"`
	NotificationMessage string `gorm:"column:notification_message;type:text;not null" json:"notification_message"`

	NotificationData datatypes.JSONMap `gorm:"column:notification_data" json:"notification_data,omitempty"`

	NotificationIsRead bool       `gorm:"column:notification_is_read;not null;default:false;index:idx_notifications_user_read" json:"notification_is_read"`
	NotificationReadAt *time.Time `gorm:"column:notification_read_at" json:"notification_read_at,omitempty"`

	NotificationPriority  string                      `gorm:"column:notification_priority;type:varchar(10);default:'medium'" json:"notification_priority"`
	NotificationChannels  datatypes.JSONSlice[string] `gorm:"column:notification_channels" json:"notification_channels,omitempty"`
	NotificationSentAt    *time.Time                  `gorm:"column:notification_sent_at" json:"notification_sent_at,omitempty"`
	NotificationExpiresAt *time.Time                  `gorm:"column:notification_expires_at;index" json:"notification_expires_at,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime;index:,sort:desc" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (NotificationModel) TableName() string { return "notifications" }

func (n *NotificationModel) BeforeCreate(tx *gorm.DB) error {
	if n.NotificationID == uuid.Nil {
		n.NotificationID = uuid.New()
	}
	return nil
}
