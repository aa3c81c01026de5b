package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gatepass_backend/internals/features/notifications/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.NotificationModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestNotifyWritesRecord(t *testing.T) {
	db := openTestDB(t)
	userID := uuid.New()

	Notify(db, userID, model.TypeVisitApproved, "Visit approved", "ok", map[string]any{"visit_code": "GRE-2026-1234"})

	var n model.NotificationModel
	if err := db.First(&n, "notification_user_id = ?", userID).Error; err != nil {
		t.Fatalf("notification not written: %v", err)
	}
	if n.NotificationType != model.TypeVisitApproved {
		t.Fatalf("type = %s", n.NotificationType)
	}
	if n.NotificationExpiresAt == nil {
		t.Fatal("expires_at not set")
	}
	if n.NotificationIsRead {
		t.Fatal("new notification must be unread")
	}
}

func TestNotifySkipsNilUser(t *testing.T) {
	db := openTestDB(t)
	Notify(db, uuid.Nil, model.TypeVisitApproved, "t", "m", nil)

	var count int64
	db.Model(&model.NotificationModel{}).Count(&count)
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestSweepExpired(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	rows := []model.NotificationModel{
		{NotificationUserID: uuid.New(), NotificationType: model.TypeVisitReminder, NotificationTitle: "t", NotificationMessage: "m", NotificationExpiresAt: &past},
		{NotificationUserID: uuid.New(), NotificationType: model.TypeVisitReminder, NotificationTitle: "t", NotificationMessage: "m", NotificationExpiresAt: &future},
		{NotificationUserID: uuid.New(), NotificationType: model.TypeVisitReminder, NotificationTitle: "t", NotificationMessage: "m"}, // tanpa expiry
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if err := SweepExpired(db, now); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	var remaining int64
	db.Model(&model.NotificationModel{}).Count(&remaining)
	if remaining != 2 {
		t.Fatalf("remaining = %d, want 2 (hanya yang kadaluarsa dihapus)", remaining)
	}
}
