package service

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gatepass_backend/internals/constants"
	"gatepass_backend/internals/features/notifications/model"
	userModel "gatepass_backend/internals/features/users/model"
)

// Dispatch bersifat fire-and-forget: transisi state SUDAH di-persist
// sebelum fungsi ini dipanggil, kegagalan di sini hanya dicatat.
// Jangan pernah mengembalikan error ke pemicu transisi.

const defaultTTL = 90 * 24 * time.Hour

// Notify tulis satu record notifikasi untuk user.
func Notify(db *gorm.DB, userID uuid.UUID, notifType, title, message string, data map[string]any) {
	if userID == uuid.Nil {
		return
	}
	expires := time.Now().Add(defaultTTL)
	n := model.NotificationModel{
		NotificationUserID:    userID,
		NotificationType:      notifType,
		NotificationTitle:     title,
		NotificationMessage:   message,
		NotificationData:      datatypes.JSONMap(data),
		NotificationPriority:  model.PriorityMedium,
		NotificationChannels:  datatypes.NewJSONSlice([]string{model.ChannelInApp}),
		NotificationExpiresAt: &expires,
	}
	if err := db.Create(&n).Error; err != nil {
		log.Printf("[WARN] notify user %s (%s) gagal: %v", userID, notifType, err)
	}
}

// NotifySchoolAdmins kirim ke semua school_admin sekolah tsb.
func NotifySchoolAdmins(db *gorm.DB, schoolID uuid.UUID, notifType, title, message string, data map[string]any) {
	if schoolID == uuid.Nil {
		return
	}
	var admins []userModel.UserModel
	if err := db.Select("user_id").
		Where("user_role = ? AND user_school_id = ? AND user_is_active = ?", constants.RoleSchoolAdmin, schoolID, true).
		Find(&admins).Error; err != nil {
		log.Printf("[WARN] notify school %s (%s) gagal ambil admin: %v", schoolID, notifType, err)
		return
	}
	for _, a := range admins {
		Notify(db, a.UserID, notifType, title, message, data)
	}
}
