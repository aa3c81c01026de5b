package service

import (
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"

	"gatepass_backend/internals/features/notifications/model"
)

// StartExpirySweep: sweep pasif notifikasi kadaluarsa (pengganti TTL index).
func StartExpirySweep(db *gorm.DB) {
	go func() {
		interval := 24 * time.Hour
		if val := os.Getenv("NOTIFICATION_SWEEP_HOURS"); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
				interval = time.Duration(parsed) * time.Hour
			}
		}

		for {
			log.Println("[CLEANUP] Menjalankan pembersihan notifikasi kadaluarsa...")
			if err := SweepExpired(db, time.Now()); err != nil {
				log.Printf("[CLEANUP ERROR] %v", err)
			}
			time.Sleep(interval)
		}
	}()
}

// SweepExpired hapus (soft delete) notifikasi yang lewat expires_at.
func SweepExpired(db *gorm.DB, now time.Time) error {
	res := db.Where("notification_expires_at IS NOT NULL AND notification_expires_at < ?", now).
		Delete(&model.NotificationModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("[CLEANUP] %d notifikasi kadaluarsa dihapus", res.RowsAffected)
	}
	return nil
}
