package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	notifController "gatepass_backend/internals/features/notifications/controller"
)

// NotificationRoutes — semua role ber-auth punya inbox notifikasi
func NotificationRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := notifController.NewNotificationController(db)

	notifs := api.Group("/notifications")
	notifs.Get("/", ctrl.ListMyNotifications)
	notifs.Patch("/:id/read", ctrl.MarkRead)
}
