package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"gatepass_backend/internals/features/notifications/model"
	helper "gatepass_backend/internals/helpers"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// GET /api/u/notifications?unread_only=true
func (ctrl *NotificationController) ListMyNotifications(c *fiber.Ctx) error {
	userID := helper.GetUserUUID(c)
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.Model(&model.NotificationModel{}).
		Where("notification_user_id = ?", userID)
	if c.Query("unread_only") == "true" {
		q = q.Where("notification_is_read = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menghitung notifikasi")
	}

	var items []model.NotificationModel
	if err := q.Order("created_at DESC").
		Offset(paging.Offset).Limit(paging.Limit).
		Find(&items).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil notifikasi")
	}

	return helper.JsonList(c, "ok", items, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// PATCH /api/u/notifications/:id/read
func (ctrl *NotificationController) MarkRead(c *fiber.Ctx) error {
	userID := helper.GetUserUUID(c)
	notifID := c.Params("id")

	now := time.Now()
	res := ctrl.DB.Model(&model.NotificationModel{}).
		Where("notification_id = ? AND notification_user_id = ?", notifID, userID).
		Updates(map[string]any{
			"notification_is_read": true,
			"notification_read_at": &now,
		})
	if res.Error != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menandai notifikasi")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Notification not found")
	}

	return helper.JsonUpdated(c, "Notification marked as read", nil)
}
