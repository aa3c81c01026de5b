package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"gatepass_backend/internals/features/schools/dto"
	"gatepass_backend/internals/features/schools/model"
	visitService "gatepass_backend/internals/features/visits/service"
	helper "gatepass_backend/internals/helpers"
)

// Katalog visiting day milik satu sekolah. Uniqueness (school, date)
// dijaga constraint DB — request duplikat jadi 409, bukan silent merge.
type VisitingDayController struct {
	DB *gorm.DB
}

func NewVisitingDayController(db *gorm.DB) *VisitingDayController {
	return &VisitingDayController{DB: db}
}

// POST /api/a/visiting-days
func (ctrl *VisitingDayController) AddVisitingDay(c *fiber.Ctx) error {
	var body dto.AddVisitingDayRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	date, err := body.ParseDate()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if date.Before(model.NormalizeDate(time.Now())) {
		return fiber.NewError(fiber.StatusBadRequest, "Visiting day cannot be in the past")
	}

	day := model.VisitingDayModel{
		VisitingDaySchoolID:    helper.GetSchoolUUID(c),
		VisitingDayDate:        date,
		VisitingDayDescription: body.Description,
	}
	if err := ctrl.DB.Create(&day).Error; err != nil {
		if isDuplicateErr(err) {
			return fiber.NewError(fiber.StatusConflict, "Visiting day already exists for this date")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menambah visiting day")
	}
	return helper.JsonCreated(c, "Visiting day added", day)
}

// GET /api/a/visiting-days?upcoming=true
func (ctrl *VisitingDayController) ListVisitingDays(c *fiber.Ctx) error {
	schoolID := helper.GetSchoolUUID(c)

	q := ctrl.DB.Where("visiting_day_school_id = ?", schoolID)
	if c.Query("upcoming") == "true" {
		q = q.Where("visiting_day_date >= ?", model.NormalizeDate(time.Now()))
	}

	var days []model.VisitingDayModel
	if err := q.Order("visiting_day_date ASC").Find(&days).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil visiting days")
	}
	return helper.JsonOK(c, "ok", days)
}

// PATCH /api/a/visiting-days/:id — deskripsi dan/atau tanggal.
// Ganti tanggal diblokir bila ada visit confirmed/checked_in di tanggal
// lama, dan ditolak 409 bila tanggal baru sudah ada di katalog.
func (ctrl *VisitingDayController) UpdateVisitingDay(c *fiber.Ctx) error {
	var body dto.UpdateVisitingDayRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if body.Date == nil && body.Description == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Nothing to update")
	}

	dayID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid visiting day id")
	}
	schoolID := helper.GetSchoolUUID(c)

	var day model.VisitingDayModel
	if err := ctrl.DB.
		Where("visiting_day_id = ? AND visiting_day_school_id = ?", dayID, schoolID).
		First(&day).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Visiting day not found")
	}

	if body.Date != nil {
		newDate, err := body.ParseDate()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if !newDate.Equal(day.VisitingDayDate) {
			blocking, err := visitService.CountBlockingVisits(ctrl.DB, schoolID, day.VisitingDayDate)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Gagal memeriksa visit")
			}
			if blocking > 0 {
				return fiber.NewError(fiber.StatusConflict,
					"Cannot move visiting day: confirmed or checked-in visits exist on this date")
			}
			day.VisitingDayDate = newDate
		}
	}
	if body.Description != nil {
		day.VisitingDayDescription = *body.Description
	}

	if err := ctrl.DB.Save(&day).Error; err != nil {
		if isDuplicateErr(err) {
			return fiber.NewError(fiber.StatusConflict, "Visiting day already exists for this date")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengubah visiting day")
	}
	return helper.JsonUpdated(c, "Visiting day updated", day)
}

// DELETE /api/a/visiting-days/:id
// Ditolak (409) bila sudah ada visit confirmed/checked_in di tanggal itu.
// Visit yang sudah terlanjur dibuat di tanggal terhapus tidak dibatalkan.
func (ctrl *VisitingDayController) DeleteVisitingDay(c *fiber.Ctx) error {
	dayID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid visiting day id")
	}
	schoolID := helper.GetSchoolUUID(c)

	var day model.VisitingDayModel
	if err := ctrl.DB.
		Where("visiting_day_id = ? AND visiting_day_school_id = ?", dayID, schoolID).
		First(&day).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Visiting day not found")
	}

	blocking, err := visitService.CountBlockingVisits(ctrl.DB, schoolID, day.VisitingDayDate)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal memeriksa visit")
	}
	if blocking > 0 {
		return fiber.NewError(fiber.StatusConflict,
			"Cannot remove visiting day: confirmed or checked-in visits exist on this date")
	}

	if err := ctrl.DB.Delete(&day).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menghapus visiting day")
	}
	return helper.JsonDeleted(c, "Visiting day removed", nil)
}

func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
