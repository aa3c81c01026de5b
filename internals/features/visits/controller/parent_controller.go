package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	paymentModel "gatepass_backend/internals/features/payments/model"
	schoolModel "gatepass_backend/internals/features/schools/model"
	schoolService "gatepass_backend/internals/features/schools/service"
	"gatepass_backend/internals/features/visits/dto"
	"gatepass_backend/internals/features/visits/model"
	"gatepass_backend/internals/features/visits/service"
	helper "gatepass_backend/internals/helpers"
)

type ParentVisitController struct {
	DB *gorm.DB
}

func NewParentVisitController(db *gorm.DB) *ParentVisitController {
	return &ParentVisitController{DB: db}
}

/* ===================== Schools & katalog ===================== */

// GET /api/u/schools — daftar sekolah aktif untuk pilihan parent
func (ctrl *ParentVisitController) ListSchools(c *fiber.Ctx) error {
	var schools []schoolModel.SchoolModel
	if err := ctrl.DB.
		Select("school_id, school_name, school_address, school_phone, school_visit_fee, school_max_visitors_per_visit").
		Where("school_is_active = ?", true).
		Order("school_name ASC").
		Find(&schools).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil daftar sekolah")
	}
	return helper.JsonOK(c, "ok", schools)
}

// GET /api/u/schools/:school_id/visiting-days — tanggal kunjungan mendatang
func (ctrl *ParentVisitController) ListVisitingDays(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid school_id")
	}

	today := schoolModel.NormalizeDate(time.Now())
	var days []schoolModel.VisitingDayModel
	if err := ctrl.DB.
		Where("visiting_day_school_id = ? AND visiting_day_date >= ?", schoolID, today).
		Order("visiting_day_date ASC").
		Find(&days).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil visiting days")
	}
	return helper.JsonOK(c, "ok", days)
}

/* ===================== Visit lifecycle ===================== */

// POST /api/u/visits — request kunjungan baru (pending_payment)
func (ctrl *ParentVisitController) RequestVisit(c *fiber.Ctx) error {
	var body dto.RequestVisitRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	body.Normalize()
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	input, err := body.ToInput()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	parentID := helper.GetUserUUID(c)
	visit, err := service.RequestVisit(c.UserContext(), ctrl.DB, parentID, input)
	if err != nil {
		return mapLifecycleError(err)
	}
	return helper.JsonCreated(c, "Visit requested. Please complete payment to confirm.", visit)
}

// GET /api/u/visits?status=&page=&per_page=
func (ctrl *ParentVisitController) ListMyVisits(c *fiber.Ctx) error {
	parentID := helper.GetUserUUID(c)
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.Model(&model.VisitModel{}).Where("visit_parent_id = ?", parentID)
	if status := c.Query("status"); status != "" {
		q = q.Where("visit_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menghitung visit")
	}

	var visits []model.VisitModel
	if err := q.Order("visit_date DESC, created_at DESC").
		Offset(paging.Offset).Limit(paging.Limit).
		Find(&visits).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil visit")
	}
	return helper.JsonList(c, "ok", visits, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// GET /api/u/visits/:code — detail + riwayat pembayaran
func (ctrl *ParentVisitController) GetVisitDetail(c *fiber.Ctx) error {
	parentID := helper.GetUserUUID(c)

	visit, err := service.GetVisitForParent(ctrl.DB, parentID, c.Params("code"))
	if err != nil {
		return mapLifecycleError(err)
	}

	var payments []paymentModel.PaymentModel
	if err := ctrl.DB.
		Where("payment_visit_id = ?", visit.VisitID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil pembayaran")
	}

	return helper.JsonOK(c, "ok", fiber.Map{
		"visit":    visit,
		"payments": payments,
	})
}

// POST /api/u/visits/:code/cancel
func (ctrl *ParentVisitController) CancelVisit(c *fiber.Ctx) error {
	var body dto.CancelVisitRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	parentID := helper.GetUserUUID(c)
	visit, err := service.CancelVisit(ctrl.DB, parentID, c.Params("code"), body.Reason)
	if err != nil {
		return mapLifecycleError(err)
	}
	return helper.JsonUpdated(c, "Visit cancelled", visit)
}

// GET /api/u/visits/:code/qr — QR hanya tersedia setelah confirmed
func (ctrl *ParentVisitController) GetQRCode(c *fiber.Ctx) error {
	parentID := helper.GetUserUUID(c)

	visit, err := service.GetVisitForParent(ctrl.DB, parentID, c.Params("code"))
	if err != nil {
		return mapLifecycleError(err)
	}

	qr, err := service.EnsureQRCode(ctrl.DB, visit)
	if err != nil {
		return mapLifecycleError(err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"visit_code": visit.VisitCode,
		"qr_code":    qr,
	})
}

// GET /api/u/dashboard — ringkasan untuk parent
func (ctrl *ParentVisitController) Dashboard(c *fiber.Ctx) error {
	parentID := helper.GetUserUUID(c)
	today := schoolModel.NormalizeDate(time.Now())

	var upcoming []model.VisitModel
	if err := ctrl.DB.
		Where("visit_parent_id = ? AND visit_date >= ? AND visit_status IN ?",
			parentID, today,
			[]string{model.VisitStatusPendingPayment, model.VisitStatusConfirmed}).
		Order("visit_date ASC").
		Limit(10).
		Find(&upcoming).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil dashboard")
	}

	type statusRow struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var counts []statusRow
	if err := ctrl.DB.Model(&model.VisitModel{}).
		Select("visit_status AS status, COUNT(*) AS count").
		Where("visit_parent_id = ?", parentID).
		Group("visit_status").
		Find(&counts).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil dashboard")
	}

	var recent []model.VisitModel
	if err := ctrl.DB.
		Where("visit_parent_id = ?", parentID).
		Order("created_at DESC").
		Limit(5).
		Find(&recent).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil dashboard")
	}

	return helper.JsonOK(c, "ok", fiber.Map{
		"upcoming_visits": upcoming,
		"recent_visits":   recent,
		"status_counts":   counts,
	})
}

/* ===================== Error mapping ===================== */

// mapLifecycleError terjemahkan sentinel error service → HTTP status.
func mapLifecycleError(err error) error {
	switch {
	case errors.Is(err, service.ErrVisitNotFound),
		errors.Is(err, service.ErrSchoolNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, schoolService.ErrStudentNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, schoolService.ErrDirectoryUnavailable):
		// Lookup gagal memblokir pembuatan visit — salah konfigurasi /
		// direktori down dilaporkan sebagai input problem ke parent
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotVisitingDay),
		errors.Is(err, service.ErrTooManyVisitors),
		errors.Is(err, service.ErrReasonRequired),
		errors.Is(err, service.ErrRejectReasonTooShort),
		errors.Is(err, service.ErrVisitNotConfirmed):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCannotApprove),
		errors.Is(err, service.ErrCannotReject),
		errors.Is(err, service.ErrCannotCancel),
		errors.Is(err, service.ErrNotConfirmed),
		errors.Is(err, service.ErrAlreadyCheckedIn),
		errors.Is(err, service.ErrNotPendingPayment):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Terjadi kesalahan pada server")
	}
}
