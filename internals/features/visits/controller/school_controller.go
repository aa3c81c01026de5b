package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	schoolModel "gatepass_backend/internals/features/schools/model"
	"gatepass_backend/internals/features/visits/dto"
	"gatepass_backend/internals/features/visits/model"
	"gatepass_backend/internals/features/visits/service"
	helper "gatepass_backend/internals/helpers"
	"gatepass_backend/internals/helpers/dbtime"
)

// Controller sisi school admin — semua query di-scope visit_school_id
// dari token, bukan dari parameter request.
type SchoolVisitController struct {
	DB *gorm.DB
}

func NewSchoolVisitController(db *gorm.DB) *SchoolVisitController {
	return &SchoolVisitController{DB: db}
}

/* ===================== Listing ===================== */

// GET /api/a/visits?status=&date=&page=&per_page=
func (ctrl *SchoolVisitController) ListVisits(c *fiber.Ctx) error {
	schoolID := helper.GetSchoolUUID(c)
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.Model(&model.VisitModel{}).Where("visit_school_id = ?", schoolID)
	if status := c.Query("status"); status != "" {
		q = q.Where("visit_status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be in YYYY-MM-DD format")
		}
		start := schoolModel.NormalizeDate(day)
		q = q.Where("visit_date >= ? AND visit_date < ?", start, start.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menghitung visit")
	}

	var visits []model.VisitModel
	if err := q.Order("visit_date ASC, created_at DESC").
		Offset(paging.Offset).Limit(paging.Limit).
		Find(&visits).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil visit")
	}
	return helper.JsonList(c, "ok", visits, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// GET /api/a/visits/pending — antrean menunggu keputusan admin
func (ctrl *SchoolVisitController) ListPending(c *fiber.Ctx) error {
	schoolID := helper.GetSchoolUUID(c)

	var visits []model.VisitModel
	if err := ctrl.DB.
		Where("visit_school_id = ? AND visit_status = ?", schoolID, model.VisitStatusPendingPayment).
		Order("visit_date ASC").
		Find(&visits).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil antrean")
	}
	return helper.JsonOK(c, "ok", visits)
}

// GET /api/a/visits/:code
func (ctrl *SchoolVisitController) GetVisitDetail(c *fiber.Ctx) error {
	schoolID := helper.GetSchoolUUID(c)
	visit, err := service.GetVisitForSchool(ctrl.DB, schoolID, c.Params("code"))
	if err != nil {
		return mapLifecycleError(err)
	}
	return helper.JsonOK(c, "ok", visit)
}

/* ===================== Decisions ===================== */

// PATCH /api/a/visits/:code/approve
func (ctrl *SchoolVisitController) ApproveVisit(c *fiber.Ctx) error {
	// Body opsional — approve tanpa notes itu valid
	var body dto.ApproveVisitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	schoolID := helper.GetSchoolUUID(c)
	visit, err := service.ApproveVisit(ctrl.DB, schoolID, c.Params("code"), body.Notes)
	if err != nil {
		return mapLifecycleError(err)
	}
	return helper.JsonUpdated(c, "Visit approved", visit)
}

// PATCH /api/a/visits/:code/reject
func (ctrl *SchoolVisitController) RejectVisit(c *fiber.Ctx) error {
	var body dto.RejectVisitRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	schoolID := helper.GetSchoolUUID(c)
	visit, err := service.RejectVisit(ctrl.DB, schoolID, c.Params("code"), body.Reason)
	if err != nil {
		return mapLifecycleError(err)
	}
	return helper.JsonUpdated(c, "Visit rejected", visit)
}

/* ===================== Stats & report ===================== */

// GET /api/a/visits/stats — agregat hari ini (timezone sekolah) + all-time
func (ctrl *SchoolVisitController) Stats(c *fiber.Ctx) error {
	schoolID := helper.GetSchoolUUID(c)

	var school schoolModel.SchoolModel
	if err := ctrl.DB.Select("school_timezone").First(&school, "school_id = ?", schoolID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "School not found")
	}
	loc := dbtime.SchoolLocation(school.SchoolTimezone)
	start, end := dbtime.DayBounds(time.Now(), loc)

	today, err := service.CountByStatus(ctrl.DB, schoolID, &start, &end)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil statistik")
	}
	allTime, err := service.CountByStatus(ctrl.DB, schoolID, nil, nil)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil statistik")
	}

	return helper.JsonOK(c, "ok", fiber.Map{
		"today":    today,
		"all_time": allTime,
	})
}

// GET /api/a/visits/report?from=&to= — rekap rentang tanggal (JSON)
func (ctrl *SchoolVisitController) Report(c *fiber.Ctx) error {
	schoolID := helper.GetSchoolUUID(c)

	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "from must be in YYYY-MM-DD format")
		}
		d := schoolModel.NormalizeDate(parsed)
		from = &d
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "to must be in YYYY-MM-DD format")
		}
		d := schoolModel.NormalizeDate(parsed).AddDate(0, 0, 1) // inklusif
		to = &d
	}

	counts, err := service.CountByStatus(ctrl.DB, schoolID, from, to)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal membuat laporan")
	}

	var visits []model.VisitModel
	q := ctrl.DB.Where("visit_school_id = ?", schoolID)
	if from != nil {
		q = q.Where("visit_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("visit_date < ?", *to)
	}
	if err := q.Order("visit_date ASC").Find(&visits).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal membuat laporan")
	}

	return helper.JsonOK(c, "ok", fiber.Map{
		"summary": counts,
		"visits":  visits,
	})
}
