package controller

import (
	"strings"
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

// Controller gerbang (role security). Verifikasi + check-in dipisah:
// petugas lihat dulu siapa yang datang, baru commit check-in.
type GateController struct {
	DB *gorm.DB
}

func NewGateController(db *gorm.DB) *GateController {
	return &GateController{DB: db}
}

func (ctrl *GateController) schoolDay(c *fiber.Ctx) (time.Time, time.Time, error) {
	schoolID := helper.GetSchoolUUID(c)
	var school schoolModel.SchoolModel
	if err := ctrl.DB.Select("school_timezone").First(&school, "school_id = ?", schoolID).Error; err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusNotFound, "School not found")
	}
	loc := dbtime.SchoolLocation(school.SchoolTimezone)
	start, end := dbtime.DayBounds(time.Now(), loc)
	return start, end, nil
}

// GET /api/s/gate/verify/:code — lookup visit by kode, tanpa mutasi
func (ctrl *GateController) VerifyVisit(c *fiber.Ctx) error {
	schoolID := helper.GetSchoolUUID(c)
	code := strings.TrimSpace(c.Params("code"))

	visit, err := service.GetVisitForSchool(ctrl.DB, schoolID, code)
	if err != nil {
		return mapLifecycleError(err)
	}

	return helper.JsonOK(c, "ok", fiber.Map{
		"visit":        visit,
		"can_check_in": visit.VisitStatus == model.VisitStatusConfirmed && visit.VisitCheckInTime == nil,
	})
}

// POST /api/s/gate/check-in/:code — confirmed → checked_in
func (ctrl *GateController) CheckIn(c *fiber.Ctx) error {
	var body dto.CheckInRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	schoolID := helper.GetSchoolUUID(c)
	securityID := helper.GetUserUUID(c)

	visit, err := service.CheckInVisit(ctrl.DB, schoolID, securityID, strings.TrimSpace(c.Params("code")), body.Notes)
	if err != nil {
		return mapLifecycleError(err)
	}
	return helper.JsonUpdated(c, "Visitor checked in", visit)
}

// GET /api/s/gate/today — daftar visit hari ini (timezone sekolah)
func (ctrl *GateController) TodayVisits(c *fiber.Ctx) error {
	start, end, err := ctrl.schoolDay(c)
	if err != nil {
		return err
	}
	schoolID := helper.GetSchoolUUID(c)

	q := ctrl.DB.Where("visit_school_id = ? AND visit_date >= ? AND visit_date < ?", schoolID, start, end)
	if status := c.Query("status"); status != "" {
		q = q.Where("visit_status = ?", status)
	}

	var visits []model.VisitModel
	if err := q.Order("visit_check_in_time ASC NULLS FIRST, created_at ASC").
		Find(&visits).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil visit hari ini")
	}
	return helper.JsonOK(c, "ok", visits)
}

// GET /api/s/gate/stats — papan gerbang hari ini: agregat per status,
// total yang ditunggu vs sudah masuk, dan check-in terakhir
func (ctrl *GateController) TodayStats(c *fiber.Ctx) error {
	start, end, err := ctrl.schoolDay(c)
	if err != nil {
		return err
	}
	schoolID := helper.GetSchoolUUID(c)

	counts, serr := service.CountByStatus(ctrl.DB, schoolID, &start, &end)
	if serr != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil statistik")
	}

	var expected, arrived int64
	for _, row := range counts {
		switch row.Status {
		case model.VisitStatusConfirmed:
			expected += row.Count
		case model.VisitStatusCheckedIn:
			arrived += row.Count
		}
	}

	var recentCheckIns []model.VisitModel
	if err := ctrl.DB.
		Where("visit_school_id = ? AND visit_status = ? AND visit_check_in_time >= ? AND visit_check_in_time < ?",
			schoolID, model.VisitStatusCheckedIn, start, end).
		Order("visit_check_in_time DESC").
		Limit(5).
		Find(&recentCheckIns).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil statistik")
	}

	return helper.JsonOK(c, "ok", fiber.Map{
		"today":            counts,
		"expected":         expected,
		"arrived":          arrived,
		"recent_check_ins": recentCheckIns,
	})
}

// GET /api/s/gate/search?q= — cari by nama siswa / nama / telp pengunjung,
// dibatasi hari ini (timezone sekolah, sama dengan papan gerbang)
func (ctrl *GateController) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 2 {
		return fiber.NewError(fiber.StatusBadRequest, "q must be at least 2 characters")
	}

	start, end, err := ctrl.schoolDay(c)
	if err != nil {
		return err
	}

	schoolID := helper.GetSchoolUUID(c)
	visits, serr := service.SearchVisits(ctrl.DB, schoolID, query, start, end)
	if serr != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mencari visit")
	}
	return helper.JsonOK(c, "ok", visits)
}
