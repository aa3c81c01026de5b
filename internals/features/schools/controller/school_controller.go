package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"gatepass_backend/internals/features/schools/dto"
	"gatepass_backend/internals/features/schools/model"
	"gatepass_backend/internals/features/schools/service"
	helper "gatepass_backend/internals/helpers"
)

type SchoolController struct {
	DB *gorm.DB
}

func NewSchoolController(db *gorm.DB) *SchoolController {
	return &SchoolController{DB: db}
}

/* ===================== School admin ===================== */

// GET /api/a/school — profil & settings sekolah sendiri
func (ctrl *SchoolController) GetMySchool(c *fiber.Ctx) error {
	schoolID := helper.GetSchoolUUID(c)

	var school model.SchoolModel
	if err := ctrl.DB.First(&school, "school_id = ?", schoolID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "School not found")
	}
	return helper.JsonOK(c, "ok", school)
}

// PATCH /api/a/school — update profil, settings & konfigurasi direktori
func (ctrl *SchoolController) UpdateMySchool(c *fiber.Ctx) error {
	var body dto.UpdateSchoolRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	schoolID := helper.GetSchoolUUID(c)
	var school model.SchoolModel
	if err := ctrl.DB.First(&school, "school_id = ?", schoolID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "School not found")
	}

	body.Apply(&school)
	if err := ctrl.DB.Save(&school).Error; err != nil {
		log.Println("[ERROR] update school:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menyimpan sekolah")
	}
	return helper.JsonUpdated(c, "School updated", school)
}

// POST /api/a/school/test-link — cek koneksi direktori siswa
func (ctrl *SchoolController) TestDirectoryLink(c *fiber.Ctx) error {
	schoolID := helper.GetSchoolUUID(c)

	var school model.SchoolModel
	if err := ctrl.DB.First(&school, "school_id = ?", schoolID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "School not found")
	}
	if !school.HasDirectory() {
		return fiber.NewError(fiber.StatusBadRequest, "Student directory API is not configured")
	}

	if err := service.TestLink(c.UserContext(), school.SchoolApiURL, school.SchoolApiKey); err != nil {
		if errors.Is(err, service.ErrDirectoryUnavailable) {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menguji koneksi")
	}
	return helper.JsonOK(c, "Directory link is healthy", nil)
}

/* ===================== System admin ===================== */

// POST /api/o/schools
func (ctrl *SchoolController) CreateSchool(c *fiber.Ctx) error {
	var body dto.CreateSchoolRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	body.Normalize()
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	school := body.ToModel()
	if err := ctrl.DB.Create(school).Error; err != nil {
		log.Println("[ERROR] create school:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal membuat sekolah")
	}
	return helper.JsonCreated(c, "School created", school)
}

// GET /api/o/schools — termasuk sekolah nonaktif
func (ctrl *SchoolController) ListAllSchools(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)

	var total int64
	if err := ctrl.DB.Model(&model.SchoolModel{}).Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menghitung sekolah")
	}

	var schools []model.SchoolModel
	if err := ctrl.DB.Order("school_name ASC").
		Offset(paging.Offset).Limit(paging.Limit).
		Find(&schools).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil sekolah")
	}
	return helper.JsonList(c, "ok", schools, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// PATCH /api/o/schools/:school_id/active — aktif/nonaktifkan sekolah
func (ctrl *SchoolController) SetSchoolActive(c *fiber.Ctx) error {
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid school_id")
	}

	var body struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	res := ctrl.DB.Model(&model.SchoolModel{}).
		Where("school_id = ?", schoolID).
		Update("school_is_active", body.Active)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengubah status sekolah")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "School not found")
	}
	return helper.JsonUpdated(c, "School status updated", fiber.Map{
		"school_id": schoolID,
		"active":    body.Active,
	})
}
