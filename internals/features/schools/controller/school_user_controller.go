package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gatepass_backend/internals/constants"
	"gatepass_backend/internals/features/schools/dto"
	userDTO "gatepass_backend/internals/features/users/dto"
	userModel "gatepass_backend/internals/features/users/model"
	helper "gatepass_backend/internals/helpers"
)

// Manajemen akun staf sekolah (security / school_admin) oleh school admin.
// Selalu di-scope ke sekolah dari token.
type SchoolUserController struct {
	DB *gorm.DB
}

func NewSchoolUserController(db *gorm.DB) *SchoolUserController {
	return &SchoolUserController{DB: db}
}

// POST /api/a/users
func (ctrl *SchoolUserController) CreateSchoolUser(c *fiber.Ctx) error {
	var body dto.CreateSchoolUserRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	body.Normalize()
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	schoolID := helper.GetSchoolUUID(c)

	var existing int64
	if err := ctrl.DB.Model(&userModel.UserModel{}).
		Where("user_email = ?", body.UserEmail).
		Count(&existing).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal memeriksa email")
	}
	if existing > 0 {
		return fiber.NewError(fiber.StatusConflict, "Email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.UserPassword), bcrypt.DefaultCost)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal memproses password")
	}

	user := body.ToModel(schoolID)
	user.UserPassword = string(hashed)
	if err := ctrl.DB.Create(user).Error; err != nil {
		log.Println("[ERROR] create school user:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal membuat user")
	}
	return helper.JsonCreated(c, "School user created", userDTO.FromModel(user))
}

// GET /api/a/users?role=security
func (ctrl *SchoolUserController) ListSchoolUsers(c *fiber.Ctx) error {
	schoolID := helper.GetSchoolUUID(c)
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.Model(&userModel.UserModel{}).
		Where("user_school_id = ? AND user_role IN ?", schoolID,
			[]string{constants.RoleSchoolAdmin, constants.RoleSecurity})
	if role := c.Query("role"); role != "" {
		q = q.Where("user_role = ?", role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menghitung user")
	}

	var users []userModel.UserModel
	if err := q.Order("user_name ASC").
		Offset(paging.Offset).Limit(paging.Limit).
		Find(&users).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil user")
	}

	out := make([]userDTO.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userDTO.FromModel(&users[i]))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// PATCH /api/a/users/:user_id — edit nama/telepon/status aktif
func (ctrl *SchoolUserController) UpdateSchoolUser(c *fiber.Ctx) error {
	var body dto.UpdateSchoolUserRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	userID, err := helper.ParseUUIDParam(c, "user_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid user_id")
	}
	schoolID := helper.GetSchoolUUID(c)

	var user userModel.UserModel
	if err := ctrl.DB.
		Where("user_id = ? AND user_school_id = ?", userID, schoolID).
		First(&user).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "User not found")
	}

	if body.UserName != nil {
		user.UserName = *body.UserName
	}
	if body.UserPhone != nil {
		user.UserPhone = *body.UserPhone
	}
	if body.UserIsActive != nil {
		user.UserIsActive = *body.UserIsActive
	}

	if err := ctrl.DB.Save(&user).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menyimpan user")
	}
	return helper.JsonUpdated(c, "School user updated", userDTO.FromModel(&user))
}

// DELETE /api/a/users/:user_id — soft delete akun staf
func (ctrl *SchoolUserController) DeleteSchoolUser(c *fiber.Ctx) error {
	userID, err := helper.ParseUUIDParam(c, "user_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid user_id")
	}
	schoolID := helper.GetSchoolUUID(c)

	// Tidak boleh hapus diri sendiri
	if userID == helper.GetUserUUID(c) {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot delete your own account")
	}

	res := ctrl.DB.
		Where("user_id = ? AND user_school_id = ?", userID, schoolID).
		Delete(&userModel.UserModel{})
	if res.Error != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menghapus user")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "User not found")
	}
	return helper.JsonDeleted(c, "School user removed", nil)
}
