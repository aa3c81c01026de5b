package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gatepass_backend/internals/features/users/dto"
	"gatepass_backend/internals/features/users/model"
	helper "gatepass_backend/internals/helpers"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// GET /api/u/profile
func (ctrl *UserController) GetProfile(c *fiber.Ctx) error {
	userID := helper.GetUserUUID(c)

	var user model.UserModel
	if err := ctrl.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "User not found")
	}
	return helper.JsonOK(c, "ok", dto.FromModel(&user))
}

// PATCH /api/u/profile
func (ctrl *UserController) UpdateProfile(c *fiber.Ctx) error {
	var body dto.UpdateProfileRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	body.Normalize()
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	userID := helper.GetUserUUID(c)
	var user model.UserModel
	if err := ctrl.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "User not found")
	}

	if body.UserName != nil {
		user.UserName = *body.UserName
	}
	if body.UserPhone != nil {
		user.UserPhone = *body.UserPhone
	}
	if body.UserAddress != nil {
		user.UserAddress = *body.UserAddress
	}
	if body.LinkedStudents != nil {
		if !user.IsParent() {
			return fiber.NewError(fiber.StatusBadRequest, "linked_students hanya untuk parent")
		}
		user.UserLinkedStudents = datatypes.NewJSONSlice(*body.LinkedStudents)
	}

	if err := ctrl.DB.Save(&user).Error; err != nil {
		log.Println("[ERROR] update profile:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menyimpan profil")
	}
	return helper.JsonUpdated(c, "Profile updated", dto.FromModel(&user))
}
