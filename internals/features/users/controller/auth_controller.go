package controller

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gatepass_backend/internals/configs"
	"gatepass_backend/internals/features/users/dto"
	"gatepass_backend/internals/features/users/model"
	helper "gatepass_backend/internals/helpers"
)

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

const accessTokenTTL = 24 * time.Hour

// POST /api/auth/register — self-register parent
func (ctrl *AuthController) Register(c *fiber.Ctx) error {
	var body dto.RegisterRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	body.Normalize()
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var existing model.UserModel
	if err := ctrl.DB.Where("user_email = ?", body.UserEmail).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "Email already in use")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Println("[ERROR] cek email:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.UserPassword), bcrypt.DefaultCost)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal memproses password")
	}

	user := body.ToModel()
	user.UserPassword = string(hash)

	if err := ctrl.DB.Create(user).Error; err != nil {
		log.Println("[ERROR] create user:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal membuat akun")
	}

	return helper.JsonCreated(c, "Account created", dto.FromModel(user))
}

// POST /api/auth/login
func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var body dto.LoginRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	body.Normalize()
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var user model.UserModel
	if err := ctrl.DB.Where("user_email = ?", body.UserEmail).First(&user).Error; err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}
	if !user.UserIsActive {
		return fiber.NewError(fiber.StatusForbidden, "Akun Anda telah dinonaktifkan")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.UserPassword), []byte(body.UserPassword)); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := signAccessToken(&user)
	if err != nil {
		log.Println("[ERROR] sign token:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal membuat token")
	}

	now := time.Now()
	if err := ctrl.DB.Model(&user).Update("user_last_login", &now).Error; err != nil {
		log.Println("[WARN] update last_login:", err)
	}

	return helper.JsonOK(c, "Login berhasil", fiber.Map{
		"access_token": token,
		"expires_in":   int(accessTokenTTL.Seconds()),
		"user":         dto.FromModel(&user),
	})
}

// POST /api/u/auth/change-password
func (ctrl *AuthController) ChangePassword(c *fiber.Ctx) error {
	var body dto.ChangePasswordRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	userID := helper.GetUserUUID(c)
	var user model.UserModel
	if err := ctrl.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "User not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.UserPassword), []byte(body.OldPassword)); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Old password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal memproses password")
	}
	if err := ctrl.DB.Model(&user).Update("user_password", string(hash)).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menyimpan password")
	}

	return helper.JsonUpdated(c, "Password updated", nil)
}

func signAccessToken(u *model.UserModel) (string, error) {
	if strings.TrimSpace(configs.JWTSecret) == "" {
		return "", errors.New("JWT secret not configured")
	}
	claims := jwt.MapClaims{
		"user_id": u.UserID.String(),
		"role":    u.UserRole,
		"exp":     time.Now().Add(accessTokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	if u.UserSchoolID != nil {
		claims["school_id"] = u.UserSchoolID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(configs.JWTSecret))
}
