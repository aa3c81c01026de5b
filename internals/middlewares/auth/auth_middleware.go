// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"gatepass_backend/internals/configs"
	helper "gatepass_backend/internals/helpers"
	userModel "gatepass_backend/internals/features/users/model"
)

// Public webhook path yang di-skip auth
var skipPaths = map[string]struct{}{
	"/api/payments/confirm": {},
}

func AuthMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1) Skip path tertentu (webhook dsb.)
		if _, ok := skipPaths[c.Path()]; ok {
			return c.Next()
		}

		// 2) Ambil Authorization (atau cookie)
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		// 3) Parse & verifikasi JWT
		secretKey := configs.JWTSecret
		if secretKey == "" {
			log.Println("[ERROR] JWT_SECRET kosong")
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		}); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		// 4) Validasi exp (toleransi clock skew 30 detik)
		if err := validateTokenExpiry(claims, 30*time.Second); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		// 5) Validasi user aktif
		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}

		var u userModel.UserModel
		if err := db.Select("user_id", "user_is_active").
			Where("user_id = ?", userID).
			First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - User not found")
			}
			log.Println("[ERROR] DB error saat cek user:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
		}
		if !u.UserIsActive {
			return fiber.NewError(fiber.StatusForbidden, "Akun Anda telah dinonaktifkan")
		}

		// 6) Simpan scope (role + tenant) ke locals — satu-satunya
		//    tempat scope diturunkan dari token
		c.Locals(helper.LocUserID, userID)
		if role, ok := claims["role"].(string); ok {
			c.Locals(helper.LocUserRole, role)
		}
		if schoolID, ok := claims["school_id"].(string); ok && schoolID != "" {
			c.Locals(helper.LocSchoolID, schoolID)
		}

		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1], nil
		}
		return "", errors.New("Unauthorized - Malformed Authorization header")
	}
	if cookie := c.Cookies("access_token"); cookie != "" {
		return cookie, nil
	}
	return "", errors.New("Unauthorized - Missing token")
}

func validateTokenExpiry(claims jwt.MapClaims, leeway time.Duration) error {
	expRaw, ok := claims["exp"]
	if !ok {
		return errors.New("missing exp claim")
	}
	expFloat, ok := expRaw.(float64)
	if !ok {
		return errors.New("invalid exp claim")
	}
	expTime := time.Unix(int64(expFloat), 0)
	if time.Now().After(expTime.Add(leeway)) {
		return errors.New("token expired")
	}
	return nil
}
