package auth

import (
	"github.com/gofiber/fiber/v2"

	helper "gatepass_backend/internals/helpers"
)

// RoleMiddlewareWithCustomError validasi role + custom error message
func RoleMiddlewareWithCustomError(allowedRoles []string, customForbiddenMessage string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := helper.GetUserRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized: missing role information",
			})
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}

		if customForbiddenMessage == "" {
			customForbiddenMessage = "Forbidden: you are not authorized to access this resource"
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": customForbiddenMessage,
		})
	}
}

// OnlyRoles — shortcut biar lebih clean pemakaian
func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return RoleMiddlewareWithCustomError(roles, customMessage)
}

// RequireSchoolScope memastikan caller punya school_id (school_admin/security)
func RequireSchoolScope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !helper.GetScope(c).HasSchool() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "School context missing",
			})
		}
		return c.Next()
	}
}
