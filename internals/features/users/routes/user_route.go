package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	userController "gatepass_backend/internals/features/users/controller"
	"gatepass_backend/internals/middlewares"
)

// AuthRoutes — endpoint publik (register/login)
func AuthRoutes(app fiber.Router, db *gorm.DB) {
	ctrl := userController.NewAuthController(db)

	auth := app.Group("/api/auth")
	auth.Post("/register", middlewares.RegisterRateLimiter(), ctrl.Register)
	auth.Post("/login", middlewares.LoginRateLimiter(), ctrl.Login)
}

// UserRoutes — endpoint ber-auth (profil, password)
func UserRoutes(api fiber.Router, db *gorm.DB) {
	authCtrl := userController.NewAuthController(db)
	userCtrl := userController.NewUserController(db)

	api.Get("/profile", userCtrl.GetProfile)
	api.Patch("/profile", userCtrl.UpdateProfile)
	api.Post("/auth/change-password", authCtrl.ChangePassword)
}
