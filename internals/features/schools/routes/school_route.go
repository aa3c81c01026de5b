package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	schoolController "gatepass_backend/internals/features/schools/controller"
)

// SchoolAdminRoutes — dipasang di group /api/a (role school_admin)
func SchoolAdminRoutes(api fiber.Router, db *gorm.DB) {
	schoolCtrl := schoolController.NewSchoolController(db)
	dayCtrl := schoolController.NewVisitingDayController(db)
	userCtrl := schoolController.NewSchoolUserController(db)

	api.Get("/school", schoolCtrl.GetMySchool)
	api.Patch("/school", schoolCtrl.UpdateMySchool)
	api.Post("/school/test-link", schoolCtrl.TestDirectoryLink)

	days := api.Group("/visiting-days")
	days.Post("/", dayCtrl.AddVisitingDay)
	days.Get("/", dayCtrl.ListVisitingDays)
	days.Patch("/:id", dayCtrl.UpdateVisitingDay)
	days.Delete("/:id", dayCtrl.DeleteVisitingDay)

	users := api.Group("/users")
	users.Post("/", userCtrl.CreateSchoolUser)
	users.Get("/", userCtrl.ListSchoolUsers)
	users.Patch("/:user_id", userCtrl.UpdateSchoolUser)
	users.Delete("/:user_id", userCtrl.DeleteSchoolUser)
}

// SystemAdminRoutes — dipasang di group /api/o (role system_admin)
func SystemAdminRoutes(api fiber.Router, db *gorm.DB) {
	schoolCtrl := schoolController.NewSchoolController(db)

	schools := api.Group("/schools")
	schools.Post("/", schoolCtrl.CreateSchool)
	schools.Get("/", schoolCtrl.ListAllSchools)
	schools.Patch("/:school_id/active", schoolCtrl.SetSchoolActive)
}
