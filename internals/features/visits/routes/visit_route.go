package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"gatepass_backend/internals/constants"
	visitController "gatepass_backend/internals/features/visits/controller"
	authMiddleware "gatepass_backend/internals/middlewares/auth"
)

// ParentVisitRoutes — dipasang di group /api/u, guard role parent
// di level sub-route supaya inbox notifikasi tetap bisa dipakai role lain
func ParentVisitRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := visitController.NewParentVisitController(db)
	parentOnly := authMiddleware.OnlyRoles(constants.RoleErrorParent("kunjungan"), constants.RoleParent)

	api.Get("/dashboard", parentOnly, ctrl.Dashboard)
	api.Get("/schools", parentOnly, ctrl.ListSchools)
	api.Get("/schools/:school_id/visiting-days", parentOnly, ctrl.ListVisitingDays)

	visits := api.Group("/visits", parentOnly)
	visits.Post("/", ctrl.RequestVisit)
	visits.Get("/", ctrl.ListMyVisits)
	visits.Get("/:code", ctrl.GetVisitDetail)
	visits.Post("/:code/cancel", ctrl.CancelVisit)
	visits.Get("/:code/qr", ctrl.GetQRCode)
}

// SchoolVisitRoutes — dipasang di group /api/a (role school_admin)
func SchoolVisitRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := visitController.NewSchoolVisitController(db)

	visits := api.Group("/visits")
	visits.Get("/", ctrl.ListVisits)
	visits.Get("/pending", ctrl.ListPending)
	visits.Get("/stats", ctrl.Stats)
	visits.Get("/report", ctrl.Report)
	visits.Get("/:code", ctrl.GetVisitDetail)
	visits.Patch("/:code/approve", ctrl.ApproveVisit)
	visits.Patch("/:code/reject", ctrl.RejectVisit)
}

// GateRoutes — dipasang di group /api/s (role security)
func GateRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := visitController.NewGateController(db)

	gate := api.Group("/gate")
	gate.Get("/verify/:code", ctrl.VerifyVisit)
	gate.Post("/check-in/:code", ctrl.CheckIn)
	gate.Get("/today", ctrl.TodayVisits)
	gate.Get("/stats", ctrl.TodayStats)
	gate.Get("/search", ctrl.Search)
}
