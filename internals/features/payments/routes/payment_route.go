package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"gatepass_backend/internals/constants"
	paymentController "gatepass_backend/internals/features/payments/controller"
	authMiddleware "gatepass_backend/internals/middlewares/auth"
)

// WebhookRoutes — endpoint publik untuk callback provider
func WebhookRoutes(app fiber.Router, db *gorm.DB) {
	ctrl := paymentController.NewPaymentController(db)
	app.Post("/api/payments/confirm", ctrl.Webhook)
}

// ParentPaymentRoutes — dipasang di group /api/u (role parent)
func ParentPaymentRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := paymentController.NewPaymentController(db)
	parentOnly := authMiddleware.OnlyRoles(constants.RoleErrorParent("pembayaran"), constants.RoleParent)

	payments := api.Group("/payments", parentOnly)
	payments.Post("/", ctrl.InitializePayment)
	payments.Get("/", ctrl.ListMyPayments)
	payments.Get("/:ref", ctrl.GetMyPayment)
}

// SystemPaymentRoutes — dipasang di group /api/o (role system_admin).
// Tanpa school scope di token, refund berlaku lintas sekolah.
func SystemPaymentRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := paymentController.NewPaymentController(db)
	api.Patch("/payments/:ref/refund", ctrl.RefundPayment)
}

// SchoolPaymentRoutes — dipasang di group /api/a (role school_admin)
func SchoolPaymentRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := paymentController.NewPaymentController(db)

	payments := api.Group("/payments")
	payments.Get("/", ctrl.ListSchoolPayments)
	payments.Get("/stats", ctrl.Stats)
	payments.Patch("/:ref/refund", ctrl.RefundPayment)
}
