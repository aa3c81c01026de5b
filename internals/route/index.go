// file: internals/route/index.go
package route

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"gatepass_backend/internals/constants"
	notifRoutes "gatepass_backend/internals/features/notifications/routes"
	paymentRoutes "gatepass_backend/internals/features/payments/routes"
	schoolRoutes "gatepass_backend/internals/features/schools/routes"
	userRoutes "gatepass_backend/internals/features/users/routes"
	visitRoutes "gatepass_backend/internals/features/visits/routes"
	authMiddleware "gatepass_backend/internals/middlewares/auth"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// ===================== PUBLIC =====================
	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, db)

	log.Println("[INFO] Setting up AuthRoutes...")
	userRoutes.AuthRoutes(app, db)

	// Webhook provider — tanpa JWT, opsional shared secret
	log.Println("[INFO] Setting up WebhookRoutes...")
	paymentRoutes.WebhookRoutes(app, db)

	// ===================== PARENT (/api/u) =====================
	log.Println("[INFO] Setting up PARENT group...")
	// Profil & notifikasi: semua role ber-auth. Guard role parent
	// dipasang per sub-route di dalam masing-masing routes file.
	user := app.Group("/api/u",
		authMiddleware.AuthMiddleware(db),
	)
	userRoutes.UserRoutes(user, db)
	notifRoutes.NotificationRoutes(user, db)
	visitRoutes.ParentVisitRoutes(user, db)
	paymentRoutes.ParentPaymentRoutes(user, db)

	// ===================== SCHOOL ADMIN (/api/a) =====================
	log.Println("[INFO] Setting up SCHOOL ADMIN group...")
	admin := app.Group("/api/a",
		authMiddleware.AuthMiddleware(db),
		authMiddleware.OnlyRoles(constants.RoleErrorSchoolAdmin("mengelola sekolah"), constants.RoleSchoolAdmin),
		authMiddleware.RequireSchoolScope(),
	)
	schoolRoutes.SchoolAdminRoutes(admin, db)
	visitRoutes.SchoolVisitRoutes(admin, db)
	paymentRoutes.SchoolPaymentRoutes(admin, db)

	// ===================== SECURITY / GATE (/api/s) =====================
	log.Println("[INFO] Setting up SECURITY group...")
	security := app.Group("/api/s",
		authMiddleware.AuthMiddleware(db),
		authMiddleware.OnlyRoles(constants.RoleErrorSecurity("mengakses gerbang"), constants.RoleSecurity, constants.RoleSchoolAdmin),
		authMiddleware.RequireSchoolScope(),
	)
	visitRoutes.GateRoutes(security, db)

	// ===================== SYSTEM ADMIN (/api/o) =====================
	log.Println("[INFO] Setting up SYSTEM ADMIN group...")
	owner := app.Group("/api/o",
		authMiddleware.AuthMiddleware(db),
		authMiddleware.OnlyRoles(constants.RoleErrorSystemAdmin("mengelola platform"), constants.RoleSystemAdmin),
	)
	schoolRoutes.SystemAdminRoutes(owner, db)
	paymentRoutes.SystemPaymentRoutes(owner, db)
}
