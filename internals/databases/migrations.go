package database

import (
	"log"

	notifModel "gatepass_backend/internals/features/notifications/model"
	paymentModel "gatepass_backend/internals/features/payments/model"
	schoolModel "gatepass_backend/internals/features/schools/model"
	userModel "gatepass_backend/internals/features/users/model"
	visitModel "gatepass_backend/internals/features/visits/model"
)

// AutoMigrateAll sinkronkan skema semua model. Dipanggil saat bootstrap.
func AutoMigrateAll() {
	if err := DB.AutoMigrate(
		&userModel.UserModel{},
		&schoolModel.SchoolModel{},
		&schoolModel.VisitingDayModel{},
		&visitModel.VisitModel{},
		&paymentModel.PaymentModel{},
		&notifModel.NotificationModel{},
	); err != nil {
		log.Fatalf("❌ AutoMigrate gagal: %v", err)
	}
	log.Println("✅ Skema DB sinkron.")
}
