package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gatepass_backend/internals/constants"
	notifModel "gatepass_backend/internals/features/notifications/model"
	schoolModel "gatepass_backend/internals/features/schools/model"
	userModel "gatepass_backend/internals/features/users/model"
	visitModel "gatepass_backend/internals/features/visits/model"
	visitService "gatepass_backend/internals/features/visits/service"

	"gatepass_backend/internals/features/payments/model"
)

type ledgerFixture struct {
	db       *gorm.DB
	school   schoolModel.SchoolModel
	parentID uuid.UUID
	adminID  uuid.UUID
	visit    *visitModel.VisitModel
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&userModel.UserModel{},
		&schoolModel.SchoolModel{},
		&schoolModel.VisitingDayModel{},
		&visitModel.VisitModel{},
		&model.PaymentModel{},
		&notifModel.NotificationModel{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	school := schoolModel.SchoolModel{
		SchoolID:                  uuid.New(),
		SchoolName:                "Saint Mary College",
		SchoolIsActive:            true,
		SchoolStudentDataMethod:   schoolModel.StudentDataMethodCSV,
		SchoolVisitFee:            200,
		SchoolMaxVisitorsPerVisit: 3,
	}
	if err := db.Create(&school).Error; err != nil {
		t.Fatalf("seed school: %v", err)
	}

	visitDay := schoolModel.NormalizeDate(time.Now().AddDate(0, 0, 1))
	if err := db.Create(&schoolModel.VisitingDayModel{
		VisitingDaySchoolID: school.SchoolID,
		VisitingDayDate:     visitDay,
	}).Error; err != nil {
		t.Fatalf("seed visiting day: %v", err)
	}

	parent := userModel.UserModel{
		UserRole:     constants.RoleParent,
		UserName:     "Bob Niyonzima",
		UserEmail:    "bob@example.com",
		UserPhone:    "+250780000003",
		UserPassword: "x",
		UserIsActive: true,
	}
	if err := db.Create(&parent).Error; err != nil {
		t.Fatalf("seed parent: %v", err)
	}

	admin := userModel.UserModel{
		UserRole:     constants.RoleSchoolAdmin,
		UserName:     "Admin Two",
		UserEmail:    "admin2@example.com",
		UserPhone:    "+250780000004",
		UserPassword: "x",
		UserSchoolID: &school.SchoolID,
		UserIsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	visit, err := visitService.RequestVisit(context.Background(), db, parent.UserID, visitService.RequestVisitInput{
		SchoolID:    school.SchoolID,
		StudentID:   "STU-042",
		VisitDate:   visitDay,
		NumVisitors: 1,
	})
	if err != nil {
		t.Fatalf("request visit: %v", err)
	}

	return &ledgerFixture{
		db:       db,
		school:   school,
		parentID: parent.UserID,
		adminID:  admin.UserID,
		visit:    visit,
	}
}

func (f *ledgerFixture) initialize(t *testing.T) *model.PaymentModel {
	t.Helper()
	payment, err := InitializePayment(f.db, f.parentID, InitializeInput{
		VisitCode:   f.visit.VisitCode,
		Method:      model.PaymentMethodMomo,
		PhoneNumber: "+250780000003",
	})
	if err != nil {
		t.Fatalf("initialize payment: %v", err)
	}
	return payment
}

func (f *ledgerFixture) reloadVisit(t *testing.T) *visitModel.VisitModel {
	t.Helper()
	var v visitModel.VisitModel
	if err := f.db.First(&v, "visit_id = ?", f.visit.VisitID).Error; err != nil {
		t.Fatalf("reload visit: %v", err)
	}
	return &v
}

func (f *ledgerFixture) countNotifications(t *testing.T, userID uuid.UUID, notifType string) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&notifModel.NotificationModel{}).
		Where("notification_user_id = ? AND notification_type = ?", userID, notifType).
		Count(&n).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}

/* ===================== Initialize ===================== */

func TestInitializePaymentMirrorsVisit(t *testing.T) {
	f := newLedgerFixture(t)
	payment := f.initialize(t)

	if payment.PaymentStatus != model.PaymentStatusPending {
		t.Fatalf("payment status = %s, want pending", payment.PaymentStatus)
	}
	if payment.PaymentAmount != 200 || payment.PaymentCurrency != "RWF" {
		t.Fatalf("amount/currency = %d %s, want 200 RWF", payment.PaymentAmount, payment.PaymentCurrency)
	}

	visit := f.reloadVisit(t)
	if visit.VisitPaymentRef != payment.PaymentRef {
		t.Fatalf("visit payment ref = %q, want %q", visit.VisitPaymentRef, payment.PaymentRef)
	}
	if visit.VisitPaymentStatus != visitModel.VisitPaymentPending {
		t.Fatalf("visit payment mirror = %s, want pending", visit.VisitPaymentStatus)
	}
}

func TestInitializePaymentRejectsNonPendingVisit(t *testing.T) {
	f := newLedgerFixture(t)

	if _, err := visitService.ApproveVisit(f.db, f.school.SchoolID, f.visit.VisitCode, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err := InitializePayment(f.db, f.parentID, InitializeInput{
		VisitCode: f.visit.VisitCode,
		Method:    model.PaymentMethodMomo,
	})
	if err != visitService.ErrNotPendingPayment {
		t.Fatalf("err = %v, want ErrNotPendingPayment", err)
	}

	// transaksi di-rollback: tidak boleh ada row payment yatim
	var n int64
	if err := f.db.Model(&model.PaymentModel{}).
		Where("payment_visit_id = ?", f.visit.VisitID).
		Count(&n).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	if n != 0 {
		t.Fatalf("orphan payments = %d, want 0", n)
	}
}

func TestInitializePaymentInvalidMethod(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := InitializePayment(f.db, f.parentID, InitializeInput{
		VisitCode: f.visit.VisitCode,
		Method:    "barter",
	})
	if err != ErrInvalidMethod {
		t.Fatalf("err = %v, want ErrInvalidMethod", err)
	}
}

/* ===================== Confirm ===================== */

func TestConfirmPaymentCompletedConfirmsVisit(t *testing.T) {
	f := newLedgerFixture(t)
	payment := f.initialize(t)

	confirmed, err := ConfirmPayment(f.db, ConfirmInput{
		PaymentRef: payment.PaymentRef,
		Succeeded:  true,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.PaymentStatus != model.PaymentStatusCompleted {
		t.Fatalf("payment status = %s, want completed", confirmed.PaymentStatus)
	}
	if confirmed.PaymentPaidAt == nil {
		t.Fatal("paid_at not stamped")
	}

	visit := f.reloadVisit(t)
	if visit.VisitStatus != visitModel.VisitStatusConfirmed {
		t.Fatalf("visit status = %s, want confirmed", visit.VisitStatus)
	}
	if visit.VisitPaymentStatus != visitModel.VisitPaymentCompleted {
		t.Fatalf("visit payment mirror = %s, want completed", visit.VisitPaymentStatus)
	}
	if visit.VisitQRCode == "" {
		t.Fatal("QR code not materialized on confirmation")
	}

	if got := f.countNotifications(t, f.parentID, notifModel.TypePaymentSuccess); got != 1 {
		t.Fatalf("parent success notifications = %d, want 1", got)
	}
	if got := f.countNotifications(t, f.adminID, notifModel.TypeVisitConfirmed); got != 1 {
		t.Fatalf("admin confirmed notifications = %d, want 1", got)
	}
}

func TestConfirmPaymentReplayIsNoop(t *testing.T) {
	f := newLedgerFixture(t)
	payment := f.initialize(t)

	if _, err := ConfirmPayment(f.db, ConfirmInput{PaymentRef: payment.PaymentRef, Succeeded: true}); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	qrBefore := f.reloadVisit(t).VisitQRCode

	// webhook provider dikirim ulang
	replayed, err := ConfirmPayment(f.db, ConfirmInput{PaymentRef: payment.PaymentRef, Succeeded: true})
	if err != nil {
		t.Fatalf("replay confirm: %v", err)
	}
	if replayed.PaymentStatus != model.PaymentStatusCompleted {
		t.Fatalf("payment status after replay = %s", replayed.PaymentStatus)
	}

	visit := f.reloadVisit(t)
	if visit.VisitStatus != visitModel.VisitStatusConfirmed {
		t.Fatalf("visit status after replay = %s", visit.VisitStatus)
	}
	if visit.VisitQRCode != qrBefore {
		t.Fatal("QR changed on replay")
	}
	// tidak ada notifikasi dobel
	if got := f.countNotifications(t, f.parentID, notifModel.TypePaymentSuccess); got != 1 {
		t.Fatalf("parent success notifications = %d, want 1", got)
	}
}

func TestConfirmPaymentFailedKeepsVisitPending(t *testing.T) {
	f := newLedgerFixture(t)
	payment := f.initialize(t)

	failed, err := ConfirmPayment(f.db, ConfirmInput{
		PaymentRef:    payment.PaymentRef,
		Succeeded:     false,
		TransactionID: "MTN-TXN-112233",
		FailureReason: "insufficient funds",
	})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if failed.PaymentStatus != model.PaymentStatusFailed {
		t.Fatalf("payment status = %s, want failed", failed.PaymentStatus)
	}
	if failed.PaymentFailureReason != "insufficient funds" {
		t.Fatalf("failure reason = %q", failed.PaymentFailureReason)
	}
	if failed.PaymentProcessedAt == nil {
		t.Fatal("processed_at not stamped on failed")
	}
	if failed.PaymentExternalID != "MTN-TXN-112233" {
		t.Fatalf("external id = %q, want MTN-TXN-112233", failed.PaymentExternalID)
	}

	visit := f.reloadVisit(t)
	if visit.VisitStatus != visitModel.VisitStatusPendingPayment {
		t.Fatalf("visit status = %s, want pending_payment (retry allowed)", visit.VisitStatus)
	}
	if visit.VisitPaymentStatus != visitModel.VisitPaymentFailed {
		t.Fatalf("visit payment mirror = %s, want failed", visit.VisitPaymentStatus)
	}
	if got := f.countNotifications(t, f.parentID, notifModel.TypePaymentFailed); got != 1 {
		t.Fatalf("parent failed notifications = %d, want 1", got)
	}

	// retry: tagihan kedua masih bisa dibuka lalu sukses
	second := f.initialize(t)
	if _, err := ConfirmPayment(f.db, ConfirmInput{PaymentRef: second.PaymentRef, Succeeded: true}); err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if v := f.reloadVisit(t); v.VisitStatus != visitModel.VisitStatusConfirmed {
		t.Fatalf("visit status after retry = %s, want confirmed", v.VisitStatus)
	}
}

func TestConfirmCompletedAfterVisitRejected(t *testing.T) {
	f := newLedgerFixture(t)
	payment := f.initialize(t)

	// Admin menolak visit SETELAH parent membuka tagihan; provider
	// tetap mengirim webhook completed (parent terlanjur membayar)
	if _, err := visitService.RejectVisit(f.db, f.school.SchoolID, f.visit.VisitCode, "gate maintenance"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	confirmed, err := ConfirmPayment(f.db, ConfirmInput{
		PaymentRef: payment.PaymentRef,
		Succeeded:  true,
	})
	if err != nil {
		t.Fatalf("confirm on rejected visit: %v", err)
	}
	// dana masuk tetap tercatat di ledger
	if confirmed.PaymentStatus != model.PaymentStatusCompleted {
		t.Fatalf("payment status = %s, want completed", confirmed.PaymentStatus)
	}
	if confirmed.PaymentPaidAt == nil {
		t.Fatal("paid_at not stamped")
	}

	// visit TIDAK di-confirm ulang, QR tidak dibuat
	visit := f.reloadVisit(t)
	if visit.VisitStatus != visitModel.VisitStatusRejected {
		t.Fatalf("visit status = %s, want rejected", visit.VisitStatus)
	}
	if visit.VisitQRCode != "" {
		t.Fatal("QR materialized for rejected visit")
	}
	if visit.VisitPaymentStatus != visitModel.VisitPaymentCompleted {
		t.Fatalf("visit payment mirror = %s, want completed", visit.VisitPaymentStatus)
	}

	// parent tahu dananya diterima, admin diberi tahu soal refund;
	// notifikasi "visit confirmed" tidak boleh keluar
	if got := f.countNotifications(t, f.parentID, notifModel.TypePaymentSuccess); got != 1 {
		t.Fatalf("parent success notifications = %d, want 1", got)
	}
	if got := f.countNotifications(t, f.adminID, notifModel.TypeVisitConfirmed); got != 0 {
		t.Fatalf("admin confirmed notifications = %d, want 0", got)
	}
	if got := f.countNotifications(t, f.adminID, notifModel.TypePaymentSuccess); got != 1 {
		t.Fatalf("admin payment notifications = %d, want 1", got)
	}

	// replay webhook yang sama tetap no-op
	if _, err := ConfirmPayment(f.db, ConfirmInput{PaymentRef: payment.PaymentRef, Succeeded: true}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if got := f.countNotifications(t, f.parentID, notifModel.TypePaymentSuccess); got != 1 {
		t.Fatalf("parent success notifications after replay = %d, want 1", got)
	}
}

func TestConfirmPaymentStampsProviderFields(t *testing.T) {
	f := newLedgerFixture(t)
	payment := f.initialize(t)

	confirmed, err := ConfirmPayment(f.db, ConfirmInput{
		PaymentRef:    payment.PaymentRef,
		Succeeded:     true,
		TransactionID: "MTN-TXN-778899",
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.PaymentExternalID != "MTN-TXN-778899" {
		t.Fatalf("external id = %q, want MTN-TXN-778899", confirmed.PaymentExternalID)
	}
	if confirmed.PaymentProcessedAt == nil {
		t.Fatal("processed_at not stamped on completed")
	}
}

func TestConfirmPaymentUnknownRef(t *testing.T) {
	f := newLedgerFixture(t)
	if _, err := ConfirmPayment(f.db, ConfirmInput{PaymentRef: "GP-0-NOPE", Succeeded: true}); err != ErrPaymentNotFound {
		t.Fatalf("err = %v, want ErrPaymentNotFound", err)
	}
}

/* ===================== Refund ===================== */

func TestRefundCancelsVisit(t *testing.T) {
	f := newLedgerFixture(t)
	payment := f.initialize(t)
	if _, err := ConfirmPayment(f.db, ConfirmInput{PaymentRef: payment.PaymentRef, Succeeded: true}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	refunded, err := RefundPayment(f.db, f.school.SchoolID, payment.PaymentRef, "duplicate")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.PaymentStatus != model.PaymentStatusRefunded {
		t.Fatalf("payment status = %s, want refunded", refunded.PaymentStatus)
	}
	if refunded.PaymentRefundedAt == nil {
		t.Fatal("refunded_at not stamped")
	}
	if refunded.PaymentRefundReason != "duplicate" {
		t.Fatalf("refund reason = %q, want %q", refunded.PaymentRefundReason, "duplicate")
	}
	// alasan refund tidak boleh nyasar ke kolom failure
	if refunded.PaymentFailureReason != "" {
		t.Fatalf("failure reason = %q, want empty", refunded.PaymentFailureReason)
	}

	visit := f.reloadVisit(t)
	if visit.VisitStatus != visitModel.VisitStatusCancelled {
		t.Fatalf("visit status = %s, want cancelled", visit.VisitStatus)
	}
	if visit.VisitPaymentStatus != visitModel.VisitPaymentRefunded {
		t.Fatalf("visit payment mirror = %s, want refunded", visit.VisitPaymentStatus)
	}
	if got := f.countNotifications(t, f.parentID, notifModel.TypePaymentRefunded); got != 1 {
		t.Fatalf("refund notifications = %d, want 1", got)
	}

	// refund kedua → ditolak
	if _, err := RefundPayment(f.db, f.school.SchoolID, payment.PaymentRef, "again"); err != ErrNotRefundable {
		t.Fatalf("err = %v, want ErrNotRefundable", err)
	}
}

func TestRefundRequiresCompleted(t *testing.T) {
	f := newLedgerFixture(t)
	payment := f.initialize(t)

	if _, err := RefundPayment(f.db, f.school.SchoolID, payment.PaymentRef, "never paid"); err != ErrNotRefundable {
		t.Fatalf("err = %v, want ErrNotRefundable", err)
	}
}

func TestRefundScopedToSchool(t *testing.T) {
	f := newLedgerFixture(t)
	payment := f.initialize(t)
	if _, err := ConfirmPayment(f.db, ConfirmInput{PaymentRef: payment.PaymentRef, Succeeded: true}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := RefundPayment(f.db, uuid.New(), payment.PaymentRef, "wrong tenant"); err != ErrPaymentNotFound {
		t.Fatalf("err = %v, want ErrPaymentNotFound", err)
	}
}

/* ===================== Expiry ===================== */

func TestExpireStalePayments(t *testing.T) {
	f := newLedgerFixture(t)
	payment := f.initialize(t)

	// pending yang baru dibuat belum kena sweep
	n, err := ExpireStalePayments(f.db, time.Now())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("expired = %d, want 0", n)
	}

	// lewat jendela 15 menit → ditutup
	n, err = ExpireStalePayments(f.db, time.Now().Add(model.PendingExpiry+time.Minute))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}

	var reloaded model.PaymentModel
	if err := f.db.First(&reloaded, "payment_id = ?", payment.PaymentID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.PaymentStatus != model.PaymentStatusCancelled {
		t.Fatalf("status = %s, want cancelled", reloaded.PaymentStatus)
	}
}
