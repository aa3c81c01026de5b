package service

import (
	"context"
	"encoding/base64"
	"regexp"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gatepass_backend/internals/constants"
	notifModel "gatepass_backend/internals/features/notifications/model"
	paymentModel "gatepass_backend/internals/features/payments/model"
	schoolModel "gatepass_backend/internals/features/schools/model"
	userModel "gatepass_backend/internals/features/users/model"
	"gatepass_backend/internals/features/visits/model"
)

func openTestDB(t *testing.T) *gorm.DB {
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
		&model.VisitModel{},
		&paymentModel.PaymentModel{},
		&notifModel.NotificationModel{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	school   schoolModel.SchoolModel
	parentID uuid.UUID
	adminID  uuid.UUID
	visitDay time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)

	school := schoolModel.SchoolModel{
		SchoolID:                  uuid.New(),
		SchoolName:                "Green Hills Academy",
		SchoolIsActive:            true,
		SchoolStudentDataMethod:   schoolModel.StudentDataMethodCSV, // tanpa API eksternal
		SchoolVisitFee:            200,
		SchoolMaxVisitorsPerVisit: 2,
	}
	if err := db.Create(&school).Error; err != nil {
		t.Fatalf("seed school: %v", err)
	}

	visitDay := schoolModel.NormalizeDate(time.Now().AddDate(0, 0, 1))
	day := schoolModel.VisitingDayModel{
		VisitingDaySchoolID: school.SchoolID,
		VisitingDayDate:     visitDay,
	}
	if err := db.Create(&day).Error; err != nil {
		t.Fatalf("seed visiting day: %v", err)
	}

	parent := userModel.UserModel{
		UserRole:     constants.RoleParent,
		UserName:     "Alice Mukamana",
		UserEmail:    "alice@example.com",
		UserPhone:    "+250780000001",
		UserPassword: "x",
		UserIsActive: true,
	}
	if err := db.Create(&parent).Error; err != nil {
		t.Fatalf("seed parent: %v", err)
	}

	admin := userModel.UserModel{
		UserRole:     constants.RoleSchoolAdmin,
		UserName:     "Admin One",
		UserEmail:    "admin@example.com",
		UserPhone:    "+250780000002",
		UserPassword: "x",
		UserSchoolID: &school.SchoolID,
		UserIsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	return &fixture{
		db:       db,
		school:   school,
		parentID: parent.UserID,
		adminID:  admin.UserID,
		visitDay: visitDay,
	}
}

func (f *fixture) requestVisit(t *testing.T) *model.VisitModel {
	t.Helper()
	visit, err := RequestVisit(context.Background(), f.db, f.parentID, RequestVisitInput{
		SchoolID:    f.school.SchoolID,
		StudentID:   "STU-001",
		VisitDate:   f.visitDay,
		NumVisitors: 2,
		Reason:      "term visit",
	})
	if err != nil {
		t.Fatalf("request visit: %v", err)
	}
	return visit
}

func (f *fixture) countNotifications(t *testing.T, userID uuid.UUID, notifType string) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&notifModel.NotificationModel{}).
		Where("notification_user_id = ? AND notification_type = ?", userID, notifType).
		Count(&n).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}

/* ===================== Request ===================== */

func TestRequestVisitCreatesPendingPayment(t *testing.T) {
	f := newFixture(t)
	visit := f.requestVisit(t)

	if visit.VisitStatus != model.VisitStatusPendingPayment {
		t.Fatalf("status = %s, want pending_payment", visit.VisitStatus)
	}
	if visit.VisitAmount != 200 {
		t.Fatalf("amount = %d, want 200", visit.VisitAmount)
	}
	codeRe := regexp.MustCompile(`^GRE-\d{4}-\d{4}$`)
	if !codeRe.MatchString(visit.VisitCode) {
		t.Fatalf("visit code %q does not match expected shape", visit.VisitCode)
	}
}

func TestRequestVisitRejectsNonVisitingDay(t *testing.T) {
	f := newFixture(t)

	_, err := RequestVisit(context.Background(), f.db, f.parentID, RequestVisitInput{
		SchoolID:  f.school.SchoolID,
		StudentID: "STU-001",
		VisitDate: f.visitDay.AddDate(0, 0, 3),
	})
	if err != ErrNotVisitingDay {
		t.Fatalf("err = %v, want ErrNotVisitingDay", err)
	}
}

func TestRequestVisitEnforcesVisitorLimit(t *testing.T) {
	f := newFixture(t)

	_, err := RequestVisit(context.Background(), f.db, f.parentID, RequestVisitInput{
		SchoolID:    f.school.SchoolID,
		StudentID:   "STU-001",
		VisitDate:   f.visitDay,
		NumVisitors: 5,
	})
	if err != ErrTooManyVisitors {
		t.Fatalf("err = %v, want ErrTooManyVisitors", err)
	}
}

func TestRequestVisitUnknownSchool(t *testing.T) {
	f := newFixture(t)

	_, err := RequestVisit(context.Background(), f.db, f.parentID, RequestVisitInput{
		SchoolID:  uuid.New(),
		StudentID: "STU-001",
		VisitDate: f.visitDay,
	})
	if err != ErrSchoolNotFound {
		t.Fatalf("err = %v, want ErrSchoolNotFound", err)
	}
}

/* ===================== Approve / Reject ===================== */

func TestApproveFromPendingAndRejected(t *testing.T) {
	f := newFixture(t)
	visit := f.requestVisit(t)

	approved, err := ApproveVisit(f.db, f.school.SchoolID, visit.VisitCode, "ok")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.VisitStatus != model.VisitStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", approved.VisitStatus)
	}
	if got := f.countNotifications(t, f.parentID, notifModel.TypeVisitApproved); got != 1 {
		t.Fatalf("approved notifications = %d, want 1", got)
	}

	// confirmed → rejected boleh, lalu re-approve juga boleh
	rejected, err := RejectVisit(f.db, f.school.SchoolID, visit.VisitCode, "security concern")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.VisitStatus != model.VisitStatusRejected {
		t.Fatalf("status = %s, want rejected", rejected.VisitStatus)
	}
	if rejected.VisitReason != "security concern" {
		t.Fatalf("reason = %q, want stored rejection reason", rejected.VisitReason)
	}

	if _, err := ApproveVisit(f.db, f.school.SchoolID, visit.VisitCode, ""); err != nil {
		t.Fatalf("re-approve from rejected: %v", err)
	}
}

func TestApproveFromTerminalFails(t *testing.T) {
	f := newFixture(t)
	visit := f.requestVisit(t)

	if _, err := CancelVisit(f.db, f.parentID, visit.VisitCode, "changed plans"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := ApproveVisit(f.db, f.school.SchoolID, visit.VisitCode, ""); err != ErrCannotApprove {
		t.Fatalf("err = %v, want ErrCannotApprove", err)
	}
}

func TestRejectReasonTooShort(t *testing.T) {
	f := newFixture(t)
	visit := f.requestVisit(t)

	if _, err := RejectVisit(f.db, f.school.SchoolID, visit.VisitCode, "no"); err != ErrRejectReasonTooShort {
		t.Fatalf("err = %v, want ErrRejectReasonTooShort", err)
	}
}

func TestApproveScopedToSchool(t *testing.T) {
	f := newFixture(t)
	visit := f.requestVisit(t)

	// Sekolah lain tidak boleh tahu visit ini ada → not found, bukan conflict
	if _, err := ApproveVisit(f.db, uuid.New(), visit.VisitCode, ""); err != ErrVisitNotFound {
		t.Fatalf("err = %v, want ErrVisitNotFound", err)
	}
}

/* ===================== Cancel ===================== */

func TestCancelClosesPendingPayment(t *testing.T) {
	f := newFixture(t)
	visit := f.requestVisit(t)

	payment := paymentModel.PaymentModel{
		PaymentRef:      "GP-1-TESTREF01",
		PaymentVisitID:  visit.VisitID,
		PaymentParentID: f.parentID,
		PaymentSchoolID: f.school.SchoolID,
		PaymentAmount:   200,
		PaymentCurrency: "RWF",
		PaymentMethod:   paymentModel.PaymentMethodMomo,
		PaymentStatus:   paymentModel.PaymentStatusPending,
	}
	if err := f.db.Create(&payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	cancelled, err := CancelVisit(f.db, f.parentID, visit.VisitCode, "family emergency")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.VisitStatus != model.VisitStatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.VisitStatus)
	}

	var reloaded paymentModel.PaymentModel
	if err := f.db.First(&reloaded, "payment_id = ?", payment.PaymentID).Error; err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if reloaded.PaymentStatus != paymentModel.PaymentStatusCancelled {
		t.Fatalf("payment status = %s, want cancelled", reloaded.PaymentStatus)
	}

	// Admin sekolah dapat notifikasi pembatalan
	if got := f.countNotifications(t, f.adminID, notifModel.TypeVisitCancelled); got != 1 {
		t.Fatalf("admin cancel notifications = %d, want 1", got)
	}

	// cancel ulang dari terminal → conflict
	if _, err := CancelVisit(f.db, f.parentID, visit.VisitCode, "again"); err != ErrCannotCancel {
		t.Fatalf("err = %v, want ErrCannotCancel", err)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	f := newFixture(t)
	visit := f.requestVisit(t)

	if _, err := CancelVisit(f.db, f.parentID, visit.VisitCode, "  "); err != ErrReasonRequired {
		t.Fatalf("err = %v, want ErrReasonRequired", err)
	}
}

/* ===================== Check-in ===================== */

func TestCheckInFlow(t *testing.T) {
	f := newFixture(t)
	visit := f.requestVisit(t)
	securityID := uuid.New()

	// belum confirmed → ditolak dengan error spesifik
	if _, err := CheckInVisit(f.db, f.school.SchoolID, securityID, visit.VisitCode, ""); err != ErrNotConfirmed {
		t.Fatalf("err = %v, want ErrNotConfirmed", err)
	}

	if _, err := ApproveVisit(f.db, f.school.SchoolID, visit.VisitCode, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	checked, err := CheckInVisit(f.db, f.school.SchoolID, securityID, visit.VisitCode, "2 visitors at gate")
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if checked.VisitStatus != model.VisitStatusCheckedIn {
		t.Fatalf("status = %s, want checked_in", checked.VisitStatus)
	}
	if checked.VisitCheckInTime == nil {
		t.Fatal("check-in time not stamped")
	}
	if checked.VisitCheckInBy == nil || *checked.VisitCheckInBy != securityID {
		t.Fatal("check-in actor not stamped")
	}

	// check-in kedua → error "already", bukan "not confirmed"
	if _, err := CheckInVisit(f.db, f.school.SchoolID, securityID, visit.VisitCode, ""); err != ErrAlreadyCheckedIn {
		t.Fatalf("err = %v, want ErrAlreadyCheckedIn", err)
	}
}

/* ===================== QR ===================== */

func TestQRCodeIdempotent(t *testing.T) {
	f := newFixture(t)
	visit := f.requestVisit(t)

	// belum confirmed → belum ada QR
	if _, err := EnsureQRCode(f.db, visit); err != ErrVisitNotConfirmed {
		t.Fatalf("err = %v, want ErrVisitNotConfirmed", err)
	}

	confirmed, err := ApproveVisit(f.db, f.school.SchoolID, visit.VisitCode, "")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	first, err := EnsureQRCode(f.db, confirmed)
	if err != nil {
		t.Fatalf("qr first: %v", err)
	}
	second, err := EnsureQRCode(f.db, confirmed)
	if err != nil {
		t.Fatalf("qr second: %v", err)
	}
	if first != second {
		t.Fatal("QR payload changed between calls")
	}

	raw, err := base64.StdEncoding.DecodeString(first)
	if err != nil {
		t.Fatalf("decode qr: %v", err)
	}
	var payload map[string]any
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal qr: %v", err)
	}
	if payload["visit_code"] != confirmed.VisitCode {
		t.Fatalf("qr visit_code = %v, want %s", payload["visit_code"], confirmed.VisitCode)
	}
}

/* ===================== Aggregates ===================== */

func TestCountBlockingVisits(t *testing.T) {
	f := newFixture(t)
	visit := f.requestVisit(t)

	// pending_payment tidak memblokir
	n, err := CountBlockingVisits(f.db, f.school.SchoolID, f.visitDay)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("blocking = %d, want 0", n)
	}

	if _, err := ApproveVisit(f.db, f.school.SchoolID, visit.VisitCode, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	n, err = CountBlockingVisits(f.db, f.school.SchoolID, f.visitDay)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("blocking = %d, want 1", n)
	}
}

func TestSearchVisitsHonorsDayBounds(t *testing.T) {
	f := newFixture(t)

	visit, err := RequestVisit(context.Background(), f.db, f.parentID, RequestVisitInput{
		SchoolID:     f.school.SchoolID,
		StudentID:    "STU-001",
		VisitDate:    f.visitDay,
		NumVisitors:  2,
		VisitorNames: []string{"Jean Bosco", "Claudine Uwase"},
	})
	if err != nil {
		t.Fatalf("request visit: %v", err)
	}

	// batas hari yang memuat tanggal visit → ketemu
	start := f.visitDay
	end := start.AddDate(0, 0, 1)
	got, err := SearchVisits(f.db, f.school.SchoolID, "claudine", start, end)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].VisitID != visit.VisitID {
		t.Fatalf("search hits = %d, want the seeded visit", len(got))
	}

	// batas hari berikutnya (mis. hari kalender timezone lain) → kosong
	got, err = SearchVisits(f.db, f.school.SchoolID, "claudine", end, end.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("search hits outside bounds = %d, want 0", len(got))
	}
}

func TestCountByStatus(t *testing.T) {
	f := newFixture(t)
	visit := f.requestVisit(t)
	if _, err := ApproveVisit(f.db, f.school.SchoolID, visit.VisitCode, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	rows, err := CountByStatus(f.db, f.school.SchoolID, nil, nil)
	if err != nil {
		t.Fatalf("count by status: %v", err)
	}
	found := false
	for _, r := range rows {
		if r.Status == model.VisitStatusConfirmed {
			found = true
			if r.Count != 1 || r.TotalVisitors != 2 {
				t.Fatalf("confirmed row = %+v, want count 1 visitors 2", r)
			}
		}
	}
	if !found {
		t.Fatal("no confirmed row in aggregate")
	}
}
