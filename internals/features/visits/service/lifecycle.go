package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/gorm"

	notifModel "gatepass_backend/internals/features/notifications/model"
	notifService "gatepass_backend/internals/features/notifications/service"
	paymentModel "gatepass_backend/internals/features/payments/model"
	schoolModel "gatepass_backend/internals/features/schools/model"
	schoolService "gatepass_backend/internals/features/schools/service"
	"gatepass_backend/internals/features/visits/model"
	helper "gatepass_backend/internals/helpers"
)

// Lifecycle engine: SATU-SATUNYA tempat visit_status ditulis.
// Semua transisi pakai conditional UPDATE (status precondition di WHERE)
// supaya race antar aktor (admin vs gate vs webhook) tidak merusak state.

/* ===================== Errors ===================== */

var (
	ErrSchoolNotFound       = errors.New("school not found")
	ErrVisitNotFound        = errors.New("visit not found")
	ErrNotVisitingDay       = errors.New("selected date is not a visiting day")
	ErrTooManyVisitors      = errors.New("visitor count exceeds school limit")
	ErrCannotApprove        = errors.New("visit cannot be approved from current status")
	ErrCannotReject         = errors.New("visit cannot be rejected from current status")
	ErrCannotCancel         = errors.New("visit cannot be cancelled")
	ErrNotConfirmed         = errors.New("only confirmed visits can be checked in")
	ErrAlreadyCheckedIn     = errors.New("visitor already checked in")
	ErrVisitNotConfirmed    = errors.New("visit must be confirmed to generate QR code")
	ErrReasonRequired       = errors.New("reason is required")
	ErrRejectReasonTooShort = errors.New("rejection reason must be at least 3 characters")
	ErrNotPendingPayment    = errors.New("visit is not in pending payment status")
)

/* ===================== Request visit ===================== */

type RequestVisitInput struct {
	SchoolID      uuid.UUID
	StudentID     string
	VisitDate     time.Time
	NumVisitors   int
	Reason        string
	VisitorNames  []string
	VisitorPhones []string
}

// RequestVisit: parent minta kunjungan → visit baru pending_payment.
// Validasi: sekolah aktif, tanggal ada di katalog visiting day,
// jumlah pengunjung <= limit sekolah, siswa ada di direktori (bila
// integrasi dikonfigurasi — lookup gagal memblokir pembuatan).
func RequestVisit(ctx context.Context, db *gorm.DB, parentID uuid.UUID, in RequestVisitInput) (*model.VisitModel, error) {
	var school schoolModel.SchoolModel
	if err := db.Where("school_id = ? AND school_is_active = ?", in.SchoolID, true).
		First(&school).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, err
	}

	visitDate := schoolModel.NormalizeDate(in.VisitDate)
	var dayCount int64
	if err := db.Model(&schoolModel.VisitingDayModel{}).
		Where("visiting_day_school_id = ? AND visiting_day_date = ?", school.SchoolID, visitDate).
		Count(&dayCount).Error; err != nil {
		return nil, err
	}
	if dayCount == 0 {
		return nil, ErrNotVisitingDay
	}

	numVisitors := in.NumVisitors
	if numVisitors < 1 {
		numVisitors = 1
	}
	if school.SchoolMaxVisitorsPerVisit > 0 && numVisitors > school.SchoolMaxVisitorsPerVisit {
		return nil, ErrTooManyVisitors
	}

	// Snapshot identitas siswa — hard precondition saat direktori aktif
	var studentName, studentClass string
	if school.HasDirectory() {
		student, err := schoolService.LookupStudent(ctx, school.SchoolApiURL, school.SchoolApiKey, in.StudentID)
		if err != nil {
			return nil, err
		}
		studentName = student.Name
		studentClass = student.Class
	}

	visit := &model.VisitModel{
		VisitParentID:     parentID,
		VisitSchoolID:     school.SchoolID,
		VisitStudentID:    in.StudentID,
		VisitStudentName:  studentName,
		VisitStudentClass: studentClass,
		VisitDate:         visitDate,
		VisitNumVisitors:  numVisitors,
		VisitReason:       strings.TrimSpace(in.Reason),
		VisitStatus:       model.VisitStatusPendingPayment,
		VisitAmount:       school.VisitFeeOrDefault(),
	}
	if len(in.VisitorNames) > 0 {
		visit.VisitVisitorNames = in.VisitorNames
	}
	if len(in.VisitorPhones) > 0 {
		visit.VisitVisitorPhones = in.VisitorPhones
	}

	// Kode unik global — retry saat suffix time-derived tabrakan
	for attempt := 0; attempt < 5; attempt++ {
		if attempt == 0 {
			visit.VisitCode = helper.GenerateVisitCode(school.SchoolName, time.Now())
		} else {
			visit.VisitCode = fmt.Sprintf("%s-%d-%04d",
				helper.VisitCodePrefix(school.SchoolName), time.Now().Year(), rand.Intn(10000))
		}
		visit.VisitID = uuid.New()
		err := db.Create(visit).Error
		if err == nil {
			return visit, nil
		}
		if !isDuplicateKeyErr(err) {
			return nil, err
		}
	}
	return nil, errors.New("failed to allocate unique visit code")
}

func isDuplicateKeyErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

/* ===================== Admin transitions ===================== */

// ApproveVisit: pending_payment | rejected → confirmed.
// Re-approve visit yang pernah ditolak itu legal; dari terminal tidak.
func ApproveVisit(db *gorm.DB, schoolID uuid.UUID, visitCode, notes string) (*model.VisitModel, error) {
	res := db.Model(&model.VisitModel{}).
		Where("visit_code = ? AND visit_school_id = ? AND visit_status IN ?",
			visitCode, schoolID,
			[]string{model.VisitStatusPendingPayment, model.VisitStatusRejected}).
		Updates(map[string]any{
			"visit_status":         model.VisitStatusConfirmed,
			"visit_approval_notes": notes,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, classifyMiss(db, schoolID, visitCode, ErrCannotApprove)
	}

	visit, err := getByCodeForSchool(db, schoolID, visitCode)
	if err != nil {
		return nil, err
	}
	notifService.Notify(db, visit.VisitParentID, notifModel.TypeVisitApproved,
		"Visit approved",
		fmt.Sprintf("Your visit %s has been approved.", visit.VisitCode),
		map[string]any{"visit_code": visit.VisitCode})
	return visit, nil
}

// RejectVisit: pending_payment | confirmed → rejected. Reason wajib (>= 3).
func RejectVisit(db *gorm.DB, schoolID uuid.UUID, visitCode, reason string) (*model.VisitModel, error) {
	if len(strings.TrimSpace(reason)) < 3 {
		return nil, ErrRejectReasonTooShort
	}

	res := db.Model(&model.VisitModel{}).
		Where("visit_code = ? AND visit_school_id = ? AND visit_status IN ?",
			visitCode, schoolID,
			[]string{model.VisitStatusPendingPayment, model.VisitStatusConfirmed}).
		Updates(map[string]any{
			"visit_status": model.VisitStatusRejected,
			"visit_reason": reason,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, classifyMiss(db, schoolID, visitCode, ErrCannotReject)
	}

	visit, err := getByCodeForSchool(db, schoolID, visitCode)
	if err != nil {
		return nil, err
	}
	notifService.Notify(db, visit.VisitParentID, notifModel.TypeVisitRejected,
		"Visit rejected",
		fmt.Sprintf("Your visit %s was rejected: %s", visit.VisitCode, reason),
		map[string]any{"visit_code": visit.VisitCode, "reason": reason})
	return visit, nil
}

/* ===================== Parent transitions ===================== */

// CancelVisit: pending_payment | confirmed → cancelled (terminal).
// Payment pending milik visit ikut di-cancel di ledger.
func CancelVisit(db *gorm.DB, parentID uuid.UUID, visitCode, reason string) (*model.VisitModel, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	res := db.Model(&model.VisitModel{}).
		Where("visit_code = ? AND visit_parent_id = ? AND visit_status IN ?",
			visitCode, parentID,
			[]string{model.VisitStatusPendingPayment, model.VisitStatusConfirmed}).
		Updates(map[string]any{
			"visit_status": model.VisitStatusCancelled,
			"visit_reason": reason,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var v model.VisitModel
		err := db.Where("visit_code = ? AND visit_parent_id = ?", visitCode, parentID).First(&v).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrCannotCancel
	}

	visit, err := getByCodeForParent(db, parentID, visitCode)
	if err != nil {
		return nil, err
	}

	// Payment pending milik visit ini ikut ditutup — completed tidak
	// disentuh (refund jalur terpisah lewat ledger).
	if err := db.Model(&paymentModel.PaymentModel{}).
		Where("payment_visit_id = ? AND payment_status = ?", visit.VisitID, paymentModel.PaymentStatusPending).
		Update("payment_status", paymentModel.PaymentStatusCancelled).Error; err != nil {
		return nil, err
	}

	notifService.NotifySchoolAdmins(db, visit.VisitSchoolID, notifModel.TypeVisitCancelled,
		"Visit cancelled",
		fmt.Sprintf("Visit %s was cancelled by the parent: %s", visit.VisitCode, reason),
		map[string]any{"visit_code": visit.VisitCode, "reason": reason})
	return visit, nil
}

/* ===================== Gate transition ===================== */

// CheckInVisit: confirmed → checked_in, stamp waktu + petugas.
// Precondition ganda di WHERE: status tepat confirmed DAN belum pernah
// check-in. Kegagalan dibedakan: "already checked in" vs "not confirmed".
func CheckInVisit(db *gorm.DB, schoolID, securityID uuid.UUID, visitCode, notes string) (*model.VisitModel, error) {
	now := time.Now()
	res := db.Model(&model.VisitModel{}).
		Where("visit_code = ? AND visit_school_id = ? AND visit_status = ? AND visit_check_in_time IS NULL",
			visitCode, schoolID, model.VisitStatusConfirmed).
		Updates(map[string]any{
			"visit_status":         model.VisitStatusCheckedIn,
			"visit_check_in_time":  &now,
			"visit_check_in_by":    securityID,
			"visit_approval_notes": notes,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var v model.VisitModel
		err := db.Where("visit_code = ? AND visit_school_id = ?", visitCode, schoolID).First(&v).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		if err != nil {
			return nil, err
		}
		if v.VisitCheckInTime != nil {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, ErrNotConfirmed
	}

	visit, err := getByCodeForSchool(db, schoolID, visitCode)
	if err != nil {
		return nil, err
	}
	notifService.Notify(db, visit.VisitParentID, notifModel.TypeVisitCheckedIn,
		"Visitor checked in",
		fmt.Sprintf("Visitors for visit %s have checked in at the gate.", visit.VisitCode),
		map[string]any{"visit_code": visit.VisitCode, "check_in_time": now})
	return visit, nil
}

/* ===================== Payment-driven transitions ===================== */

// MirrorPaymentInitialized: tempel ref + mirror pending ke visit.
// WHERE status = pending_payment menjaga invariant "satu payment aktif":
// inisialisasi kedua saat visit sudah keluar dari pending_payment gagal.
func MirrorPaymentInitialized(db *gorm.DB, visitID uuid.UUID, paymentRef string) error {
	res := db.Model(&model.VisitModel{}).
		Where("visit_id = ? AND visit_status = ?", visitID, model.VisitStatusPendingPayment).
		Updates(map[string]any{
			"visit_payment_ref":    paymentRef,
			"visit_payment_status": model.VisitPaymentPending,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotPendingPayment
	}
	return nil
}

// ApplyPaymentCompleted: pending_payment → confirmed + materialize QR.
// Dipanggil ledger saat webhook completed. Visit yang sudah keluar dari
// pending_payment lewat jalur lain (reject/cancel) TIDAK disentuh
// statusnya dan QR tidak dibuat — dana tetap tercatat di ledger, mirror
// payment di visit ikut completed. Return kedua = true bila visit
// berstatus confirmed/checked_in setelah pemanggilan ini.
func ApplyPaymentCompleted(db *gorm.DB, visitID uuid.UUID) (*model.VisitModel, bool, error) {
	res := db.Model(&model.VisitModel{}).
		Where("visit_id = ? AND visit_status = ?", visitID, model.VisitStatusPendingPayment).
		Updates(map[string]any{
			"visit_status":         model.VisitStatusConfirmed,
			"visit_payment_status": model.VisitPaymentCompleted,
		})
	if res.Error != nil {
		return nil, false, res.Error
	}

	var visit model.VisitModel
	if err := db.First(&visit, "visit_id = ?", visitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrVisitNotFound
		}
		return nil, false, err
	}

	if res.RowsAffected == 0 && visit.VisitPaymentStatus != model.VisitPaymentCompleted {
		if err := db.Model(&model.VisitModel{}).
			Where("visit_id = ?", visitID).
			Update("visit_payment_status", model.VisitPaymentCompleted).Error; err != nil {
			return nil, false, err
		}
		visit.VisitPaymentStatus = model.VisitPaymentCompleted
	}

	active := visit.VisitStatus == model.VisitStatusConfirmed || visit.VisitStatus == model.VisitStatusCheckedIn
	if active {
		if _, err := EnsureQRCode(db, &visit); err != nil {
			return nil, false, err
		}
	}
	return &visit, active, nil
}

// ApplyPaymentFailed: visit TETAP pending_payment, hanya mirror failed.
func ApplyPaymentFailed(db *gorm.DB, visitID uuid.UUID) error {
	return db.Model(&model.VisitModel{}).
		Where("visit_id = ?", visitID).
		Update("visit_payment_status", model.VisitPaymentFailed).Error
}

// ApplyPaymentRefunded: refund penuh → visit cancelled + mirror refunded.
func ApplyPaymentRefunded(db *gorm.DB, visitID uuid.UUID) (*model.VisitModel, error) {
	res := db.Model(&model.VisitModel{}).
		Where("visit_id = ?", visitID).
		Updates(map[string]any{
			"visit_status":         model.VisitStatusCancelled,
			"visit_payment_status": model.VisitPaymentRefunded,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	var visit model.VisitModel
	if err := db.First(&visit, "visit_id = ?", visitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	return &visit, nil
}

/* ===================== QR ===================== */

type qrPayload struct {
	VisitCode   string    `json:"visit_code"`
	ParentID    uuid.UUID `json:"parent_id"`
	SchoolID    uuid.UUID `json:"school_id"`
	StudentID   string    `json:"student_id"`
	VisitDate   time.Time `json:"visit_date"`
	NumVisitors int       `json:"num_visitors"`
}

// EnsureQRCode: generate payload QR sekali per visit, idempotent.
// Panggilan kedua mengembalikan payload identik tanpa mutasi apa pun.
func EnsureQRCode(db *gorm.DB, visit *model.VisitModel) (string, error) {
	if visit.VisitQRCode != "" {
		return visit.VisitQRCode, nil
	}
	if visit.VisitStatus != model.VisitStatusConfirmed && visit.VisitStatus != model.VisitStatusCheckedIn {
		return "", ErrVisitNotConfirmed
	}

	raw, err := sonic.Marshal(qrPayload{
		VisitCode:   visit.VisitCode,
		ParentID:    visit.VisitParentID,
		SchoolID:    visit.VisitSchoolID,
		StudentID:   visit.VisitStudentID,
		VisitDate:   visit.VisitDate,
		NumVisitors: visit.VisitNumVisitors,
	})
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	// Guard di WHERE: penulis pertama menang saat dua request balapan.
	// Payload deterministik, jadi hasil akhirnya tetap sama.
	if err := db.Model(&model.VisitModel{}).
		Where("visit_id = ? AND (visit_qr_code IS NULL OR visit_qr_code = '')", visit.VisitID).
		Update("visit_qr_code", encoded).Error; err != nil {
		return "", err
	}

	var stored struct {
		VisitQRCode string
	}
	if err := db.Model(&model.VisitModel{}).
		Select("visit_qr_code").
		Where("visit_id = ?", visit.VisitID).
		Scan(&stored).Error; err != nil {
		return "", err
	}
	if stored.VisitQRCode == "" {
		stored.VisitQRCode = encoded
	}
	visit.VisitQRCode = stored.VisitQRCode
	return stored.VisitQRCode, nil
}

/* ===================== Queries ===================== */

// Scope miss = not found. 404, bukan 403, supaya keberadaan visit
// sekolah/parent lain tidak bocor.
func classifyMiss(db *gorm.DB, schoolID uuid.UUID, visitCode string, transitionErr error) error {
	var v model.VisitModel
	err := db.Where("visit_code = ? AND visit_school_id = ?", visitCode, schoolID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrVisitNotFound
	}
	if err != nil {
		return err
	}
	return transitionErr
}

func getByCodeForSchool(db *gorm.DB, schoolID uuid.UUID, visitCode string) (*model.VisitModel, error) {
	var v model.VisitModel
	err := db.Where("visit_code = ? AND visit_school_id = ?", visitCode, schoolID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVisitNotFound
	}
	return &v, err
}

func getByCodeForParent(db *gorm.DB, parentID uuid.UUID, visitCode string) (*model.VisitModel, error) {
	var v model.VisitModel
	err := db.Where("visit_code = ? AND visit_parent_id = ?", visitCode, parentID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVisitNotFound
	}
	return &v, err
}

// GetVisitForSchool / GetVisitForParent — akses scoped untuk controller
func GetVisitForSchool(db *gorm.DB, schoolID uuid.UUID, visitCode string) (*model.VisitModel, error) {
	return getByCodeForSchool(db, schoolID, visitCode)
}

func GetVisitForParent(db *gorm.DB, parentID uuid.UUID, visitCode string) (*model.VisitModel, error) {
	return getByCodeForParent(db, parentID, visitCode)
}

// CountBlockingVisits: jumlah visit confirmed/checked_in pada tanggal tsb.
// Dipakai katalog untuk menolak penghapusan visiting day (409).
func CountBlockingVisits(db *gorm.DB, schoolID uuid.UUID, date time.Time) (int64, error) {
	day := schoolModel.NormalizeDate(date)
	next := day.AddDate(0, 0, 1)

	var count int64
	err := db.Model(&model.VisitModel{}).
		Where("visit_school_id = ? AND visit_date >= ? AND visit_date < ? AND visit_status IN ?",
			schoolID, day, next,
			[]string{model.VisitStatusConfirmed, model.VisitStatusCheckedIn}).
		Count(&count).Error
	return count, err
}

type StatusCount struct {
	Status        string `json:"status"`
	Count         int64  `json:"count"`
	TotalVisitors int64  `json:"total_visitors"`
}

// CountByStatus: agregasi per status, opsional dibatasi rentang tanggal.
func CountByStatus(db *gorm.DB, schoolID uuid.UUID, from, to *time.Time) ([]StatusCount, error) {
	q := db.Model(&model.VisitModel{}).
		Select("visit_status AS status, COUNT(*) AS count, COALESCE(SUM(visit_num_visitors),0) AS total_visitors").
		Where("visit_school_id = ?", schoolID).
		Group("visit_status")
	if from != nil {
		q = q.Where("visit_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("visit_date < ?", *to)
	}

	var rows []StatusCount
	err := q.Find(&rows).Error
	return rows, err
}

// SearchVisits: substring case-insensitive atas nama siswa / nama / telp
// pengunjung. Batas hari diterima eksplisit supaya caller bisa pakai
// hari kalender di timezone sekolah (sama dengan papan gerbang).
func SearchVisits(db *gorm.DB, schoolID uuid.UUID, query string, start, end time.Time) ([]model.VisitModel, error) {
	like := "%" + strings.ToLower(query) + "%"

	var visits []model.VisitModel
	err := db.Where("visit_school_id = ? AND visit_date >= ? AND visit_date < ?", schoolID, start, end).
		Where(db.Where("LOWER(visit_student_name) LIKE ?", like).
			Or("LOWER(CAST(visit_visitor_names AS TEXT)) LIKE ?", like).
			Or("LOWER(CAST(visit_visitor_phones AS TEXT)) LIKE ?", like)).
		Order("visit_date ASC").
		Find(&visits).Error
	return visits, err
}
