package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	notifModel "gatepass_backend/internals/features/notifications/model"
	notifService "gatepass_backend/internals/features/notifications/service"
	"gatepass_backend/internals/features/payments/model"
	visitService "gatepass_backend/internals/features/visits/service"
	helper "gatepass_backend/internals/helpers"
)

// Ledger pembayaran gate pass. Ledger memiliki status payment;
// transisi visit yang dipicu pembayaran didelegasikan ke lifecycle
// service visit (satu pemilik per shared state).

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidMethod   = errors.New("unsupported payment method")
	ErrNotRefundable   = errors.New("only completed payments can be refunded")
)

/* ===================== Initialize ===================== */

type InitializeInput struct {
	VisitCode   string
	Method      string
	PhoneNumber string
	// Identitas customer untuk provider (snapshot dari profil parent)
	CustomerName  string
	CustomerEmail string
}

// InitializePayment buka tagihan baru untuk visit pending_payment.
// Mirror di row visit dijaga conditional: visit yang sudah keluar dari
// pending_payment menolak inisialisasi (race dua tab ditutup di DB).
func InitializePayment(db *gorm.DB, parentID uuid.UUID, in InitializeInput) (*model.PaymentModel, error) {
	if !model.ValidMethod(in.Method) {
		return nil, ErrInvalidMethod
	}

	visit, err := visitService.GetVisitForParent(db, parentID, strings.TrimSpace(in.VisitCode))
	if err != nil {
		return nil, err
	}

	payment := &model.PaymentModel{
		PaymentID:          uuid.New(),
		PaymentRef:         helper.GeneratePaymentRef(time.Now()),
		PaymentVisitID:     visit.VisitID,
		PaymentParentID:    parentID,
		PaymentSchoolID:    visit.VisitSchoolID,
		PaymentAmount:      visit.VisitAmount,
		PaymentCurrency:    "RWF",
		PaymentMethod:      in.Method,
		PaymentStatus:      model.PaymentStatusPending,
		PaymentPhoneNumber: strings.TrimSpace(in.PhoneNumber),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		// Gagal bila visit bukan lagi pending_payment
		return visitService.MirrorPaymentInitialized(tx, visit.VisitID, payment.PaymentRef)
	})
	if err != nil {
		return nil, err
	}

	// Pemanggilan provider di luar transaksi DB — kegagalan gateway
	// menyisakan payment pending yang bisa ditagih ulang / expire.
	if in.Method == model.PaymentMethodMidtrans {
		token, redirectURL, gerr := GenerateSnapToken(payment, CustomerInput{
			FirstName: in.CustomerName,
			Email:     in.CustomerEmail,
			Phone:     in.PhoneNumber,
		})
		if gerr != nil {
			log.Printf("[WARN] snap token %s gagal: %v", payment.PaymentRef, gerr)
		} else {
			payment.PaymentExternalID = token
			payment.PaymentPayURL = redirectURL
			if err := db.Model(payment).Updates(map[string]any{
				"payment_external_id": token,
				"payment_pay_url":     redirectURL,
			}).Error; err != nil {
				return nil, err
			}
		}
	}

	return payment, nil
}

/* ===================== Confirm (webhook) ===================== */

type ConfirmInput struct {
	// Salah satu wajib: referensi internal atau ID provider
	PaymentRef        string
	ExternalPaymentID string
	Succeeded         bool
	// ID transaksi final dari provider, disimpan di payment_external_id
	TransactionID string
	FailureReason string
	ProviderMeta  map[string]any
}

// ConfirmPayment proses callback provider. Idempotent terhadap replay:
// notifikasi status yang sudah tercatat → no-op, tanpa efek samping.
func ConfirmPayment(db *gorm.DB, in ConfirmInput) (*model.PaymentModel, error) {
	payment, err := findForConfirm(db, in)
	if err != nil {
		return nil, err
	}

	// Replay: webhook ulang dengan hasil yang sudah tercatat
	if in.Succeeded && payment.PaymentStatus == model.PaymentStatusCompleted {
		return payment, nil
	}
	if !in.Succeeded && payment.PaymentStatus == model.PaymentStatusFailed {
		return payment, nil
	}

	if in.Succeeded {
		return confirmCompleted(db, payment, in)
	}
	return confirmFailed(db, payment, in)
}

func findForConfirm(db *gorm.DB, in ConfirmInput) (*model.PaymentModel, error) {
	q := db.Model(&model.PaymentModel{})
	switch {
	case in.ExternalPaymentID != "":
		q = q.Where("payment_external_id = ?", in.ExternalPaymentID)
	case in.PaymentRef != "":
		q = q.Where("payment_ref = ?", in.PaymentRef)
	default:
		return nil, ErrPaymentNotFound
	}

	var payment model.PaymentModel
	if err := q.First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func confirmCompleted(db *gorm.DB, payment *model.PaymentModel, in ConfirmInput) (*model.PaymentModel, error) {
	now := time.Now()

	err := db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"payment_status":        model.PaymentStatusCompleted,
			"payment_paid_at":       &now,
			"payment_processed_at":  &now,
			"payment_provider_meta": datatypes.JSONMap(in.ProviderMeta),
		}
		if in.TransactionID != "" {
			updates["payment_external_id"] = in.TransactionID
		}
		res := tx.Model(&model.PaymentModel{}).
			Where("payment_id = ? AND payment_status = ?", payment.PaymentID, model.PaymentStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Kalah balapan dengan webhook lain / payment sudah ditutup
			return nil
		}

		// Dana tercatat apa pun nasib visit-nya. Visit yang sudah ditutup
		// jalur lain (reject/cancel) tidak di-confirm ulang — active false.
		visit, active, err := visitService.ApplyPaymentCompleted(tx, payment.PaymentVisitID)
		if err != nil {
			return err
		}

		if active {
			notifService.Notify(tx, payment.PaymentParentID, notifModel.TypePaymentSuccess,
				"Payment received",
				fmt.Sprintf("Payment of %d %s for visit %s was successful. Your visit is confirmed.",
					payment.PaymentAmount, payment.PaymentCurrency, visit.VisitCode),
				map[string]any{"payment_ref": payment.PaymentRef, "visit_code": visit.VisitCode})
			notifService.NotifySchoolAdmins(tx, payment.PaymentSchoolID, notifModel.TypeVisitConfirmed,
				"Visit confirmed",
				fmt.Sprintf("Visit %s has been paid and confirmed.", visit.VisitCode),
				map[string]any{"visit_code": visit.VisitCode})
		} else {
			notifService.Notify(tx, payment.PaymentParentID, notifModel.TypePaymentSuccess,
				"Payment received",
				fmt.Sprintf("Payment of %d %s for visit %s was received, but the visit is no longer active. Please contact the school about a refund.",
					payment.PaymentAmount, payment.PaymentCurrency, visit.VisitCode),
				map[string]any{"payment_ref": payment.PaymentRef, "visit_code": visit.VisitCode})
			notifService.NotifySchoolAdmins(tx, payment.PaymentSchoolID, notifModel.TypePaymentSuccess,
				"Payment received for inactive visit",
				fmt.Sprintf("Payment %s was received for visit %s, which is no longer active. A refund may be required.",
					payment.PaymentRef, visit.VisitCode),
				map[string]any{"payment_ref": payment.PaymentRef, "visit_code": visit.VisitCode})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := db.First(payment, "payment_id = ?", payment.PaymentID).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func confirmFailed(db *gorm.DB, payment *model.PaymentModel, in ConfirmInput) (*model.PaymentModel, error) {
	now := time.Now()

	err := db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"payment_status":         model.PaymentStatusFailed,
			"payment_processed_at":   &now,
			"payment_failure_reason": in.FailureReason,
			"payment_provider_meta":  datatypes.JSONMap(in.ProviderMeta),
		}
		if in.TransactionID != "" {
			updates["payment_external_id"] = in.TransactionID
		}
		res := tx.Model(&model.PaymentModel{}).
			Where("payment_id = ? AND payment_status = ?", payment.PaymentID, model.PaymentStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		// Visit TETAP pending_payment — parent boleh coba bayar lagi
		if err := visitService.ApplyPaymentFailed(tx, payment.PaymentVisitID); err != nil {
			return err
		}

		notifService.Notify(tx, payment.PaymentParentID, notifModel.TypePaymentFailed,
			"Payment failed",
			fmt.Sprintf("Payment %s failed: %s. You can try again.", payment.PaymentRef, in.FailureReason),
			map[string]any{"payment_ref": payment.PaymentRef, "reason": in.FailureReason})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := db.First(payment, "payment_id = ?", payment.PaymentID).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

/* ===================== Refund ===================== */

// RefundPayment: refund penuh payment completed → visit cancelled.
// schoolID uuid.Nil = akses global (system_admin), selain itu
// di-scope ke sekolah pemanggil.
func RefundPayment(db *gorm.DB, schoolID uuid.UUID, paymentRef, reason string) (*model.PaymentModel, error) {
	q := db.Where("payment_ref = ?", paymentRef)
	if schoolID != uuid.Nil {
		q = q.Where("payment_school_id = ?", schoolID)
	}

	var payment model.PaymentModel
	if err := q.First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.PaymentModel{}).
			Where("payment_id = ? AND payment_status = ?", payment.PaymentID, model.PaymentStatusCompleted).
			Updates(map[string]any{
				"payment_status":        model.PaymentStatusRefunded,
				"payment_refunded_at":   &now,
				"payment_refund_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotRefundable
		}

		visit, err := visitService.ApplyPaymentRefunded(tx, payment.PaymentVisitID)
		if err != nil {
			return err
		}

		notifService.Notify(tx, payment.PaymentParentID, notifModel.TypePaymentRefunded,
			"Payment refunded",
			fmt.Sprintf("Payment %s has been refunded and visit %s cancelled.", payment.PaymentRef, visit.VisitCode),
			map[string]any{"payment_ref": payment.PaymentRef, "visit_code": visit.VisitCode, "reason": reason})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := db.First(&payment, "payment_id = ?", payment.PaymentID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

/* ===================== Expiry & stats ===================== */

// ExpireStalePayments tutup payment pending yang lewat jendela bayar.
// Visit TIDAK disentuh (tetap pending_payment, bisa ditagih ulang).
func ExpireStalePayments(db *gorm.DB, now time.Time) (int64, error) {
	cutoff := now.Add(-model.PendingExpiry)
	res := db.Model(&model.PaymentModel{}).
		Where("payment_status = ? AND created_at < ?", model.PaymentStatusPending, cutoff).
		Updates(map[string]any{
			"payment_status":         model.PaymentStatusCancelled,
			"payment_failure_reason": "payment window expired",
		})
	return res.RowsAffected, res.Error
}

type PaymentStat struct {
	Status      string `json:"status"`
	Count       int64  `json:"count"`
	TotalAmount int64  `json:"total_amount"`
}

// StatsBySchool agregasi ledger per status untuk satu sekolah.
func StatsBySchool(db *gorm.DB, schoolID uuid.UUID, from, to *time.Time) ([]PaymentStat, error) {
	q := db.Model(&model.PaymentModel{}).
		Select("payment_status AS status, COUNT(*) AS count, COALESCE(SUM(payment_amount),0) AS total_amount").
		Where("payment_school_id = ?", schoolID).
		Group("payment_status")
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at < ?", *to)
	}

	var rows []PaymentStat
	err := q.Find(&rows).Error
	return rows, err
}
