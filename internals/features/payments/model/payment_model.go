package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Constants ===================== */

// Status ledger pembayaran. completed & refunded itu terminal,
// failed masih boleh ditagih ulang (visit tetap pending_payment).
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusCancelled = "cancelled"
)

const (
	PaymentMethodMomo        = "momo"
	PaymentMethodStripe      = "stripe"
	PaymentMethodFlutterwave = "flutterwave"
	PaymentMethodMidtrans    = "midtrans"
	PaymentMethodCash        = "cash"
)

var AllPaymentMethods = []string{
	PaymentMethodMomo,
	PaymentMethodStripe,
	PaymentMethodFlutterwave,
	PaymentMethodMidtrans,
	PaymentMethodCash,
}

// Payment pending lebih tua dari ini dianggap kedaluwarsa
const PendingExpiry = 15 * time.Minute

/* ===================== Model ===================== */

type PaymentModel struct {
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey" json:"payment_id"`

	// Referensi internal: GP-<epoch-ms>-<9 alnum>
	PaymentRef string `gorm:"column:payment_ref;type:varchar(50);not null;unique;index" json:"payment_ref"`

	PaymentVisitID  uuid.UUID `gorm:"column:payment_visit_id;type:uuid;not null;index" json:"payment_visit_id"`
	PaymentParentID uuid.UUID `gorm:"column:payment_parent_id;type:uuid;not null;index" json:"payment_parent_id"`
	PaymentSchoolID uuid.UUID `gorm:"column:payment_school_id;type:uuid;not null;index" json:"payment_school_id"`

	PaymentAmount   int    `gorm:"column:payment_amount;not null;check:payment_amount >= 0" json:"payment_amount"`
	PaymentCurrency string `gorm:"column:payment_currency;type:varchar(5);not null;default:'RWF'" json:"payment_currency"`
	PaymentMethod   string `gorm:"column:payment_method;type:varchar(20);not null" json:"payment_method"`

	PaymentStatus string `gorm:"column:payment_status;type:varchar(20);not null;default:'pending';index" json:"payment_status"`

	// ID transaksi di sisi provider — kunci lookup webhook
	PaymentExternalID string `gorm:"column:payment_external_id;size:120;index" json:"payment_external_id,omitempty"`
	PaymentPayURL     string `gorm:"column:payment_pay_url;type:text" json:"payment_pay_url,omitempty"`

	PaymentPhoneNumber string `gorm:"column:payment_phone_number;size:30" json:"payment_phone_number,omitempty"`

	PaymentPaidAt *time.Time `gorm:"column:payment_paid_at" json:"payment_paid_at,omitempty"`
	// Kapan callback provider terakhir diproses (sukses maupun gagal)
	PaymentProcessedAt *time.Time `gorm:"column:payment_processed_at" json:"payment_processed_at,omitempty"`
	PaymentRefundedAt  *time.Time `gorm:"column:payment_refunded_at" json:"payment_refunded_at,omitempty"`

	PaymentFailureReason string `gorm:"column:payment_failure_reason;type:text" json:"payment_failure_reason,omitempty"`
	PaymentRefundReason  string `gorm:"column:payment_refund_reason;type:text" json:"payment_refund_reason,omitempty"`

	// Payload mentah dari provider, disimpan apa adanya untuk audit
	PaymentProviderMeta datatypes.JSONMap `gorm:"column:payment_provider_meta" json:"payment_provider_meta,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (PaymentModel) TableName() string { return "payments" }

func (p *PaymentModel) BeforeCreate(tx *gorm.DB) error {
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	return nil
}

func (p *PaymentModel) IsTerminal() bool {
	return p.PaymentStatus == PaymentStatusCompleted ||
		p.PaymentStatus == PaymentStatusRefunded ||
		p.PaymentStatus == PaymentStatusCancelled
}

// IsExpired: pending yang melewati jendela bayar
func (p *PaymentModel) IsExpired(now time.Time) bool {
	return p.PaymentStatus == PaymentStatusPending && now.Sub(p.CreatedAt) > PendingExpiry
}

func ValidMethod(method string) bool {
	for _, m := range AllPaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
