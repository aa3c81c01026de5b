package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Constants ===================== */

// Domain status visit — transisi legal hanya lewat service lifecycle,
// tidak ada code path lain yang boleh menulis visit_status.
const (
	VisitStatusPendingPayment = "pending_payment"
	VisitStatusConfirmed      = "confirmed"
	VisitStatusRejected       = "rejected"
	VisitStatusCheckedIn      = "checked_in" // terminal
	VisitStatusCancelled      = "cancelled"  // terminal
)

// Mirror status pembayaran di row visit (sumber kebenaran: tabel payments)
const (
	VisitPaymentPending   = "pending"
	VisitPaymentCompleted = "completed"
	VisitPaymentFailed    = "failed"
	VisitPaymentRefunded  = "refunded"
)

var AllVisitStatuses = []string{
	VisitStatusPendingPayment,
	VisitStatusConfirmed,
	VisitStatusRejected,
	VisitStatusCheckedIn,
	VisitStatusCancelled,
}

/* ===================== Model ===================== */

type VisitModel struct {
	VisitID uuid.UUID `gorm:"column:visit_id;type:uuid;primaryKey" json:"visit_id"`

	// Kode shareable: <PFX>-<tahun>-<4 digit>, immutable setelah dibuat
	VisitCode string `gorm:"column:visit_code;type:varchar(20);not null;unique;index" json:"visit_code"`

	VisitParentID uuid.UUID `gorm:"column:visit_parent_id;type:uuid;not null;index" json:"visit_parent_id"`
	VisitSchoolID uuid.UUID `gorm:"column:visit_school_id;type:uuid;not null;index:idx_visits_school_date" json:"visit_school_id"`

	VisitStudentID string `gorm:"column:visit_student_id;size:50;not null" json:"visit_student_id"`
	// Snapshot saat request (dari direktori siswa, bila dikonfigurasi)
	VisitStudentName  string `gorm:"column:visit_student_name;size:150" json:"visit_student_name,omitempty"`
	VisitStudentClass string `gorm:"column:visit_student_class;size:50" json:"visit_student_class,omitempty"`

	VisitDate        time.Time `gorm:"column:visit_date;not null;index:idx_visits_school_date" json:"visit_date"`
	VisitNumVisitors int       `gorm:"column:visit_num_visitors;not null;default:1;check:visit_num_visitors >= 1" json:"visit_num_visitors"`
	VisitReason      string    `gorm:"column:visit_reason;type:text" json:"visit_reason,omitempty"`

	VisitStatus        string `gorm:"column:visit_status;type:varchar(20);not null;default:'pending_payment';index" json:"visit_status"`
	VisitApprovalNotes string `gorm:"column:visit_approval_notes;type:text" json:"visit_approval_notes,omitempty"`

	// Mirror linkage pembayaran
	VisitPaymentRef    string `gorm:"column:visit_payment_ref;size:100" json:"visit_payment_ref,omitempty"`
	VisitPaymentStatus string `gorm:"column:visit_payment_status;type:varchar(20);default:'pending'" json:"visit_payment_status"`

	VisitAmount int `gorm:"column:visit_amount;not null;default:200" json:"visit_amount"` // RWF

	// Di-generate sekali saat confirmed, idempotent setelahnya
	VisitQRCode string `gorm:"column:visit_qr_code;type:text" json:"visit_qr_code,omitempty"`

	// Di-set paling banyak sekali (gate check-in)
	VisitCheckInTime *time.Time `gorm:"column:visit_check_in_time" json:"visit_check_in_time,omitempty"`
	VisitCheckInBy   *uuid.UUID `gorm:"column:visit_check_in_by;type:uuid" json:"visit_check_in_by,omitempty"`

	VisitVisitorNames  datatypes.JSONSlice[string] `gorm:"column:visit_visitor_names" json:"visit_visitor_names,omitempty"`
	VisitVisitorPhones datatypes.JSONSlice[string] `gorm:"column:visit_visitor_phones" json:"visit_visitor_phones,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (VisitModel) TableName() string { return "visits" }

func (v *VisitModel) BeforeCreate(tx *gorm.DB) error {
	if v.VisitID == uuid.Nil {
		v.VisitID = uuid.New()
	}
	return nil
}

func (v *VisitModel) IsTerminal() bool {
	return v.VisitStatus == VisitStatusCheckedIn || v.VisitStatus == VisitStatusCancelled
}
