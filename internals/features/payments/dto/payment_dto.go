package dto

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

/* =======================================================
   REQUEST DTOs
   ======================================================= */

type InitializePaymentRequest struct {
	VisitCode   string `json:"visit_code" validate:"required,min=5,max=20"`
	Method      string `json:"method" validate:"required,oneof=momo stripe flutterwave midtrans cash"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,min=5,max=30"`
}

func (r *InitializePaymentRequest) Normalize() {
	r.VisitCode = strings.TrimSpace(strings.ToUpper(r.VisitCode))
	r.Method = strings.TrimSpace(strings.ToLower(r.Method))
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
}

func (r *InitializePaymentRequest) Validate() error { return validate.Struct(r) }

// WebhookRequest: payload callback provider. Identifikasi pakai
// external_payment_id ATAU payment_ref, minimal salah satu.
type WebhookRequest struct {
	PaymentRef        string         `json:"payment_ref" validate:"omitempty,max=50"`
	ExternalPaymentID string         `json:"external_payment_id" validate:"omitempty,max=120"`
	Status            string         `json:"status" validate:"required,oneof=completed failed"`
	TransactionID     string         `json:"transaction_id" validate:"omitempty,max=120"`
	FailureReason     string         `json:"failure_reason" validate:"omitempty,max=500"`
	Meta              map[string]any `json:"meta"`
}

func (r *WebhookRequest) Normalize() {
	r.PaymentRef = strings.TrimSpace(r.PaymentRef)
	r.ExternalPaymentID = strings.TrimSpace(r.ExternalPaymentID)
	r.Status = strings.TrimSpace(strings.ToLower(r.Status))
	r.TransactionID = strings.TrimSpace(r.TransactionID)
}

func (r *WebhookRequest) Validate() error {
	if r.PaymentRef == "" && r.ExternalPaymentID == "" {
		return errMissingIdentifier
	}
	return validate.Struct(r)
}

var errMissingIdentifier = &identifierError{}

type identifierError struct{}

func (e *identifierError) Error() string {
	return "payment_ref or external_payment_id is required"
}

type RefundPaymentRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

func (r *RefundPaymentRequest) Validate() error { return validate.Struct(r) }
