package controller

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"gatepass_backend/internals/configs"
	userModel "gatepass_backend/internals/features/users/model"
	visitService "gatepass_backend/internals/features/visits/service"
	helper "gatepass_backend/internals/helpers"

	"gatepass_backend/internals/features/payments/dto"
	"gatepass_backend/internals/features/payments/model"
	"gatepass_backend/internals/features/payments/service"
)

type PaymentController struct {
	DB *gorm.DB
}

func NewPaymentController(db *gorm.DB) *PaymentController {
	return &PaymentController{DB: db}
}

/* ===================== Parent ===================== */

// POST /api/u/payments — buka tagihan untuk visit pending_payment
func (ctrl *PaymentController) InitializePayment(c *fiber.Ctx) error {
	var body dto.InitializePaymentRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	body.Normalize()
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	parentID := helper.GetUserUUID(c)

	// Snapshot identitas untuk provider
	var parent userModel.UserModel
	if err := ctrl.DB.Select("user_name, user_email, user_phone").
		First(&parent, "user_id = ?", parentID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "User not found")
	}

	phone := body.PhoneNumber
	if phone == "" {
		phone = parent.UserPhone
	}

	payment, err := service.InitializePayment(ctrl.DB, parentID, service.InitializeInput{
		VisitCode:     body.VisitCode,
		Method:        body.Method,
		PhoneNumber:   phone,
		CustomerName:  parent.UserName,
		CustomerEmail: parent.UserEmail,
	})
	if err != nil {
		return mapPaymentError(err)
	}
	return helper.JsonCreated(c, "Payment initialized", payment)
}

// GET /api/u/payments — riwayat pembayaran parent
func (ctrl *PaymentController) ListMyPayments(c *fiber.Ctx) error {
	parentID := helper.GetUserUUID(c)
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.Model(&model.PaymentModel{}).Where("payment_parent_id = ?", parentID)
	if status := c.Query("status"); status != "" {
		q = q.Where("payment_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menghitung pembayaran")
	}

	var payments []model.PaymentModel
	if err := q.Order("created_at DESC").
		Offset(paging.Offset).Limit(paging.Limit).
		Find(&payments).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil pembayaran")
	}
	return helper.JsonList(c, "ok", payments, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// GET /api/u/payments/:ref — status satu pembayaran (polling client)
func (ctrl *PaymentController) GetMyPayment(c *fiber.Ctx) error {
	parentID := helper.GetUserUUID(c)
	ref := strings.TrimSpace(c.Params("ref"))

	var payment model.PaymentModel
	if err := ctrl.DB.
		Where("payment_ref = ? AND payment_parent_id = ?", ref, parentID).
		First(&payment).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Payment not found")
	}
	return helper.JsonOK(c, "ok", payment)
}

/* ===================== Webhook (public) ===================== */

// POST /api/payments/confirm — callback provider, idempotent.
// Saat PAYMENT_WEBHOOK_SECRET diset, header X-Webhook-Secret wajib cocok.
func (ctrl *PaymentController) Webhook(c *fiber.Ctx) error {
	if configs.PaymentWebhookSecret != "" &&
		c.Get("X-Webhook-Secret") != configs.PaymentWebhookSecret {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid webhook secret")
	}

	var body dto.WebhookRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	body.Normalize()
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	payment, err := service.ConfirmPayment(ctrl.DB, service.ConfirmInput{
		PaymentRef:        body.PaymentRef,
		ExternalPaymentID: body.ExternalPaymentID,
		Succeeded:         body.Status == "completed",
		TransactionID:     body.TransactionID,
		FailureReason:     body.FailureReason,
		ProviderMeta:      body.Meta,
	})
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		log.Printf("[ERROR] webhook confirm: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to process payment callback")
	}
	return helper.JsonOK(c, "Payment processed", fiber.Map{
		"payment_ref":    payment.PaymentRef,
		"payment_status": payment.PaymentStatus,
	})
}

/* ===================== School admin ===================== */

// GET /api/a/payments — ledger sekolah
func (ctrl *PaymentController) ListSchoolPayments(c *fiber.Ctx) error {
	schoolID := helper.GetSchoolUUID(c)
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.Model(&model.PaymentModel{}).Where("payment_school_id = ?", schoolID)
	if status := c.Query("status"); status != "" {
		q = q.Where("payment_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal menghitung pembayaran")
	}

	var payments []model.PaymentModel
	if err := q.Order("created_at DESC").
		Offset(paging.Offset).Limit(paging.Limit).
		Find(&payments).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil pembayaran")
	}
	return helper.JsonList(c, "ok", payments, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// PATCH /api/a/payments/:ref/refund
func (ctrl *PaymentController) RefundPayment(c *fiber.Ctx) error {
	var body dto.RefundPaymentRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	schoolID := helper.GetSchoolUUID(c)
	payment, err := service.RefundPayment(ctrl.DB, schoolID, strings.TrimSpace(c.Params("ref")), body.Reason)
	if err != nil {
		return mapPaymentError(err)
	}
	return helper.JsonUpdated(c, "Payment refunded", payment)
}

// GET /api/a/payments/stats?from=&to=
func (ctrl *PaymentController) Stats(c *fiber.Ctx) error {
	schoolID := helper.GetSchoolUUID(c)

	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "from must be in YYYY-MM-DD format")
		}
		from = &parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "to must be in YYYY-MM-DD format")
		}
		end := parsed.AddDate(0, 0, 1)
		to = &end
	}

	stats, err := service.StatsBySchool(ctrl.DB, schoolID, from, to)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil statistik")
	}

	var totalCount, totalAmount, completedAmount int64
	for _, s := range stats {
		totalCount += s.Count
		totalAmount += s.TotalAmount
		if s.Status == model.PaymentStatusCompleted {
			completedAmount = s.TotalAmount
		}
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"by_status":        stats,
		"total_count":      totalCount,
		"total_amount":     totalAmount,
		"revenue_realized": completedAmount,
	})
}

/* ===================== Error mapping ===================== */

func mapPaymentError(err error) error {
	switch {
	case errors.Is(err, service.ErrPaymentNotFound),
		errors.Is(err, visitService.ErrVisitNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidMethod):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotRefundable),
		errors.Is(err, visitService.ErrNotPendingPayment):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Terjadi kesalahan pada server")
	}
}
