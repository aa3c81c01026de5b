package service

import (
	"errors"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"gatepass_backend/internals/features/payments/model"
)

/* =========================================================
   Midtrans Client
========================================================= */

var SnapClient snap.Client

// InitMidtrans dipanggil saat bootstrap app.
// useProduction=true untuk Production, false untuk Sandbox.
func InitMidtrans(serverKey string, useProduction bool) {
	if useProduction {
		SnapClient.New(serverKey, midtrans.Production)
	} else {
		SnapClient.New(serverKey, midtrans.Sandbox)
	}
}

type CustomerInput struct {
	FirstName string
	Email     string
	Phone     string
}

// GenerateSnapToken buat transaksi Snap untuk satu payment gate pass.
// OrderID = payment_ref (unik global), jadi webhook bisa lookup balik.
func GenerateSnapToken(p *model.PaymentModel, cust CustomerInput) (string, string, error) {
	if p.PaymentAmount <= 0 {
		return "", "", errors.New("invalid payment_amount")
	}
	if p.PaymentRef == "" {
		return "", "", errors.New("payment_ref is required (used as OrderID)")
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  p.PaymentRef,
			GrossAmt: int64(p.PaymentAmount),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: cust.FirstName,
			Email: cust.Email,
			Phone: cust.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       p.PaymentRef,
				Price:    int64(p.PaymentAmount),
				Qty:      1,
				Name:     "School visit gate pass",
				Category: "GATE_PASS",
			},
		},
	}

	resp, err := SnapClient.CreateTransaction(req)
	if err != nil {
		return "", "", err
	}
	return resp.Token, resp.RedirectURL, nil
}
