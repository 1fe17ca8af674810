// internal/workers/installment/confirm-installment-payment/models.go
package confirminstallmentpayment

import (
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/installment"

	"github.com/shopspring/decimal"
)

// Input carries the reference from the payment webhook message.
type Input struct {
	PaymentReference string `json:"paymentReference"`
}

type Output struct {
	ApplicationID      string             `json:"applicationId"`
	ApplicationStatus  installment.Status `json:"applicationStatus"`
	PaymentReference   string             `json:"paymentReference"`
	AmountPaid         decimal.Decimal    `json:"amountPaid"`
	PaidAt             string             `json:"paidAt,omitempty"`
	PaymentCompletedAt *time.Time         `json:"paymentCompletedAt"`
}
