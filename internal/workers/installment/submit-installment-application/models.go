// internal/workers/installment/submit-installment-application/models.go
package submitinstallmentapplication

import (
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/installment"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/models"

	"github.com/shopspring/decimal"
)

// Input is read from the process variables. Verification is the output of
// identity verification earlier in the process.
type Input struct {
	models.Applicant
	IDNumber       string                   `json:"idNumber"`
	Verification   *models.VerifiedIdentity `json:"verification"`
	TotalAmount    decimal.Decimal          `json:"totalAmount"`
	FirstPayment   decimal.Decimal          `json:"firstPayment"`
	MonthlyPayment decimal.Decimal          `json:"monthlyPayment"`
	Months         int                      `json:"months"`
	CartItems      []models.CartItem        `json:"cartItems"`
}

type Output struct {
	ApplicationID     string             `json:"applicationId"`
	ApplicationStatus installment.Status `json:"applicationStatus"`
	FirstPayment      decimal.Decimal    `json:"firstPayment"`
	MonthlyPayment    decimal.Decimal    `json:"monthlyPayment"`
	FinalPayment      decimal.Decimal    `json:"finalPayment"`
	Months            int                `json:"months"`
	Currency          string             `json:"currency"`
	CreatedAt         time.Time          `json:"createdAt"`
}
