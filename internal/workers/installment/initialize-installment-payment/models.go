// internal/workers/installment/initialize-installment-payment/models.go
package initializeinstallmentpayment

import "github.com/shopspring/decimal"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	PaymentReference string          `json:"paymentReference"`
	AuthorizationURL string          `json:"authorizationUrl"`
	AccessCode       string          `json:"accessCode"`
	PaymentAmount    decimal.Decimal `json:"paymentAmount"`
	Currency         string          `json:"currency"`
}
