// internal/models/application.go
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/installment"

	"github.com/shopspring/decimal"
)

type Application struct {
	ID string `json:"id"`
	Applicant
	IDNumber     string           `json:"idNumber"`
	Verification VerifiedIdentity `json:"verification"`

	TotalAmount    decimal.Decimal `json:"totalAmount"`
	FirstPayment   decimal.Decimal `json:"firstPayment"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	FinalPayment   decimal.Decimal `json:"finalPayment"`
	Months         int             `json:"months"`
	Currency       string          `json:"currency"`
	CartItems      []CartItem      `json:"cartItems"`

	Status             installment.Status `json:"status"`
	AdminNotes         string             `json:"adminNotes,omitempty"`
	ApprovedBy         string             `json:"approvedBy,omitempty"`
	ApprovedAt         *time.Time         `json:"approvedAt,omitempty"`
	RejectedBy         string             `json:"rejectedBy,omitempty"`
	RejectedAt         *time.Time         `json:"rejectedAt,omitempty"`
	PaymentReference   string             `json:"paymentReference,omitempty"`
	PaymentCompletedAt *time.Time         `json:"paymentCompletedAt,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// Plan rebuilds the stored installment plan.
func (a *Application) Plan() *installment.Plan {
	return &installment.Plan{
		TotalAmount:    a.TotalAmount,
		FirstPayment:   a.FirstPayment,
		MonthlyPayment: a.MonthlyPayment,
		FinalPayment:   a.FinalPayment,
		Months:         a.Months,
		Currency:       a.Currency,
	}
}

type Applicant struct {
	FullName         string `json:"fullName"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	EmploymentStatus string `json:"employmentStatus"`
	MonthlyIncome    string `json:"monthlyIncome"`
	Organization     string `json:"organization,omitempty"`
}

type CartItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// VerifiedIdentity is the identity payload returned for a verified BVN.
type VerifiedIdentity struct {
	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Photo       string `json:"photo,omitempty"`

	IDNumberHash string `json:"idNumberHash,omitempty"`
}

func (v VerifiedIdentity) Name() installment.VerifiedName {
	return installment.VerifiedName{FirstName: v.FirstName, MiddleName: v.MiddleName, LastName: v.LastName}
}

// IDNumberDigest fingerprints an identity number.
func IDNumberDigest(number string) string {
	sum := sha256.Sum256([]byte("bvn:" + strings.TrimSpace(number)))
	return hex.EncodeToString(sum[:])
}

// BoundTo reports whether v was verified for number.
func (v VerifiedIdentity) BoundTo(number string) bool {
	return v.IDNumberHash != "" && v.IDNumberHash == IDNumberDigest(number)
}

// PaymentSession is the checkout handed back after a payment is initialized.
type PaymentSession struct {
	ApplicationID    string          `json:"applicationId"`
	Reference        string          `json:"reference"`
	AuthorizationURL string          `json:"authorizationUrl"`
	AccessCode       string          `json:"accessCode"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
}
